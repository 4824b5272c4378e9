package config

const (
	defaultOutputDir         = "~/.local/share/pdfpod/output"
	defaultStateDir          = "~/.local/share/pdfpod"
	defaultLogDir            = "~/.local/share/pdfpod/logs"
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "openai/gpt-4o"
	defaultLLMReferer        = "https://github.com/pdfpod/pdfpod"
	defaultLLMTitle          = "pdfpod"
	defaultLLMTimeoutSeconds = 180
	defaultLLMMaxTokens      = 8192
	defaultTTSBaseURL        = "https://api.elevenlabs.io"
	defaultTTSModelID        = "eleven_monolingual_v1"
	defaultTTSOutputFormat   = "pcm_44100"
	defaultTTSTimeoutSeconds = 600
	defaultTTSStability      = 0.5
	defaultTTSSimilarity     = 0.5
	defaultTTSSeed           = 42
	defaultConcurrency       = 2
	defaultMaxAttempts       = 5
	defaultBackoffBaseMS     = 1000
	defaultBackoffMaxMS      = 30000
	defaultOverlapLeadMS     = 850
	defaultCrossfadeCapMS    = 10
	defaultMinLengthMS       = 10
	defaultOutputFile        = "full_podcast.wav"
	defaultMaxTextLength     = 800
	defaultMaxOverlapDepth   = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultMinFreeMiB        = 256
	defaultNtfyTimeout       = 10
)

func defaultVoices() []Voice {
	return []Voice{
		{Name: "Aaradhya", ID: "fNmfW5GlQ7PDakGkiTzs", Description: "female, soft and caring, young, conversational"},
		{Name: "Chris", ID: "iP95p4xoKVk53GoZ742B", Description: "male, American, casual, middle-aged"},
		{Name: "Eric", ID: "cjVigY5qzO86Huf0OWal", Description: "male, American, friendly, middle-aged"},
		{Name: "Jessica", ID: "cgSgspJ2msm6clMCkdW9", Description: "female, American, expressive, young"},
		{Name: "Ramkrishnan", ID: "vipJZKBNu38Qo9xBYnTn", Description: "male, Indian, calm, young"},
		{Name: "Sally", ID: "qPhq8YzcFyamA1iXeyEU", Description: "female, American, relaxed, young"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTokens:      defaultLLMMaxTokens,
		},
		TTS: TTS{
			BaseURL:         defaultTTSBaseURL,
			ModelID:         defaultTTSModelID,
			OutputFormat:    defaultTTSOutputFormat,
			Stability:       defaultTTSStability,
			SimilarityBoost: defaultTTSSimilarity,
			Seed:            defaultTTSSeed,
			TimeoutSeconds:  defaultTTSTimeoutSeconds,
		},
		Synthesis: Synthesis{
			Concurrency:   defaultConcurrency,
			MaxAttempts:   defaultMaxAttempts,
			BackoffBaseMS: defaultBackoffBaseMS,
			BackoffMaxMS:  defaultBackoffMaxMS,
		},
		Composition: Composition{
			OverlapLeadMS:  defaultOverlapLeadMS,
			CrossfadeCapMS: defaultCrossfadeCapMS,
			MinLengthMS:    defaultMinLengthMS,
			OutputFile:     defaultOutputFile,
		},
		Dialogue: Dialogue{
			MaxTextLength:   defaultMaxTextLength,
			MaxOverlapDepth: defaultMaxOverlapDepth,
			Voices:          defaultVoices(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Preflight: Preflight{
			MinFreeMiB: defaultMinFreeMiB,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
	}
}
