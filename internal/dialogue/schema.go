package dialogue

// Tool schemas are built as plain maps so the enumerated voice set and the
// overlap depth come from configuration.

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func voiceProp(voiceIDs []string) map[string]any {
	prop := stringProp("Voice id of the speaker")
	if len(voiceIDs) > 0 {
		prop["enum"] = append([]string(nil), voiceIDs...)
	}
	return prop
}

func ideasSchema(voiceIDs []string) map[string]any {
	idea := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"observation":  stringProp("An observation from the input document"),
			"idea":         stringProp("A way to present it in conversation"),
			"outline":      stringProp("A rough outline for this part of the dialogue"),
			"key_insights": stringProp("The takeaways to reinforce"),
		},
		"required": []string{"observation", "idea", "outline", "key_insights"},
	}
	speaker := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"speaker_name":     stringProp("Invented first name"),
			"speaker_voice_id": voiceProp(voiceIDs),
		},
		"required": []string{"speaker_name", "speaker_voice_id"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"about_the_document": stringProp("A few sentences summarizing the document"),
			"ideas":              map[string]any{"type": "array", "items": idea},
			"speakers":           map[string]any{"type": "array", "items": speaker, "minItems": 2, "maxItems": 4},
		},
		"required": []string{"about_the_document", "ideas", "speakers"},
	}
}

// turnSchema unrolls overlap nesting up to depth levels instead of using
// $ref, which several providers reject in tool parameters.
func turnSchema(voiceIDs []string, maxText, depth int) map[string]any {
	props := map[string]any{
		"speaker":          stringProp("Name of the speaker"),
		"text":             map[string]any{"type": "string", "description": "What the speaker says", "maxLength": maxText},
		"speaker_voice_id": voiceProp(voiceIDs),
	}
	if depth > 0 {
		props["overlaps"] = map[string]any{
			"type":        "array",
			"description": "Turns spoken over the end of this turn",
			"items":       turnSchema(voiceIDs, maxText, depth-1),
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"speaker", "text", "speaker_voice_id"},
	}
}

func dialogueSchema(voiceIDs []string, maxText, depth int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dialogue": map[string]any{
				"type":  "array",
				"items": turnSchema(voiceIDs, maxText, depth),
			},
		},
		"required": []string{"dialogue"},
	}
}
