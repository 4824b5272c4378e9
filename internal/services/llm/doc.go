// Package llm provides an OpenAI-compatible chat completion client (OpenRouter
// by default) used to brainstorm and write podcast dialogue.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteTool: force a single function call and return its JSON arguments.
// Client.CompleteJSON: send system/user prompts, receive a JSON object response.
// Client.HealthCheck: verify API key and model availability with one request.
// DecodeLLMJSON: decode model output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// Completions retry on HTTP 408/429/5xx, network timeouts, and empty responses
// with exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Retry-After is honoured when present. Context cancellation aborts retries
// immediately.
package llm
