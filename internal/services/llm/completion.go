package llm

import (
	"fmt"
	"strings"
)

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content      string        `json:"content"`
	ToolCalls    []toolCall    `json:"tool_calls"`
	FunctionCall *functionCall `json:"function_call"`
	Refusal      string        `json:"refusal"`
}

type toolCall struct {
	Type     string       `json:"type"`
	ID       string       `json:"id"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// extractCompletionPayload returns the first usable payload and the first
// finish reason. When toolName is set, arguments of a call to that tool win
// over message content.
func extractCompletionPayload(completion chatCompletionResponse, toolName string) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if toolName != "" {
			if args := firstNonEmpty(
				toolCallArguments(choice.Message.ToolCalls, toolName),
				toolCallArguments(choice.Delta.ToolCalls, toolName),
				functionCallArguments(choice.Message.FunctionCall, toolName),
			); args != "" {
				return args, finishReason
			}
		}
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, finishReason
		}
		if args := firstNonEmpty(
			toolCallArguments(choice.Message.ToolCalls, ""),
			toolCallArguments(choice.Delta.ToolCalls, ""),
			functionCallArguments(choice.Message.FunctionCall, ""),
			functionCallArguments(choice.Delta.FunctionCall, ""),
		); args != "" {
			return args, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func functionCallArguments(fc *functionCall, name string) string {
	if fc == nil {
		return ""
	}
	if name != "" && fc.Name != name {
		return ""
	}
	return strings.TrimSpace(fc.Arguments)
}

func toolCallArguments(calls []toolCall, name string) string {
	for _, call := range calls {
		if name != "" && call.Function.Name != name {
			continue
		}
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
