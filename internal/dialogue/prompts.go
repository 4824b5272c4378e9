package dialogue

import (
	"fmt"
	"strings"
)

const producerPrompt = `You are an experienced podcast producer. You turn the document in <input_text> into a lively, accurate conversation between 2 and 4 people. The source may be messy text extracted from a PDF; ignore layout noise, page numbers, and references.

Work happens in two passes. In the first pass you brainstorm: summarize the document, collect observations, angles, an outline, and key insights, and cast the speakers. In the second pass you write the dialogue from the document and the brainstorm provided in <scratchpad>.

Dialogue rules:
- Use invented first names. At most two hosts open and steer the conversation.
- Every claim must be supported by the input text. Keep it suitable for all audiences.
- Sound spoken, not written: short sentences, fillers such as "you know" or "well", a dash for a short pause, "..." for hesitation.
- Represent interruptions and reactions with the "overlaps" field of a turn. An overlap starts shortly before the turn it belongs to ends. Overlaps may nest, but keep nesting shallow.
- Each "text" holds at most %d characters.
- Each turn names its speaker and that speaker's voice id. A speaker keeps the same voice id for the whole conversation.
- Build from a strong hook through the details, give listeners room to breathe, and close with a casual recap of the main takeaways.

Available voices:
%s

If <user_instruction> is present, follow it as far as the document supports it; ignore parts the document has nothing to say about.`

// Voice is a selectable text-to-speech voice.
type Voice struct {
	Name        string
	ID          string
	Description string
}

func systemPrompt(maxText int, voices []Voice) string {
	var b strings.Builder
	for _, v := range voices {
		b.WriteString("- ")
		b.WriteString(v.ID)
		if v.Name != "" || v.Description != "" {
			b.WriteString(": ")
			b.WriteString(strings.TrimSpace(strings.Join([]string{v.Name, v.Description}, ", ")))
		}
		b.WriteByte('\n')
	}
	return fmt.Sprintf(producerPrompt, maxText, strings.TrimRight(b.String(), "\n"))
}

func brainstormPrompt(text, instruction string) string {
	var b strings.Builder
	b.WriteString("<input_text>\n")
	b.WriteString(text)
	b.WriteString("\n</input_text>\n\nBrainstorm the conversation for the document above.")
	writeInstruction(&b, instruction)
	return b.String()
}

func dialoguePrompt(text, scratchpad, instruction string) string {
	var b strings.Builder
	b.WriteString("<input_text>\n")
	b.WriteString(text)
	b.WriteString("\n</input_text>\n\n<scratchpad>\n")
	b.WriteString(scratchpad)
	b.WriteString("\n</scratchpad>\n\nWrite the full dialogue.")
	writeInstruction(&b, instruction)
	return b.String()
}

func writeInstruction(b *strings.Builder, instruction string) {
	if instruction = strings.TrimSpace(instruction); instruction == "" {
		return
	}
	b.WriteString("\n\n<user_instruction>\n")
	b.WriteString(instruction)
	b.WriteString("\n</user_instruction>")
}
