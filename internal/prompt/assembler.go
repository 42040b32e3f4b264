// Package prompt builds the ordered completion prompt for a chat turn from the
// retrieved documents, the user message and an optional attachment.
package prompt

import (
	"fmt"
	"log"
	"strings"

	"supportdesk/internal/ai"
	"supportdesk/internal/retrieval"
)

const (
	DefaultExcerptChars = 1000

	Instruction = "You are a helpful customer support AI. Use the following company documents to answer the user request if relevant. " +
		"If the answer is not in the documents, answer generally but politely.\n\n"
)

// Attachment is a file sent along with a chat message.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

func (a *Attachment) IsImage() bool {
	return a != nil && strings.HasPrefix(strings.ToLower(a.MIMEType), "image/")
}

type TextExtractor interface {
	Extract(data []byte, filename string) (string, error)
}

type Assembler struct {
	extractor    TextExtractor
	excerptChars int
}

func NewAssembler(extractor TextExtractor, excerptChars int) *Assembler {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	return &Assembler{
		extractor:    extractor,
		excerptChars: excerptChars,
	}
}

// Assemble never fails: an attachment whose text cannot be extracted becomes a placeholder part.
func (a *Assembler) Assemble(scored []retrieval.ScoredDocument, userMessage string, attachment *Attachment) []ai.Part {
	var preamble strings.Builder
	preamble.WriteString(Instruction)
	for i, s := range scored {
		fmt.Fprintf(&preamble, "Document %d (%s):\n%s\n\n", i+1, s.Document.Filename, excerpt(s.Document.Text, a.excerptChars))
	}

	parts := []ai.Part{
		ai.TextPart{Text: preamble.String()},
		ai.TextPart{Text: "User Query: " + userMessage},
	}
	if attachment == nil {
		return parts
	}

	if attachment.IsImage() {
		return append(parts, ai.BinaryPart{MIMEType: attachment.MIMEType, Data: attachment.Data})
	}

	if text := a.extractText(attachment); text != "" {
		return append(parts, ai.TextPart{Text: "\n\n[Attached Document Content]:\n" + text + "\n"})
	}
	return append(parts, ai.TextPart{Text: fmt.Sprintf("\n\n[Attached File: %s (Could not extract text)]", attachment.Filename)})
}

func (a *Assembler) extractText(attachment *Attachment) string {
	if a.extractor == nil {
		return ""
	}
	text, err := a.extractor.Extract(attachment.Data, attachment.Filename)
	if err != nil {
		log.Printf("[prompt] extract attachment %q failed: %v", attachment.Filename, err)
		return ""
	}
	return text
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
