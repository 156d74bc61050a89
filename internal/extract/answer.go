package extract

import (
	"fmt"

	"github.com/mind-engage/testforge/internal/document"
)

// Storage categories attached to every answer.
const (
	CategoryText     = "text"
	CategoryMCQ      = "mcq"
	CategoryForm     = "form"
	CategoryMatching = "matching"
)

// Span is a half-open rune range inside the text run an answer came from.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Answer is one correct value discovered while transforming a document.
type Answer struct {
	ID             string        `json:"id"`
	QuestionNumber int           `json:"questionNumber"`
	SourceKind     document.Kind `json:"sourceKind"`
	Category       string        `json:"category"`
	Value          string        `json:"value"`
	Span           Span          `json:"span"`
}

func answerID(category string, number int) string {
	return fmt.Sprintf("%s-%d", category, number)
}

// Category maps a node kind to the storage category of its answers.
func Category(k document.Kind) string {
	switch k {
	case document.KindMultipleChoice:
		return CategoryMCQ
	case document.KindFillInBlanks, document.KindLabeledDiagram:
		return CategoryForm
	case document.KindPairing:
		return CategoryMatching
	case document.KindSingleBlank, document.KindText:
		return CategoryText
	}
	return CategoryText
}
