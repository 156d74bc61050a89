package extract

import (
	"encoding/json"
	"strings"

	"github.com/mind-engage/testforge/internal/document"
)

const joinSep = ", "

// pairing is the lossless value of a pairing question.
type pairing struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// ExtractQuestion derives the answer of one question node and returns a
// student-facing copy numbered next. The number is consumed whether or not an
// answer was found; the returned answer is nil when the value is empty or the
// node is already student-facing.
func ExtractQuestion(n *document.Node, next int) (*document.Node, *Answer, int) {
	out := n.Clone()
	if out.Question == nil {
		out.Question = &document.QuestionAttrs{}
	}
	q := out.Question

	var value string
	if q.Authoring() {
		value = questionValue(out.Type, q)
	}

	stripAnswers(out.Type, q)
	authoring := false
	number := next
	q.AuthoringMode = &authoring
	q.DisplayNumber = &number

	if value == "" {
		return out, nil, next + 1
	}
	category := Category(out.Type)
	return out, &Answer{
		ID:             answerID(category, next),
		QuestionNumber: next,
		SourceKind:     out.Type,
		Category:       category,
		Value:          value,
	}, next + 1
}

func questionValue(k document.Kind, q *document.QuestionAttrs) string {
	switch k {
	case document.KindSingleBlank, document.KindFillInBlanks:
		return strings.Join(q.Answers, joinSep)
	case document.KindMultipleChoice:
		idx := 0
		if q.CorrectIndex != nil {
			idx = *q.CorrectIndex
		}
		if idx < 0 || idx >= len(q.Options) {
			return ""
		}
		return q.Options[idx]
	case document.KindPairing:
		if len(q.LeftItems) == 0 && len(q.RightItems) == 0 {
			return ""
		}
		p := pairing{Left: q.LeftItems, Right: q.RightItems}
		if p.Left == nil {
			p.Left = []string{}
		}
		if p.Right == nil {
			p.Right = []string{}
		}
		b, err := json.Marshal(p)
		if err != nil {
			return ""
		}
		return string(b)
	case document.KindLabeledDiagram:
		parts := make([]string, len(q.Boxes))
		for i, box := range q.Boxes {
			parts[i] = box.Answer
		}
		return strings.Join(parts, joinSep)
	}
	return ""
}

// stripAnswers removes answer values while keeping what a student needs to
// render the question.
func stripAnswers(k document.Kind, q *document.QuestionAttrs) {
	switch k {
	case document.KindSingleBlank:
		q.Answers = []string{""}
	case document.KindMultipleChoice:
		q.CorrectIndex = nil
	case document.KindFillInBlanks:
		q.Answers = make([]string, len(q.Answers))
	case document.KindLabeledDiagram:
		for i := range q.Boxes {
			q.Boxes[i].Answer = ""
		}
	case document.KindPairing:
	}
}

// ParsePairing decodes a pairing answer value.
func ParsePairing(value string) (left, right []string, ok bool) {
	var p pairing
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return nil, nil, false
	}
	return p.Left, p.Right, true
}
