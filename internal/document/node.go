package document

import (
	"bytes"
	"encoding/json"
)

// Kind is the value of a node's "type" field.
type Kind string

const (
	KindContainer Kind = "container"
	KindText      Kind = "text"

	KindSingleBlank    Kind = "single_blank"
	KindMultipleChoice Kind = "multiple_choice"
	KindFillInBlanks   Kind = "fill_in_blanks"
	KindPairing        Kind = "pairing"
	KindLabeledDiagram Kind = "labeled_diagram"
)

// IsQuestion reports whether k is one of the gradable question kinds.
func (k Kind) IsQuestion() bool {
	switch k {
	case KindSingleBlank, KindMultipleChoice, KindFillInBlanks, KindPairing, KindLabeledDiagram:
		return true
	}
	return false
}

// Box is one labeled target on a diagram.
type Box struct {
	Label  string  `json:"label,omitempty"`
	Answer string  `json:"answer"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

// QuestionAttrs carries the attributes of every question kind. Fields not
// used by a node's kind stay zero.
type QuestionAttrs struct {
	AuthoringMode *bool  `json:"authoringMode,omitempty"` // nil means authoring
	DisplayNumber *int   `json:"displayNumber,omitempty"`
	Prompt        string `json:"prompt,omitempty"`

	// single_blank candidates, fill_in_blanks answers
	Answers []string `json:"answers,omitempty"`

	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`

	LeftItems  []string `json:"leftItems,omitempty"`
	RightItems []string `json:"rightItems,omitempty"`

	Boxes    []Box  `json:"boxes,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Authoring reports whether the node still shows its answers.
func (a *QuestionAttrs) Authoring() bool {
	return a == nil || a.AuthoringMode == nil || *a.AuthoringMode
}

// Node is one element of a document tree. Question kinds keep their attrs in
// Question; every other kind keeps attrs verbatim in Attrs.
type Node struct {
	Type    Kind
	Text    string
	Marks   json.RawMessage
	Content []*Node

	Question *QuestionAttrs
	Attrs    json.RawMessage
}

type wireNode struct {
	Type    Kind            `json:"type"`
	Text    string          `json:"text,omitempty"`
	Marks   json.RawMessage `json:"marks,omitempty"`
	Content []*Node         `json:"content,omitempty"`
	Attrs   json.RawMessage `json:"attrs,omitempty"`
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*n = Node{Type: w.Type, Text: w.Text, Marks: w.Marks, Content: w.Content}
	if !w.Type.IsQuestion() {
		n.Attrs = w.Attrs
		return nil
	}
	n.Question = decodeQuestionAttrs(w.Attrs)
	return nil
}

// decodeQuestionAttrs reads each attribute on its own. A field of the wrong
// type is left zero; the other fields of the node are kept.
func decodeQuestionAttrs(raw json.RawMessage) *QuestionAttrs {
	q := &QuestionAttrs{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return q
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return q
	}
	field(m, "authoringMode", &q.AuthoringMode)
	field(m, "displayNumber", &q.DisplayNumber)
	field(m, "prompt", &q.Prompt)
	field(m, "answers", &q.Answers)
	field(m, "options", &q.Options)
	field(m, "correctIndex", &q.CorrectIndex)
	field(m, "leftItems", &q.LeftItems)
	field(m, "rightItems", &q.RightItems)
	field(m, "boxes", &q.Boxes)
	field(m, "imageUrl", &q.ImageURL)
	return q
}

func field[T any](m map[string]json.RawMessage, key string, dst *T) {
	raw, ok := m[key]
	if !ok {
		return
	}
	var v T
	if json.Unmarshal(raw, &v) == nil {
		*dst = v
	}
}

func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Type: n.Type, Text: n.Text, Marks: n.Marks, Content: n.Content, Attrs: n.Attrs}
	if n.Question != nil {
		raw, err := json.Marshal(n.Question)
		if err != nil {
			return nil, err
		}
		w.Attrs = raw
	}
	return json.Marshal(w)
}

// Clone returns a deep copy of n that shares no memory with it.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := n.CloneWithoutContent()
	if n.Content != nil {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = child.Clone()
		}
	}
	return c
}

// CloneWithoutContent deep-copies everything on n except its children.
func (n *Node) CloneWithoutContent() *Node {
	c := &Node{
		Type:  n.Type,
		Text:  n.Text,
		Marks: cloneRaw(n.Marks),
		Attrs: cloneRaw(n.Attrs),
	}
	if n.Question != nil {
		c.Question = n.Question.Clone()
	}
	return c
}

func (a *QuestionAttrs) Clone() *QuestionAttrs {
	c := *a
	if a.AuthoringMode != nil {
		v := *a.AuthoringMode
		c.AuthoringMode = &v
	}
	if a.DisplayNumber != nil {
		v := *a.DisplayNumber
		c.DisplayNumber = &v
	}
	if a.CorrectIndex != nil {
		v := *a.CorrectIndex
		c.CorrectIndex = &v
	}
	c.Answers = cloneStrings(a.Answers)
	c.Options = cloneStrings(a.Options)
	c.LeftItems = cloneStrings(a.LeftItems)
	c.RightItems = cloneStrings(a.RightItems)
	if a.Boxes != nil {
		c.Boxes = append([]Box(nil), a.Boxes...)
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if in == nil {
		return nil
	}
	return append(json.RawMessage(nil), in...)
}
