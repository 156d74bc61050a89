package extract

import "github.com/mind-engage/testforge/internal/document"

// Result is the outcome of transforming one authoring tree.
type Result struct {
	Tree           *document.Node `json:"tree"`
	Answers        []Answer       `json:"answers"`
	TotalQuestions int            `json:"totalQuestions"`
}

// cursor threads the question counter and the answers found so far through
// one walk. Each Transform call owns its own cursor.
type cursor struct {
	next    int
	answers []Answer
}

// Transform rewrites an authoring tree into its student-facing form. The
// input tree is not modified. A nil tree yields an empty result.
func Transform(root *document.Node) Result {
	if root == nil {
		return Result{Answers: []Answer{}}
	}
	c := &cursor{next: 1, answers: []Answer{}}
	tree := c.walk(root)

	total := 0
	if len(c.answers) > 0 {
		total = c.next - 1
	}
	return Result{Tree: tree, Answers: c.answers, TotalQuestions: total}
}

func (c *cursor) walk(n *document.Node) *document.Node {
	if n == nil {
		return nil
	}
	switch {
	case n.Type == document.KindText:
		out := n.Clone()
		var found []Answer
		out.Text, found, c.next = ExtractText(n.Text, c.next)
		c.answers = append(c.answers, found...)
		return out

	case n.Type.IsQuestion():
		out, a, next := ExtractQuestion(n, c.next)
		if a != nil {
			c.answers = append(c.answers, *a)
		}
		c.next = next
		return out

	default:
		// containers and unknown kinds: walk children, keep the node itself
		out := n.CloneWithoutContent()
		if n.Content != nil {
			out.Content = make([]*document.Node, len(n.Content))
			for i, child := range n.Content {
				out.Content[i] = c.walk(child)
			}
		}
		return out
	}
}
