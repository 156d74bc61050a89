package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mind-engage/testforge/internal/document"
	"github.com/mind-engage/testforge/internal/extract"
	"github.com/mind-engage/testforge/internal/grading"
)

type transformOut struct {
	Tree           *document.Node    `json:"tree,omitempty"`
	Markup         *string           `json:"markup,omitempty"`
	Answers        []extract.Answer  `json:"answers"`
	Key            grading.AnswerKey `json:"key"`
	TotalQuestions int               `json:"totalQuestions"`
}

// POST /transform   body: authoring tree
func TransformHandler(maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		root, err := document.Decode(body)
		if err != nil {
			writeError(w, err)
			return
		}
		res := extract.Transform(root)
		writeJSON(w, http.StatusOK, transformOut{
			Tree:           res.Tree,
			Answers:        res.Answers,
			Key:            grading.CreateAnswerMapping(res.Answers),
			TotalQuestions: res.TotalQuestions,
		})
	}
}

// POST /transform/markup   body: {"markup": "..."}
func TransformMarkupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Markup string `json:"markup"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		markup, answers := extract.ExtractMarkup(req.Markup)
		writeJSON(w, http.StatusOK, transformOut{
			Markup:         &markup,
			Answers:        answers,
			Key:            grading.CreateAnswerMapping(answers),
			TotalQuestions: len(answers),
		})
	}
}
