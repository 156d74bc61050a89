package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/testforge/internal/document"
	"github.com/mind-engage/testforge/internal/exam"
)

type sectionIn struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Kind     string          `json:"kind"`
	Document json.RawMessage `json:"document"`
	Markup   string          `json:"markup"`
}

type testIn struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	TimeLimitSec int         `json:"time_limit_sec"`
	Sections     []sectionIn `json:"sections"`
}

// toExam decodes every section tree through the validating decoder.
func (in testIn) toExam() (exam.Exam, error) {
	e := exam.Exam{ID: in.ID, Title: in.Title, TimeLimitSec: in.TimeLimitSec}
	for _, s := range in.Sections {
		doc, err := document.Decode(s.Document)
		if err != nil {
			return exam.Exam{}, fmt.Errorf("section %s: %w", s.ID, err)
		}
		e.Sections = append(e.Sections, exam.Section{
			ID: s.ID, Title: s.Title, Kind: s.Kind, Document: doc, Markup: s.Markup,
		})
	}
	return e, nil
}

// POST /tests. The body is capped at maxBytes.
func PublishTestHandler(svc *exam.Service, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		var in testIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e, err := in.toExam()
		if err != nil {
			writeError(w, err)
			return
		}
		p, err := svc.PublishExam(r.Context(), e)
		if err != nil {
			writeError(w, err)
			return
		}
		type sectionOut struct {
			ID             string `json:"id"`
			TotalQuestions int    `json:"total_questions"`
		}
		out := struct {
			ID       string       `json:"id"`
			Sections []sectionOut `json:"sections"`
		}{ID: p.Exam.ID, Sections: []sectionOut{}}
		for _, k := range p.Keys {
			out.Sections = append(out.Sections, sectionOut{ID: k.SectionID, TotalQuestions: k.TotalQuestions})
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func GetTestHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetExam(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func GetKeyHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := svc.GetKeys(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, keys)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, exam.ErrSectionCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, exam.ErrInvalidExam), errors.Is(err, document.ErrMalformedNode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
