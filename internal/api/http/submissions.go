package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/testforge/internal/auth/middleware"
	"github.com/mind-engage/testforge/internal/exam"
	"github.com/mind-engage/testforge/internal/rbac"
)

// POST /tests/{testID}/sections/{sectionID}/submissions
// body: {"answers": {"1": "..."}, "recordings": ["recordings/..."]}
func SubmitHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers    map[string]string `json:"answers"`
			Recordings []string          `json:"recordings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub, err := svc.Submit(r.Context(), exam.SubmitInput{
			ExamID:     chi.URLParam(r, "testID"),
			SectionID:  chi.URLParam(r, "sectionID"),
			UserID:     auth.SubjectFromContext(r.Context()),
			Answers:    req.Answers,
			Recordings: req.Recordings,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func GetSubmissionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub, err := svc.GetSubmission(ctx, chi.URLParam(r, "submissionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if sub.UserID != auth.SubjectFromContext(ctx) && !rbac.Can(ctx, rbac.PermSubmissionViewAll) {
			// don't reveal other users' submission ids
			http.Error(w, exam.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// progressUser is the user whose progress is asked for: ?user_id, else the
// caller.
func progressUser(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return auth.SubjectFromContext(r.Context())
}

// IsProgressOwner reports whether the caller asks for their own progress.
func IsProgressOwner(r *http.Request) bool {
	sub := auth.SubjectFromContext(r.Context())
	return sub != "" && progressUser(r) == sub
}

// GET /tests/{testID}/progress[?user_id=...]
// Other users' progress is gated by the route (RequireOwnerOr).
func ProgressHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, err := svc.Progress(ctx, chi.URLParam(r, "testID"), progressUser(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
