package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/testforge/internal/auth/middleware"
	"github.com/mind-engage/testforge/internal/exam"
	"github.com/mind-engage/testforge/internal/storage"
)

// POST /tests/{testID}/sections/{sectionID}/recordings   multipart field "file"
func UploadRecordingHandler(svc *exam.Service, bs storage.BlobStore, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		testID, sectionID := chi.URLParam(r, "testID"), chi.URLParam(r, "sectionID")
		e, err := svc.GetExam(ctx, testID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !hasSection(e, sectionID) {
			writeError(w, fmt.Errorf("section %q: %w", sectionID, exam.ErrNotFound))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			http.Error(w, "bad upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext, ok := storage.RecordingExt(hdr.Header.Get("Content-Type"))
		if !ok {
			http.Error(w, "unsupported audio type", http.StatusUnsupportedMediaType)
			return
		}
		key := storage.RecordingKey(testID, sectionID, auth.SubjectFromContext(ctx), ext)
		if key, err = bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	}
}

// GET /recordings/*
func GetRecordingHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "recordings/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}

func hasSection(e exam.StudentExam, id string) bool {
	for _, s := range e.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}
