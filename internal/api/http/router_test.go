package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/mind-engage/testforge/internal/auth/middleware"
	"github.com/mind-engage/testforge/internal/exam"
	"github.com/mind-engage/testforge/internal/storage"
	syncx "github.com/mind-engage/testforge/internal/sync"
)

const testBody = `{
  "id": "ielts-1",
  "title": "Practice Test 1",
  "time_limit_sec": 3600,
  "sections": [
    {"id": "listening", "kind": "listening", "document": {"type":"container","content":[
      {"type":"text","text":"The capital is [Paris] and it has [2500000] people."},
      {"type":"multiple_choice","attrs":{"options":["A","B","C"],"correctIndex":2}}
    ]}},
    {"id": "reading", "kind": "reading", "markup": "<p>Water boils at [100] degrees.</p>"},
    {"id": "speaking", "kind": "speaking"}
  ]
}`

type fakeEvents struct{ events []syncx.Event }

func (f *fakeEvents) Append(_ context.Context, e syncx.Event) error {
	e.Seq = int64(len(f.events) + 1)
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) Since(_ context.Context, seq int64, limit int) ([]syncx.Event, error) {
	out := []syncx.Event{}
	for _, e := range f.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out, nil
}

type harness struct {
	t      *testing.T
	h      http.Handler
	auth   *auth.AuthService
	events *fakeEvents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ev := &fakeEvents{}
	a := auth.NewAuthService("test-secret")
	h := NewRouter(Deps{
		Service:        exam.NewService(exam.NewInMemoryStore(), nil, ev),
		Auth:           a,
		Blobs:          bs,
		Events:         ev,
		Login:          &auth.LoginOptions{DevLogin: true},
		CORSOrigins:    []string{"http://localhost:3000"},
		MaxUploadBytes: 1 << 20,
	})
	return &harness{t: t, h: h, auth: a, events: ev}
}

func (hs *harness) do(method, path, user, role string, body []byte, contentType string) *httptest.ResponseRecorder {
	hs.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		tok, err := hs.auth.IssueJWT(user, role)
		require.NoError(hs.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) publish() {
	hs.t.Helper()
	rec := hs.do(http.MethodPost, "/tests", "t1", "teacher", []byte(testBody), "application/json")
	require.Equal(hs.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzAndAuth(t *testing.T) {
	hs := newHarness(t)
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/healthz", "", "", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, hs.do(http.MethodGet, "/tests/ielts-1", "", "", nil, "").Code)

	rec := hs.do(http.MethodPost, "/auth/login", "", "", []byte(`{"username":"s1","password":"s1","role":"student"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["access_token"])
}

func TestPublishAndView(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/tests", "s1", "student", []byte(testBody), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.do(http.MethodPost, "/tests", "t1", "teacher", []byte(testBody), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	out := decode[struct {
		Sections []struct {
			ID             string `json:"id"`
			TotalQuestions int    `json:"total_questions"`
		} `json:"sections"`
	}](t, rec)
	require.Len(t, out.Sections, 3)
	assert.Equal(t, 3, out.Sections[0].TotalQuestions)
	assert.Equal(t, 1, out.Sections[1].TotalQuestions)

	rec = hs.do(http.MethodGet, "/tests/ielts-1", "s1", "student", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[    1    ]")
	assert.NotContains(t, rec.Body.String(), "Paris")
	assert.NotContains(t, rec.Body.String(), "correctIndex")

	assert.Equal(t, http.StatusForbidden, hs.do(http.MethodGet, "/tests/ielts-1/key", "s1", "student", nil, "").Code)
	rec = hs.do(http.MethodGet, "/tests/ielts-1/key", "t1", "teacher", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	keys := decode[[]exam.SectionKey](t, rec)
	require.Len(t, keys, 3)
	assert.Equal(t, "Paris", keys[0].Key["1"])
	assert.Equal(t, "C", keys[0].Key["mcq-3"])

	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/tests/missing", "s1", "student", nil, "").Code)
}

func TestPublish_Rejects(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing id", `{"sections":[{"id":"a"}]}`},
		{"text with content", `{"id":"x","sections":[{"id":"a","document":{"type":"text","text":"x","content":[]}}]}`},
		{"node without type", `{"id":"x","sections":[{"id":"a","document":{"content":[]}}]}`},
		{"body over upload limit", `{"id":"x","title":"` + strings.Repeat("a", 1<<20) + `","sections":[{"id":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := hs.do(http.MethodPost, "/tests", "t1", "teacher", []byte(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestTransformEndpoints(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/transform", "t1", "teacher",
		[]byte(`{"type":"text","text":"The capital is [Paris] and [London] too."}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[transformOut](t, rec)
	assert.Equal(t, "The capital is [    1    ] and [    2    ] too.", out.Tree.Text)
	assert.Equal(t, 2, out.TotalQuestions)
	assert.Equal(t, "London", out.Key["text-2"])

	rec = hs.do(http.MethodPost, "/transform", "t1", "teacher", []byte(`{"type":"single_blank","content":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/transform", "t1", "teacher", nil, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[transformOut](t, rec)
	assert.Nil(t, out.Tree)
	assert.Empty(t, out.Answers)

	rec = hs.do(http.MethodPost, "/transform/markup", "t1", "teacher", []byte(`{"markup":"<p>[a] and [b]</p>"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[transformOut](t, rec)
	require.NotNil(t, out.Markup)
	assert.Contains(t, *out.Markup, `data-question-number="2"`)
	assert.Equal(t, 2, out.TotalQuestions)

	assert.Equal(t, http.StatusForbidden, hs.do(http.MethodPost, "/transform/markup", "s1", "student", []byte(`{}`), "").Code)
}

func TestSubmitFlow(t *testing.T) {
	hs := newHarness(t)
	hs.publish()

	body := []byte(`{"answers":{"1":" PARIS ","2":"2500001","3":"c"}}`)
	rec := hs.do(http.MethodPost, "/tests/ielts-1/sections/listening/submissions", "s1", "student", body, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[exam.Submission](t, rec)
	assert.Equal(t, "s1", sub.UserID)
	assert.Equal(t, 2, sub.Report.CorrectCount)
	assert.Equal(t, 3, sub.Report.TotalQuestions)

	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/listening/submissions", "s1", "student", body, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/nope/submissions", "s1", "student", body, "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/submissions/"+sub.ID, "s1", "student", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/submissions/"+sub.ID, "s2", "student", nil, "").Code)
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/submissions/"+sub.ID, "t1", "teacher", nil, "").Code)

	rec = hs.do(http.MethodGet, "/tests/ielts-1/progress", "s1", "student", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[[]exam.SectionProgress](t, rec)
	require.Len(t, progress, 3)
	assert.True(t, progress[0].Completed)
	assert.False(t, progress[1].Completed)

	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/tests/ielts-1/progress?user_id=s1", "s1", "student", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, hs.do(http.MethodGet, "/tests/ielts-1/progress?user_id=s2", "s1", "student", nil, "").Code)
	rec = hs.do(http.MethodGet, "/tests/ielts-1/progress?user_id=s1", "t1", "teacher", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[[]exam.SectionProgress](t, rec)[0].Completed)

	rec = hs.do(http.MethodGet, "/events?since=1", "t1", "teacher", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]syncx.Event](t, rec)
	require.Len(t, events, 2)
	assert.Equal(t, exam.EventSubmissionGraded, events[0].Type)
	assert.Equal(t, http.StatusForbidden, hs.do(http.MethodGet, "/events", "s1", "student", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodGet, "/events?since=x", "t1", "teacher", nil, "").Code)
}

func multipartAudio(t *testing.T, contentType, data string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="answer"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestRecordings(t *testing.T) {
	hs := newHarness(t)
	hs.publish()

	body, ct := multipartAudio(t, "audio/webm", "OggS-audio")
	rec := hs.do(http.MethodPost, "/tests/ielts-1/sections/speaking/recordings", "s1", "student", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := decode[map[string]string](t, rec)["key"]
	assert.True(t, strings.HasPrefix(key, "recordings/ielts-1/speaking/s1/"), key)
	assert.True(t, strings.HasSuffix(key, ".webm"), key)

	rec = hs.do(http.MethodGet, "/"+key, "t1", "teacher", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OggS-audio", rec.Body.String())

	stolen := []byte(`{"recordings":["` + key + `"]}`)
	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/speaking/submissions", "s2", "student", stolen, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sub := []byte(`{"recordings":["` + key + `"]}`)
	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/speaking/submissions", "s1", "student", sub, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{key}, decode[exam.Submission](t, rec).Recordings)

	body, ct = multipartAudio(t, "image/png", "png")
	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/speaking/recordings", "s1", "student", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = multipartAudio(t, "audio/webm", "x")
	rec = hs.do(http.MethodPost, "/tests/ielts-1/sections/nope/recordings", "s1", "student", body, ct)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
