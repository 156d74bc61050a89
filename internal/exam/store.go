package exam

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSectionCompleted = errors.New("section already completed")
	ErrInvalidExam      = errors.New("invalid exam")
)

type Store interface {
	PutPublished(ctx context.Context, p Published) error
	GetExam(ctx context.Context, id string) (StudentExam, error) // student-safe (no answer keys)
	GetPublished(ctx context.Context, id string) (Published, error)

	// SaveSubmission stores s and marks its section completed for s.UserID.
	// It fails with ErrSectionCompleted if the section was already completed.
	SaveSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListProgress(ctx context.Context, examID, userID string) ([]SectionProgress, error)
}

type progressKey struct{ exam, section, user string }

type memoryStore struct {
	mu          sync.RWMutex
	published   map[string]Published
	submissions map[string]Submission
	progress    map[progressKey]SectionProgress
}

func NewInMemoryStore() Store {
	return &memoryStore{
		published:   map[string]Published{},
		submissions: map[string]Submission{},
		progress:    map[progressKey]SectionProgress{},
	}
}

func (m *memoryStore) PutPublished(_ context.Context, p Published) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[p.Exam.ID] = p
	return nil
}

func (m *memoryStore) GetExam(ctx context.Context, id string) (StudentExam, error) {
	p, err := m.GetPublished(ctx, id)
	if err != nil {
		return StudentExam{}, err
	}
	return p.Student, nil
}

func (m *memoryStore) GetPublished(_ context.Context, id string) (Published, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.published[id]
	if !ok {
		return Published{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) SaveSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey{s.ExamID, s.SectionID, s.UserID}
	if _, done := m.progress[k]; done {
		return ErrSectionCompleted
	}
	m.submissions[s.ID] = s
	m.progress[k] = SectionProgress{
		SectionID:    s.SectionID,
		Completed:    true,
		SubmissionID: s.ID,
		CompletedAt:  s.SubmittedAt,
	}
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListProgress(_ context.Context, examID, userID string) ([]SectionProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []SectionProgress{}
	for k, p := range m.progress {
		if k.exam == examID && k.user == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })
	return out, nil
}
