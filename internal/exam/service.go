package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/testforge/internal/grading"
	"github.com/mind-engage/testforge/internal/storage"
	syncx "github.com/mind-engage/testforge/internal/sync"
)

// EventSink receives domain events. *syncx.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

const (
	EventExamPublished    = "ExamPublished"
	EventSubmissionGraded = "SubmissionGraded"
	EventSectionCompleted = "SectionCompleted"
)

type Service struct {
	store  Store
	grader *grading.Grader
	events EventSink
	now    func() time.Time
}

// NewService wires a Service. events may be nil.
func NewService(store Store, grader *grading.Grader, events EventSink) *Service {
	if grader == nil {
		grader = grading.NewGrader()
	}
	return &Service{store: store, grader: grader, events: events, now: time.Now}
}

// PublishExam transforms e, stores authoring form, student form and keys, and
// returns the published bundle.
func (s *Service) PublishExam(ctx context.Context, e Exam) (Published, error) {
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().Unix()
	}
	p, err := Publish(e)
	if err != nil {
		return Published{}, err
	}
	if err := s.store.PutPublished(ctx, p); err != nil {
		return Published{}, fmt.Errorf("store exam: %w", err)
	}
	total := 0
	for _, k := range p.Keys {
		total += k.TotalQuestions
	}
	s.emit(ctx, EventExamPublished, e.ID, map[string]any{"exam_id": e.ID, "sections": len(p.Keys), "total_questions": total})
	return p, nil
}

func (s *Service) GetExam(ctx context.Context, id string) (StudentExam, error) {
	return s.store.GetExam(ctx, id)
}

func (s *Service) GetKeys(ctx context.Context, id string) ([]SectionKey, error) {
	p, err := s.store.GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Keys, nil
}

// SubmitInput is one student's answers for one section.
type SubmitInput struct {
	ExamID     string
	SectionID  string
	UserID     string
	Answers    map[string]string
	Recordings []string
}

// Submit grades in against the stored key, persists the submission and marks
// the section completed for the user.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Submission, error) {
	if in.UserID == "" {
		return Submission{}, fmt.Errorf("%w: user required", ErrInvalidExam)
	}
	p, err := s.store.GetPublished(ctx, in.ExamID)
	if err != nil {
		return Submission{}, err
	}
	key, ok := p.Key(in.SectionID)
	if !ok {
		return Submission{}, fmt.Errorf("section %q: %w", in.SectionID, ErrNotFound)
	}
	for _, k := range in.Recordings {
		if !storage.OwnsRecording(k, in.ExamID, in.SectionID, in.UserID) {
			return Submission{}, fmt.Errorf("%w: recording %q does not belong to this submission", ErrInvalidExam, k)
		}
	}
	if in.Answers == nil {
		in.Answers = map[string]string{}
	}
	sub := Submission{
		ID:          uuid.NewString(),
		ExamID:      in.ExamID,
		SectionID:   in.SectionID,
		UserID:      in.UserID,
		Answers:     in.Answers,
		Recordings:  in.Recordings,
		Report:      s.grader.Grade(key.Answers, in.Answers),
		SubmittedAt: s.now().Unix(),
	}
	if err := s.store.SaveSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}
	s.emit(ctx, EventSubmissionGraded, sub.ID, map[string]any{
		"exam_id":         sub.ExamID,
		"section_id":      sub.SectionID,
		"user_id":         sub.UserID,
		"correct_count":   sub.Report.CorrectCount,
		"total_questions": sub.Report.TotalQuestions,
	})
	s.emit(ctx, EventSectionCompleted, sub.ExamID+"/"+sub.SectionID+"/"+sub.UserID, map[string]any{
		"exam_id":       sub.ExamID,
		"section_id":    sub.SectionID,
		"user_id":       sub.UserID,
		"submission_id": sub.ID,
	})
	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return s.store.GetSubmission(ctx, id)
}

// Progress returns one completion flag per section of the exam, in section
// order.
func (s *Service) Progress(ctx context.Context, examID, userID string) ([]SectionProgress, error) {
	ex, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	done, err := s.store.ListProgress(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]SectionProgress, len(done))
	for _, p := range done {
		byID[p.SectionID] = p
	}
	out := make([]SectionProgress, 0, len(ex.Sections))
	for _, sec := range ex.Sections {
		if p, ok := byID[sec.ID]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, SectionProgress{SectionID: sec.ID})
	}
	return out, nil
}

// emit appends an event; failures never fail the request.
func (s *Service) emit(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	if err := s.events.Append(ctx, syncx.Event{SiteID: "local", Type: typ, Key: key, DataJSON: string(buf)}); err != nil {
		log.Printf("append %s event: %v", typ, err)
	}
}
