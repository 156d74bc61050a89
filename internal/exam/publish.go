package exam

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/testforge/internal/extract"
	"github.com/mind-engage/testforge/internal/grading"
)

// ValidateSections runs basic consistency checks on an exam's sections.
func ValidateSections(e *Exam) error {
	if e == nil {
		return errors.New("exam is required")
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("id required")
	}
	seen := map[string]bool{}
	for _, s := range e.Sections {
		if strings.TrimSpace(s.ID) == "" {
			return errors.New("section.id is required")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section id: %s", s.ID)
		}
		seen[s.ID] = true
		if s.Document != nil && s.Markup != "" {
			return fmt.Errorf("section %s: document and markup are exclusive", s.ID)
		}
	}
	if e.TimeLimitSec < 0 {
		return errors.New("negative time_limit_sec")
	}
	return nil
}

// Publish transforms every section of e into its student form and answer
// key. Numbering restarts in each section.
func Publish(e Exam) (Published, error) {
	if err := ValidateSections(&e); err != nil {
		return Published{}, fmt.Errorf("%w: %v", ErrInvalidExam, err)
	}
	out := Published{
		Exam: e,
		Student: StudentExam{
			ID:           e.ID,
			Title:        e.Title,
			TimeLimitSec: e.TimeLimitSec,
			Sections:     make([]StudentSection, 0, len(e.Sections)),
		},
		Keys: make([]SectionKey, 0, len(e.Sections)),
	}
	for _, s := range e.Sections {
		ss := StudentSection{ID: s.ID, Title: s.Title, Kind: s.Kind}
		var (
			answers []extract.Answer
			total   int
		)
		if s.Document != nil {
			res := extract.Transform(s.Document)
			ss.Document, answers, total = res.Tree, res.Answers, res.TotalQuestions
		} else {
			ss.Markup, answers = extract.ExtractMarkup(s.Markup)
			total = len(answers)
		}
		ss.TotalQuestions = total
		out.Student.Sections = append(out.Student.Sections, ss)
		out.Keys = append(out.Keys, SectionKey{
			SectionID:      s.ID,
			Answers:        answers,
			Key:            grading.CreateAnswerMapping(answers),
			TotalQuestions: total,
		})
	}
	return out, nil
}
