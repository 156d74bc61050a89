package exam

import (
	"github.com/mind-engage/testforge/internal/document"
	"github.com/mind-engage/testforge/internal/extract"
	"github.com/mind-engage/testforge/internal/grading"
)

// Section is one authored part of a test. It carries either a document tree
// or, for plain rich-text authoring, a markup string.
type Section struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Kind     string         `json:"kind,omitempty"` // reading|listening|writing|speaking
	Document *document.Node `json:"document,omitempty"`
	Markup   string         `json:"markup,omitempty"`
}

// Exam is the authoring form of a test, answers included.
type Exam struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	TimeLimitSec int       `json:"time_limit_sec"`
	Sections     []Section `json:"sections"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// StudentSection is a section with answers replaced by numbered blanks.
type StudentSection struct {
	ID             string         `json:"id"`
	Title          string         `json:"title,omitempty"`
	Kind           string         `json:"kind,omitempty"`
	Document       *document.Node `json:"document,omitempty"`
	Markup         string         `json:"markup,omitempty"`
	TotalQuestions int            `json:"total_questions"`
}

// StudentExam is what students are served.
type StudentExam struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	TimeLimitSec int              `json:"time_limit_sec"`
	Sections     []StudentSection `json:"sections"`
}

// SectionKey is the answer key of one section.
type SectionKey struct {
	SectionID      string            `json:"section_id"`
	Answers        []extract.Answer  `json:"answers"`
	Key            grading.AnswerKey `json:"key"`
	TotalQuestions int               `json:"total_questions"`
}

// Published bundles everything stored when a test is published.
type Published struct {
	Exam    Exam         `json:"exam"`
	Student StudentExam  `json:"student"`
	Keys    []SectionKey `json:"keys"`
}

// Key returns the key of a section.
func (p Published) Key(sectionID string) (SectionKey, bool) {
	for _, k := range p.Keys {
		if k.SectionID == sectionID {
			return k, true
		}
	}
	return SectionKey{}, false
}

// Submission is one graded answer set for a section.
type Submission struct {
	ID          string            `json:"id"`
	ExamID      string            `json:"exam_id"`
	SectionID   string            `json:"section_id"`
	UserID      string            `json:"user_id"`
	Answers     map[string]string `json:"answers"` // question number -> value
	Recordings  []string          `json:"recordings,omitempty"`
	Report      grading.Report    `json:"report"`
	SubmittedAt int64             `json:"submitted_at"`
}

// SectionProgress is the completion flag of one section for one user.
type SectionProgress struct {
	SectionID    string `json:"section_id"`
	Completed    bool   `json:"completed"`
	SubmissionID string `json:"submission_id,omitempty"`
	CompletedAt  int64  `json:"completed_at,omitempty"`
}
