package grading

import (
	"sort"
	"strconv"

	"github.com/mind-engage/testforge/internal/extract"
)

// AnswerKey maps both an answer's id and its stringified question number to
// its correct value.
type AnswerKey map[string]string

// CreateAnswerMapping builds the answer key for a list of answers. If two
// answers share an id or a question number the later one wins.
func CreateAnswerMapping(answers []extract.Answer) AnswerKey {
	key := make(AnswerKey, 2*len(answers))
	for _, a := range answers {
		key[a.ID] = a.Value
		key[strconv.Itoa(a.QuestionNumber)] = a.Value
	}
	return key
}

// QuestionResult is the grading outcome of one question.
type QuestionResult struct {
	QuestionNumber int    `json:"questionNumber"`
	Correct        bool   `json:"correct"`
	Submitted      string `json:"submitted"`
	Expected       string `json:"expected"`
	NearMiss       bool   `json:"nearMiss,omitempty"` // informational only
}

// Report is the outcome of grading one submission.
type Report struct {
	TotalQuestions int              `json:"totalQuestions"`
	CorrectCount   int              `json:"correctCount"`
	Score          float64          `json:"score"`
	PerQuestion    []QuestionResult `json:"perQuestion"`
}

// Option configures a Grader.
type Option func(*config)

type config struct {
	MaxEditDistance int // near-miss threshold; 0 disables
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// Grader compares submissions with an answer list.
type Grader struct {
	cfg config
}

func NewGrader(opts ...Option) *Grader {
	cfg := config{MaxEditDistance: 1}
	for _, o := range opts {
		o(&cfg)
	}
	return &Grader{cfg: cfg}
}

// Grade checks submitted (question number -> value) against answers. Missing
// submissions count as empty strings.
func (g *Grader) Grade(answers []extract.Answer, submitted map[string]string) Report {
	ordered := append([]extract.Answer(nil), answers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].QuestionNumber < ordered[j].QuestionNumber
	})

	rep := Report{TotalQuestions: len(ordered), PerQuestion: make([]QuestionResult, 0, len(ordered))}
	for _, a := range ordered {
		got := submitted[strconv.Itoa(a.QuestionNumber)]
		ng, ne := Normalize(got), Normalize(a.Value)
		res := QuestionResult{
			QuestionNumber: a.QuestionNumber,
			Correct:        ng == ne,
			Submitted:      got,
			Expected:       a.Value,
		}
		if res.Correct {
			rep.CorrectCount++
		} else if g.cfg.MaxEditDistance > 0 && ng != "" && withinEdits(ng, ne, g.cfg.MaxEditDistance) {
			res.NearMiss = true
		}
		rep.PerQuestion = append(rep.PerQuestion, res)
	}
	if rep.TotalQuestions > 0 {
		rep.Score = float64(rep.CorrectCount) / float64(rep.TotalQuestions)
	}
	return rep
}

// Grade grades with the default options.
func Grade(answers []extract.Answer, submitted map[string]string) Report {
	return NewGrader().Grade(answers, submitted)
}
