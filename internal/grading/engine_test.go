package grading

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/testforge/internal/document"
	"github.com/mind-engage/testforge/internal/extract"
)

func textAnswer(n int, v string) extract.Answer {
	return extract.Answer{ID: "text-" + strconv.Itoa(n), QuestionNumber: n, SourceKind: document.KindText, Category: "text", Value: v}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Paris ", "paris"},
		{" PARIS", "paris"},
		{"New   \t York", "new york"},
		{"\n a \n b \n", "a b"},
		{"2,500,000", "2,500,000"},
		{"ÉCOLE", "école"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestGrade_NormalizationRule(t *testing.T) {
	answers := []extract.Answer{textAnswer(1, "Paris")}
	for _, in := range []string{"Paris ", "paris", " PARIS"} {
		rep := Grade(answers, map[string]string{"1": in})
		assert.Equal(t, 1, rep.CorrectCount, "submitted %q", in)
	}
	rep := Grade(answers, map[string]string{"1": "Par is"})
	assert.Equal(t, 0, rep.CorrectCount)
}

func TestGrade_Example(t *testing.T) {
	answers := []extract.Answer{textAnswer(1, "Paris"), textAnswer(2, "2500000")}
	rep := Grade(answers, map[string]string{"1": "paris ", "2": "2,500,000"})

	assert.Equal(t, 2, rep.TotalQuestions)
	assert.Equal(t, 1, rep.CorrectCount)
	assert.InDelta(t, 0.5, rep.Score, 1e-9)
	require.Len(t, rep.PerQuestion, 2)
	assert.Equal(t, QuestionResult{QuestionNumber: 1, Correct: true, Submitted: "paris ", Expected: "Paris"}, rep.PerQuestion[0])
	assert.False(t, rep.PerQuestion[1].Correct)
	assert.Equal(t, "2,500,000", rep.PerQuestion[1].Submitted)
}

func TestGrade_MissingAndOrder(t *testing.T) {
	answers := []extract.Answer{textAnswer(3, "c"), textAnswer(1, "a"), textAnswer(2, "b")}
	rep := Grade(answers, map[string]string{"2": "B", "9": "ignored"})

	assert.Equal(t, 3, rep.TotalQuestions)
	assert.Equal(t, 1, rep.CorrectCount)
	got := []int{rep.PerQuestion[0].QuestionNumber, rep.PerQuestion[1].QuestionNumber, rep.PerQuestion[2].QuestionNumber}
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, "", rep.PerQuestion[0].Submitted)
	assert.False(t, rep.PerQuestion[0].Correct)
}

func TestGrade_Empty(t *testing.T) {
	rep := Grade(nil, nil)
	assert.Zero(t, rep.TotalQuestions)
	assert.Zero(t, rep.Score)
	assert.Empty(t, rep.PerQuestion)
}

func TestGrade_NearMiss(t *testing.T) {
	answers := []extract.Answer{textAnswer(1, "Seine"), textAnswer(2, "Loire")}
	rep := NewGrader(WithMaxEditDistance(1)).Grade(answers, map[string]string{"1": "sein", "2": "rhone"})
	assert.True(t, rep.PerQuestion[0].NearMiss)
	assert.False(t, rep.PerQuestion[0].Correct)
	assert.False(t, rep.PerQuestion[1].NearMiss)
	assert.Equal(t, 0, rep.CorrectCount)

	rep = NewGrader(WithMaxEditDistance(0)).Grade(answers, map[string]string{"1": "sein"})
	assert.False(t, rep.PerQuestion[0].NearMiss)
}

func TestCreateAnswerMapping(t *testing.T) {
	answers := []extract.Answer{
		textAnswer(1, "Paris"),
		{ID: "mcq-2", QuestionNumber: 2, Category: "mcq", Value: "B"},
	}
	key := CreateAnswerMapping(answers)
	assert.Len(t, key, 4)
	for _, a := range answers {
		assert.Equal(t, a.Value, key[a.ID])
		assert.Equal(t, a.Value, key[strconv.Itoa(a.QuestionNumber)])
	}
}

func TestCreateAnswerMapping_LastWriteWins(t *testing.T) {
	key := CreateAnswerMapping([]extract.Answer{textAnswer(1, "first"), textAnswer(1, "second")})
	assert.Equal(t, "second", key["1"])
	assert.Equal(t, "second", key["text-1"])
}

func TestRoundTripThroughTransform(t *testing.T) {
	root, err := document.Decode([]byte(`{"type":"container","content":[
		{"type":"text","text":"[alpha] then [beta]"},
		{"type":"multiple_choice","attrs":{"options":["x","y"],"correctIndex":1}},
		{"type":"single_blank","attrs":{"answers":["gamma"]}}
	]}`))
	require.NoError(t, err)
	res := extract.Transform(root)
	key := CreateAnswerMapping(res.Answers)

	for _, a := range res.Answers {
		assert.Equal(t, a.Value, key[strconv.Itoa(a.QuestionNumber)])
	}

	submitted := map[string]string{}
	for _, a := range res.Answers {
		submitted[strconv.Itoa(a.QuestionNumber)] = "  " + a.Value + " "
	}
	rep := Grade(res.Answers, submitted)
	assert.Equal(t, rep.TotalQuestions, rep.CorrectCount)
}

func TestWithinEdits(t *testing.T) {
	tests := []struct {
		a, b string
		k    int
		want bool
	}{
		{"abc", "abc", 0, true},
		{"abc", "ab", 1, true},
		{"ab", "abc", 0, false},
		{"", "abc", 2, false},
		{"", "abc", 3, true},
		{"café", "cafe", 1, true},
		{"kitten", "sitting", 2, false},
		{"kitten", "sitting", 3, true},
		{"photosynthesis", "mitochondria", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withinEdits(tt.a, tt.b, tt.k), "%q vs %q within %d", tt.a, tt.b, tt.k)
	}
}
