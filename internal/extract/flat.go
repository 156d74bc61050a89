package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mind-engage/testforge/internal/document"
)

// MarkupPlaceholder is the inert fragment a bracket span becomes in flat
// markup. The number appears once as the visible label and once as data.
func MarkupPlaceholder(number int) string {
	return fmt.Sprintf(
		`<span class="answer-blank" contenteditable="false" data-question-number="%d">(%d)</span>`,
		number, number)
}

// ExtractMarkup rewrites every bracket span in a rich-text string. Numbering
// starts at 1 on every call.
func ExtractMarkup(markup string) (string, []Answer) {
	answers := []Answer{}
	matches := bracketSpan.FindAllStringSubmatchIndex(markup, -1)
	if len(matches) == 0 {
		return markup, answers
	}

	var b strings.Builder
	last, runePos, next := 0, 0, 1
	for _, m := range matches {
		start, end := m[0], m[1]
		startRune := runePos + utf8.RuneCountInString(markup[last:start])
		endRune := startRune + utf8.RuneCountInString(markup[start:end])

		b.WriteString(markup[last:start])
		b.WriteString(MarkupPlaceholder(next))
		answers = append(answers, Answer{
			ID:             answerID(CategoryText, next),
			QuestionNumber: next,
			SourceKind:     document.KindText,
			Category:       CategoryText,
			Value:          strings.TrimSpace(markup[m[2]:m[3]]),
			Span:           Span{Start: startRune, End: endRune},
		})
		next++
		last, runePos = end, endRune
	}
	b.WriteString(markup[last:])
	return b.String(), answers
}
