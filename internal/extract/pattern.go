package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mind-engage/testforge/internal/document"
)

// bracketSpan matches the shortest run between '[' and the next ']' that
// contains no other bracket.
var bracketSpan = regexp.MustCompile(`\[([^\[\]]*)\]`)

const placeholderPad = "    "

// Placeholder is the token a bracket span is replaced with.
func Placeholder(number int) string {
	return "[" + placeholderPad + strconv.Itoa(number) + placeholderPad + "]"
}

// ExtractText rewrites every bracket span in body into a numbered
// placeholder, numbering from next. A span that is exactly the placeholder for
// the number it would receive is left as is and still takes that number, so
// extracting already-extracted text changes nothing. A placeholder-shaped span
// carrying any other number, such as a literal "[    5    ]" answer at
// question 1, is extracted like any other span. It returns the rewritten body,
// the answers in order, and the next free question number.
func ExtractText(body string, next int) (string, []Answer, int) {
	matches := bracketSpan.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, nil, next
	}

	var (
		b       strings.Builder
		answers []Answer
		last    int // byte offset in body already copied
		runePos int // rune offset of last
	)
	b.Grow(len(body))
	for _, m := range matches {
		start, end := m[0], m[1]
		if body[start:end] == Placeholder(next) {
			next++
			continue
		}
		startRune := runePos + utf8.RuneCountInString(body[last:start])
		endRune := startRune + utf8.RuneCountInString(body[start:end])

		b.WriteString(body[last:start])
		b.WriteString(Placeholder(next))
		answers = append(answers, Answer{
			ID:             answerID(CategoryText, next),
			QuestionNumber: next,
			SourceKind:     document.KindText,
			Category:       CategoryText,
			Value:          strings.TrimSpace(body[m[2]:m[3]]),
			Span:           Span{Start: startRune, End: endRune},
		})
		next++
		last, runePos = end, endRune
	}
	b.WriteString(body[last:])
	return b.String(), answers, next
}
