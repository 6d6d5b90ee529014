package source

import (
	"errors"
	"strconv"
	"strings"

	"github.com/annapoorna-info/certexam/internal/exam"
)

// ErrNoQuestions is returned when a sheet yields zero usable rows after
// tolerant filtering. Callers must not cache or sample an empty pool.
var ErrNoQuestions = errors.New("no valid questions parsed from source")

// Parse turns a raw CSV export into an ordered question pool. The first
// line is the sheet header and is discarded. Malformed rows are dropped
// silently; only a completely unusable sheet is an error.
//
// Row format: question, options, correctAnswer — options joined by '|',
// correctAnswer a 1-based ordinal into options. Fields may be quoted to
// embed commas; doubled quotes escape a literal quote.
func Parse(raw string) ([]exam.Question, error) {
	lines := splitLines(raw)
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	var questions []exam.Question
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		q, ok := parseRow(line)
		if !ok {
			continue
		}
		q.ID = len(questions) + 1 // 1-based among surviving rows
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// parseRow validates one data row. Any structural defect disqualifies the
// row without failing the parse.
func parseRow(line string) (exam.Question, bool) {
	cols := splitColumns(line)
	if len(cols) < 3 {
		return exam.Question{}, false
	}

	questionStr := unquote(cols[0])
	optionsStr := unquote(cols[1])
	correctStr := unquote(cols[2])
	if questionStr == "" || optionsStr == "" || correctStr == "" {
		return exam.Question{}, false
	}

	correct, err := strconv.Atoi(correctStr)
	if err != nil {
		return exam.Question{}, false
	}

	options := strings.Split(optionsStr, "|")
	if len(options) < 2 {
		return exam.Question{}, false
	}

	return exam.Question{
		Text:          questionStr,
		Options:       options,
		CorrectAnswer: correct,
	}, true
}

// splitLines splits on CRLF, CR, or LF.
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// splitColumns splits a row on commas that are outside quoted fields,
// i.e. commas preceded by an even number of quote characters stay inside
// their field.
func splitColumns(line string) []string {
	var cols []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQuotes = !inQuotes
			field.WriteByte(c)
		case ',':
			if inQuotes {
				field.WriteByte(c)
			} else {
				cols = append(cols, field.String())
				field.Reset()
			}
		default:
			field.WriteByte(c)
		}
	}
	cols = append(cols, field.String())
	return cols
}

// unquote trims the field, strips one layer of wrapping double quotes and
// collapses doubled quotes to one.
func unquote(field string) string {
	s := strings.TrimSpace(field)
	if strings.HasPrefix(s, `"`) {
		s = strings.TrimPrefix(s, `"`)
	}
	if strings.HasSuffix(s, `"`) {
		s = strings.TrimSuffix(s, `"`)
	}
	return strings.ReplaceAll(s, `""`, `"`)
}
