package source

import (
	"errors"
	"strings"
	"testing"
)

const header = "Question,Options,CorrectAnswer\n"

func TestParseWellFormed(t *testing.T) {
	raw := header +
		"What is 2+2?,1|2|3|4,4\n" +
		"Capital of France?,Paris|London|Berlin,1\n"

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("want 2 questions, got %d", len(qs))
	}
	if qs[0].ID != 1 || qs[1].ID != 2 {
		t.Errorf("ids must be 1-based sequential, got %d,%d", qs[0].ID, qs[1].ID)
	}
	if qs[0].Text != "What is 2+2?" {
		t.Errorf("question text = %q", qs[0].Text)
	}
	if len(qs[0].Options) != 4 || qs[0].Options[3] != "4" {
		t.Errorf("options = %v", qs[0].Options)
	}
	if qs[0].CorrectAnswer != 4 {
		t.Errorf("correct answer = %d, want 4 (1-based)", qs[0].CorrectAnswer)
	}
}

func TestParseQuotedFields(t *testing.T) {
	raw := header +
		`"What, exactly, is Go?","A language|A game","1"` + "\n" +
		`"He said ""hi""",yes|no,2` + "\n"

	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("want 2 questions, got %d", len(qs))
	}
	if qs[0].Text != "What, exactly, is Go?" {
		t.Errorf("embedded commas mangled: %q", qs[0].Text)
	}
	if qs[1].Text != `He said "hi"` {
		t.Errorf("doubled quotes not collapsed: %q", qs[1].Text)
	}
}

func TestParseDropsMalformedRows(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"too few columns", "only one column here"},
		{"two columns", "question,a|b"},
		{"empty question", ",a|b,1"},
		{"empty options", "question,,1"},
		{"empty answer", "question,a|b,"},
		{"non-integer answer", "question,a|b,two"},
		{"single option", "question,loner,1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := header + tc.row + "\nsurvivor,a|b,1\n"
			qs, err := Parse(raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(qs) != 1 {
				t.Fatalf("want only the surviving row, got %d rows", len(qs))
			}
			if qs[0].Text != "survivor" {
				t.Errorf("kept wrong row: %q", qs[0].Text)
			}
			if qs[0].ID != 1 {
				t.Errorf("id must count surviving rows only, got %d", qs[0].ID)
			}
		})
	}
}

func TestParseLineEndings(t *testing.T) {
	for _, sep := range []string{"\n", "\r\n", "\r"} {
		raw := strings.Join([]string{"h", "q1,a|b,1", "q2,a|b,2"}, sep)
		qs, err := Parse(raw)
		if err != nil {
			t.Fatalf("sep %q: %v", sep, err)
		}
		if len(qs) != 2 {
			t.Errorf("sep %q: want 2 questions, got %d", sep, len(qs))
		}
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	raw := header + "\n\nq1,a|b,1\n   \nq2,a|b,2\n\n"
	qs, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("want 2 questions, got %d", len(qs))
	}
}

func TestParseHeaderOnlyFails(t *testing.T) {
	if _, err := Parse("header\n"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
}

func TestParseAllRowsBadFails(t *testing.T) {
	raw := header + "bad row\nanother,one\n"
	if _, err := Parse(raw); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
}

func TestParseEmptyInputFails(t *testing.T) {
	if _, err := Parse(""); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
}
