package grading

import "math"

// Q is the minimal view of a question needed for grading. Correct keeps
// the sheet's 1-based ordinal; normalization to 0-based happens exactly
// once, inside Grade.
type Q struct {
	ID      int
	Text    string
	Options []string
	Correct int
}

// Answer is one submitted response: a 0-based option index.
type Answer struct {
	QuestionID int
	Selected   int
}

// ReviewEntry mirrors the per-question breakdown shown to the candidate.
// UserAnswer and CorrectAnswer are both 0-based.
type ReviewEntry struct {
	QuestionID    int
	Question      string
	Options       []string
	UserAnswer    int
	CorrectAnswer int
}

// Outcome is the graded summary of one attempt.
type Outcome struct {
	Score          float64
	CorrectCount   int
	TotalQuestions int
	Review         []ReviewEntry
}

// Grade reconciles submitted answers against the authoritative pool.
// Answers referencing unknown question ids are skipped: they still count
// toward TotalQuestions (submission size) but contribute neither
// correctness nor a review entry. Tolerates stale or rescrambled pools.
//
// Score is the percentage of correct answers over the submission count,
// rounded to two decimals; an empty submission scores 0. Pure function,
// safe to run for any number of attempts in parallel.
func Grade(pool []Q, answers []Answer) Outcome {
	byID := make(map[int]Q, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	out := Outcome{TotalQuestions: len(answers)}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		correct := q.Correct - 1 // sheet ordinal -> option index
		if a.Selected == correct {
			out.CorrectCount++
		}
		out.Review = append(out.Review, ReviewEntry{
			QuestionID:    q.ID,
			Question:      q.Text,
			Options:       q.Options,
			UserAnswer:    a.Selected,
			CorrectAnswer: correct,
		})
	}

	if out.TotalQuestions > 0 {
		out.Score = round2(float64(out.CorrectCount) / float64(out.TotalQuestions) * 100)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
