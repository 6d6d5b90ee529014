package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annapoorna-info/certexam/internal/grading"
)

// PoolProvider is the pool-cache boundary. Get populates on first access
// (single-flight, see internal/source); Cached is a non-blocking read for
// grading, which must never trigger a fresh fetch.
type PoolProvider interface {
	Get(ctx context.Context, sourceURL string) ([]Question, error)
	Cached(sourceURL string) ([]Question, bool)
}

// EventSink receives audit events for state-changing operations.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data interface{})
}

// Service orchestrates the attempt lifecycle: configuration lookup, pool
// resolution, sampling, grading and result persistence.
type Service struct {
	store  Store
	pools  PoolProvider
	events EventSink
}

func NewService(store Store, pools PoolProvider, events EventSink) *Service {
	return &Service{store: store, pools: pools, events: events}
}

// StartAttempt resolves the exam's pool (fetching it if needed), samples
// the configured number of questions and persists the sample as an
// attempt-scoped snapshot. A failed fetch or parse prevents the attempt
// from starting; a partially sampled exam is never presented.
func (s *Service) StartAttempt(ctx context.Context, orgID, examID, userID string) (Attempt, error) {
	cfg, err := s.store.GetExamConfig(ctx, orgID, examID)
	if err != nil {
		return Attempt{}, err
	}
	pool, err := s.pools.Get(ctx, cfg.QuestionSourceURL)
	if err != nil {
		return Attempt{}, err
	}

	a := Attempt{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		ExamID:    examID,
		UserID:    userID,
		Status:    "in_progress",
		Questions: Sample(pool, cfg.NumberOfQuestions),
		StartedAt: time.Now().UnixMilli(),
	}
	if err := s.store.PutAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

// SubmitAttempt grades answers against the attempt's own snapshot, so a
// cache invalidation between sampling and submission cannot skew the
// grade. The attempt is claimed before grading: exactly one submit per
// attempt reaches record, concurrent losers get ErrResultExists.
func (s *Service) SubmitAttempt(ctx context.Context, attemptID, userID string, answers []UserAnswer) (TestResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return TestResult{}, err
	}
	if a.UserID != userID {
		return TestResult{}, ErrAttemptNotFound
	}
	if err := s.store.ClaimAttempt(ctx, attemptID); err != nil {
		return TestResult{}, err
	}
	return s.record(ctx, a.ExamID, userID, a.Questions, answers)
}

// Submit is the bare grading boundary: no attempt snapshot, so the pool
// backing the exam must already be cached. Grading never fetches; an
// absent pool is a lifecycle ordering violation surfaced as
// ErrPoolUnavailable.
func (s *Service) Submit(ctx context.Context, userID, orgID, examID string, answers []UserAnswer) (TestResult, error) {
	cfg, err := s.store.GetExamConfig(ctx, orgID, examID)
	if err != nil {
		return TestResult{}, err
	}
	pool, ok := s.pools.Cached(cfg.QuestionSourceURL)
	if !ok {
		return TestResult{}, fmt.Errorf("exam %s: %w", examID, ErrPoolUnavailable)
	}
	return s.record(ctx, examID, userID, pool, answers)
}

func (s *Service) record(ctx context.Context, examID, userID string, pool []Question, answers []UserAnswer) (TestResult, error) {
	out := grading.Grade(toGradingPool(pool), toGradingAnswers(answers))

	result := TestResult{
		TestID:         "test-" + uuid.NewString(),
		UserID:         userID,
		ExamID:         examID,
		Answers:        answers,
		Score:          out.Score,
		CorrectCount:   out.CorrectCount,
		TotalQuestions: out.TotalQuestions,
		Timestamp:      time.Now().UnixMilli(),
		Review:         toReview(out.Review),
	}
	if err := s.store.PutResult(ctx, result); err != nil {
		return TestResult{}, err
	}
	if s.events != nil {
		s.events.Record(ctx, "ResultCreated", result.TestID, map[string]interface{}{
			"user_id": userID, "exam_id": examID, "score": result.Score,
		})
	}
	return result, nil
}

// GetResult returns a previously recorded result, scoped to its owner.
func (s *Service) GetResult(ctx context.Context, testID, userID string) (TestResult, error) {
	return s.store.GetResult(ctx, testID, userID)
}

func toGradingPool(pool []Question) []grading.Q {
	out := make([]grading.Q, len(pool))
	for i, q := range pool {
		out[i] = grading.Q{ID: q.ID, Text: q.Text, Options: q.Options, Correct: q.CorrectAnswer}
	}
	return out
}

func toGradingAnswers(answers []UserAnswer) []grading.Answer {
	out := make([]grading.Answer, len(answers))
	for i, a := range answers {
		out[i] = grading.Answer{QuestionID: a.QuestionID, Selected: a.Answer}
	}
	return out
}

func toReview(entries []grading.ReviewEntry) []ReviewEntry {
	out := make([]ReviewEntry, len(entries))
	for i, e := range entries {
		out[i] = ReviewEntry(e)
	}
	return out
}

// Public strips correct answers from the snapshot for transport to the
// candidate taking the test.
func (a Attempt) Public() Attempt {
	qs := make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		q.CorrectAnswer = 0
		qs[i] = q
	}
	a.Questions = qs
	return a
}
