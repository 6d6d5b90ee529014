package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakePools satisfies PoolProvider without any fetching.
type fakePools struct {
	pools map[string][]Question
	fails map[string]error
	gets  int
}

func (f *fakePools) Get(_ context.Context, url string) ([]Question, error) {
	f.gets++
	if err, ok := f.fails[url]; ok {
		return nil, err
	}
	p, ok := f.pools[url]
	if !ok {
		return nil, errors.New("no pool")
	}
	return p, nil
}

func (f *fakePools) Cached(url string) ([]Question, bool) {
	p, ok := f.pools[url]
	return p, ok
}

type recordedEvent struct{ typ, key string }

type fakeEvents struct{ events []recordedEvent }

func (f *fakeEvents) Record(_ context.Context, typ, key string, _ interface{}) {
	f.events = append(f.events, recordedEvent{typ, key})
}

const srcURL = "https://sheets.example.test/pub?output=csv"

func seedStore(t *testing.T) Store {
	t.Helper()
	store := NewInMemoryStore()
	err := store.PutOrganization(context.Background(), Organization{
		ID:   "org-1",
		Name: "Medical Coding Online",
		Exams: []Exam{{
			ID:                "exam-1",
			Name:              "Free Training",
			QuestionSourceURL: srcURL,
			NumberOfQuestions: 3,
			PassScore:         60,
		}},
		CertificateTemplates: []CertificateTemplate{
			{ID: "tpl-1", Title: "Proficiency", Body: "Scored {finalScore}%."},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func testPool() []Question {
	return []Question{
		{ID: 1, Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 2},
		{ID: 2, Text: "q2", Options: []string{"a", "b"}, CorrectAnswer: 1},
		{ID: 3, Text: "q3", Options: []string{"a", "b"}, CorrectAnswer: 2},
		{ID: 4, Text: "q4", Options: []string{"a", "b"}, CorrectAnswer: 1},
	}
}

func TestStartAttemptSamplesAndSnapshots(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(store, pools, nil)

	a, err := svc.StartAttempt(context.Background(), "org-1", "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(a.Questions) != 3 {
		t.Fatalf("sample size = %d, want 3", len(a.Questions))
	}
	if a.Status != "in_progress" {
		t.Errorf("status = %q", a.Status)
	}

	stored, err := store.GetAttempt(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	for _, q := range stored.Questions {
		if q.CorrectAnswer == 0 {
			t.Errorf("snapshot must keep correct answers, question %d lost it", q.ID)
		}
	}
	for _, q := range a.Public().Questions {
		if q.CorrectAnswer != 0 {
			t.Errorf("public view must hide correct answers, question %d leaks %d", q.ID, q.CorrectAnswer)
		}
	}
}

func TestStartAttemptUnknownExam(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store, &fakePools{}, nil)

	_, err := svc.StartAttempt(context.Background(), "org-1", "exam-nope", "user-1")
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("want ErrExamNotFound, got %v", err)
	}
}

func TestStartAttemptSourceFailurePreventsAttempt(t *testing.T) {
	store := seedStore(t)
	boom := errors.New("fetch failed")
	pools := &fakePools{fails: map[string]error{srcURL: boom}}
	svc := NewService(store, pools, nil)

	if _, err := svc.StartAttempt(context.Background(), "org-1", "exam-1", "user-1"); !errors.Is(err, boom) {
		t.Fatalf("want fetch error to propagate, got %v", err)
	}
}

func TestSubmitAttemptGradesFromSnapshot(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	events := &fakeEvents{}
	svc := NewService(store, pools, events)

	ctx := context.Background()
	a, err := svc.StartAttempt(ctx, "org-1", "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Answer every sampled question correctly (convert the stored 1-based
	// ordinal to the submitted 0-based index).
	var answers []UserAnswer
	for _, q := range a.Questions {
		answers = append(answers, UserAnswer{QuestionID: q.ID, Answer: q.CorrectAnswer - 1})
	}

	// Invalidate-like situation: the shared pool disappears before
	// submission. The snapshot must carry the grade regardless.
	delete(pools.pools, srcURL)

	result, err := svc.SubmitAttempt(ctx, a.ID, "user-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 100.00 || result.CorrectCount != 3 {
		t.Errorf("score=%v correct=%d, want 100.00/3", result.Score, result.CorrectCount)
	}
	if result.TotalQuestions != 3 {
		t.Errorf("total = %d", result.TotalQuestions)
	}

	got, err := svc.GetResult(ctx, result.TestID, "user-1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.Score != result.Score {
		t.Errorf("persisted score %v != %v", got.Score, result.Score)
	}
	if len(events.events) != 1 || events.events[0].typ != "ResultCreated" {
		t.Errorf("events = %+v", events.events)
	}
}

func TestSubmitAttemptTwiceRejected(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(store, pools, nil)

	ctx := context.Background()
	a, _ := svc.StartAttempt(ctx, "org-1", "exam-1", "user-1")
	answers := []UserAnswer{{QuestionID: a.Questions[0].ID, Answer: 0}}

	if _, err := svc.SubmitAttempt(ctx, a.ID, "user-1", answers); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitAttempt(ctx, a.ID, "user-1", answers); !errors.Is(err, ErrResultExists) {
		t.Fatalf("want ErrResultExists on re-grade, got %v", err)
	}
}

// barrierStore holds every GetAttempt reader until all expected readers
// have arrived, forcing concurrent submits past the read before either
// claims the attempt.
type barrierStore struct {
	Store
	ready *sync.WaitGroup
}

func (b *barrierStore) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := b.Store.GetAttempt(ctx, attemptID)
	b.ready.Done()
	b.ready.Wait()
	return a, err
}

func TestSubmitAttemptConcurrentGradesOnce(t *testing.T) {
	inner := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(inner, pools, nil)

	ctx := context.Background()
	a, err := svc.StartAttempt(ctx, "org-1", "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var ready sync.WaitGroup
	ready.Add(2)
	svc = NewService(&barrierStore{Store: inner, ready: &ready}, pools, nil)

	answers := []UserAnswer{{QuestionID: a.Questions[0].ID, Answer: 0}}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitAttempt(ctx, a.ID, "user-1", answers)
		}(i)
	}
	wg.Wait()

	var graded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			graded++
		case errors.Is(err, ErrResultExists):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if graded != 1 || rejected != 1 {
		t.Fatalf("graded=%d rejected=%d, want exactly one of each", graded, rejected)
	}
}

func TestSubmitAttemptWrongOwner(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(store, pools, nil)

	ctx := context.Background()
	a, _ := svc.StartAttempt(ctx, "org-1", "exam-1", "user-1")

	_, err := svc.SubmitAttempt(ctx, a.ID, "user-2", nil)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("want ErrAttemptNotFound for foreign attempt, got %v", err)
	}
}

func TestSubmitRequiresCachedPool(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store, &fakePools{pools: map[string][]Question{}}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "org-1", "exam-1",
		[]UserAnswer{{QuestionID: 1, Answer: 1}})
	if !errors.Is(err, ErrPoolUnavailable) {
		t.Fatalf("want ErrPoolUnavailable, got %v", err)
	}
}

func TestSubmitGradesAgainstCachedPool(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(store, pools, nil)

	answers := []UserAnswer{
		{QuestionID: 1, Answer: 1}, // correct (sheet says 2)
		{QuestionID: 2, Answer: 1}, // wrong
	}
	result, err := svc.Submit(context.Background(), "user-1", "org-1", "exam-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 50.00 || result.CorrectCount != 1 || result.TotalQuestions != 2 {
		t.Errorf("got score=%v correct=%d total=%d", result.Score, result.CorrectCount, result.TotalQuestions)
	}
	if len(result.Review) != 2 {
		t.Errorf("review entries = %d", len(result.Review))
	}
	if result.Review[0].CorrectAnswer != 1 {
		t.Errorf("review correct answer = %d, want 0-based 1", result.Review[0].CorrectAnswer)
	}
}

func TestGetResultScopedToOwner(t *testing.T) {
	store := seedStore(t)
	pools := &fakePools{pools: map[string][]Question{srcURL: testPool()}}
	svc := NewService(store, pools, nil)

	result, err := svc.Submit(context.Background(), "user-1", "org-1", "exam-1",
		[]UserAnswer{{QuestionID: 1, Answer: 1}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.GetResult(context.Background(), result.TestID, "user-2"); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("foreign user must not read the result, got %v", err)
	}
}
