package cert

import (
	"errors"
	"testing"
	"time"

	"github.com/annapoorna-info/certexam/internal/exam"
)

func fixtures() (exam.TestResult, exam.Exam, exam.Organization) {
	result := exam.TestResult{
		TestID:         "test-1",
		UserID:         "user-1",
		ExamID:         "exam-paid",
		Score:          75.0,
		CorrectCount:   3,
		TotalQuestions: 4,
		Timestamp:      time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC).UnixMilli(),
	}
	cfg := exam.Exam{
		ID:                    "exam-paid",
		Name:                  "Paid Original Test",
		Price:                 49.99,
		PassScore:             60,
		CertificateTemplateID: "tpl-1",
	}
	org := exam.Organization{
		ID:   "org-1",
		Name: "Medical Coding Online",
		CertificateTemplates: []exam.CertificateTemplate{
			{ID: "tpl-1", Title: "Proficiency", Body: "Scored {finalScore}%."},
		},
	}
	return result, cfg, org
}

func TestEvaluateEligible(t *testing.T) {
	result, cfg, org := fixtures()

	data, err := Evaluate(result, cfg, org, "Jane Candidate")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if data.FinalScore != 75.0 {
		t.Errorf("final score = %v", data.FinalScore)
	}
	if data.CandidateName != "Jane Candidate" {
		t.Errorf("candidate name = %q", data.CandidateName)
	}
	if data.Template.ID != "tpl-1" || data.Organization.ID != "org-1" {
		t.Errorf("wrong references: tpl=%s org=%s", data.Template.ID, data.Organization.ID)
	}
	if data.TotalQuestions != 4 {
		t.Errorf("total questions = %d", data.TotalQuestions)
	}
	if data.CertificateNumber == "" {
		t.Error("certificate number empty")
	}
	want := time.UnixMilli(result.Timestamp).Format("January 2, 2006")
	if data.Date != want {
		t.Errorf("date = %q, want %q", data.Date, want)
	}
}

func TestEvaluateFreeExamNeverCertifies(t *testing.T) {
	result, cfg, org := fixtures()
	cfg.Price = 0
	result.Score = 100

	if _, err := Evaluate(result, cfg, org, "x"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("want ErrNotEligible for free exam, got %v", err)
	}
}

func TestEvaluateBelowPassScore(t *testing.T) {
	result, cfg, org := fixtures()
	result.Score = 59.9

	if _, err := Evaluate(result, cfg, org, "x"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("want ErrNotEligible below pass score, got %v", err)
	}
}

func TestEvaluateExactPassScoreIsEligible(t *testing.T) {
	result, cfg, org := fixtures()
	result.Score = 60.0

	if _, err := Evaluate(result, cfg, org, "x"); err != nil {
		t.Fatalf("score == pass score must qualify, got %v", err)
	}
}

func TestEvaluateMissingTemplate(t *testing.T) {
	result, cfg, org := fixtures()
	cfg.CertificateTemplateID = "tpl-missing"

	if _, err := Evaluate(result, cfg, org, "x"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("want ErrNotEligible without template, got %v", err)
	}
}
