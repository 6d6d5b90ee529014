package cert

import (
	"errors"
	"strconv"
	"time"

	"github.com/annapoorna-info/certexam/internal/exam"
)

// ErrNotEligible is a negative eligibility outcome, not a failure: free
// exams never certify, and a failing score or missing template also
// disqualifies. Callers must not render a certificate from it.
var ErrNotEligible = errors.New("result not eligible for a certificate")

// Data is the assembled, non-persistent certificate view. The template
// body contains a {finalScore} placeholder the renderer substitutes.
type Data struct {
	CertificateNumber string                   `json:"certificate_number"`
	CandidateName     string                   `json:"candidate_name"`
	FinalScore        float64                  `json:"final_score"`
	Date              string                   `json:"date"`
	TotalQuestions    int                      `json:"total_questions"`
	Organization      exam.Organization        `json:"organization"`
	Template          exam.CertificateTemplate `json:"template"`
}

// Evaluate decides certificate eligibility for a graded result and, when
// eligible, assembles the render data. Requires all of: a paid exam,
// a score at or above the exam's pass threshold, and a resolvable
// certificate template on the organization.
func Evaluate(result exam.TestResult, cfg exam.Exam, org exam.Organization, candidateName string) (Data, error) {
	if cfg.Price <= 0 {
		return Data{}, ErrNotEligible
	}
	if result.Score < cfg.PassScore {
		return Data{}, ErrNotEligible
	}
	tpl, ok := org.Template(cfg.CertificateTemplateID)
	if !ok {
		return Data{}, ErrNotEligible
	}

	issued := time.UnixMilli(result.Timestamp)
	return Data{
		// Millisecond timestamp doubles as a human-displayable
		// certificate number; collision risk is acceptable here.
		CertificateNumber: strconv.FormatInt(result.Timestamp, 10),
		CandidateName:     candidateName,
		FinalScore:        result.Score,
		Date:              issued.Format("January 2, 2006"),
		TotalQuestions:    result.TotalQuestions,
		Organization:      org,
		Template:          tpl,
	}, nil
}
