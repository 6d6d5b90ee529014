package exam

import "fmt"

// Question is one entry of a parsed question pool. ID is the 1-based
// position among surviving rows of the source sheet, stable for the
// lifetime of the cached pool. CorrectAnswer keeps the sheet's 1-based
// convention; everything downstream normalizes to 0-based once, at the
// grading boundary.
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer,omitempty"`
}

// UserAnswer is a submitted answer: a 0-based option index for one
// question of the attempt's sample.
type UserAnswer struct {
	QuestionID int `json:"question_id"`
	Answer     int `json:"answer"`
}

// ReviewEntry is the per-question breakdown of a graded attempt.
// UserAnswer and CorrectAnswer are both 0-based here for display symmetry.
type ReviewEntry struct {
	QuestionID    int      `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    int      `json:"user_answer"`
	CorrectAnswer int      `json:"correct_answer"`
}

// TestResult is created exactly once per graded attempt and never
// mutated afterward. Keyed by (TestID, UserID) in the store.
type TestResult struct {
	TestID         string        `json:"test_id"`
	UserID         string        `json:"user_id"`
	ExamID         string        `json:"exam_id"`
	Answers        []UserAnswer  `json:"answers"`
	Score          float64       `json:"score"`
	CorrectCount   int           `json:"correct_count"`
	TotalQuestions int           `json:"total_questions"`
	Timestamp      int64         `json:"timestamp"` // unix millis
	Review         []ReviewEntry `json:"review"`
}

// Exam is one purchasable (or free, price 0) test offered by an organization.
type Exam struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	Price                 float64 `json:"price"`
	QuestionSourceURL     string  `json:"question_source_url"`
	NumberOfQuestions     int     `json:"number_of_questions"`
	PassScore             float64 `json:"pass_score"`
	CertificateTemplateID string  `json:"certificate_template_id,omitempty"`
}

// Validate enforces the configuration invariants before an exam is
// accepted from an admin update or a seed file.
func (e Exam) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("exam %s: name required", e.ID)
	}
	if e.QuestionSourceURL == "" {
		return fmt.Errorf("exam %s: question source url required", e.ID)
	}
	if e.NumberOfQuestions <= 0 {
		return fmt.Errorf("exam %s: number_of_questions must be > 0", e.ID)
	}
	if e.PassScore < 0 || e.PassScore > 100 {
		return fmt.Errorf("exam %s: pass_score must be within [0,100]", e.ID)
	}
	if e.Price < 0 {
		return fmt.Errorf("exam %s: price must be >= 0", e.ID)
	}
	return nil
}

// CertificateTemplate is the render template referenced by an exam.
// Body contains a {finalScore} placeholder substituted at render time.
type CertificateTemplate struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	Signature1Name  string `json:"signature1_name"`
	Signature1Title string `json:"signature1_title"`
	Signature2Name  string `json:"signature2_name"`
	Signature2Title string `json:"signature2_title"`
}

func (t CertificateTemplate) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("template %s: title required", t.ID)
	}
	if t.Body == "" {
		return fmt.Errorf("template %s: body required", t.ID)
	}
	return nil
}

// Organization owns its exams and certificate templates. Logo is a blob
// store key served via /assets.
type Organization struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Website              string                `json:"website"`
	Logo                 string                `json:"logo,omitempty"`
	Exams                []Exam                `json:"exams"`
	CertificateTemplates []CertificateTemplate `json:"certificate_templates"`
}

// Exam resolves an exam id within the organization.
func (o Organization) Exam(id string) (Exam, bool) {
	for _, e := range o.Exams {
		if e.ID == id {
			return e, true
		}
	}
	return Exam{}, false
}

// Template resolves a certificate template id within the organization.
func (o Organization) Template(id string) (CertificateTemplate, bool) {
	for _, t := range o.CertificateTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return CertificateTemplate{}, false
}

// Attempt is the attempt-scoped snapshot of the sampled questions. Grading
// from the snapshot never depends on pool cache liveness.
type Attempt struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	ExamID    string     `json:"exam_id"`
	UserID    string     `json:"user_id"`
	Status    string     `json:"status"` // in_progress|submitted
	Questions []Question `json:"questions"`
	StartedAt int64      `json:"started_at"`
}
