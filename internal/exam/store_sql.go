package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLStore persists the configuration tree and results over database/sql.
// Works against both the pgx stdlib driver and modernc sqlite; statements
// stick to $N placeholders, which both accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutOrganization(ctx context.Context, org Organization) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO organizations (id,name,website,logo)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, website=EXCLUDED.website, logo=EXCLUDED.logo`,
		org.ID, org.Name, org.Website, org.Logo)
	if err != nil {
		return err
	}

	for i, e := range org.Exams {
		if err := e.Validate(); err != nil {
			return err
		}
		if err := upsertExam(ctx, tx, org.ID, e, i); err != nil {
			return err
		}
	}
	for i, t := range org.CertificateTemplates {
		if err := t.Validate(); err != nil {
			return err
		}
		if err := upsertTemplate(ctx, tx, org.ID, t, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertExam(ctx context.Context, tx *sql.Tx, orgID string, e Exam, pos int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO exams
		(id,org_id,name,description,price,question_source_url,number_of_questions,pass_score,certificate_template_id,position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
		  name=EXCLUDED.name, description=EXCLUDED.description, price=EXCLUDED.price,
		  question_source_url=EXCLUDED.question_source_url,
		  number_of_questions=EXCLUDED.number_of_questions, pass_score=EXCLUDED.pass_score,
		  certificate_template_id=EXCLUDED.certificate_template_id, position=EXCLUDED.position`,
		e.ID, orgID, e.Name, e.Description, e.Price, e.QuestionSourceURL,
		e.NumberOfQuestions, e.PassScore, e.CertificateTemplateID, pos)
	return err
}

func upsertTemplate(ctx context.Context, tx *sql.Tx, orgID string, t CertificateTemplate, pos int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO certificate_templates
		(id,org_id,title,body,signature1_name,signature1_title,signature2_name,signature2_title,position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
		  title=EXCLUDED.title, body=EXCLUDED.body,
		  signature1_name=EXCLUDED.signature1_name, signature1_title=EXCLUDED.signature1_title,
		  signature2_name=EXCLUDED.signature2_name, signature2_title=EXCLUDED.signature2_title,
		  position=EXCLUDED.position`,
		t.ID, orgID, t.Title, t.Body, t.Signature1Name, t.Signature1Title,
		t.Signature2Name, t.Signature2Title, pos)
	return err
}

func (s *SQLStore) ListOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,website,logo FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Website, &o.Logo); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orgs {
		if err := s.loadChildren(ctx, &orgs[i]); err != nil {
			return nil, err
		}
	}
	return orgs, nil
}

func (s *SQLStore) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,website,logo FROM organizations WHERE id=$1`, orgID)
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Website, &o.Logo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrOrgNotFound
		}
		return Organization{}, err
	}
	if err := s.loadChildren(ctx, &o); err != nil {
		return Organization{}, err
	}
	return o, nil
}

func (s *SQLStore) loadChildren(ctx context.Context, o *Organization) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,price,question_source_url,
		number_of_questions,pass_score,certificate_template_id
		FROM exams WHERE org_id=$1 ORDER BY position`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Price, &e.QuestionSourceURL,
			&e.NumberOfQuestions, &e.PassScore, &e.CertificateTemplateID); err != nil {
			return err
		}
		o.Exams = append(o.Exams, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := s.db.QueryContext(ctx, `SELECT id,title,body,signature1_name,signature1_title,
		signature2_name,signature2_title
		FROM certificate_templates WHERE org_id=$1 ORDER BY position`, o.ID)
	if err != nil {
		return err
	}
	defer trows.Close()
	for trows.Next() {
		var t CertificateTemplate
		if err := trows.Scan(&t.ID, &t.Title, &t.Body, &t.Signature1Name, &t.Signature1Title,
			&t.Signature2Name, &t.Signature2Title); err != nil {
			return err
		}
		o.CertificateTemplates = append(o.CertificateTemplates, t)
	}
	return trows.Err()
}

func (s *SQLStore) GetExamConfig(ctx context.Context, orgID, examID string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,price,question_source_url,
		number_of_questions,pass_score,certificate_template_id
		FROM exams WHERE org_id=$1 AND id=$2`, orgID, examID)
	var e Exam
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Price, &e.QuestionSourceURL,
		&e.NumberOfQuestions, &e.PassScore, &e.CertificateTemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) UpdateExam(ctx context.Context, orgID string, e Exam) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE exams SET
		  name=$3, description=$4, price=$5, question_source_url=$6,
		  number_of_questions=$7, pass_score=$8, certificate_template_id=$9
		WHERE org_id=$1 AND id=$2`,
		orgID, e.ID, e.Name, e.Description, e.Price, e.QuestionSourceURL,
		e.NumberOfQuestions, e.PassScore, e.CertificateTemplateID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (s *SQLStore) UpdateTemplate(ctx context.Context, orgID string, t CertificateTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE certificate_templates SET
		  title=$3, body=$4, signature1_name=$5, signature1_title=$6,
		  signature2_name=$7, signature2_title=$8
		WHERE org_id=$1 AND id=$2`,
		orgID, t.ID, t.Title, t.Body, t.Signature1Name, t.Signature1Title,
		t.Signature2Name, t.Signature2Title)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("template %s: %w", t.ID, ErrOrgNotFound)
	}
	return nil
}

func (s *SQLStore) SetOrganizationLogo(ctx context.Context, orgID, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE organizations SET logo=$2 WHERE id=$1`, orgID, key)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrOrgNotFound
	}
	return nil
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	qj, err := json.Marshal(a.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,org_id,exam_id,user_id,status,questions_json,started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.OrgID, a.ExamID, a.UserID, a.Status, string(qj), a.StartedAt)
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,org_id,exam_id,user_id,status,questions_json,started_at
		FROM attempts WHERE id=$1`, attemptID)
	var a Attempt
	var qjson string
	if err := row.Scan(&a.ID, &a.OrgID, &a.ExamID, &a.UserID, &a.Status, &qjson, &a.StartedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &a.Questions); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

// ClaimAttempt is a compare-and-swap on status so concurrent submits of
// one attempt cannot both reach grading.
func (s *SQLStore) ClaimAttempt(ctx context.Context, attemptID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status='submitted' WHERE id=$1 AND status='in_progress'`, attemptID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM attempts WHERE id=$1`, attemptID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAttemptNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("attempt %s: %w", attemptID, ErrResultExists)
}

func (s *SQLStore) PutResult(ctx context.Context, r TestResult) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(r.Review)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO results
		(test_id,user_id,exam_id,score,correct_count,total_questions,recorded_at,answers_json,review_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (test_id,user_id) DO NOTHING`,
		r.TestID, r.UserID, r.ExamID, r.Score, r.CorrectCount, r.TotalQuestions,
		r.Timestamp, string(aj), string(rj))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("result %s: %w", r.TestID, ErrResultExists)
	}
	return nil
}

func (s *SQLStore) GetResult(ctx context.Context, testID, userID string) (TestResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT test_id,user_id,exam_id,score,correct_count,total_questions,
		recorded_at,answers_json,review_json
		FROM results WHERE test_id=$1 AND user_id=$2`, testID, userID)
	var r TestResult
	var ajson, rjson string
	if err := row.Scan(&r.TestID, &r.UserID, &r.ExamID, &r.Score, &r.CorrectCount,
		&r.TotalQuestions, &r.Timestamp, &ajson, &rjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestResult{}, ErrResultNotFound
		}
		return TestResult{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
		return TestResult{}, err
	}
	if err := json.Unmarshal([]byte(rjson), &r.Review); err != nil {
		return TestResult{}, err
	}
	return r, nil
}
