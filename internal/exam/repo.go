package exam

import (
	"context"
	"errors"
)

var (
	// ErrOrgNotFound / ErrExamNotFound are caller errors: unknown ids.
	ErrOrgNotFound  = errors.New("organization not found")
	ErrExamNotFound = errors.New("exam not found")

	ErrAttemptNotFound = errors.New("attempt not found")
	ErrResultNotFound  = errors.New("result not found")

	// ErrPoolUnavailable means grading was attempted without a live pool
	// for the exam's source and without an attempt snapshot: a lifecycle
	// ordering violation, not a transport failure.
	ErrPoolUnavailable = errors.New("question pool not available for grading")

	// ErrResultExists guards the write-once contract on results.
	ErrResultExists = errors.New("result already recorded")
)

// Store is the persistence boundary of the core. Configuration data
// (organizations, exams, templates) is read-mostly and admin-managed;
// results are write-once; attempts carry the sampled snapshot of one
// in-progress test.
type Store interface {
	PutOrganization(ctx context.Context, org Organization) error
	ListOrganizations(ctx context.Context) ([]Organization, error)
	GetOrganization(ctx context.Context, orgID string) (Organization, error)
	GetExamConfig(ctx context.Context, orgID, examID string) (Exam, error)
	UpdateExam(ctx context.Context, orgID string, e Exam) error
	UpdateTemplate(ctx context.Context, orgID string, t CertificateTemplate) error
	SetOrganizationLogo(ctx context.Context, orgID, key string) error

	PutAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (Attempt, error)
	// ClaimAttempt atomically flips in_progress -> submitted. Exactly one
	// caller wins; the rest get ErrResultExists. Grading must happen only
	// after a successful claim.
	ClaimAttempt(ctx context.Context, attemptID string) error

	PutResult(ctx context.Context, r TestResult) error
	GetResult(ctx context.Context, testID, userID string) (TestResult, error)
}
