package exam

import (
	"context"
	"fmt"
	"sync"
)

// memoryStore keeps the whole configuration tree and results in process
// memory. Used for offline/dev runs and in package tests; semantics match
// SQLStore, including the write-once guard on results.
type memoryStore struct {
	mu       sync.RWMutex
	orgs     map[string]Organization
	orgOrder []string
	attempts map[string]Attempt
	results  map[string]TestResult // key: testID|userID
}

func NewInMemoryStore() Store {
	return &memoryStore{
		orgs:     map[string]Organization{},
		attempts: map[string]Attempt{},
		results:  map[string]TestResult{},
	}
}

func resultKey(testID, userID string) string { return testID + "|" + userID }

func (m *memoryStore) PutOrganization(_ context.Context, org Organization) error {
	for _, e := range org.Exams {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, t := range org.CertificateTemplates {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		m.orgOrder = append(m.orgOrder, org.ID)
	}
	m.orgs[org.ID] = org
	return nil
}

func (m *memoryStore) ListOrganizations(_ context.Context) ([]Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Organization, 0, len(m.orgOrder))
	for _, id := range m.orgOrder {
		out = append(out, m.orgs[id])
	}
	return out, nil
}

func (m *memoryStore) GetOrganization(_ context.Context, orgID string) (Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orgs[orgID]
	if !ok {
		return Organization{}, ErrOrgNotFound
	}
	return o, nil
}

func (m *memoryStore) GetExamConfig(_ context.Context, orgID, examID string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orgs[orgID]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	e, ok := o.Exam(examID)
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (m *memoryStore) UpdateExam(_ context.Context, orgID string, e Exam) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	for i := range o.Exams {
		if o.Exams[i].ID == e.ID {
			o.Exams[i] = e
			m.orgs[orgID] = o
			return nil
		}
	}
	return ErrExamNotFound
}

func (m *memoryStore) UpdateTemplate(_ context.Context, orgID string, t CertificateTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	for i := range o.CertificateTemplates {
		if o.CertificateTemplates[i].ID == t.ID {
			o.CertificateTemplates[i] = t
			m.orgs[orgID] = o
			return nil
		}
	}
	return fmt.Errorf("template %s: %w", t.ID, ErrOrgNotFound)
}

func (m *memoryStore) SetOrganizationLogo(_ context.Context, orgID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	o.Logo = key
	m.orgs[orgID] = o
	return nil
}

func (m *memoryStore) PutAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) ClaimAttempt(_ context.Context, attemptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	if a.Status != "in_progress" {
		return fmt.Errorf("attempt %s: %w", attemptID, ErrResultExists)
	}
	a.Status = "submitted"
	m.attempts[attemptID] = a
	return nil
}

func (m *memoryStore) PutResult(_ context.Context, r TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := resultKey(r.TestID, r.UserID)
	if _, ok := m.results[k]; ok {
		return fmt.Errorf("result %s: %w", r.TestID, ErrResultExists)
	}
	m.results[k] = r
	return nil
}

func (m *memoryStore) GetResult(_ context.Context, testID, userID string) (TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[resultKey(testID, userID)]
	if !ok {
		return TestResult{}, ErrResultNotFound
	}
	return r, nil
}
