package auth

import "context"

// MockVerifier returns a fixed principal or error. Tests use it in place of
// a real token check.
type MockVerifier struct {
	Principal *Principal
	Error     error
}

// Verify returns the configured principal or error.
func (m *MockVerifier) Verify(_ context.Context, _ string) (*Principal, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Principal, nil
}

// TestPrincipal returns a standard test caller.
func TestPrincipal() *Principal {
	return &Principal{Subject: "test-user-123", Username: "testadvisor", Email: "test@example.com"}
}

var _ Verifier = (*MockVerifier)(nil)
