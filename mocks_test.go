package accounts_test

import (
	"context"
	"sync"

	accounts "github.com/forgehq/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (*accounts.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (*accounts.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []accounts.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]accounts.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) EventTypes() []accounts.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]accounts.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}

// testConfig is a static accounts.Config for tests.
type testConfig struct {
	signingKey      string
	signingMethod   string
	contextKey      string
	cookieName      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		signingMethod:   "HS256",
		contextKey:      "user",
		cookieName:      "auth-token",
		tokenExpiration: 24,
		issuer:          "accounts-test",
	}
}

func (c *testConfig) GetSigningKey() string    { return c.signingKey }
func (c *testConfig) GetSigningMethod() string { return c.signingMethod }
func (c *testConfig) GetContextKey() string    { return c.contextKey }
func (c *testConfig) GetCookieName() string    { return c.cookieName }
func (c *testConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c *testConfig) GetIssuer() string        { return c.issuer }
func (c *testConfig) GetAudience() []string    { return c.audience }
