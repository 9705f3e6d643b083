package usecases_test

import (
	"context"
	"sync"
	"time"

	"actdone.backend/internal/domain/entities"
	redispkg "actdone.backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	args := m.Called(ctx)
	return args.Get(0).(context.Context)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) LinkExternalIdentity(ctx context.Context, id uuid.UUID, externalID string) error {
	args := m.Called(ctx, id, externalID)
	return args.Error(0)
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock EmailVerificationRepository
type MockEmailVerificationRepository struct {
	mock.Mock
}

func (m *MockEmailVerificationRepository) Create(ctx context.Context, v *entities.EmailVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockEmailVerificationRepository) GetByToken(ctx context.Context, token string) (*entities.EmailVerification, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EmailVerification), args.Error(1)
}

func (m *MockEmailVerificationRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	args := m.Called(ctx, token, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockEmailVerificationRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// Mock TaskListRepository
type MockTaskListRepository struct {
	mock.Mock
}

func (m *MockTaskListRepository) CreateDefault(ctx context.Context, userID uuid.UUID, name string) (*entities.TaskList, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TaskList), args.Error(1)
}

func (m *MockTaskListRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.TaskList, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TaskList), args.Error(1)
}

// Mock VerificationMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, to, link string) error {
	args := m.Called(ctx, to, link)
	return args.Error(0)
}

// Mock IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Name() string        { return "google" }
func (m *MockIdentityProvider) DisplayName() string { return "Google" }
func (m *MockIdentityProvider) NewVerifier() string { return "verifier-fixed" }

func (m *MockIdentityProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example.com/auth?state=" + state + "&v=" + verifier
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code, verifier string) (*entities.ExternalIdentity, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ExternalIdentity), args.Error(1)
}

// Mock OAuthStateStore
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, state string, data *redispkg.StateData) error {
	args := m.Called(ctx, state, data)
	return args.Error(0)
}

func (m *MockStateStore) Consume(ctx context.Context, state string) (*redispkg.StateData, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redispkg.StateData), args.Error(1)
}

// eventLog records auth events in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) AuthEvent(flow, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, flow+":"+outcome)
}

func (e *eventLog) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}
