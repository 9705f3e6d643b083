package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/infrastructure/models"
	"actdone.backend/internal/infrastructure/repositories"
	"actdone.backend/internal/usecases"
	"actdone.backend/pkg/crypto"
	"actdone.backend/pkg/jwt"
	redispkg "actdone.backend/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAppBaseURL = "http://api.actdone.test"
	testClientURL  = "http://app.actdone.test"
	testPassword   = "Secur3!pass"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usecases_%d?mode=memory&cache=shared&_busy_timeout=5000", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func startMiniRedis(t *testing.T) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	orig := redispkg.GetClient()
	c := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redispkg.SetClient(c)
	t.Cleanup(func() {
		_ = c.Close()
		redispkg.SetClient(orig)
	})
}

type sentMail struct {
	To   string
	Link string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Link: link})
	return m.err
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	u, err := url.Parse(m.sent[len(m.sent)-1].Link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type harness struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	tokens   *repositories.EmailVerificationRepository
	lists    *repositories.TaskListRepository
	ledger   *usecases.VerificationLedger
	resolver *usecases.IdentityResolver
	sessions *jwt.SessionIssuer
	mailer   *captureMailer
	provider *MockIdentityProvider
	events   *eventLog
	uc       *usecases.AuthUsecase

	mu  sync.Mutex
	now time.Time
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	startMiniRedis(t)

	db := newTestDB(t)
	h := &harness{
		db:       db,
		users:    repositories.NewUserRepository(db),
		tokens:   repositories.NewEmailVerificationRepository(db),
		lists:    repositories.NewTaskListRepository(db),
		sessions: jwt.NewSessionIssuer("usecase-test-secret-with-32-chars!!", 30*time.Minute),
		mailer:   &captureMailer{},
		provider: new(MockIdentityProvider),
		events:   &eventLog{},
		now:      time.Now().UTC().Truncate(time.Second),
	}
	uow := repositories.NewUnitOfWork(db)
	h.ledger = usecases.NewVerificationLedger(h.tokens, 24*time.Hour).WithClock(h.clock)
	h.resolver = usecases.NewIdentityResolver(uow, h.users, h.lists, "My Tasks")
	h.uc = usecases.NewAuthUsecase(usecases.AuthDeps{
		UnitOfWork: uow,
		Users:      h.users,
		Lists:      h.lists,
		Ledger:     h.ledger,
		Resolver:   h.resolver,
		Hasher:     crypto.NewPasswordHasher(4),
		Sessions:   h.sessions,
		Mailer:     h.mailer,
		States:     redispkg.NewStateStore(time.Minute),
		Providers:  []usecases.IdentityProvider{h.provider},
		Events:     h.events,
	}, usecases.AuthOptions{
		AppBaseURL:          testAppBaseURL + "/",
		ClientURL:           testClientURL,
		VerifySuccessPath:   "/verify-email/success",
		OAuthSuccessPath:    "/",
		DefaultListName:     "My Tasks",
		ExternalAccountName: "Fallback",
	})
	return h
}

func (h *harness) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Table(table).Count(&n).Error)
	return n
}

func requireAppError(t *testing.T, err error, status int, message string) *domainerrors.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Status)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
	return appErr
}

func strPtr(s string) *string { return &s }
