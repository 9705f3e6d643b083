package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/domain/repositories"
	"actdone.backend/pkg/crypto"
	"actdone.backend/pkg/jwt"
	"actdone.backend/pkg/logger"
	redispkg "actdone.backend/pkg/redis"
	"actdone.backend/pkg/validators"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
)

// VerificationMailer delivers the verification link.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
}

// IdentityProvider is an external OAuth 2.0 identity provider.
type IdentityProvider interface {
	Name() string
	DisplayName() string
	NewVerifier() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*entities.ExternalIdentity, error)
}

// OAuthStateStore keeps pending authorization states until the callback.
type OAuthStateStore interface {
	Save(ctx context.Context, state string, data *redispkg.StateData) error
	Consume(ctx context.Context, state string) (*redispkg.StateData, error)
}

// AuthEventRecorder counts auth flow outcomes.
type AuthEventRecorder interface {
	AuthEvent(flow, outcome string)
}

// AuthDeps are the collaborators of AuthUsecase. Providers, States and
// Events may be nil.
type AuthDeps struct {
	UnitOfWork repositories.UnitOfWork
	Users      repositories.UserRepository
	Lists      repositories.TaskListRepository
	Ledger     *VerificationLedger
	Resolver   *IdentityResolver
	Hasher     *crypto.PasswordHasher
	Sessions   *jwt.SessionIssuer
	Mailer     VerificationMailer
	States     OAuthStateStore
	Providers  []IdentityProvider
	Events     AuthEventRecorder
}

// AuthOptions holds the URLs and labels used by the flows. ExternalAccountName
// labels provider-only accounts only when no provider is registered; otherwise
// the first provider's DisplayName is used.
type AuthOptions struct {
	AppBaseURL          string
	ClientURL           string
	VerifySuccessPath   string
	OAuthSuccessPath    string
	DefaultListName     string
	ExternalAccountName string
}

// OAuthCallback is what the provider sends back to the callback route.
type OAuthCallback struct {
	Code  string
	State string
	Error string
}

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	uow       repositories.UnitOfWork
	users     repositories.UserRepository
	lists     repositories.TaskListRepository
	ledger    *VerificationLedger
	resolver  *IdentityResolver
	hasher    *crypto.PasswordHasher
	sessions  *jwt.SessionIssuer
	mailer    VerificationMailer
	states    OAuthStateStore
	providers map[string]IdentityProvider
	events    AuthEventRecorder
	opts      AuthOptions
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(deps AuthDeps, opts AuthOptions) *AuthUsecase {
	providers := make(map[string]IdentityProvider, len(deps.Providers))
	for _, p := range deps.Providers {
		providers[strings.ToLower(p.Name())] = p
	}
	if len(deps.Providers) > 0 {
		opts.ExternalAccountName = deps.Providers[0].DisplayName()
	}
	if opts.ExternalAccountName == "" {
		opts.ExternalAccountName = "Google"
	}
	opts.AppBaseURL = strings.TrimRight(opts.AppBaseURL, "/")
	opts.ClientURL = strings.TrimRight(opts.ClientURL, "/")

	return &AuthUsecase{
		uow:       deps.UnitOfWork,
		users:     deps.Users,
		lists:     deps.Lists,
		ledger:    deps.Ledger,
		resolver:  deps.Resolver,
		hasher:    deps.Hasher,
		sessions:  deps.Sessions,
		mailer:    deps.Mailer,
		states:    deps.States,
		providers: providers,
		events:    deps.Events,
		opts:      opts,
		now:       time.Now,
	}
}

// SessionTTL is the lifetime of issued sessions.
func (u *AuthUsecase) SessionTTL() time.Duration {
	return u.sessions.TTL()
}

// VerifySuccessURL is where a verified user is sent.
func (u *AuthUsecase) VerifySuccessURL() string {
	return u.opts.ClientURL + u.opts.VerifySuccessPath
}

// OAuthSuccessURL is where a user lands after provider sign-in.
func (u *AuthUsecase) OAuthSuccessURL() string {
	return u.opts.ClientURL + u.opts.OAuthSuccessPath
}

// Register creates an unverified password account with its default list and
// a verification token, then mails the link. Mail is sent after commit; a
// delivery failure is reported but the account stays.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.RegisterResult, error) {
	if input == nil {
		return nil, domainerrors.BadRequest(MsgBodyMissing)
	}
	input.Normalize()

	if input.Email == "" || input.Password == "" {
		return nil, domainerrors.BadRequest(MsgEmailPasswordRequired)
	}
	if err := validators.Struct(input); err != nil {
		u.record(FlowRegister, OutcomeRejected)
		return nil, registerValidationError(err)
	}

	if _, err := u.users.GetByEmail(ctx, input.Email); err == nil {
		u.record(FlowRegister, OutcomeConflict)
		return nil, domainerrors.Conflict(MsgEmailInUse)
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, domainerrors.InternalError(err)
	}

	hash, err := u.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	user := &entities.User{
		Email:        input.Email,
		PasswordHash: null.StringFrom(hash),
	}
	if input.Name != nil && *input.Name != "" {
		user.Name = null.StringFrom(*input.Name)
	}

	var token *entities.EmailVerification
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.users.Create(txCtx, user); err != nil {
			return err
		}
		if _, err := u.lists.CreateDefault(txCtx, user.ID, u.opts.DefaultListName); err != nil {
			return err
		}
		issued, err := u.ledger.Issue(txCtx, user.ID)
		if err != nil {
			return err
		}
		token = issued
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			u.record(FlowRegister, OutcomeConflict)
			return nil, domainerrors.Conflict(MsgEmailInUse)
		}
		u.record(FlowRegister, OutcomeError)
		return nil, domainerrors.InternalError(err)
	}

	link := u.verificationURL(token.Token)
	if err := u.mailer.SendVerificationEmail(ctx, user.Email, link); err != nil {
		logger.Error(ctx, "Failed to send verification email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		u.record(FlowRegister, OutcomeMailFailed)
		return nil, domainerrors.InternalErrorWithMessage(MsgRegistrationMailFailed,
			fmt.Errorf("%w: %v", domainerrors.ErrDeliveryFailed, err))
	}

	u.record(FlowRegister, OutcomeSuccess)
	return &entities.RegisterResult{User: user, VerificationURL: link}, nil
}

// VerifyEmail consumes token and marks its owner verified in one transaction.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		u.record(FlowVerifyEmail, OutcomeRejected)
		return domainerrors.BadRequest(MsgTokenMissing)
	}

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		userID, err := u.ledger.Consume(txCtx, token)
		if err != nil {
			return err
		}
		return u.users.MarkEmailVerified(txCtx, userID)
	})
	if err == nil {
		u.record(FlowVerifyEmail, OutcomeSuccess)
		return nil
	}

	switch {
	case errors.Is(err, domainerrors.ErrTokenInvalid):
		u.record(FlowVerifyEmail, OutcomeRejected)
		return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeTokenInvalid, MsgTokenInvalid, err)
	case errors.Is(err, domainerrors.ErrTokenUsed):
		u.record(FlowVerifyEmail, OutcomeRejected)
		return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeTokenUsed, MsgTokenUsed, err)
	case errors.Is(err, domainerrors.ErrTokenExpired):
		u.record(FlowVerifyEmail, OutcomeRejected)
		return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeTokenExpired, MsgTokenExpired, err)
	default:
		u.record(FlowVerifyEmail, OutcomeError)
		return domainerrors.InternalError(err)
	}
}

// Login checks a password and issues a session. Unknown accounts and wrong
// passwords produce the same error.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResult, error) {
	if input == nil {
		return nil, domainerrors.BadRequest(MsgBodyMissing)
	}
	email := entities.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domainerrors.BadRequest(MsgEmailPasswordRequired)
	}
	if !validators.IsEmail(email) {
		return nil, domainerrors.BadRequest(MsgInvalidEmail)
	}

	user, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			u.hasher.Verify(input.Password, u.timingHash())
			u.record(FlowLogin, OutcomeRejected)
			return nil, invalidCredentials()
		}
		return nil, domainerrors.InternalError(err)
	}

	if !user.HasPassword() {
		u.record(FlowLogin, OutcomeRejected)
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest,
			MsgExternalAccount(u.opts.ExternalAccountName), domainerrors.ErrPasswordNotSet)
	}
	if !u.hasher.Verify(input.Password, user.PasswordHash.String) {
		u.record(FlowLogin, OutcomeRejected)
		return nil, invalidCredentials()
	}
	if !user.IsEmailVerified {
		u.record(FlowLogin, OutcomeRejected)
		return nil, domainerrors.NewAppError(http.StatusForbidden, domainerrors.CodeEmailNotVerified,
			MsgEmailNotVerified, domainerrors.ErrEmailNotVerified)
	}

	session, err := u.issueSession(user.ID)
	if err != nil {
		return nil, err
	}
	u.record(FlowLogin, OutcomeSuccess)
	return &entities.AuthResult{User: user, Session: session}, nil
}

// GetUserByID gets a user by ID
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := u.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(MsgUserNotFound)
		}
		return nil, domainerrors.InternalError(err)
	}
	return user, nil
}

// StartOAuth stores a single-use state and returns the provider consent URL.
func (u *AuthUsecase) StartOAuth(ctx context.Context, providerName string) (string, error) {
	provider, err := u.provider(providerName)
	if err != nil {
		return "", err
	}

	state, err := crypto.GenerateRandomToken(32)
	if err != nil {
		return "", domainerrors.InternalError(err)
	}
	verifier := provider.NewVerifier()

	if err := u.states.Save(ctx, state, &redispkg.StateData{
		Provider:     provider.Name(),
		CodeVerifier: verifier,
		CreatedAt:    u.now().UTC(),
	}); err != nil {
		logger.Error(ctx, "Failed to store OAuth state", zap.Error(err))
		return "", domainerrors.ServiceUnavailable(MsgOAuthUnavailable, err)
	}

	return provider.AuthCodeURL(state, verifier), nil
}

// CompleteOAuth validates the callback, exchanges the code, resolves the
// account and issues a session.
func (u *AuthUsecase) CompleteOAuth(ctx context.Context, providerName string, cb OAuthCallback) (*entities.AuthResult, error) {
	provider, err := u.provider(providerName)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cb.State) == "" {
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.BadRequest(MsgOAuthStateInvalid)
	}
	pending, err := u.states.Consume(ctx, cb.State)
	if err != nil {
		if errors.Is(err, redispkg.ErrStateNotFound) {
			u.record(FlowOAuth, OutcomeRejected)
			return nil, domainerrors.BadRequest(MsgOAuthStateInvalid)
		}
		logger.Error(ctx, "Failed to read OAuth state", zap.Error(err))
		return nil, domainerrors.ServiceUnavailable(MsgOAuthUnavailable, err)
	}
	if pending.Provider != provider.Name() {
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.BadRequest(MsgOAuthStateInvalid)
	}

	if cb.Error != "" {
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.BadRequest(MsgOAuthDenied)
	}
	if strings.TrimSpace(cb.Code) == "" {
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.BadRequest(MsgOAuthFailed)
	}

	identity, err := provider.Exchange(ctx, cb.Code, pending.CodeVerifier)
	if err != nil {
		logger.Warn(ctx, "OAuth code exchange failed",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest, MsgOAuthFailed, err)
	}
	if identity.EmailVerified != nil && !*identity.EmailVerified {
		u.record(FlowOAuth, OutcomeRejected)
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest,
			MsgOAuthEmailUnverified, domainerrors.ErrInvalidInput)
	}

	resolved, err := u.resolver.Resolve(ctx, *identity)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyExists):
			u.record(FlowOAuth, OutcomeConflict)
			return nil, domainerrors.Conflict(MsgOAuthConflict)
		case errors.Is(err, domainerrors.ErrInvalidInput):
			u.record(FlowOAuth, OutcomeRejected)
			return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest, MsgOAuthFailed, err)
		default:
			u.record(FlowOAuth, OutcomeError)
			return nil, domainerrors.InternalError(err)
		}
	}

	session, err := u.issueSession(resolved.User.ID)
	if err != nil {
		return nil, err
	}
	u.record(FlowOAuth, string(resolved.Outcome))
	return &entities.AuthResult{User: resolved.User, Session: session, Outcome: resolved.Outcome}, nil
}

func (u *AuthUsecase) provider(name string) (IdentityProvider, error) {
	p, ok := u.providers[strings.ToLower(name)]
	if !ok || u.states == nil {
		return nil, domainerrors.NotFound(MsgProviderUnknown)
	}
	return p, nil
}

func (u *AuthUsecase) issueSession(userID uuid.UUID) (entities.Session, error) {
	token, expiresAt, err := u.sessions.Issue(userID)
	if err != nil {
		return entities.Session{}, domainerrors.InternalError(err)
	}
	return entities.Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (u *AuthUsecase) verificationURL(token string) string {
	return u.opts.AppBaseURL + VerificationPath + "?token=" + url.QueryEscape(token)
}

// timingHash is compared against when the account does not exist, so a miss
// costs about as much as a wrong password.
func (u *AuthUsecase) timingHash() string {
	u.dummyOnce.Do(func() {
		hash, err := u.hasher.Hash(uuid.NewString())
		if err == nil {
			u.dummyHash = hash
		}
	})
	return u.dummyHash
}

func (u *AuthUsecase) record(flow, outcome string) {
	if u.events != nil {
		u.events.AuthEvent(flow, outcome)
	}
}

func invalidCredentials() error {
	return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeInvalidCredentials,
		MsgInvalidCredentials, domainerrors.ErrInvalidCredentials)
}

func registerValidationError(err error) error {
	field, tag, ok := validators.FirstFailure(err)
	if !ok {
		return domainerrors.BadRequest(MsgBodyMissing)
	}
	switch field {
	case "Email":
		return domainerrors.BadRequest(MsgInvalidEmail)
	case "Password":
		if tag == "password_length" {
			return domainerrors.BadRequest(MsgPasswordTooLong)
		}
		return domainerrors.BadRequest(MsgWeakPassword)
	case "Name":
		return domainerrors.BadRequest(MsgInvalidName)
	default:
		return domainerrors.BadRequest(MsgBodyMissing)
	}
}
