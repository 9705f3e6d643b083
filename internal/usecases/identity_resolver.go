package usecases

import (
	"context"
	"errors"
	"strings"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/domain/repositories"
	"actdone.backend/pkg/validators"
	"github.com/volatiletech/null/v8"
)

// IdentityResolver maps a provider-asserted identity onto exactly one account.
type IdentityResolver struct {
	uow             repositories.UnitOfWork
	users           repositories.UserRepository
	lists           repositories.TaskListRepository
	defaultListName string
}

func NewIdentityResolver(
	uow repositories.UnitOfWork,
	users repositories.UserRepository,
	lists repositories.TaskListRepository,
	defaultListName string,
) *IdentityResolver {
	return &IdentityResolver{
		uow:             uow,
		users:           users,
		lists:           lists,
		defaultListName: defaultListName,
	}
}

// Resolve finds the account by provider subject, then by email (linking the
// subject to it), and otherwise creates a verified, password-less account with
// its default list. All three branches run in one transaction.
func (r *IdentityResolver) Resolve(ctx context.Context, identity entities.ExternalIdentity) (*entities.ResolveResult, error) {
	externalID := strings.TrimSpace(identity.ExternalID)
	email := entities.NormalizeEmail(identity.Email)
	if externalID == "" || !validators.IsEmail(email) {
		return nil, domainerrors.ErrInvalidInput
	}

	var result *entities.ResolveResult
	err := r.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := r.users.GetByExternalID(txCtx, externalID)
		if err == nil {
			result = &entities.ResolveResult{Outcome: entities.ResolveExisting, User: user}
			return nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}

		user, err = r.users.GetByEmail(r.uow.WithLock(txCtx), email)
		if err == nil {
			if err := r.users.LinkExternalIdentity(txCtx, user.ID, externalID); err != nil {
				return err
			}
			user.ExternalID = null.StringFrom(externalID)
			user.IsEmailVerified = true
			result = &entities.ResolveResult{Outcome: entities.ResolveMerged, User: user}
			return nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}

		user = &entities.User{
			Email:           email,
			Name:            displayName(identity.DisplayName),
			ExternalID:      null.StringFrom(externalID),
			IsEmailVerified: true,
		}
		if err := r.users.Create(txCtx, user); err != nil {
			return err
		}
		if _, err := r.lists.CreateDefault(txCtx, user.ID, r.defaultListName); err != nil {
			return err
		}
		result = &entities.ResolveResult{Outcome: entities.ResolveCreated, User: user}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func displayName(name string) null.String {
	name = strings.TrimSpace(name)
	if name == "" {
		return null.String{}
	}
	if runes := []rune(name); len(runes) > validators.MaxNameLength {
		name = strings.TrimSpace(string(runes[:validators.MaxNameLength]))
	}
	return null.StringFrom(name)
}
