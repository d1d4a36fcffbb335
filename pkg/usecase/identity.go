package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// FindExisting resolves a remote account to a local one. Login is tried
// first and email only when no login matches, so an account matching by
// login always wins over a different account matching by email. Returns
// nil, nil when neither matches.
func (uc *UserSyncUseCase) FindExisting(ctx context.Context, login, email string) (*model.User, error) {
	if login = strings.TrimSpace(login); login != "" {
		user, err := uc.repo.User().GetByLogin(ctx, login)
		switch {
		case err == nil:
			return user, nil
		case !errors.Is(err, interfaces.ErrNotFound):
			return nil, goerr.Wrap(err, "failed to look up user by login", goerr.V("login", login))
		}
	}

	if email = strings.TrimSpace(email); email != "" {
		user, err := uc.repo.User().GetByEmail(ctx, email)
		switch {
		case err == nil:
			return user, nil
		case !errors.Is(err, interfaces.ErrNotFound):
			return nil, goerr.Wrap(err, "failed to look up user by email", goerr.V("email", email))
		}
	}

	return nil, nil
}
