package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UserSyncUseCase applies remote user records to the local store.
type UserSyncUseCase struct {
	repo         interfaces.Repository
	activity     *ActivityLogger
	importFilter MetaFilter
	cache        interfaces.UserCache
	now          func() time.Time
}

func NewUserSyncUseCase(repo interfaces.Repository, activity *ActivityLogger, importFilter MetaFilter, cache interfaces.UserCache, now func() time.Time) *UserSyncUseCase {
	return &UserSyncUseCase{
		repo:         repo,
		activity:     activity,
		importFilter: importFilter,
		cache:        cache,
		now:          now,
	}
}

// Upsert creates or updates the local account for rec. Failures are logged
// and reported as OutcomeErrors; they never abort the caller.
func (uc *UserSyncUseCase) Upsert(ctx context.Context, rec model.UserRecord) model.Outcome {
	user, outcome, err := uc.upsert(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrInvalidUserRecord) {
			logging.From(ctx).Warn("Rejected user record",
				"external_id", rec.ExternalID,
				"user_login", rec.Login,
				"error", err.Error())
		} else {
			_ = errutil.Handle(ctx, err, "failed to upsert user")
		}
		uc.activity.Log(ctx, types.LogTypeError, "Failed to sync user", map[string]any{
			"user_login":  rec.Login,
			"external_id": rec.ExternalID.String(),
			"error":       err.Error(),
		})
		return model.OutcomeErrors
	}

	uc.activity.Log(ctx, types.LogTypeInfo, fmt.Sprintf("User %s: %s", outcome, user.Login), map[string]any{
		"user_id":     user.ID.String(),
		"external_id": rec.ExternalID.String(),
	})
	return outcome
}

func (uc *UserSyncUseCase) upsert(ctx context.Context, rec model.UserRecord) (*model.User, model.Outcome, error) {
	// Matching and storage use the same normalised identity
	rec.Login = strings.TrimSpace(rec.Login)
	rec.Email = strings.TrimSpace(rec.Email)
	if rec.Login == "" || rec.Email == "" {
		return nil, model.OutcomeErrors, goerr.Wrap(ErrInvalidUserRecord, "login and email are required",
			goerr.V("external_id", rec.ExternalID))
	}

	now := uc.now().UTC()
	registeredAt := now
	if v := model.StringOr(rec.RegisteredAt, ""); v != "" {
		t, err := model.ParseTimestamp(v)
		if err != nil {
			return nil, model.OutcomeErrors, goerr.Wrap(ErrInvalidUserRecord, "invalid user_registered",
				goerr.V("user_login", rec.Login),
				goerr.V("value", v))
		}
		registeredAt = t.UTC()
	}

	existing, err := uc.FindExisting(ctx, rec.Login, rec.Email)
	if err != nil {
		return nil, model.OutcomeErrors, err
	}

	user := &model.User{
		Login:         rec.Login,
		PasswordHash:  rec.PasswordHash,
		Nicename:      model.StringOr(rec.Nicename, model.Slugify(rec.Login)),
		Email:         rec.Email,
		URL:           model.StringOr(rec.URL, ""),
		RegisteredAt:  registeredAt,
		ActivationKey: "",
		Status:        0,
		DisplayName:   model.StringOr(rec.DisplayName, rec.Login),
		UpdatedAt:     now,
	}

	outcome := model.OutcomeCreated
	if existing != nil {
		outcome = model.OutcomeUpdated
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		if err := uc.repo.User().Update(ctx, user); err != nil {
			return nil, model.OutcomeErrors, goerr.Wrap(err, "failed to update user", goerr.V("user_id", user.ID))
		}
	} else {
		user.ID = model.NewUserID()
		user.CreatedAt = now
		if err := uc.repo.User().Create(ctx, user); err != nil {
			return nil, model.OutcomeErrors, goerr.Wrap(err, "failed to create user", goerr.V("user_login", user.Login))
		}
	}

	profile := map[string]any{
		"first_name":  model.StringOr(rec.FirstName, ""),
		"last_name":   model.StringOr(rec.LastName, ""),
		"description": model.StringOr(rec.Description, ""),
		"nickname":    model.StringOr(rec.DisplayName, rec.Login),
	}
	if err := uc.repo.User().PutMeta(ctx, user.ID, profile); err != nil {
		return nil, model.OutcomeErrors, goerr.Wrap(err, "failed to write profile meta", goerr.V("user_id", user.ID))
	}

	roles := []string(rec.Roles)
	caps := model.BuildCapabilities(roles, rec.Capabilities)
	if err := uc.repo.User().SetCapabilities(ctx, user.ID, caps, model.UserLevel(roles)); err != nil {
		return nil, model.OutcomeErrors, goerr.Wrap(err, "failed to write capabilities", goerr.V("user_id", user.ID))
	}

	meta := filterMeta(rec.Meta, uc.importFilter)
	meta[MetaLastSync] = now.Format(time.RFC3339)
	meta[MetaSourceID] = rec.ExternalID.String()
	if err := uc.repo.User().PutMeta(ctx, user.ID, meta); err != nil {
		return nil, model.OutcomeErrors, goerr.Wrap(err, "failed to write meta", goerr.V("user_id", user.ID))
	}

	if uc.cache != nil {
		uc.cache.Invalidate(user.ID)
	}

	return user, outcome, nil
}
