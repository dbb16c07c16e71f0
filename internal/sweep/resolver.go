package sweep

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

// resolverFunc tries one strategy for finding the responsible manager.
// A nil user with a nil error means "this strategy has no answer, try
// the next one".
type resolverFunc func(ctx context.Context) (*domain.User, error)

// ManagerResolver resolves the recipient of escalation notifications
// through a fixed-priority chain: the configured override, then the
// first Manager, then the first Admin.
type ManagerResolver struct {
	chain []resolverFunc
}

// NewManagerResolver builds the chain over the given stores.
func NewManagerResolver(users repository.UserRepository, settings repository.SettingsRepository) *ManagerResolver {
	return &ManagerResolver{chain: []resolverFunc{
		configuredOverride(users, settings),
		firstByRole(users, domain.UserRoleManager),
		firstByRole(users, domain.UserRoleAdmin),
	}}
}

// Resolve walks the chain in order. It returns nil, nil when every
// strategy comes up empty; callers skip the ticket and retry next sweep.
func (r *ManagerResolver) Resolve(ctx context.Context) (*domain.User, error) {
	for _, resolve := range r.chain {
		user, err := resolve(ctx)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}

func configuredOverride(users repository.UserRepository, settings repository.SettingsRepository) resolverFunc {
	return func(ctx context.Context) (*domain.User, error) {
		managerID, err := settings.Get(ctx, repository.SettingEscalationManager)
		if err != nil {
			return nil, err
		}
		managerID = strings.TrimSpace(managerID)
		if managerID == "" {
			return nil, nil
		}
		user, err := users.GetByID(ctx, managerID)
		if err != nil {
			// A stale override id falls through to the role-based
			// strategies instead of blocking escalation.
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}
		return user, nil
	}
}

func firstByRole(users repository.UserRepository, role domain.UserRole) resolverFunc {
	return func(ctx context.Context) (*domain.User, error) {
		user, err := users.FirstByRole(ctx, role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}
		return user, nil
	}
}
