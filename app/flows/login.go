package flows

import (
	"context"

	"log/slog"

	"github.com/m3rciful/ridebot/core/logger"
	"github.com/m3rciful/ridebot/core/state"
)

// LoginFlowName identifies the manager-login flow.
const LoginFlowName = "manager_login"

// StateLoginKey awaits the manager key and commits.
const StateLoginKey state.State = "login:key"

// RoleGranter is the access-control surface the login flow needs.
type RoleGranter interface {
	Grant(userID int64)
}

// NewLoginFlow builds the single-step manager login. The key comparison
// is exact and case-sensitive; success and failure both clear the
// session, and there is no retry limit.
func NewLoginFlow(roles RoleGranter, managerKey string) *Flow {
	return &Flow{
		Name:  LoginFlowName,
		Entry: StateLoginKey,
		Steps: map[state.State]Step{
			StateLoginKey: {
				Prompt: "Enter the manager key:",
				Field:  "key",
			},
		},
		Commit: func(ctx context.Context, userID int64, bag Bag) (Reply, error) {
			if managerKey != "" && bag.String("key") == managerKey {
				roles.Grant(userID)
				logger.Info(ctx, "flow", "manager.login",
					slog.Int64("user_id", userID),
					slog.String("status", "ok"),
				)
				return Reply{Text: "Logged in as manager.", Menu: MenuManager}, nil
			}
			logger.Warn(ctx, "flow", "manager.login",
				slog.Int64("user_id", userID),
				slog.String("status", "fail"),
			)
			return Reply{Text: "Wrong manager key."}, nil
		},
	}
}
