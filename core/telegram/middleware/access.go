package middleware

import tele "gopkg.in/telebot.v4"

// RoleChecker reports whether a user currently holds manager privilege.
// Backed by an explicitly passed access-control service, not a config id,
// so tests can pre-seed privilege.
type RoleChecker interface {
	IsManager(userID int64) bool
}

// ManagerOptions defines how manager-only checks should behave.
type ManagerOptions struct {
	Roles    RoleChecker
	OnReject tele.HandlerFunc
}

// ManagerOnlyMiddleware ensures that only users holding manager privilege
// can invoke downstream handlers. Rejection does not alter any state.
func ManagerOnlyMiddleware(opts ManagerOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Roles != nil && !opts.Roles.IsManager(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
