package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/user"
)

// access describes what an endpoint requires of the calling account.
// requireActive and requireMarkEntry re-read the live account record so that
// status changes and revocations take effect on the very next request,
// regardless of what the token claims say.
type access struct {
	role             string
	requireApproved  bool
	requireActive    bool
	requireMarkEntry bool
}

func accessMiddleware(svc user.Service, a access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if a.role != "" && claims.Role != a.role {
				return errHttpForbidden
			}

			if a.requireActive || a.requireMarkEntry {
				usr, err := getContextUser(ctx, svc, claims)
				if err != nil {
					if errors.Cause(err) == user.ErrNotFound {
						return errUnauthorized
					}
					return errors.Wrap(err, "getting context user")
				}
				if a.requireApproved && !usr.IsApproved {
					return errAccountNotApproved
				}
				if !usr.IsActive() {
					return errAccountDeactivated
				}
				if a.requireMarkEntry && !usr.CanSubmitMarks() {
					return errMarkEntryDenied
				}
				return next(ctx)
			}

			if a.requireApproved && !claims.IsApproved {
				return errAccountNotApproved
			}
			return next(ctx)
		}
	}
}

func adminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return accessMiddleware(svc, access{role: user.RoleAdmin, requireActive: true})
}

func teacherMiddleware(svc user.Service) echo.MiddlewareFunc {
	return accessMiddleware(svc, access{role: user.RoleTeacher, requireApproved: true, requireActive: true})
}

func markEntryMiddleware(svc user.Service) echo.MiddlewareFunc {
	return accessMiddleware(svc, access{role: user.RoleTeacher, requireApproved: true, requireActive: true, requireMarkEntry: true})
}
