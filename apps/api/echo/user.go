package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/user"
)

// Auth API

type authApi struct {
	svc      user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	tg := ag.Group("", jwt)
	tg.GET("/me", api.me)
	tg.POST("/token-refresh", api.refreshToken)
}

func (api *authApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering teacher")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, claims, err := authenticate(ctx, data, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

// me returns the fresh account record of the calling user, not the token
// claims; the frontend uses it to reflect approval and permission changes.
func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

// Admin API

type adminApi struct {
	svc       user.Service
	reportSvc report.Service
	validate  *validator.Validate
}

func registerAdminAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc user.Service,
	reportSvc report.Service,
	validate *validator.Validate,
) {
	api := adminApi{svc: svc, reportSvc: reportSvc, validate: validate}

	ag := g.Group("/admin", jwt, adminMiddleware(svc))

	ag.GET("/teachers", api.queryTeachers)
	ag.GET("/teachers/pending", api.queryPendingTeachers)
	ag.POST("/teachers/:id/approve", api.approve)
	ag.POST("/teachers/:id/reject", api.reject)
	ag.POST("/teachers/:id/grant-mark-entry", api.grantMarkEntry)
	ag.POST("/teachers/:id/revoke-mark-entry", api.revokeMarkEntry)
	ag.PATCH("/teachers/:id/status", api.updateStatus)
	ag.DELETE("/teachers/:id", api.destroy)

	ag.GET("/pre-registered", api.queryPreRegistered)
	ag.POST("/pre-registered", api.preRegister)
	ag.DELETE("/pre-registered/:id", api.destroyPreRegistered)

	ag.GET("/dashboard", api.dashboard)
}

func (api *adminApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *adminApi) queryPendingTeachers(ctx echo.Context) error {
	teachers, err := api.svc.QueryPendingTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending teachers")
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *adminApi) approve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	usr, err := api.svc.Approve(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving teacher")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) reject(ctx echo.Context) error {
	if err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "rejecting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) grantMarkEntry(ctx echo.Context) error {
	var data GrantMarkEntryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrantMarkEntryRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	usr, err := api.svc.GrantMarkEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "granting mark entry")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) revokeMarkEntry(ctx echo.Context) error {
	usr, err := api.svc.RevokeMarkEntry(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "revoking mark entry")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) updateStatus(ctx echo.Context) error {
	var data UpdateStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating teacher status")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) destroy(ctx echo.Context) error {
	// Say No to Suicide! ctxUser cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Subject == ctx.Param("id") {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryPreRegistered(ctx echo.Context) error {
	prts, err := api.svc.QueryPreRegistered(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pre-registered teachers")
	}
	if prts == nil {
		prts = []user.PreRegisteredTeacher{}
	}
	return ctx.JSON(http.StatusOK, prts)
}

func (api *adminApi) preRegister(ctx echo.Context) error {
	var data user.NewPreRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPreRegistration")
	}

	prt, err := api.svc.PreRegister(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "pre-registering teacher")
	}
	return ctx.JSON(http.StatusCreated, prt)
}

func (api *adminApi) destroyPreRegistered(ctx echo.Context) error {
	if err := api.svc.DeletePreRegistered(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting pre-registered teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	dash, err := api.reportSvc.AdminDashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building admin dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
