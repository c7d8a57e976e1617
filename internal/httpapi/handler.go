// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the account workflows as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/oklog/ulid/v2"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/response"
	"github.com/holomush/accountd/pkg/errutil"
)

// BasePath prefixes every account route.
const BasePath = "/api/v1/auth"

// MaxBodySize bounds request bodies.
const MaxBodySize = 64 * 1024

// UnmatchedRoute is the metrics label for requests no route matched.
const UnmatchedRoute = "unmatched"

// Service is the workflow surface the API calls. *auth.Engine implements it.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	Login(ctx context.Context, username, password string) (*auth.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, accountID ulid.ULID, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	GetProfile(ctx context.Context, accountID ulid.ULID) (*auth.Account, error)
	UpdateProfile(ctx context.Context, accountID ulid.ULID, upd auth.ProfileUpdate) (*auth.Account, error)
	Authenticate(ctx context.Context, token string) (*auth.SessionClaims, error)
	Logout(ctx context.Context, claims *auth.SessionClaims) error
}

var _ Service = (*auth.Engine)(nil)

// RequestRecorder counts served requests.
type RequestRecorder interface {
	RecordHTTPRequest(route string, status int)
}

type claimsKey struct{}

// Handler serves the account routes.
type Handler struct {
	svc     Service
	logger  *slog.Logger
	metrics RequestRecorder
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithRequestRecorder counts every response by route and status.
func WithRequestRecorder(r RequestRecorder) Option {
	return func(h *Handler) { h.metrics = r }
}

// NewHandler creates a Handler for svc.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// App returns a fiber app with the account routes mounted.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "accountd",
		BodyLimit:    MaxBodySize,
		ErrorHandler: h.handleError,
	})
	h.Mount(app)
	return app
}

// Mount registers the account routes on router.
func (h *Handler) Mount(router fiber.Router) {
	api := router.Group(BasePath)

	api.Post("/register", h.register)
	api.Post("/login", h.login)
	api.Post("/forgot-password", h.forgotPassword)
	api.Post("/reset-password", h.resetPassword)
	api.Post("/verify-email", h.verifyEmail)

	api.Post("/change-password", h.requireAuth, h.changePassword)
	api.Get("/profile", h.requireAuth, h.getProfile)
	api.Put("/profile", h.requireAuth, h.updateProfile)
	api.Post("/logout", h.requireAuth, h.logout)
}

// ClaimsFrom returns the session claims stored by the bearer middleware.
func ClaimsFrom(c fiber.Ctx) (*auth.SessionClaims, bool) {
	claims, ok := c.Locals(claimsKey{}).(*auth.SessionClaims)
	return claims, ok && claims != nil
}

// bearerToken extracts the credential of an "Authorization: Bearer" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (h *Handler) requireAuth(c fiber.Ctx) error {
	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return h.write(c, response.Unauthorized(response.MsgMissingToken))
	}
	claims, err := h.svc.Authenticate(c.Context(), token)
	if err != nil {
		return h.fail(c, auth.OpAuthenticate, err)
	}
	c.Locals(claimsKey{}, claims)
	return c.Next()
}

func (h *Handler) write(c fiber.Ctx, res response.Result) error {
	if h.metrics != nil {
		h.metrics.RecordHTTPRequest(routeLabel(c), res.Status)
	}
	return c.Status(res.Status).JSON(res)
}

// routeLabel names the registered route that served c. Unmatched requests
// share one label so raw paths never become metric series.
func routeLabel(c fiber.Ctx) string {
	if !c.Matched() {
		return UnmatchedRoute
	}
	return c.Route().Path
}

func (h *Handler) fail(c fiber.Ctx, op string, err error) error {
	res := response.Failure(op, err)
	if res.Internal() {
		errutil.LogErrorContext(c.Context(), h.logger, "request failed", err,
			"operation", op, "path", c.Path())
	}
	return h.write(c, res)
}

// bind decodes the JSON body into v, writing a 400 on malformed input.
func (h *Handler) bind(c fiber.Ctx, v any) (bool, error) {
	if err := c.Bind().JSON(v); err != nil {
		return false, h.write(c, response.ValidationFailed(auth.FieldErrors{
			response.GeneralField: {"Invalid JSON body"},
		}))
	}
	return true, nil
}

// handleError answers framework errors such as unknown routes or oversized
// bodies in the API's JSON shape.
func (h *Handler) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return h.write(c, response.Result{Status: fe.Code, Message: fe.Message})
	}
	errutil.LogErrorContext(c.Context(), h.logger, "unhandled request error", err, "path", c.Path())
	return h.write(c, response.Failure("", err))
}
