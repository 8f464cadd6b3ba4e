package auth

import (
	"errors"

	authsvc "givehub-backend/internal/application/auth"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// Handlers serves login, the current-identity lookup and logout.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.FromError(c, apperrors.Internal(errors.New("auth: no user finder"), "login unavailable"))
	}
	var in authsvc.LoginInput
	if err := validation.ParseBody(c, &in); err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	user, err := h.UserFinder.FindByEmailAndPassword(ctx, in.Email, in.Password)
	switch {
	case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
		log.Ctx(ctx).Info().Err(err).Msg("login rejected")
		return response.FromError(c, apperrors.New(apperrors.CodeUnauthorized, "Invalid email or password"))
	case err != nil:
		return response.FromError(c, err)
	}

	actor := user.Actor()
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:      actor.ID.String(),
		DisplayName: actor.Name,
		Email:       actor.Email,
		Role:        actor.Role.String(),
	})
	// indexed so a password change can revoke every session of the user
	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+actor.ID.String(), sessionID).Err(); err != nil {
		return response.FromError(c, apperrors.Wrap(apperrors.CodeDependency, err, "session store unavailable"))
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	log.Ctx(ctx).Info().Str("user_id", actor.ID.String()).Str("role", actor.Role.String()).Msg("user logged in")
	shape, _ := authsvc.VerifyUser(middleware.GetUser(c))
	return response.Success(c, "Login successful", fiber.Map{"user": shape}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout. Always succeeds and always clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if sessionID := middleware.GetSessionID(c); sessionID != "" {
		if actor, err := middleware.ActorFromContext(c); err == nil {
			h.Rdb.SRem(ctx, userSessionsPrefix+actor.ID.String(), sessionID)
		}
		h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
