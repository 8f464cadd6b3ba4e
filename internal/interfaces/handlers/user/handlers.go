package user

import (
	usersvc "givehub-backend/internal/application/user"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds the user service and session config for registration (session + cookie).
type Handlers struct {
	Service *usersvc.Service
	Config  middleware.SessionConfig
}

// Register POST /api/v1/users/register creates the account and signs it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req usersvc.RegisterInput
	if err := validation.ParseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.Register(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:      u.UserID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role.String(),
	})
	if h.Service.Rdb != nil {
		_ = h.Service.Rdb.SAdd(c.UserContext(), userSessionsPrefix+u.UserID.String(), sid).Err()
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)

	return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// Me GET /api/v1/users/me returns the stored profile of the session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.ViewUser(c.UserContext(), actor.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User found", fiber.Map{"user": safeUser(u)}, nil)
}

// UpdateMe PATCH /api/v1/users/me updates the session user's own profile.
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req usersvc.UpdateInput
	if err := validation.ParseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.UpdateUser(c.UserContext(), actor.ID, req)
	if err != nil {
		return response.FromError(c, err)
	}
	if req.Password == nil {
		middleware.SetSessionUser(c, middleware.SessionUser{
			UserID:      u.UserID.String(),
			DisplayName: u.DisplayName,
			Email:       u.Email,
			Role:        u.Role.String(),
		})
	} else {
		middleware.DestroySession(c)
	}
	return response.Success(c, "User updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

func safeUser(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":        u.UserID.String(),
		"display_name":   u.DisplayName,
		"email":          u.Email,
		"role":           u.Role,
		"wallet_address": u.WalletAddr,
		"createdAt":      u.CreatedAt,
		"updatedAt":      u.UpdatedAt,
	}
}
