package auth

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Auth struct represents parsed jwt information.
type Auth struct {
	UID      int64    `json:"uid"`
	State    string   `json:"state"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Audience []string `json:"aud,omitempty"`

	jwt.StandardClaims
}

func (a *Auth) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// GetCurrentUser returns the claims stored by the Authenticate middleware.
func GetCurrentUser(c *fiber.Ctx) *Auth {
	user, ok := c.Locals("CurrentUser").(*Auth)
	if !ok {
		return nil
	}

	return user
}
