package middleware

import (
	"servimarket/internal/entity"
	"servimarket/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRoleKey   = "auth_role"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role string) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRoleKey, role)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(string)
	return role, ok
}

// ActorFromContext returns nil when the request was not authenticated.
func ActorFromContext(c echo.Context) *service.Actor {
	userID, ok := UserIDFromContext(c)
	if !ok || userID == uuid.Nil {
		return nil
	}
	role, _ := RoleFromContext(c)
	return &service.Actor{UserID: userID, Role: entity.UserRole(role)}
}
