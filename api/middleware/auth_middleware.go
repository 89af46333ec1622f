package middleware

import (
	"errors"
	"net/http"
	"strings"

	"servimarket/internal/entity"
	"servimarket/internal/service"
	"servimarket/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	errMissingToken   = errors.New("missing bearer token")
	errInvalidSubject = errors.New("token subject is not a user id")
)

type TokenParser interface {
	ParseAccessToken(token string) (*utils.AccessClaims, error)
}

// AuthMiddleware authenticates requests with access tokens minted by the
// account service.
type AuthMiddleware struct {
	JWT    TokenParser
	Logger *logrus.Logger
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := m.authenticate(c.Request())
		if err != nil {
			if m.Logger != nil {
				m.Logger.WithError(err).WithField("ip", c.RealIP()).Debug("rejected access token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetAuthContext(c, actor.UserID, string(actor.Role))
		return next(c)
	}
}

func (m AuthMiddleware) authenticate(r *http.Request) (*service.Actor, error) {
	if m.JWT == nil {
		return nil, utils.ErrInvalidToken
	}
	token, ok := bearerToken(r.Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, errMissingToken
	}
	claims, err := m.JWT.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID())
	if err != nil || userID == uuid.Nil {
		return nil, errInvalidSubject
	}
	return &service.Actor{UserID: userID, Role: entity.UserRole(claims.Role)}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
