package handler

import (
	"errors"
	"net/http"
	"strings"

	"servimarket/api/middleware"
	"servimarket/internal/dto"
	"servimarket/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	codeInvalidArgument  = "invalid_argument"
	codeUnauthenticated  = "unauthenticated"
	codePermissionDenied = "permission_denied"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeInternal         = "internal"
)

const internalMessage = "internal server error"

type serviceErrorMapping struct {
	err    error
	status int
	code   string
}

// Ordered from most to least specific so wrapped sentinels keep their own message.
var serviceErrors = []serviceErrorMapping{
	{service.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated},
	{service.ErrPermissionDenied, http.StatusForbidden, codePermissionDenied},
	{service.ErrInvalidFrontDocument, http.StatusBadRequest, codeInvalidArgument},
	{service.ErrInvalidBackDocument, http.StatusBadRequest, codeInvalidArgument},
	{service.ErrInvalidStatus, http.StatusBadRequest, codeInvalidArgument},
	{service.ErrNoSubmission, http.StatusBadRequest, codeInvalidArgument},
	{service.ErrInvalidInput, http.StatusBadRequest, codeInvalidArgument},
	{service.ErrUserNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrProfileNotFound, http.StatusNotFound, codeNotFound},
}

func writeSuccess(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: data, Message: message})
}

func writeError(c echo.Context, status int, code string, message string) error {
	return c.JSON(status, dto.Envelope{Success: false, Error: code, Message: message})
}

func writeServiceError(c echo.Context, logger *logrus.Logger, operation string, err error) error {
	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		return writeError(c, http.StatusBadRequest, codeInvalidArgument, clientMessage(fieldErr))
	}
	for _, mapping := range serviceErrors {
		if errors.Is(err, mapping.err) {
			return writeError(c, mapping.status, mapping.code, clientMessage(mapping.err))
		}
	}
	entry := logger.WithError(err).WithField("operation", operation)
	if userID, ok := middleware.UserIDFromContext(c); ok {
		entry = entry.WithField("user_id", userID)
	}
	entry.Error("verification request failed")
	return writeError(c, http.StatusInternalServerError, codeInternal, internalMessage)
}

func clientMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
}

// HTTPErrorHandler renders framework errors (unknown route, auth and rate
// limit rejections, panics) with the response envelope.
func HTTPErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := internalMessage
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if text, ok := httpErr.Message.(string); ok {
				message = text
			} else {
				message = http.StatusText(status)
			}
		} else {
			logger.WithError(err).Error("unhandled error")
		}
		if status >= http.StatusInternalServerError {
			message = internalMessage
		}
		if writeErr := writeError(c, status, codeForStatus(status), message); writeErr != nil {
			logger.WithError(writeErr).Error("write error response")
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeInvalidArgument
	case http.StatusUnauthorized:
		return codeUnauthenticated
	case http.StatusForbidden:
		return codePermissionDenied
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusTooManyRequests:
		return codeRateLimited
	}
	if status >= http.StatusInternalServerError {
		return codeInternal
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
