package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/service"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
	"github.com/mwilder2/diarydawn-backend/internal/util"
)

// ErrorHandler maps the service error taxonomy onto HTTP statuses. Token
// failures collapse to a generic 401; claim contents and stack traces never
// reach the client.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if status, reason, ok := mapServiceError(err); ok {
			writeJSON(c, log, status, reason)
			return
		}

		var customErr util.MyResponseError
		if errors.As(err, &customErr) {
			writeJSON(c, log, customErr.Status, customErr.Msg)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			reason, ok := he.Message.(string)
			if !ok {
				reason = http.StatusText(he.Code)
			}
			writeJSON(c, log, he.Code, reason)
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(c, log, http.StatusInternalServerError, "internal server error")
	}
}

func mapServiceError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusUnauthorized, "Access denied", true
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, storage.ErrInvalidatedRefreshToken):
		return http.StatusUnauthorized, "unauthorized", true
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, storage.ErrDuplicateUser):
		return http.StatusConflict, "user with this email already exists", true
	case errors.Is(err, storage.ErrUserNotFound):
		return http.StatusNotFound, "user does not exist", true
	case errors.Is(err, storage.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable", true
	}
	return 0, "", false
}

func writeJSON(c echo.Context, log *zap.SugaredLogger, status int, reason string) {
	if err := c.JSON(status, map[string]string{"reason": reason}); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}
