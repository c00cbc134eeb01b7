package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/lexbrief/lexbrief/internal/middleware"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

func getCallerID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextCallerIDKey)
	callerID, _ := value.(string)
	return callerID
}

func identityFromContext(c *gin.Context) service.Identity {
	scheme, _ := c.Get(middleware.ContextSchemeKey)
	schemeStr, _ := scheme.(string)
	apiKeyID, _ := c.Get(middleware.ContextAPIKeyIDKey)
	apiKeyIDStr, _ := apiKeyID.(string)
	return service.Identity{
		CallerID: getCallerID(c),
		Scheme:   schemeStr,
		APIKeyID: apiKeyIDStr,
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("caller_id", getCallerID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNoFile),
		errors.Is(err, appErr.ErrFileTooLarge),
		errors.Is(err, appErr.ErrUnsupportedType):
		response.Error(c, http.StatusBadRequest, "invalid_file", err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrInvalidAPIKey):
		response.Error(c, http.StatusUnauthorized, "invalid_api_key", "invalid api key")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrQuotaExceeded):
		response.Error(c, http.StatusForbidden, "limit_reached", "monthly document limit reached, upgrade your plan to continue")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", "too many requests")
	case errors.Is(err, appErr.ErrProfileRead):
		response.Error(c, http.StatusInternalServerError, "profile_read_failed", "usage profile lookup failed, try again later")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
