package handlers

import (
	"net/http"
	"strings"

	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errAuthMissing = "missing Authorization header"
	errAuthFormat  = "invalid Authorization header format"
	errAuthToken   = "invalid or expired token"
)

// requireOperator admits requests with a valid bearer token and stores the
// operator in the request context for the services to attribute events.
func (h *Handler) requireOperator(c *gin.Context) {
	token, reason := bearerToken(c.GetHeader("Authorization"))
	if reason != "" {
		h.rejectOperator(c, reason, nil)
		return
	}
	op, err := h.services.ParseToken(token)
	if err != nil {
		h.rejectOperator(c, errAuthToken, err)
		return
	}
	c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), op))
	c.Next()
}

// bearerToken extracts the token, or returns the reason it could not.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", errAuthMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errAuthFormat
	}
	return token, ""
}

func (h *Handler) rejectOperator(c *gin.Context, reason string, err error) {
	if h.log != nil {
		h.log.Infow("control_request_rejected", "method", c.Request.Method, "path", c.FullPath(), "reason", reason, "err", err)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
}
