package handler

import (
	"net/http"
	"strings"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFromContext rebuilds the caller identity the auth middleware stored on
// the request. Routes behind RequireRole always have the three values set.
func actorFromContext(c *gin.Context) service.AuthContext {
	actor := service.AuthContext{
		Role:   c.GetString("userRole"),
		Region: c.GetString("userRegion"),
	}
	if id, err := uuid.Parse(c.GetString("userID")); err == nil {
		actor.UserID = id
	}
	return actor
}

// statusForError maps service errors onto HTTP statuses: scope rejections are
// 403, missing rows 404, duplicate and state conflicts 409, everything else a
// plain 400. Services phrase their errors accordingly.
func statusForError(err error) int {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "access denied"):
		return http.StatusForbidden
	case strings.HasSuffix(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "already"), strings.Contains(msg, "transition"):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// fail writes the uniform error envelope for a service error.
func fail(c *gin.Context, err error) {
	status := statusForError(err)
	c.JSON(status, response.Error(status, err.Error()))
}
