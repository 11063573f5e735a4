package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/response"
)

// parseID reads a positive numeric path parameter and answers 400 otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// writeError maps a service error onto the response envelope. Unknown
// errors are logged and answered with fallback as a generic 500.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrLikeNotFound),
		errors.Is(err, service.ErrNotFollowing),
		errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrAlreadyLiked),
		errors.Is(err, service.ErrAlreadyFollowing):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrSelfFollow),
		errors.Is(err, service.ErrUnsupportedImage):
		response.BadRequest(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
		response.InternalError(c, fallback)
	}
}
