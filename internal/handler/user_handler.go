package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

// UserHandler serves accounts, profiles, search and image uploads.
type UserHandler struct {
	users          service.UserService
	auth           *middleware.AuthMiddleware
	limiter        *middleware.RateLimiter
	maxUploadBytes int64
}

// NewUserHandler creates a user handler. limiter may be nil to disable rate
// limiting of login and registration.
func NewUserHandler(users service.UserService, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		users:          users,
		auth:           auth,
		limiter:        limiter,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all routes.
func (h *UserHandler) RegisterRoutes(r gin.IRouter) {
	limited := []gin.HandlerFunc{}
	if h.limiter != nil {
		limited = append(limited, h.limiter.Handler())
	}

	r.POST("/users", append(limited, h.Register)...)
	r.POST("/login", append(limited, h.Login)...)
	r.GET("/verify", h.auth.RequireAuth(), h.Verify)

	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.auth.OptionalAuth(), h.GetUser)
	r.GET("/search", h.Search)

	r.POST("/users/:id/upload", h.auth.RequireAuth(), h.uploadImage(domain.ImageAvatar))
	r.POST("/users/:id/upload-cover", h.auth.RequireAuth(), h.uploadImage(domain.ImageCover))
}

// Register handles user registration.
func (h *UserHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, "invalid request body")
		return
	}
	if missing := req.Missing(); len(missing) > 0 {
		response.BadRequest(c, strings.Join(missing, ", ")+" required")
		return
	}

	user, err := h.users.Register(ctx, &req)
	if err != nil {
		writeError(c, err, "failed to register user")
		return
	}

	response.Created(c, user)
}

// Login handles user login.
func (h *UserHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, "username and password required")
		return
	}

	result, err := h.users.Login(ctx, &req)
	if err != nil {
		writeError(c, err, "failed to login")
		return
	}

	response.Success(c, result)
}

// Verify returns the user the bearer token belongs to.
func (h *UserHandler) Verify(c *gin.Context) {
	user, err := h.users.Verify(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to verify user")
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list users")
		return
	}
	response.Success(c, users)
}

// GetUser returns a profile with posts, follow edges and counters.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeError(c, err, "failed to get user")
		return
	}
	response.Success(c, profile)
}

func (h *UserHandler) Search(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		response.BadRequest(c, "q required")
		return
	}

	users, err := h.users.Search(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err, "failed to search users")
		return
	}
	response.Success(c, users)
}

func (h *UserHandler) uploadImage(kind domain.ImageKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		targetID, ok := parseID(c, "id")
		if !ok {
			return
		}
		if h.maxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.TooLarge(c, fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
				return
			}
			response.BadRequest(c, "file required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "unreadable file")
			return
		}
		defer f.Close()

		user, err := h.users.UploadImage(ctx, middleware.GetUserID(c), targetID, kind, fh.Filename, f)
		if err != nil {
			writeError(c, err, "failed to upload image")
			return
		}
		response.Success(c, user)
	}
}
