package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/response"
	"github.com/weiawesome/yaycha/pkg/storage"
)

// UploadHandler serves stored images under /uploads/<key>, the value kept in
// profilePicture and coverPhoto.
type UploadHandler struct {
	store storage.Storage
}

func NewUploadHandler(store storage.Storage) *UploadHandler {
	return &UploadHandler{store: store}
}

// RegisterRoutes registers all routes.
func (h *UploadHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/uploads/*key", h.Serve)
}

// Serve streams local files and redirects to backends with a public URL.
func (h *UploadHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		response.NotFound(c, "file not found")
		return
	}

	if url := h.store.URL(key); strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		c.Redirect(http.StatusFound, url)
		return
	}

	ctx := c.Request.Context()
	rc, err := h.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			response.NotFound(c, "file not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldStorageKey, key).Msg("failed to read upload")
		response.InternalError(c, "failed to read file")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Keys carry a fresh uuid per upload, so content never changes.
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
	})
}
