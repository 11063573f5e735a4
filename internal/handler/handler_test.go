package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/jwt"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

var errBoom = errors.New("boom")

type testEnv struct {
	router  *gin.Engine
	manager *jwt.Manager
	users   *stubUserService
	content *stubContentService
	likes   *stubLikeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := jwt.NewManager("test-secret", time.Hour, "yaycha")
	require.NoError(t, err)
	auth := middleware.NewAuthMiddleware(manager)

	env := &testEnv{
		router:  gin.New(),
		manager: manager,
		users:   &stubUserService{},
		content: &stubContentService{},
		likes:   &stubLikeService{},
	}
	NewUserHandler(env.users, auth, nil, 1<<20).RegisterRoutes(env.router)
	NewContentHandler(env.content, env.likes, auth).RegisterRoutes(env.router)
	NewSocialHandler(stubGraphService{}, auth).RegisterRoutes(env.router)
	NewNotificationHandler(stubNotificationService{}, auth).RegisterRoutes(env.router)
	return env
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, _, err := e.manager.GenerateToken(userID, "user")
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing fields", `{"name":"Alice"}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"taken", `{"name":"Alice","username":"alice","password":"pw"}`, service.ErrUsernameTaken, http.StatusConflict},
		{"created", `{"name":"Alice","username":"alice","password":"pw"}`, nil, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.registerErr = tt.err

			w := env.do(jsonRequest(http.MethodPost, "/users", tt.body), "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRegisterListsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(jsonRequest(http.MethodPost, "/users", `{"name":"Alice"}`), "")
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "username, password required", resp.Error.Message)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(jsonRequest(http.MethodPost, "/login", `{"username":"alice"}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.users.loginErr = service.ErrInvalidCredentials
	w = env.do(jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"x"}`), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.users.loginErr = nil
	w = env.do(jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"x"}`), "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tok", body.Token)
	assert.Equal(t, "alice", body.User.Username)
	assert.NotContains(t, w.Body.String(), `"success"`)
}

func TestVerifyRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/verify", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/verify", nil), env.token(t, 4))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":4`)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/users/abc", nil), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/users/3", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"followersCount":2`)
	assert.Contains(t, w.Body.String(), `"isFollowing":false`)
	assert.Zero(t, env.users.viewer)

	w = env.do(httptest.NewRequest(http.MethodGet, "/users/3", nil), env.token(t, 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isFollowing":true`)
	assert.Equal(t, uint(1), env.users.viewer)

	w = env.do(httptest.NewRequest(http.MethodGet, "/users/3", nil), "not-a-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, env.users.viewer)

	env.users.profileErr = service.ErrUserNotFound
	w = env.do(httptest.NewRequest(http.MethodGet, "/users/3", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/search?q=%20", nil), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/search?q=ali", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ali", env.users.searched)
}

func multipartRequest(t *testing.T, path, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(multipartRequest(t, "/users/1/upload", "file", "a.png", "x"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(multipartRequest(t, "/users/1/upload", "", "", ""), env.token(t, 1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		env := newTestEnv(t)
		big := strings.Repeat("x", 2<<20)
		w := env.do(multipartRequest(t, "/users/1/upload", "file", "big.png", big), env.token(t, 1))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, response.CodeTooLarge, resp.Error.Code)
		assert.Empty(t, env.users.uploaded)
	})

	t.Run("forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.uploadErr = service.ErrForbidden
		w := env.do(multipartRequest(t, "/users/2/upload", "file", "a.png", "x"), env.token(t, 1))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unsupported", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.uploadErr = service.ErrUnsupportedImage
		w := env.do(multipartRequest(t, "/users/1/upload", "file", "a.txt", "x"), env.token(t, 1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cover", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(multipartRequest(t, "/users/1/upload-cover", "file", "c.jpg", "img"), env.token(t, 1))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"cover:c.jpg:img"}, env.users.uploaded)
	})
}

func TestPosts(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 1)

	w := env.do(jsonRequest(http.MethodPost, "/content/posts", `{"content":"hi"}`), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(jsonRequest(http.MethodPost, "/content/posts", `{}`), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(jsonRequest(http.MethodPost, "/content/posts", `{"content":"   "}`), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, env.content.created)

	w = env.do(jsonRequest(http.MethodPost, "/content/posts", `{"content":"hi"}`), token)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hi", env.content.created.Content)
	assert.JSONEq(t, `{"id":5,"content":"hi","userId":1,"created":"0001-01-01T00:00:00Z"}`, w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodDelete, "/content/posts/5", nil), token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uint{5}, env.content.deleted)

	env.content.deleteErr = service.ErrForbidden
	w = env.do(httptest.NewRequest(http.MethodDelete, "/content/posts/6", nil), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateComment(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		postID uint
	}{
		{"numeric post id", `{"content":"hi","postId":5}`, http.StatusCreated, 5},
		{"string post id", `{"content":"hi","postId":"5"}`, http.StatusCreated, 5},
		{"missing post id", `{"content":"hi"}`, http.StatusBadRequest, 0},
		{"non-numeric post id", `{"content":"hi","postId":"abc"}`, http.StatusBadRequest, 0},
		{"blank content", `{"content":" \n ","postId":5}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(jsonRequest(http.MethodPost, "/content/comments", tt.body), env.token(t, 2))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusCreated {
				require.NotNil(t, env.content.commented)
				assert.Equal(t, tt.postID, uint(env.content.commented.PostID))
			} else {
				assert.Nil(t, env.content.commented)
			}
		})
	}
}

func TestInternalErrorIsGeneric(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/content/posts", nil), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "failed to list posts", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestLikes(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 2)

	w := env.do(httptest.NewRequest(http.MethodPost, "/content/like/posts/10", nil), token)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"like":{"id":1,"userId":2,"postId":10,"created":"0001-01-01T00:00:00Z"}}`, w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodPost, "/content/like/posts/404", nil), token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, method := range []string{http.MethodDelete, http.MethodPost} {
		w = env.do(httptest.NewRequest(method, "/content/unlike/posts/10", nil), token)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, []uint{10, 10}, env.likes.unliked)
}

func TestFollowRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 1)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/follow/1", http.StatusBadRequest},
		{http.MethodPost, "/follow/9", http.StatusConflict},
		{http.MethodPost, "/follow/2", http.StatusCreated},
		{http.MethodPost, "/follow/x", http.StatusBadRequest},
		{http.MethodDelete, "/unfollow/2", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(httptest.NewRequest(tt.method, tt.path, nil), token)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 3)

	w := env.do(httptest.NewRequest(http.MethodPut, "/content/notis/read/2", nil), token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodPut, "/content/notis/read/1", nil), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"read":true`)
}
