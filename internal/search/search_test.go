package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/yaycha/internal/domain"
)

type fakeUsers struct {
	searched string
	loaded   []uint
}

func (f *fakeUsers) Search(_ context.Context, query string, _ int) ([]domain.User, error) {
	f.searched = query
	return []domain.User{{ID: 1, Username: "alice"}}, nil
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []uint) ([]domain.User, error) {
	f.loaded = ids
	users := make([]domain.User, len(ids))
	for i, id := range ids {
		users[i] = domain.User{ID: id}
	}
	return users, nil
}

func TestDatabaseBackend(t *testing.T) {
	users := &fakeUsers{}
	b := NewDatabaseBackend(users)

	got, err := b.SearchUsers(context.Background(), "ali", 20)
	require.NoError(t, err)
	assert.Equal(t, "ali", users.searched)
	assert.Len(t, got, 1)
	assert.Equal(t, BackendDatabase, b.Name())
	assert.NoError(t, b.IndexUser(context.Background(), &domain.User{ID: 1}))
}

func newESServer(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestESBackendSearchHydratesInHitOrder(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	client := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		io.WriteString(w, `{"hits":{"hits":[{"_source":{"id":5}},{"_source":{"id":2}},{"_source":{}}]}}`)
	})

	users := &fakeUsers{}
	b := NewESBackend(client, "yaycha-users", users)

	got, err := b.SearchUsers(context.Background(), "bo", 20)
	require.NoError(t, err)
	assert.Equal(t, "/yaycha-users/_search", gotPath)
	assert.Equal(t, float64(20), gotBody["size"])
	assert.Equal(t, []uint{5, 2}, users.loaded)
	require.Len(t, got, 2)
	assert.Equal(t, uint(5), got[0].ID)
}

func TestESBackendSearchError(t *testing.T) {
	client := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	})

	b := NewESBackend(client, "yaycha-users", &fakeUsers{})
	_, err := b.SearchUsers(context.Background(), "bo", 20)
	assert.Error(t, err)
}

func TestESBackendIndexUser(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	client := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		io.WriteString(w, `{"result":"created"}`)
	})

	b := NewESBackend(client, "yaycha-users", &fakeUsers{})
	err := b.IndexUser(context.Background(), &domain.User{ID: 9, Name: "Bob", Username: "bob", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/yaycha-users/_doc/9", gotPath)
	assert.True(t, strings.Contains(gotBody, `"username":"bob"`))
	assert.False(t, strings.Contains(gotBody, "secret"))
}
