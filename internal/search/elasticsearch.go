package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/yaycha/internal/domain"
)

// ESBackend searches an elasticsearch index of users and hydrates the hits
// from the database.
type ESBackend struct {
	client *elasticsearch.Client
	index  string
	users  UserLoader
}

// NewESBackend creates a new Elasticsearch-based search backend.
func NewESBackend(client *elasticsearch.Client, index string, users UserLoader) *ESBackend {
	return &ESBackend{
		client: client,
		index:  index,
		users:  users,
	}
}

func (b *ESBackend) Name() string { return BackendElasticsearch }

// userDocument is what gets stored in the users index.
type userDocument struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
}

const usersMapping = `{
  "mappings": {
    "properties": {
      "id":       {"type": "long"},
      "name":     {"type": "text"},
      "username": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "bio":      {"type": "text"}
    }
  }
}`

// EnsureIndex creates the users index when it does not exist yet.
func (b *ESBackend) EnsureIndex(ctx context.Context) error {
	res, err := b.client.Indices.Exists(
		[]string{b.index},
		b.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", b.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = b.client.Indices.Create(
		b.index,
		b.client.Indices.Create.WithContext(ctx),
		b.client.Indices.Create.WithBody(bytes.NewReader([]byte(usersMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", b.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (b *ESBackend) SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"type":   "bool_prefix",
				"fields": []string{"name", "username"},
			},
		},
		"_source": []string{"id"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(b.index),
		b.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc userDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil || doc.ID == 0 {
			continue
		}
		ids = append(ids, doc.ID)
	}

	return b.users.ListByIDs(ctx, ids)
}

// IndexUser upserts the searchable fields of user.
func (b *ESBackend) IndexUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(userDocument{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Bio:      user.Bio,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user document: %w", err)
	}

	res, err := b.client.Index(
		b.index,
		bytes.NewReader(data),
		b.client.Index.WithContext(ctx),
		b.client.Index.WithDocumentID(strconv.FormatUint(uint64(user.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("failed to index user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// esResponse is the generic Elasticsearch search response structure.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

var _ Backend = (*ESBackend)(nil)
