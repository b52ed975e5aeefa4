package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"

	"github.com/noah-isme/school-mgmt-api/pkg/config"
)

// BookDocument is the indexed projection of a library book.
type BookDocument struct {
	ID     string `json:"id"`
	School string `json:"school"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// BookIndex keeps an Elasticsearch index of books for prefix search.
type BookIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewBookIndex builds the client. Requests are retried with exponential backoff on
// gateway and throttling statuses.
func NewBookIndex(cfg config.SearchConfig) (*BookIndex, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConns:          10,
			ResponseHeaderTimeout: 2 * time.Second,
		},
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(attempt int) time.Duration {
			if attempt == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	index := cfg.BookIndex
	if index == "" {
		index = "books"
	}
	return &BookIndex{client: client, index: index}, nil
}

// Index upserts a book document.
func (b *BookIndex) Index(ctx context.Context, doc BookDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode book document: %w", err)
	}
	res, err := b.client.Index(b.index, bytes.NewReader(body),
		b.client.Index.WithContext(ctx),
		b.client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("index book %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index book %s: %s", doc.ID, res.Status())
	}
	return nil
}

// Remove deletes a book document. A missing document is not an error.
func (b *BookIndex) Remove(ctx context.Context, id string) error {
	res, err := b.client.Delete(b.index, id, b.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove book %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove book %s: %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns IDs of books in the school whose title, author or isbn match the term.
func (b *BookIndex) Search(ctx context.Context, schoolID, term string, limit int) ([]string, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  term,
						"type":   "phrase_prefix",
						"fields": []string{"title", "author", "isbn"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"school": schoolID},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode book query: %w", err)
	}

	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(b.index),
		b.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search books: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode book search: %w", err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
