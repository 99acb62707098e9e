package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"homesearch/internal/config"
	"homesearch/internal/logger"
)

// ElasticBackend implements Backend against an Elasticsearch cluster
// through the official client. One pooled client is shared by all
// components; inflight requests are capped by a semaphore.
type ElasticBackend struct {
	client   *elasticsearch.Client
	timeout  time.Duration
	inflight chan struct{}
}

// NewElasticBackend builds a backend from configuration.
func NewElasticBackend(cfg config.SearchBackend) (*ElasticBackend, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Hosts,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{429, 502, 503, 504},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search backend client: %w", err)
	}
	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = 8
	}
	return &ElasticBackend{
		client:   client,
		timeout:  cfg.Timeout(),
		inflight: make(chan struct{}, maxInflight),
	}, nil
}

// acquire reserves an inflight slot, honoring cancellation while waiting.
func (b *ElasticBackend) acquire(ctx context.Context) (func(), error) {
	select {
	case b.inflight <- struct{}{}:
		return func() { <-b.inflight }, nil
	case <-ctx.Done():
		return nil, NewError(KindCancelled, "acquire", "request cancelled while waiting for inflight slot", ctx.Err())
	}
}

// Ping checks cluster reachability.
func (b *ElasticBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Ping(b.client.Ping.WithContext(ctx))
	if err != nil {
		return classifyTransport(ctx, "ping", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return NewError(KindTransport, "ping", fmt.Sprintf("backend returned %s", res.Status()), nil)
	}
	return nil
}

// EnsureIndex creates the index, detecting mapping conflicts on an
// existing index.
func (b *ElasticBackend) EnsureIndex(ctx context.Context, name string, mapping, settings json.RawMessage, forceRecreate bool) error {
	release, err := b.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	exists, err := b.indexExists(ctx, name)
	if err != nil {
		return err
	}

	if exists {
		if forceRecreate {
			if err := b.DeleteIndex(ctx, name); err != nil {
				return err
			}
		} else {
			compatible, err := b.mappingCompatible(ctx, name, mapping)
			if err != nil {
				return err
			}
			if !compatible {
				return NewError(KindSchemaConflict, "ensure_index",
					fmt.Sprintf("index %q exists with an incompatible mapping and force_recreate is false", name), nil)
			}
			return nil
		}
	}

	body, err := json.Marshal(map[string]json.RawMessage{
		"mappings": mapping,
		"settings": settings,
	})
	if err != nil {
		return NewError(KindValidation, "ensure_index", "failed to marshal index body", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.Create(name,
		b.client.Indices.Create.WithBody(bytes.NewReader(body)),
		b.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return classifyTransport(ctx, "ensure_index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return classifyResponse("ensure_index", res)
	}
	logger.Info("Index created", "index", name)
	return nil
}

// DeleteIndex removes an index; a missing index is not an error.
func (b *ElasticBackend) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.Delete([]string{name},
		b.client.Indices.Delete.WithContext(ctx),
		b.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return classifyTransport(ctx, "delete_index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return classifyResponse("delete_index", res)
	}
	return nil
}

// BulkWrite streams one bulk request with explicit document ids.
func (b *ElasticBackend) BulkWrite(ctx context.Context, index string, docs []Document) (*BulkResult, error) {
	if len(docs) == 0 {
		return &BulkResult{}, nil
	}
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		if doc.ID == "" {
			return nil, NewError(KindValidation, "bulk_write", "document without id", nil)
		}
		meta := map[string]map[string]string{"index": {"_id": doc.ID}}
		if err := enc.Encode(meta); err != nil {
			return nil, NewError(KindValidation, "bulk_write", "failed to encode bulk action", err)
		}
		if err := enc.Encode(doc.Body); err != nil {
			return nil, NewError(KindValidation, "bulk_write", fmt.Sprintf("failed to encode document %s", doc.ID), err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Bulk(bytes.NewReader(buf.Bytes()),
		b.client.Bulk.WithIndex(index),
		b.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, classifyTransport(ctx, "bulk_write", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, classifyResponse("bulk_write", res)
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, NewError(KindTransport, "bulk_write", "failed to decode bulk response", err)
	}

	result := &BulkResult{}
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					ID:     op.ID,
					Status: op.Status,
					Reason: op.Error.Reason,
				})
			} else {
				result.Indexed++
			}
		}
	}
	return result, nil
}

// Search executes a query document.
func (b *ElasticBackend) Search(ctx context.Context, indices []string, body any) (*SearchResult, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NewError(KindValidation, "search", "failed to marshal query document", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(indices...),
		b.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, classifyTransport(ctx, "search", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, classifyResponse("search", res)
	}

	var parsed struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, NewError(KindTransport, "search", "failed to decode search response", err)
	}

	return &SearchResult{
		Took:         parsed.Took,
		Total:        parsed.Hits.Total.Value,
		Hits:         parsed.Hits.Hits,
		Aggregations: parsed.Aggregations,
	}, nil
}

// Refresh makes recent writes searchable.
func (b *ElasticBackend) Refresh(ctx context.Context, index string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.Refresh(
		b.client.Indices.Refresh.WithIndex(index),
		b.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return classifyTransport(ctx, "refresh", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return classifyResponse("refresh", res)
	}
	return nil
}

// UpdateSettings applies dynamic index settings.
func (b *ElasticBackend) UpdateSettings(ctx context.Context, index string, settings json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.PutSettings(bytes.NewReader(settings),
		b.client.Indices.PutSettings.WithIndex(index),
		b.client.Indices.PutSettings.WithContext(ctx),
	)
	if err != nil {
		return classifyTransport(ctx, "update_settings", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return classifyResponse("update_settings", res)
	}
	return nil
}

// indexExists checks for index presence.
func (b *ElasticBackend) indexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.Exists([]string{name},
		b.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, classifyTransport(ctx, "index_exists", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, classifyResponse("index_exists", res)
	}
}

// mappingCompatible fetches the live mapping and compares its properties
// against the desired mapping. Equality of the normalized properties
// object is the compatibility criterion; indices are recreated on any
// schema change rather than migrated online.
func (b *ElasticBackend) mappingCompatible(ctx context.Context, name string, desired json.RawMessage) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.client.Indices.GetMapping(
		b.client.Indices.GetMapping.WithIndex(name),
		b.client.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return false, classifyTransport(ctx, "get_mapping", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, classifyResponse("get_mapping", res)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return false, NewError(KindTransport, "get_mapping", "failed to read mapping response", err)
	}

	var live map[string]struct {
		Mappings map[string]any `json:"mappings"`
	}
	if err := json.Unmarshal(raw, &live); err != nil {
		return false, NewError(KindTransport, "get_mapping", "failed to decode mapping response", err)
	}

	var want map[string]any
	if err := json.Unmarshal(desired, &want); err != nil {
		return false, NewError(KindValidation, "get_mapping", "failed to decode desired mapping", err)
	}

	for _, entry := range live {
		return reflect.DeepEqual(entry.Mappings["properties"], want["properties"]), nil
	}
	return false, nil
}

// classifyTransport maps client-level errors to the error taxonomy.
func classifyTransport(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return NewError(KindCancelled, op, "request cancelled", ctx.Err())
	}
	return NewError(KindTransport, op, "backend request failed", err)
}

// classifyResponse maps an error status to the taxonomy with the body's
// reason preserved.
func classifyResponse(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	msg := fmt.Sprintf("backend returned %s: %s", res.Status(), bytes.TrimSpace(body))
	switch {
	case res.StatusCode == 404:
		return NewError(KindNotFound, op, msg, nil)
	case res.StatusCode >= 500 || res.StatusCode == 429:
		return NewError(KindTransport, op, msg, nil)
	default:
		return NewError(KindValidation, op, msg, nil)
	}
}
