package redis

import (
	"context"
	"fmt"

	"formflow-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// ResponseStore keeps each form's responses as an append-only Redis list of
// msgpack records: RPUSH formflow:form:{formID}:responses {msgpack}
type ResponseStore struct {
	client *redis.Client
}

func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

func (s *ResponseStore) AppendResponse(ctx context.Context, response domain.Response) error {
	raw, err := msgpack.Marshal(&response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(response.FormID), raw).Err(); err != nil {
		return fmt.Errorf("push response: %w", err)
	}
	return nil
}

func (s *ResponseStore) ListResponses(ctx context.Context, formID string) ([]domain.Response, error) {
	items, err := s.client.LRange(ctx, s.key(formID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	out := make([]domain.Response, 0, len(items))
	for _, item := range items {
		var response domain.Response
		if err := msgpack.Unmarshal([]byte(item), &response); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out = append(out, response)
	}
	return out, nil
}

func (s *ResponseStore) key(formID string) string {
	return "formflow:form:" + formID + ":responses"
}
