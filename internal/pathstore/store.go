package pathstore

import (
	"context"
	"fmt"

	"github.com/dgallion1/guides/internal/meta"
)

// Store keeps the metadata cache blob under one pathstore key per tenant.
// It satisfies meta.Store.
type Store struct {
	client *Client
	key    string
}

// NewStore returns a store writing to guides/<tenant>/metas.
func NewStore(client *Client, tenant string) *Store {
	if tenant == "" {
		tenant = "default"
	}
	return &Store{client: client, key: "guides/" + tenant + "/metas"}
}

func (s *Store) Key() string { return s.key }

func (s *Store) Load(ctx context.Context) ([]byte, error) {
	node, err := s.client.GetNode(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if node == nil || len(node.Value) == 0 || string(node.Value) == "null" {
		return nil, fmt.Errorf("%w: %s not found", meta.ErrNoCache, s.key)
	}
	return node.Value, nil
}

func (s *Store) Save(ctx context.Context, data []byte) error {
	return s.client.PutNode(ctx, s.key, NodeRequest{
		Value:     data,
		MergeMode: "replace",
		Source:    "guides",
	})
}

// Clear removes the stored cache.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.DeleteNode(ctx, s.key)
}
