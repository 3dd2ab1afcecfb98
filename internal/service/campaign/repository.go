package campaign

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/storage"
)

// Key is the storage key of the campaign list.
const Key = "reachpoint.campaigns"

// Repository defines the data access contract for the campaign list.
type Repository interface {
	// Load returns every campaign in saved order. A missing list is empty.
	Load(ctx context.Context) ([]domain.Campaign, error)

	// Replace writes the whole list in one call.
	Replace(ctx context.Context, campaigns []domain.Campaign) error
}

// KVRepository keeps the campaign list in a storage.Store.
type KVRepository struct {
	kv storage.Store
}

// NewKVRepository creates a repository over kv.
func NewKVRepository(kv storage.Store) *KVRepository {
	return &KVRepository{kv: kv}
}

func (r *KVRepository) Load(ctx context.Context) ([]domain.Campaign, error) {
	raw, ok, err := r.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("reading campaigns: %w", err)
	}
	if !ok {
		return []domain.Campaign{}, nil
	}
	var out []domain.Campaign
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptList, err)
	}
	if out == nil {
		out = []domain.Campaign{}
	}
	return out, nil
}

func (r *KVRepository) Replace(ctx context.Context, campaigns []domain.Campaign) error {
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	data, err := json.Marshal(campaigns)
	if err != nil {
		return fmt.Errorf("encoding campaigns: %w", err)
	}
	if err := r.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("saving campaigns: %w", err)
	}
	return nil
}
