// Package storage is the key-value persistence substrate every ReachPoint
// component builds on. Values are opaque strings (JSON documents in
// practice) addressed by string keys; each call is a single synchronous
// round trip to the backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/reachpoint/internal/config"
)

// ErrQuotaExceeded is returned when a size-bounded backend rejects a write.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the key-value persistence contract.
//
// Get reports ok=false for a missing key. Set replaces the whole value in one
// call; a failed Set leaves the previous value intact and returns an error.
// Remove is a no-op for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// New opens the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(cfg.QuotaBytes), nil
	case "local", "":
		return NewLocal(cfg.LocalPath)
	case "redis":
		return NewRedisFromURL(cfg.RedisURL)
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case "s3", "dynamodb":
		awsStorage, err := NewAWSStorage(ctx, cfg.DynamoDBTable, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		if cfg.Type == "s3" {
			return awsStorage.Objects(cfg.S3Prefix), nil
		}
		return awsStorage.Table(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
