// Package export delivers finished CSV and JSON extracts to a destination:
// a local directory or an S3 prefix.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/pkg/logger"
)

// ErrInvalidName is returned for file names that are empty or contain a
// path separator.
var ErrInvalidName = errors.New("invalid export file name")

// Sink accepts a named file and reports where it was written.
type Sink interface {
	Deliver(ctx context.Context, name, contentType string, body []byte) (location string, err error)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DirSink writes files into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (d *DirSink) Deliver(_ context.Context, name, _ string, body []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	dst := filepath.Join(d.dir, name)
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("writing export %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing export %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing export %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("writing export %s: %w", name, err)
	}
	logger.Info("export written", "path", dst, "bytes", len(body))
	return dst, nil
}

// ObjectPutter uploads an object. storage.AWSStorage satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error
}

// S3Sink uploads files under a bucket prefix.
type S3Sink struct {
	objects ObjectPutter
	bucket  string
	prefix  string
}

// NewS3Sink creates a sink writing to s3://bucket/prefix.
func NewS3Sink(objects ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{objects: objects, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Deliver(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	key := path.Join(s.prefix, name)
	if err := s.objects.PutObject(ctx, s.bucket, key, contentType, body); err != nil {
		return "", fmt.Errorf("uploading export %s: %w", name, err)
	}
	uri := "s3://" + s.bucket + "/" + key
	logger.Info("export uploaded", "uri", uri, "bytes", len(body))
	return uri, nil
}

// New builds the sink cfg selects. objects is required for type s3.
func New(cfg config.ExportConfig, objects ObjectPutter) (Sink, error) {
	switch cfg.Type {
	case "s3":
		if objects == nil {
			return nil, errors.New("s3 export sink needs an S3 client")
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("s3 export sink needs a bucket")
		}
		return NewS3Sink(objects, cfg.S3Bucket, cfg.S3Prefix), nil
	case "local", "":
		return NewDirSink(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown export type %q", cfg.Type)
	}
}
