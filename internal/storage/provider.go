package storage

import (
	"context"
	"io"
)

// Provider is the binary file capability consumed by the image pipeline.
// Keys are relative paths, e.g. "uploads/3f2a….jpg".
type Provider interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Save(ctx context.Context, key string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
}
