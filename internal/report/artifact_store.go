package report

import (
	"context"
	"errors"
)

var ErrArtifactNotFound = errors.New("report artifact not found")

// ArtifactStore persists generated reports. Put overwrites an existing artifact under the same key.
type ArtifactStore interface {
	Put(ctx context.Context, key string, body []byte) (ref string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
}
