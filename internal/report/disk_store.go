package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"

	"go.opentelemetry.io/otel/attribute"
)

// DiskArtifactStore keeps reports as files under a root directory.
type DiskArtifactStore struct {
	rootDir string
}

func NewDiskArtifactStore(rootDir string) (*DiskArtifactStore, error) {
	if rootDir == "" {
		return nil, errors.New("reports dir not set")
	}
	if err := pkg.EnsureDir(rootDir); err != nil {
		return nil, fmt.Errorf("ensure reports dir: %w", err)
	}
	return &DiskArtifactStore{
		rootDir: rootDir,
	}, nil
}

// Put writes to a temp file first and renames it, readers never see a half written report.
func (s *DiskArtifactStore) Put(ctx context.Context, key string, body []byte) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "report.disk.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	path := filepath.Join(s.rootDir, filepath.FromSlash(key))
	dir := filepath.Dir(path)
	if err := pkg.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}

	return path, nil
}

func (s *DiskArtifactStore) Get(ctx context.Context, key string) (_ []byte, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "report.disk.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	body, err := os.ReadFile(filepath.Join(s.rootDir, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return body, nil
}
