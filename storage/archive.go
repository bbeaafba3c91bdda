package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"inmo_dedup/config"
)

// PageArchive keeps a copy of every fetched search page so a run can be
// re-parsed without hitting the portal again.
type PageArchive interface {
	// Save stores body under name and returns where it was written.
	Save(ctx context.Context, name string, body []byte) (string, error)
}

// NewPageArchive picks S3 when a bucket is configured, the local directory
// otherwise.
func NewPageArchive(ctx context.Context, cfg config.ArchiveConfig) (PageArchive, error) {
	if cfg.S3Bucket != "" {
		return NewS3Archive(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	}
	return NewFileArchive(cfg.Dir)
}

type FileArchive struct {
	dir string
}

func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrapf(err, "storage: create archive dir %s", dir)
	}
	return &FileArchive{dir: dir}, nil
}

func (a *FileArchive) Save(_ context.Context, name string, body []byte) (string, error) {
	path := filepath.Join(a.dir, filepath.Base(name)+".html")
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", eris.Wrapf(err, "storage: archive %s", path)
	}
	return path, nil
}
