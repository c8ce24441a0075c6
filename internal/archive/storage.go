// Package archive keeps batch run reports in cold storage.
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/folio/internal/config"
)

// Storage defines the interface for archive storage backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// NewStorage builds the backend selected in configuration. It returns nil
// when archiving is disabled.
func NewStorage(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	}
	return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
}
