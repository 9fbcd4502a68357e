package blob

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"

	fsblob "questcore/internal/infra/blob/fs"
	memblob "questcore/internal/infra/blob/memory"
	s3blob "questcore/internal/infra/blob/s3"
)

type envSpec struct {
	Driver string `env:"QUESTCORE_BLOB_DRIVER" envDefault:"fs"`
	FSRoot string `env:"QUESTCORE_BLOB_FS_ROOT"`
}

// Open selects a blob.Store implementation using environment variables.
//
//	QUESTCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	QUESTCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	spec, err := env.ParseAs[envSpec]()
	if err != nil {
		return nil, err
	}
	switch Driver(spec.Driver) {
	case DriverFilesystem:
		return NewFilesystem(spec.FSRoot)
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", spec.Driver)
	}
}

// NewFilesystem returns a filesystem-backed store rooted at root.
func NewFilesystem(root string) (Store, error) {
	return fsblob.New(root)
}

// NewMemory returns an in-memory store for tests.
func NewMemory() Store {
	return memblob.New()
}
