package core

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	memory "questcore/internal/infra/persistence/memory"
	"questcore/internal/infra/persistence/postgres"
	"questcore/internal/infra/persistence/sqlite"
	"questcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig is the environment-supplied storage selection.
type StorageConfig struct {
	Driver      StorageDriver `env:"QUESTCORE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string        `env:"QUESTCORE_SQLITE_PATH"`
	PostgresDSN string        `env:"QUESTCORE_POSTGRES_DSN"`
}

// OpenPersistentStore selects a backend from the environment. Defaults to
// sqlite when unset.
//
//	QUESTCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	QUESTCORE_SQLITE_PATH: path to sqlite file (default ./questcore.db)
//	QUESTCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	cfg, err := env.ParseAs[StorageConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}
	return OpenConfiguredStore(cfg, engine)
}

// OpenConfiguredStore opens the backend named by an already-parsed config.
func OpenConfiguredStore(cfg StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	switch cfg.Driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
