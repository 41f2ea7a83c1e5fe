package cli

import (
	"fmt"
	"time"

	"github.com/terraincognita07/fertility/internal/db"
	"github.com/terraincognita07/fertility/internal/services"
)

// openRegistry loads every stored profile. The returned close func releases
// the database handle.
func openRegistry(dbPath string, location *time.Location) (*services.ProfileRegistry, func(), error) {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("database init failed: %w", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	closeDB := func() {
		_ = sqlDB.Close()
	}

	registry := services.NewProfileRegistry(db.NewRepositories(database).Profiles, location)
	if err := registry.LoadAll(); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("load profiles: %w", err)
	}
	return registry, closeDB, nil
}
