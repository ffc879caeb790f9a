package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
)

// StartEmbedded boots an in-process PostgreSQL so the server can run without
// an external database. Returns the instance (caller stops it) and the URL
// to connect with.
func StartEmbedded(port uint32) (*embeddedpostgres.EmbeddedPostgres, string, error) {
	const (
		user     = "favurls"
		password = "favurls_secret"
		database = "favurls"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	slog.Info("starting embedded PostgreSQL", "port", port)
	if err := db.Start(); err != nil {
		return nil, "", fmt.Errorf("start embedded postgres: %w", err)
	}

	url := fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable", user, password, port, database)
	return db, url, nil
}
