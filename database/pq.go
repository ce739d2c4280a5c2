package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/YHTerrance/UniFrames/config"
	_ "github.com/lib/pq"
)

// EnsureDatabaseExists connects to the "postgres" maintenance database and
// creates the configured database when it is missing. Safe to call on every
// start.
func EnsureDatabaseExists(dbCfg config.DatabaseConfig) error {
	name := strings.TrimSpace(dbCfg.Name)
	if name == "" || name == "postgres" {
		return nil
	}

	admin := dbCfg
	admin.Name = "postgres"
	connectStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		admin.Host, admin.Port, admin.User, admin.Password, admin.Name, admin.SSLMode,
	)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.QueryRow("SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.Exec("CREATE DATABASE " + quoteIdentifier(name))
		return err
	}
	return err
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
