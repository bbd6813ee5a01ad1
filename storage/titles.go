package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
)

// DBConfig holds the MySQL connection settings for the articles table.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DBConfigFromEnv reads DB_* environment variables.
func DBConfigFromEnv() DBConfig {
	cfg := DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "3306"
	}
	return cfg
}

// Complete reports whether the credentials needed to connect are present.
func (c DBConfig) Complete() bool {
	return c.User != "" && c.Password != "" && c.Name != ""
}

// DSN renders the go-sql-driver connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// TitleStore reads and appends rows of the articles table. Connections are
// opened per call; there is no pooling and no long-lived handle.
type TitleStore struct {
	cfg DBConfig
}

// NewTitleStore returns a store for the given connection settings.
func NewTitleStore(cfg DBConfig) *TitleStore {
	return &TitleStore{cfg: cfg}
}

// InsertStatus classifies the outcome of an Insert.
type InsertStatus string

const (
	InsertSuccess InsertStatus = "success"
	InsertSkipped InsertStatus = "skipped"
	InsertError   InsertStatus = "error"
)

// InsertResult is the non-fatal outcome of an Insert. Callers log it; they
// never abort the run on it.
type InsertResult struct {
	Status  InsertStatus
	Message string
}

// FetchRecent returns up to limit titles, newest first. With incomplete
// credentials there is nothing to read and it returns an empty list.
func (s *TitleStore) FetchRecent(ctx context.Context, limit int) ([]string, error) {
	if !s.cfg.Complete() {
		return nil, nil
	}
	db, err := sql.Open("mysql", s.cfg.DSN())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT title FROM articles ORDER BY posted_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// Insert appends one article row. Missing credentials degrade to a skipped
// result; any connection or query failure becomes an error result.
func (s *TitleStore) Insert(ctx context.Context, title, slug string) InsertResult {
	if !s.cfg.Complete() {
		return InsertResult{Status: InsertSkipped, Message: "database configuration not complete"}
	}
	db, err := sql.Open("mysql", s.cfg.DSN())
	if err != nil {
		return InsertResult{Status: InsertError, Message: err.Error()}
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "INSERT INTO articles (title, slug, posted_at) VALUES (?, ?, NOW())", title, slug)
	if err != nil {
		return InsertResult{Status: InsertError, Message: fmt.Sprintf("insert failed: %v", err)}
	}
	return InsertResult{Status: InsertSuccess}
}
