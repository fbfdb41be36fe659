package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"prepwise/logging"
	"prepwise/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type PostgresMemoryRepository struct {
	db *sql.DB
}

func NewPostgresMemoryRepository(databaseURL string) (*PostgresMemoryRepository, error) {
	db, err := Open(databaseURL)
	if err != nil {
		return nil, err
	}

	return &PostgresMemoryRepository{db: db}, nil
}

func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(logging.GooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

func (r *PostgresMemoryRepository) Migrate() error {
	return Migrate(r.db)
}

func (r *PostgresMemoryRepository) GetAll(ctx context.Context, sessionID string) ([]models.MemoryEntry, error) {
	query := `
		SELECT id, session_id, agent_id, role, memory, created_at
		FROM prepwise.memories
		WHERE session_id = $1
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	entries := []models.MemoryEntry{}
	for rows.Next() {
		var entry models.MemoryEntry
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.AgentID, &entry.Role, &entry.Memory, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}

	return entries, nil
}

// Add stores every message as its own entry in one transaction.
func (r *PostgresMemoryRepository) Add(ctx context.Context, sessionID, agentID string, messages []models.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO prepwise.memories (id, session_id, agent_id, role, memory)
		VALUES ($1, $2, $3, $4, $5)`

	for _, message := range messages {
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), sessionID, agentID, message.Role, message.Content); err != nil {
			return fmt.Errorf("failed to insert memory: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit memories: %w", err)
	}

	return nil
}

func (r *PostgresMemoryRepository) Close() error {
	return r.db.Close()
}
