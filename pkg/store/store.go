// Package store persists the writable console resources, the access point
// configuration and the todo list, in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"devconsole/pkg/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages console state in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens the database at dbPath, creates the schema and seeds the
// access point row with seed when the table is empty.
func NewStore(dbPath string, seed models.APConfig) (*Store, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrDatabaseError, err)
	}

	ctx := context.Background()

	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", ErrDatabaseError, err)
	}

	store := &Store{db: database}
	if err := store.Initialize(seed); err != nil {
		_ = database.Close()
		return nil, err
	}

	return store, nil
}

// Initialize creates the database schema and the access point row.
func (s *Store) Initialize(seed models.APConfig) error {
	if err := ValidateAPConfig(seed); err != nil {
		return err
	}
	if seed.MAC == "" {
		seed.MAC = generateMAC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: failed to initialize schema: %w", ErrDatabaseError, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ap_config (id, essid, channel, hidden, authmode, mac, updated_at) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		seed.ESSID, seed.Channel, seed.Hidden, seed.AuthMode, seed.MAC, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to seed access point config: %w", ErrDatabaseError, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ValidateAPConfig checks the writable access point fields.
func ValidateAPConfig(cfg models.APConfig) error {
	if cfg.ESSID == "" || len(cfg.ESSID) > essidMaxLength {
		return fmt.Errorf("%w: essid must be 1-%d bytes", ErrInvalidAPConfig, essidMaxLength)
	}
	if cfg.Channel < minChannel || cfg.Channel > maxChannel {
		return fmt.Errorf("%w: channel must be between %d and %d", ErrInvalidAPConfig, minChannel, maxChannel)
	}
	if !slices.Contains(models.AuthModes, cfg.AuthMode) {
		return fmt.Errorf("%w: unknown authmode %q", ErrInvalidAPConfig, cfg.AuthMode)
	}
	return nil
}

// GetAPConfig returns the stored access point configuration.
func (s *Store) GetAPConfig() (*models.APConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getAPConfig(context.Background())
}

func (s *Store) getAPConfig(ctx context.Context) (*models.APConfig, error) {
	cfg := &models.APConfig{}
	err := s.db.QueryRowContext(ctx,
		`SELECT essid, channel, hidden, authmode, mac FROM ap_config WHERE id = 1`,
	).Scan(&cfg.ESSID, &cfg.Channel, &cfg.Hidden, &cfg.AuthMode, &cfg.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return cfg, nil
}

// SaveAPConfig stores the writable fields of cfg and returns the stored
// configuration. The MAC address is kept as the device reports it.
func (s *Store) SaveAPConfig(cfg models.APConfig) (*models.APConfig, error) {
	if err := ValidateAPConfig(cfg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	_, err := s.db.ExecContext(ctx,
		`UPDATE ap_config SET essid = ?, channel = ?, hidden = ?, authmode = ?, updated_at = ? WHERE id = 1`,
		cfg.ESSID, cfg.Channel, cfg.Hidden, cfg.AuthMode, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	return s.getAPConfig(ctx)
}

// ValidateTitle trims a todo title and checks it is usable.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title must not be empty", ErrInvalidTodo)
	}
	if len(title) > titleMaxLength {
		return "", fmt.Errorf("%w: title longer than %d bytes", ErrInvalidTodo, titleMaxLength)
	}
	return title, nil
}

// CreateTodo adds a todo at the end of the list.
func (s *Store) CreateTodo(title string, completed bool) (*models.Todo, error) {
	title, err := ValidateTitle(title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	todo := &models.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO todos (id, title, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		todo.ID, todo.Title, todo.Completed, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	return todo, nil
}

// GetTodo retrieves a todo by id.
func (s *Store) GetTodo(id string) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getTodo(context.Background(), id)
}

func (s *Store) getTodo(ctx context.Context, id string) (*models.Todo, error) {
	todo := &models.Todo{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, completed, created_at, updated_at FROM todos WHERE id = ?`,
		id,
	).Scan(&todo.ID, &todo.Title, &todo.Completed, &todo.CreatedAt, &todo.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return todo, nil
}

// ListTodos returns all todos in creation order.
func (s *Store) ListTodos() ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, title, completed, created_at, updated_at FROM todos ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	defer func() { _ = rows.Close() }()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.Title, &todo.Completed, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
		}
		todos = append(todos, todo)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	return todos, nil
}

// UpdateTodo applies the fields present in input to the todo with id.
func (s *Store) UpdateTodo(id string, input models.TodoInput) (*models.Todo, error) {
	var title string
	if input.Title != nil {
		validated, err := ValidateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		title = validated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	todo, err := s.getTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		todo.Title = title
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	todo.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, completed = ?, updated_at = ? WHERE id = ?`,
		todo.Title, todo.Completed, todo.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	return todo, nil
}

// DeleteTodo removes the todo with id.
func (s *Store) DeleteTodo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(context.Background(), `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// generateMAC returns a random locally administered unicast MAC in the
// "0x" + lowercase hex form the device reports.
func generateMAC() string {
	id := uuid.New()
	mac := id[:6]
	mac[0] = (mac[0] | 0x02) &^ 0x01
	return "0x" + hex.EncodeToString(mac)
}
