package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Settings are a user's solver preferences.
type Settings struct {
	SpecificWeightNM3 float64 `json:"specific_weight_n_m3"`
	MaxRelativeDepth  float64 `json:"max_relative_depth"`
}

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetBylogin(ctx context.Context, login string) (int, string, error)
	GetSettings(ctx context.Context, userID int) (Settings, error)
	SaveSettings(ctx context.Context, userID int, s Settings) error
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserDB(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	login TEXT UNIQUE NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS user_settings (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	specific_weight DOUBLE PRECISION NOT NULL,
	max_relative_depth DOUBLE PRECISION NOT NULL
);`

func (r *PostgresUserRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	return id, err
}

// GetBylogin returns ErrNotFound for an unknown login.
func (r *PostgresUserRepository) GetBylogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return id, hash, nil
}

// GetSettings returns ErrNotFound when the user never saved any.
func (r *PostgresUserRepository) GetSettings(ctx context.Context, userID int) (Settings, error) {
	var s Settings
	query := "SELECT specific_weight, max_relative_depth FROM user_settings WHERE user_id=$1"
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.SpecificWeightNM3, &s.MaxRelativeDepth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

func (r *PostgresUserRepository) SaveSettings(ctx context.Context, userID int, s Settings) error {
	query := `INSERT INTO user_settings (user_id, specific_weight, max_relative_depth) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET specific_weight = EXCLUDED.specific_weight, max_relative_depth = EXCLUDED.max_relative_depth`
	_, err := r.db.ExecContext(ctx, query, userID, s.SpecificWeightNM3, s.MaxRelativeDepth)
	return err
}
