package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jobhunter-backend/auth-service/internal/domain"
)

const userColumns = `id, email, password_hash, name, age, gender, address, role_id,
		account_status, COALESCE(activation_code, ''), COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Age,
		&user.Gender,
		&user.Address,
		&user.RoleID,
		&user.AccountStatus,
		&user.ActivationCode,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, age, gender, address, role_id,
			account_status, activation_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Age,
		user.Gender,
		user.Address,
		user.RoleID,
		user.AccountStatus,
		user.ActivationCode,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// ExistsByEmail checks if a user exists with the given email
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// GetByRefreshToken retrieves the user whose currently stored refresh token
// equals the given value. A superseded token no longer matches.
func (r *PostgresUserRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return scanUser(r.pool.QueryRow(ctx, query, token))
}

// GetByActivationCode retrieves the user holding a non-consumed activation code
func (r *PostgresUserRepository) GetByActivationCode(ctx context.Context, code string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE activation_code = $1`
	return scanUser(r.pool.QueryRow(ctx, query, code))
}

// UpdateRefreshToken unconditionally replaces the stored refresh token.
// An empty value clears it.
func (r *PostgresUserRepository) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID, token, time.Now())
	return err
}

// SwapRefreshToken replaces the stored refresh token only if it still equals old.
// The WHERE clause makes the read-compare-write a single atomic statement, so
// exactly one of any set of concurrent rotations can succeed.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, old, new string) (bool, error) {
	query := `UPDATE users SET refresh_token = $3, updated_at = $4 WHERE id = $1 AND refresh_token = $2`
	tag, err := r.pool.Exec(ctx, query, userID, old, new, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Activate marks the account activated and clears its activation code
func (r *PostgresUserRepository) Activate(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET account_status = $2, activation_code = NULL, updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, domain.StatusActivated, time.Now())
	return err
}
