package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandmind/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

const userColumns = `id, email, password_hash, name, phone, telegram_username, role, is_active, is_verified, api_key, COALESCE(upstream_api_key, ''), last_login, created_at, updated_at`

// Create inserts a new user row. Duplicate emails surface as ErrEmailExists.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, email, password_hash, name, phone, telegram_username, role, is_active, is_verified, api_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.TelegramUser,
		user.Role,
		user.IsActive,
		user.IsVerified,
		user.APIKey,
	)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail fetches a user by email address.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByAPIKey fetches a user by live API key.
func (r *UserRepositoryPG) GetByAPIKey(ctx context.Context, key string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = $1`, key)
	return scanUser(row)
}

// List returns a page of users filtered by activation status and search term,
// along with the total matching count.
func (r *UserRepositoryPG) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	switch filter.Status {
	case "active":
		where += " AND is_active = TRUE"
	case "inactive":
		where += " AND is_active = FALSE"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (email ILIKE $%d OR name ILIKE $%d OR telegram_username ILIKE $%d)", n, n, n)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// SetActive flips the activation and verification flags.
func (r *UserRepositoryPG) SetActive(ctx context.Context, id string, active, verified bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, is_verified = $3, updated_at = NOW() WHERE id = $1`, id, active, verified)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password digest.
func (r *UserRepositoryPG) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

// UpdateAPIKey replaces the user's live API key.
func (r *UserRepositoryPG) UpdateAPIKey(ctx context.Context, id, apiKey string) error {
	return r.exec(ctx, `UPDATE users SET api_key = $2, updated_at = NOW() WHERE id = $1`, id, apiKey)
}

// UpdateUpstreamKey sets the per-user completion-service credential.
func (r *UserRepositoryPG) UpdateUpstreamKey(ctx context.Context, id, upstreamKey string) error {
	return r.exec(ctx, `UPDATE users SET upstream_api_key = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`, id, upstreamKey)
}

// TouchLastLogin stamps the last successful login time.
func (r *UserRepositoryPG) TouchLastLogin(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
}

// CountByActive returns total, active and pending user counts for dashboards.
func (r *UserRepositoryPG) CountByActive(ctx context.Context) (total, active, pending int, err error) {
	row := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_active),
       COUNT(*) FILTER (WHERE NOT is_active)
FROM users;
`)
	if err := row.Scan(&total, &active, &pending); err != nil {
		return 0, 0, 0, fmt.Errorf("count users: %w", err)
	}
	return total, active, pending, nil
}

func (r *UserRepositoryPG) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.TelegramUser,
		&u.Role, &u.IsActive, &u.IsVerified, &u.APIKey, &u.UpstreamKey,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
