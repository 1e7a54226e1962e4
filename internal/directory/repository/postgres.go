package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"fitness-gateway/internal/directory/domain"
)

// ErrDuplicate is returned when an insert violates the unique constraints on
// email or keycloak_id. Under concurrent first logins the database is the
// sole arbiter of uniqueness; the losing insert surfaces as this error.
var ErrDuplicate = errors.New("user already exists")

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = "id, keycloak_id, email, password_hash, first_name, last_name, created_at, updated_at"

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

// ExistsByKeycloakID reports whether any user carries the given Keycloak subject id.
func (r *PostgresRepository) ExistsByKeycloakID(ctx context.Context, keycloakID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE keycloak_id = $1)", keycloakID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create persists the user. The user must have ID set; it is not assigned by
// this method. Unique-constraint violations return ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	firstName := sql.NullString{String: u.FirstName, Valid: u.FirstName != ""}
	lastName := sql.NullString{String: u.LastName, Valid: u.LastName != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, keycloak_id, email, password_hash, first_name, last_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.KeycloakID, u.Email, u.PasswordHash, firstName, lastName, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var firstName, lastName sql.NullString
	err := row.Scan(&u.ID, &u.KeycloakID, &u.Email, &u.PasswordHash, &firstName, &lastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, nil
}
