package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crystul/auth-server/internal/model"
)

const uniqueViolation = "23505"

var _ model.UserStore = (*UserRepository)(nil)

// UserRepository stores users in PostgreSQL. List fields are kept as JSONB.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a repository on top of db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, name, email, password_hash, avatar, bio, skills, interests, experience,
	looking_for, location, timezone, is_public, connections, created_at`

// GetByEmail finds a user by case-insensitive email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// Create inserts user. An empty ID is replaced with a new UUID.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	lists, err := marshalLists(user)
	if err != nil {
		return model.User{}, err
	}

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, model.NormalizeEmail(user.Email), user.PasswordHash, user.Avatar, user.Bio,
		lists[0], lists[1], string(user.Experience), lists[2],
		user.Location, user.Timezone, user.IsPublic, lists[3], user.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func marshalLists(user model.User) ([4][]byte, error) {
	var out [4][]byte
	for i, list := range [][]string{user.Skills, user.Interests, user.LookingFor, user.Connections} {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return out, fmt.Errorf("failed to marshal user list field: %w", err)
		}
		out[i] = data
	}
	return out, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		user                                      model.User
		experience                                string
		skills, interests, lookingFor, connection []byte
	)

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Avatar, &user.Bio,
		&skills, &interests, &experience, &lookingFor,
		&user.Location, &user.Timezone, &user.IsPublic, &connection, &user.CreatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Experience = model.Experience(experience)

	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{
		{skills, &user.Skills},
		{interests, &user.Interests},
		{lookingFor, &user.LookingFor},
		{connection, &user.Connections},
	} {
		*f.dst = []string{}
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return model.User{}, fmt.Errorf("failed to decode user list field: %w", err)
		}
	}

	return user, nil
}
