package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

// CreateUser inserts a user with an already hashed password
func (p *PostgresDB) CreateUser(ctx context.Context, username, passwordHash string) (*db.User, error) {
	user := db.User{Username: username, PasswordHash: passwordHash}

	query := `
	INSERT INTO users (username, password_hash)
	VALUES ($1, $2)
	RETURNING id, created_at
	`

	err := p.conn.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, db.ErrUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("Created new user")
	return &user, nil
}

// GetUser retrieves a user by id
func (p *PostgresDB) GetUser(ctx context.Context, id int64) (*db.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`
	return p.scanUser(p.conn.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username
func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	return p.scanUser(p.conn.QueryRowContext(ctx, query, username))
}

func (p *PostgresDB) scanUser(row *sql.Row) (*db.User, error) {
	var user db.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}
