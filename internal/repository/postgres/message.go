package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// AppendMessage inserts a chat turn; id and timestamp come from the database
func (p *PostgresDB) AppendMessage(ctx context.Context, userID *int64, role db.Role, content string) (*db.Message, error) {
	msg := db.Message{UserID: userID, Role: role, Content: content}

	query := `
	INSERT INTO messages (user_id, role, content)
	VALUES ($1, $2, $3)
	RETURNING id, timestamp
	`

	if err := p.conn.QueryRowContext(ctx, query, nullableID(userID), string(role), content).Scan(&msg.ID, &msg.Timestamp); err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"role":       role,
	}).Debug("Added message")

	return &msg, nil
}

// ListMessages returns the newest limit messages, oldest-first
func (p *PostgresDB) ListMessages(ctx context.Context, userID *int64, limit int) ([]db.Message, error) {
	query := `
	SELECT id, user_id, role, content, timestamp FROM (
		SELECT id, user_id, role, content, timestamp
		FROM messages
		WHERE ($1::BIGINT IS NULL OR user_id = $1)
		ORDER BY id DESC
		LIMIT $2
	) recent
	ORDER BY id ASC
	`

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := p.conn.QueryContext(ctx, query, nullableID(userID), limitArg)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	messages := make([]db.Message, 0)
	for rows.Next() {
		var (
			msg  db.Message
			uid  sql.NullInt64
			role string
		)
		if err := rows.Scan(&msg.ID, &uid, &role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if uid.Valid {
			v := uid.Int64
			msg.UserID = &v
		}
		msg.Role = db.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
