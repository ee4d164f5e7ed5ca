package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
)

// GetSettings returns the user's record or db.ErrNotFound
func (p *PostgresDB) GetSettings(ctx context.Context, userID int64) (*db.Settings, error) {
	query := `
	SELECT id, user_id, text_to_speech_enabled, speech_rate, difficulty_level
	FROM settings
	WHERE user_id = $1
	`

	s, err := scanSettings(p.conn.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving settings: %w", err)
	}
	return s, nil
}

// UpsertSettings merges the supplied fields in a single statement. Omitted
// fields keep their stored value, or take the column default on insert.
func (p *PostgresDB) UpsertSettings(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	d := db.DefaultSettings()

	var tts sql.NullBool
	if update.TextToSpeechEnabled != nil {
		tts = sql.NullBool{Bool: *update.TextToSpeechEnabled, Valid: true}
	}
	var rate sql.NullString
	if update.SpeechRate != nil {
		rate = sql.NullString{String: *update.SpeechRate, Valid: true}
	}
	var level sql.NullString
	if update.DifficultyLevel != nil {
		level = sql.NullString{String: string(*update.DifficultyLevel), Valid: true}
	}

	query := `
	INSERT INTO settings (user_id, text_to_speech_enabled, speech_rate, difficulty_level)
	VALUES ($1, COALESCE($2::BOOLEAN, $5::BOOLEAN), COALESCE($3::TEXT, $6::TEXT), COALESCE($4::TEXT, $7::TEXT))
	ON CONFLICT (user_id) DO UPDATE SET
		text_to_speech_enabled = COALESCE($2::BOOLEAN, settings.text_to_speech_enabled),
		speech_rate            = COALESCE($3::TEXT, settings.speech_rate),
		difficulty_level       = COALESCE($4::TEXT, settings.difficulty_level)
	RETURNING id, user_id, text_to_speech_enabled, speech_rate, difficulty_level
	`

	s, err := scanSettings(p.conn.QueryRowContext(ctx, query,
		userID, tts, rate, level,
		d.TextToSpeechEnabled, d.SpeechRate, string(d.DifficultyLevel),
	))
	if err != nil {
		return nil, fmt.Errorf("error upserting settings: %w", err)
	}

	logger.Log.WithField("user_id", userID).Debug("Upserted settings")
	return s, nil
}

func scanSettings(row *sql.Row) (*db.Settings, error) {
	var (
		s     db.Settings
		level string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.TextToSpeechEnabled, &s.SpeechRate, &level); err != nil {
		return nil, err
	}
	s.DifficultyLevel = db.Difficulty(level)
	return &s, nil
}
