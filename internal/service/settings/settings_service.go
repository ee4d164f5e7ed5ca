package settings

import (
	"context"
	"errors"
	"fmt"

	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// SettingsService reads and writes per-user preferences
type SettingsService struct {
	db db.SettingsStore
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store db.SettingsStore) *SettingsService {
	return &SettingsService{db: store}
}

// Get returns the stored settings, or the defaults when the user has none.
// Defaults are not persisted.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*db.Settings, error) {
	stored, err := s.db.GetSettings(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		d := db.DefaultSettings()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return stored, nil
}

// Save replaces the settings: omitted fields take their default value
func (s *SettingsService) Save(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	return s.upsert(ctx, userID, update.WithDefaults(), "save")
}

// Update merges the supplied fields into the stored settings
func (s *SettingsService) Update(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	return s.upsert(ctx, userID, update, "update")
}

func (s *SettingsService) upsert(ctx context.Context, userID int64, update db.SettingsUpdate, op string) (*db.Settings, error) {
	saved, err := s.db.UpsertSettings(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to %s settings: %w", op, err)
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"difficulty": saved.DifficultyLevel,
		"tts":        saved.TextToSpeechEnabled,
	}).Info("Settings " + op + "d")
	return saved, nil
}
