package settings

import (
	"context"
	"errors"
	"testing"

	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/repository/memory"
	"tutor-app/internal/testutil"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

func TestGet_ReturnsDefaultsWithoutPersisting(t *testing.T) {
	logger.Silence()
	store := memory.NewMemoryDB()
	service := NewSettingsService(store)

	got, err := service.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got != db.DefaultSettings() {
		t.Errorf("Get() = %+v, want defaults", *got)
	}
	if got.ID != 0 || got.UserID != 0 {
		t.Error("synthesized defaults must not carry ids")
	}
	if _, err := store.GetSettings(context.Background(), 1); !errors.Is(err, db.ErrNotFound) {
		t.Error("Get() must not persist defaults")
	}
}

func TestSave_FillsOmittedFieldsWithDefaults(t *testing.T) {
	logger.Silence()
	ctx := context.Background()
	service := NewSettingsService(memory.NewMemoryDB())

	hard := db.DifficultyHard
	if _, err := service.Save(ctx, 1, db.SettingsUpdate{TextToSpeechEnabled: boolPtr(false), SpeechRate: strPtr("1.5"), DifficultyLevel: &hard}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A save with only the rate resets the other fields
	got, err := service.Save(ctx, 1, db.SettingsUpdate{SpeechRate: strPtr("0.8")})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !got.TextToSpeechEnabled {
		t.Error("TextToSpeechEnabled should reset to the default")
	}
	if got.DifficultyLevel != db.DifficultyEasy {
		t.Errorf("DifficultyLevel = %s, want easy", got.DifficultyLevel)
	}
	if got.SpeechRate != "0.8" {
		t.Errorf("SpeechRate = %s, want 0.8", got.SpeechRate)
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	logger.Silence()
	ctx := context.Background()
	service := NewSettingsService(memory.NewMemoryDB())

	first, err := service.Save(ctx, 1, db.SettingsUpdate{TextToSpeechEnabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	medium := db.DifficultyMedium
	got, err := service.Update(ctx, 1, db.SettingsUpdate{DifficultyLevel: &medium})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("Update() created a new record: id %d, want %d", got.ID, first.ID)
	}
	if got.TextToSpeechEnabled {
		t.Error("Update() must keep TextToSpeechEnabled=false")
	}
	if got.DifficultyLevel != db.DifficultyMedium {
		t.Errorf("DifficultyLevel = %s, want medium", got.DifficultyLevel)
	}

	fetched, _ := service.Get(ctx, 1)
	if *fetched != *got {
		t.Errorf("Get() = %+v, want %+v", *fetched, *got)
	}
}

func TestStoreErrorsAreReturned(t *testing.T) {
	logger.Silence()
	storeErr := errors.New("connection refused")
	mockDB := &testutil.MockDatabase{
		GetSettingsFunc: func(context.Context, int64) (*db.Settings, error) { return nil, storeErr },
		UpsertSettingsFunc: func(context.Context, int64, db.SettingsUpdate) (*db.Settings, error) {
			return nil, storeErr
		},
	}
	service := NewSettingsService(mockDB)

	if _, err := service.Get(context.Background(), 1); !errors.Is(err, storeErr) {
		t.Errorf("Get() error = %v, want store error", err)
	}
	if _, err := service.Save(context.Background(), 1, db.SettingsUpdate{}); !errors.Is(err, storeErr) {
		t.Errorf("Save() error = %v, want store error", err)
	}
	if _, err := service.Update(context.Background(), 1, db.SettingsUpdate{}); !errors.Is(err, storeErr) {
		t.Errorf("Update() error = %v, want store error", err)
	}
}
