package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tutor-app/internal/api/response"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	settingsService "tutor-app/internal/service/settings"
	"tutor-app/pkg/validation"
)

// SettingsRequest has pointer fields so omitted and null values can be told
// apart from false and empty
type SettingsRequest struct {
	TextToSpeechEnabled *bool   `json:"textToSpeechEnabled"`
	SpeechRate          *string `json:"speechRate"`
	DifficultyLevel     *string `json:"difficultyLevel"`
}

func (r SettingsRequest) toUpdate() db.SettingsUpdate {
	update := db.SettingsUpdate{
		TextToSpeechEnabled: r.TextToSpeechEnabled,
		SpeechRate:          r.SpeechRate,
	}
	if r.DifficultyLevel != nil {
		level := db.Difficulty(*r.DifficultyLevel)
		update.DifficultyLevel = &level
	}
	return update
}

// SettingsHandlers serves the learner preferences
type SettingsHandlers struct {
	validator *validation.SettingsRequestValidator
	service   *settingsService.SettingsService
}

// NewSettingsHandlers creates a new SettingsHandlers
func NewSettingsHandlers(store db.SettingsStore) *SettingsHandlers {
	return &SettingsHandlers{
		validator: validation.NewSettingsRequestValidator(),
		service:   settingsService.NewSettingsService(store),
	}
}

// GetSettingsHandler returns the stored settings or the defaults
func (sh *SettingsHandlers) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	settings, err := sh.service.Get(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("Error fetching settings")
		response.Error(w, http.StatusInternalServerError, "Failed to fetch settings", err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// SaveSettingsHandler replaces the settings; omitted fields take defaults
func (sh *SettingsHandlers) SaveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	sh.write(w, r, sh.service.Save)
}

// UpdateSettingsHandler merges the supplied fields into the stored settings
func (sh *SettingsHandlers) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	sh.write(w, r, sh.service.Update)
}

type settingsWriter func(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error)

func (sh *SettingsHandlers) write(w http.ResponseWriter, r *http.Request, save settingsWriter) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid settings data", err)
		return
	}

	update := req.toUpdate()
	if err := sh.validator.ValidateSettingsUpdate(update); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid settings data", err)
		return
	}

	saved, err := save(r.Context(), userID, update)
	if err != nil {
		logger.Log.WithError(err).Error("Error saving settings")
		response.Error(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	response.JSON(w, http.StatusOK, saved)
}
