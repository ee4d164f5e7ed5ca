package validation

import (
	"fmt"
	"regexp"

	"tutor-app/internal/repository/db"
)

var decimalRate = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// SettingsRequestValidator validates settings updates
type SettingsRequestValidator struct{}

// NewSettingsRequestValidator creates a new SettingsRequestValidator
func NewSettingsRequestValidator() *SettingsRequestValidator {
	return &SettingsRequestValidator{}
}

// ValidateSpeechRate checks that the rate is a decimal number. The
// recommended 0.5 to 2.0 range is not enforced.
func (v *SettingsRequestValidator) ValidateSpeechRate(rate string) error {
	if !decimalRate.MatchString(rate) {
		return fmt.Errorf("speechRate must be a decimal number, got %q", rate)
	}
	return nil
}

// ValidateDifficultyLevel checks the level against easy, medium and hard
func (v *SettingsRequestValidator) ValidateDifficultyLevel(level string) error {
	if !db.Difficulty(level).Valid() {
		return fmt.Errorf("difficultyLevel must be one of: easy, medium, hard; got %q", level)
	}
	return nil
}

// ValidateSettingsUpdate validates the supplied fields of an update
func (v *SettingsRequestValidator) ValidateSettingsUpdate(update db.SettingsUpdate) error {
	if update.SpeechRate != nil {
		if err := v.ValidateSpeechRate(*update.SpeechRate); err != nil {
			return err
		}
	}
	if update.DifficultyLevel != nil {
		if err := v.ValidateDifficultyLevel(string(*update.DifficultyLevel)); err != nil {
			return err
		}
	}
	return nil
}
