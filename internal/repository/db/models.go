package db

import "time"

// Role identifies who authored a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Difficulty selects the tutoring persona's vocabulary level
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the three known levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty returns the matching level, or easy for anything unrecognized
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(s)
	if d.Valid() {
		return d
	}
	return DifficultyEasy
}

// Settings defaults applied when a record is created or synthesized
const (
	DefaultTextToSpeechEnabled = true
	DefaultSpeechRate          = "1.0"
	DefaultDifficultyLevel     = DifficultyEasy
)

// User represents a user in the database
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message represents one conversation turn
type Message struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"userId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings holds the per-user preferences. ID and UserID are zero for a
// synthesized default that was never stored.
type Settings struct {
	ID                  int64      `json:"id,omitempty"`
	UserID              int64      `json:"userId,omitempty"`
	TextToSpeechEnabled bool       `json:"textToSpeechEnabled"`
	SpeechRate          string     `json:"speechRate"`
	DifficultyLevel     Difficulty `json:"difficultyLevel"`
}

// SettingsUpdate carries the fields supplied to an upsert. Nil means not supplied.
type SettingsUpdate struct {
	TextToSpeechEnabled *bool
	SpeechRate          *string
	DifficultyLevel     *Difficulty
}

// DefaultSettings returns the record used when a user has none stored
func DefaultSettings() Settings {
	return Settings{
		TextToSpeechEnabled: DefaultTextToSpeechEnabled,
		SpeechRate:          DefaultSpeechRate,
		DifficultyLevel:     DefaultDifficultyLevel,
	}
}

// Apply merges the supplied fields into s
func (u SettingsUpdate) Apply(s *Settings) {
	if u.TextToSpeechEnabled != nil {
		s.TextToSpeechEnabled = *u.TextToSpeechEnabled
	}
	if u.SpeechRate != nil {
		s.SpeechRate = *u.SpeechRate
	}
	if u.DifficultyLevel != nil {
		s.DifficultyLevel = *u.DifficultyLevel
	}
}

// WithDefaults returns a copy where every omitted field holds its default value
func (u SettingsUpdate) WithDefaults() SettingsUpdate {
	d := DefaultSettings()
	if u.TextToSpeechEnabled == nil {
		u.TextToSpeechEnabled = &d.TextToSpeechEnabled
	}
	if u.SpeechRate == nil {
		u.SpeechRate = &d.SpeechRate
	}
	if u.DifficultyLevel == nil {
		u.DifficultyLevel = &d.DifficultyLevel
	}
	return u
}
