package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"tutor-app/pkg/voice"
)

// DefaultHistorySize is how many messages Load and Send fetch
const DefaultHistorySize = 6

var (
	// ErrEmptyInput is returned for blank input; nothing is sent
	ErrEmptyInput = errors.New("message is empty")
	// ErrSendInFlight is returned while a previous Send has not finished
	ErrSendInFlight = errors.New("a message is already being sent")
)

// Session holds one learner's transcript and settings. Settings are read
// from the server once and are authoritative locally afterwards.
type Session struct {
	api         *Client
	speaker     *voice.Speaker
	historySize int

	mu         sync.Mutex
	transcript []Message
	settings   Settings
	pending    bool
	lastErr    error
}

// NewSession creates a Session. speaker may be nil when audio is unavailable.
func NewSession(api *Client, speaker *voice.Speaker) *Session {
	return &Session{
		api:         api,
		speaker:     speaker,
		historySize: DefaultHistorySize,
		settings:    DefaultSettings(),
	}
}

// Load fetches the settings and the recent transcript. On failure the
// defaults remain in place and the error is kept for LastError.
func (s *Session) Load(ctx context.Context) error {
	settings, err := s.api.GetSettings(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}
	messages, err := s.api.GetMessages(ctx, s.historySize)
	if err != nil {
		s.mu.Lock()
		s.settings = settings
		s.mu.Unlock()
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.transcript = messages
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Send posts input at the current difficulty and refreshes the transcript.
// If the refresh fails the two stored turns are appended locally.
func (s *Session) Send(ctx context.Context, input string) (*ChatReply, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.pending = true
	difficulty := s.settings.DifficultyLevel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	reply, err := s.api.SendMessage(ctx, input, difficulty)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	messages, err := s.api.GetMessages(ctx, s.historySize)
	s.mu.Lock()
	if err != nil {
		s.transcript = append(s.transcript, reply.UserMessage, reply.AssistantMessage)
		s.lastErr = err
	} else {
		s.transcript = messages
		s.lastErr = nil
	}
	s.mu.Unlock()
	return reply, nil
}

// SaveSettings pushes settings to the server. They become the local
// settings once the server accepts them.
func (s *Session) SaveSettings(ctx context.Context, settings Settings) error {
	saved, err := s.api.SaveSettings(ctx, settings)
	if err != nil {
		s.setErr(err)
		return err
	}
	s.mu.Lock()
	s.settings = saved
	s.mu.Unlock()
	return nil
}

// PlayAudio speaks the English part of text when text-to-speech is enabled
func (s *Session) PlayAudio(ctx context.Context, text string) error {
	settings := s.Settings()
	if !settings.TextToSpeechEnabled {
		return nil
	}
	rate, err := strconv.ParseFloat(settings.SpeechRate, 64)
	if err != nil || rate <= 0 {
		rate = 1.0
	}
	return s.speaker.Speak(ctx, text, rate, voice.DefaultLanguage)
}

// Transcript returns a copy of the loaded messages, oldest-first
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Settings returns the current settings
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Pending reports whether a Send is in flight
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastError returns the most recent request failure, or nil
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Progress is a rough completion percentage shown to the learner
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min(5+5*len(s.transcript), 100)
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
