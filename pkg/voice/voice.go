// Package voice adapts speech synthesis and recognition backends for the
// tutor client.
package voice

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
)

// DefaultLanguage is the tag used for English-only speech
const DefaultLanguage = "en-US"

var (
	// ErrUnsupported means the platform has no backend for the operation
	ErrUnsupported = errors.New("voice: not supported on this platform")
	// ErrAlreadyListening is reported when Start is called on an active Listener
	ErrAlreadyListening = errors.New("voice: already listening")
)

// Synthesizer speaks text and returns once playback has ended
type Synthesizer interface {
	Speak(ctx context.Context, text string, rate float64, lang string) error
}

// Recognizer streams transcripts until stopped. onResult receives the latest
// transcript, onError receives runtime failures and onEnd is called once the
// session is over, whether it was stopped or ran out of input.
type Recognizer interface {
	Start(lang string, onResult func(string), onError func(error), onEnd func()) error
	Stop() error
}

var (
	englishSpan = regexp.MustCompile(`<span class="en[^>]*>(.*?)</span>|<span class="font-medium">(.*?)</span>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
)

// SpeechText returns the part of a bilingual reply that should be spoken.
// When the text has English spans only their content is kept; otherwise
// any markup is removed. An empty result falls back to the original text.
func SpeechText(text string) string {
	var spoken string
	if matches := englishSpan.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		parts := make([]string, 0, len(matches))
		for _, m := range matches {
			part := m[1] + m[2]
			if part = strings.TrimSpace(anyTag.ReplaceAllString(part, "")); part != "" {
				parts = append(parts, part)
			}
		}
		spoken = strings.Join(parts, " ")
	} else {
		spoken = strings.TrimSpace(anyTag.ReplaceAllString(text, ""))
	}

	if spoken == "" {
		return text
	}
	return spoken
}

// Speaker strips bilingual markup before synthesis
type Speaker struct {
	synth Synthesizer
}

// NewSpeaker wraps synth. A nil synth yields a Speaker that reports ErrUnsupported.
func NewSpeaker(synth Synthesizer) *Speaker {
	return &Speaker{synth: synth}
}

// Speak says the English portion of text
func (s *Speaker) Speak(ctx context.Context, text string, rate float64, lang string) error {
	if s == nil || s.synth == nil {
		return ErrUnsupported
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	return s.synth.Speak(ctx, SpeechText(text), rate, lang)
}

// Listener tracks one recognition session at a time
type Listener struct {
	rec      Recognizer
	onResult func(string)
	onError  func(error)

	mu         sync.Mutex
	listening  bool
	transcript string
}

// NewListener wraps rec. Callbacks may be nil.
func NewListener(rec Recognizer, onResult func(string), onError func(error)) *Listener {
	return &Listener{rec: rec, onResult: onResult, onError: onError}
}

// Start begins recognition in lang. Failures are passed to the error
// callback as well as returned.
func (l *Listener) Start(lang string) error {
	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return ErrAlreadyListening
	}
	if l.rec == nil {
		l.mu.Unlock()
		l.fail(ErrUnsupported)
		return ErrUnsupported
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	l.transcript = ""
	l.listening = true
	l.mu.Unlock()

	if err := l.rec.Start(lang, l.result, l.fail, l.end); err != nil {
		l.fail(err)
		return err
	}
	return nil
}

// Stop ends the active session. It does nothing when idle.
func (l *Listener) Stop() error {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return nil
	}
	l.listening = false
	l.mu.Unlock()
	return l.rec.Stop()
}

// Listening reports whether a session is active
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Transcript returns the latest recognized text
func (l *Listener) Transcript() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transcript
}

// ClearTranscript resets the transcript and notifies the result callback
func (l *Listener) ClearTranscript() {
	l.result("")
}

func (l *Listener) result(text string) {
	l.mu.Lock()
	l.transcript = text
	l.mu.Unlock()
	if l.onResult != nil {
		l.onResult(text)
	}
}

func (l *Listener) end() {
	l.mu.Lock()
	l.listening = false
	l.mu.Unlock()
}

func (l *Listener) fail(err error) {
	l.mu.Lock()
	l.listening = false
	l.mu.Unlock()
	if l.onError != nil {
		l.onError(err)
	}
}
