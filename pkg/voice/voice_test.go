package voice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeechText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text is spoken verbatim",
			in:   "What is your name?",
			want: "What is your name?",
		},
		{
			name: "english span only",
			in:   `<span class="de block">Wie heißt du?</span><span class="en block font-medium">What is your name?</span>`,
			want: "What is your name?",
		},
		{
			name: "font-medium span",
			in:   `Hallo! <span class="font-medium">Hello!</span>`,
			want: "Hello!",
		},
		{
			name: "several english spans are joined",
			in:   `<span class="en">Good morning.</span> <span class="de">Guten Morgen.</span> <span class="en">How are you?</span>`,
			want: "Good morning. How are you?",
		},
		{
			name: "other markup is removed",
			in:   `<b>Super!</b> <i>Great!</i>`,
			want: "Super! Great!",
		},
		{
			name: "empty english span falls back to the original",
			in:   `<span class="en"></span>`,
			want: `<span class="en"></span>`,
		},
		{
			name: "markup only falls back to the original",
			in:   `<br/>`,
			want: `<br/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeechText(tt.in))
		})
	}
}

type recordingSynth struct {
	text string
	rate float64
	lang string
	err  error
}

func (r *recordingSynth) Speak(_ context.Context, text string, rate float64, lang string) error {
	r.text, r.rate, r.lang = text, rate, lang
	return r.err
}

func TestSpeaker(t *testing.T) {
	synth := &recordingSynth{}
	speaker := NewSpeaker(synth)

	err := speaker.Speak(context.Background(), `<span class="de">Ja</span><span class="en">Yes</span>`, 1.5, "")
	require.NoError(t, err)
	assert.Equal(t, "Yes", synth.text)
	assert.Equal(t, 1.5, synth.rate)
	assert.Equal(t, DefaultLanguage, synth.lang)

	synth.err = errors.New("device busy")
	assert.EqualError(t, speaker.Speak(context.Background(), "Hi", 1, "en-GB"), "device busy")
}

func TestSpeaker_Unsupported(t *testing.T) {
	assert.ErrorIs(t, NewSpeaker(nil).Speak(context.Background(), "Hi", 1, ""), ErrUnsupported)

	var nilSpeaker *Speaker
	assert.ErrorIs(t, nilSpeaker.Speak(context.Background(), "Hi", 1, ""), ErrUnsupported)
}

type fakeRecognizer struct {
	startErr error
	onResult func(string)
	onError  func(error)
	onEnd    func()
	lang     string
	stops    int
}

func (f *fakeRecognizer) Start(lang string, onResult func(string), onError func(error), onEnd func()) error {
	f.lang, f.onResult, f.onError, f.onEnd = lang, onResult, onError, onEnd
	return f.startErr
}

func (f *fakeRecognizer) Stop() error {
	f.stops++
	return nil
}

func TestListener(t *testing.T) {
	rec := &fakeRecognizer{}
	var results []string
	l := NewListener(rec, func(s string) { results = append(results, s) }, nil)

	require.NoError(t, l.Start(""))
	assert.True(t, l.Listening())
	assert.Equal(t, DefaultLanguage, rec.lang)

	assert.ErrorIs(t, l.Start("en-US"), ErrAlreadyListening)

	rec.onResult("hello")
	rec.onResult("hello there")
	assert.Equal(t, "hello there", l.Transcript())
	assert.Equal(t, []string{"hello", "hello there"}, results)

	require.NoError(t, l.Stop())
	assert.False(t, l.Listening())
	assert.Equal(t, 1, rec.stops)

	// Idle stop is a no-op
	require.NoError(t, l.Stop())
	assert.Equal(t, 1, rec.stops)

	l.ClearTranscript()
	assert.Empty(t, l.Transcript())

	// A new session starts with an empty transcript
	rec.onResult("old")
	require.NoError(t, l.Start("en-US"))
	assert.Empty(t, l.Transcript())
}

func TestListener_Errors(t *testing.T) {
	t.Run("no recognizer", func(t *testing.T) {
		var got error
		l := NewListener(nil, nil, func(err error) { got = err })
		assert.ErrorIs(t, l.Start(""), ErrUnsupported)
		assert.ErrorIs(t, got, ErrUnsupported)
		assert.False(t, l.Listening())
	})

	t.Run("start failure", func(t *testing.T) {
		var got error
		rec := &fakeRecognizer{startErr: errors.New("mic denied")}
		l := NewListener(rec, nil, func(err error) { got = err })
		assert.Error(t, l.Start(""))
		assert.EqualError(t, got, "mic denied")
		assert.False(t, l.Listening())
	})

	t.Run("session end clears listening", func(t *testing.T) {
		rec := &fakeRecognizer{}
		l := NewListener(rec, nil, nil)
		require.NoError(t, l.Start(""))
		rec.onEnd()
		assert.False(t, l.Listening())
		require.NoError(t, l.Start(""))
		assert.Zero(t, rec.stops)
	})

	t.Run("runtime error clears listening", func(t *testing.T) {
		var got error
		rec := &fakeRecognizer{}
		l := NewListener(rec, nil, func(err error) { got = err })
		require.NoError(t, l.Start(""))
		rec.onError(errors.New("network"))
		assert.EqualError(t, got, "network")
		assert.False(t, l.Listening())
	})
}

func TestWordsPerMinute(t *testing.T) {
	assert.Equal(t, 175, WordsPerMinute(1.0))
	assert.Equal(t, 88, WordsPerMinute(0.5))
	assert.Equal(t, 350, WordsPerMinute(2.0))
	assert.Equal(t, 175, WordsPerMinute(0))
}

func TestCommandSynthesizer_MissingCommand(t *testing.T) {
	err := CommandSynthesizer{Command: "definitely-not-a-speech-command"}.Speak(context.Background(), "Hi", 1, "en-US")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestStreamRecognizer(t *testing.T) {
	pr, pw := io.Pipe()
	s := &StreamRecognizer{Open: func(lang string) (io.ReadCloser, error) {
		assert.Equal(t, "en-US", lang)
		return pr, nil
	}}

	var mu sync.Mutex
	var results []string
	got := make(chan struct{}, 4)
	err := s.Start("en-US", func(text string) {
		mu.Lock()
		results = append(results, text)
		mu.Unlock()
		got <- struct{}{}
	}, func(err error) { t.Errorf("unexpected error: %v", err) }, nil)
	require.NoError(t, err)

	_, _ = io.WriteString(pw, "hello\n\nhello world\n")
	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for transcript")
		}
	}

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello", "hello world"}, results)
}

func TestStreamRecognizer_OpenFailure(t *testing.T) {
	s := &StreamRecognizer{Open: func(string) (io.ReadCloser, error) { return nil, errors.New("no device") }}
	err := s.Start("en-US", func(string) {}, func(error) {}, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no device"))

	assert.ErrorIs(t, (&StreamRecognizer{}).Start("en-US", nil, nil, nil), ErrUnsupported)
}

func TestNewCommandRecognizer_MissingCommand(t *testing.T) {
	r := NewCommandRecognizer("definitely-not-a-stt-command")
	assert.ErrorIs(t, r.Start("en-US", func(string) {}, func(error) {}, nil), ErrUnsupported)
}

func TestListener_StreamEndsOnItsOwn(t *testing.T) {
	opened := 0
	rec := &StreamRecognizer{Open: func(string) (io.ReadCloser, error) {
		opened++
		return io.NopCloser(strings.NewReader("hello there\n")), nil
	}}
	l := NewListener(rec, nil, func(err error) { t.Errorf("unexpected error: %v", err) })

	require.NoError(t, l.Start("en-US"))
	assert.Eventually(t, func() bool { return !l.Listening() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello there", l.Transcript())

	// A finished session does not block the next one
	require.NoError(t, l.Start("en-US"))
	assert.Eventually(t, func() bool { return !l.Listening() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, opened)
	require.NoError(t, l.Stop())
}

func TestStreamRecognizer_EndCallback(t *testing.T) {
	ended := make(chan struct{})
	s := &StreamRecognizer{Open: func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("one\ntwo\n")), nil
	}}

	var got []string
	require.NoError(t, s.Start("en-US", func(text string) { got = append(got, text) }, nil, func() { close(ended) }))

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the session to end")
	}
	assert.Equal(t, []string{"one", "two"}, got)
	assert.NoError(t, s.Stop())
}
