package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// baseWordsPerMinute is espeak's default speed, used for rate 1.0
const baseWordsPerMinute = 175

// CommandSynthesizer speaks through an espeak-compatible command
type CommandSynthesizer struct {
	// Command defaults to "espeak"
	Command string
}

// WordsPerMinute maps a playback rate multiplier to an espeak speed
func WordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1.0
	}
	return int(rate*baseWordsPerMinute + 0.5)
}

// Speak runs the command and waits for it to exit
func (c CommandSynthesizer) Speak(ctx context.Context, text string, rate float64, lang string) error {
	name := c.Command
	if name == "" {
		name = "espeak"
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnsupported, name)
	}

	cmd := exec.CommandContext(ctx, name, "-v", voiceName(lang), "-s", strconv.Itoa(WordsPerMinute(rate)), text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech synthesis error: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// voiceName turns a language tag such as en-US into an espeak voice
func voiceName(lang string) string {
	if lang == "" {
		lang = DefaultLanguage
	}
	return strings.ToLower(lang)
}

// StreamRecognizer treats each line read from a stream as the latest
// transcript. Open is called on every Start.
type StreamRecognizer struct {
	Open func(lang string) (io.ReadCloser, error)

	mu     sync.Mutex
	stream io.ReadCloser
	done   chan struct{}
}

// Start opens the stream and reads it in the background. When the stream
// ends on its own it is closed and onEnd is called.
func (s *StreamRecognizer) Start(lang string, onResult func(string), onError func(error), onEnd func()) error {
	if s.Open == nil {
		return ErrUnsupported
	}
	stream, err := s.Open(lang)
	if err != nil {
		return fmt.Errorf("failed to start speech recognition: %w", err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.stream = stream
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stream)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && onResult != nil {
				onResult(line)
			}
		}

		// Stop clears s.stream before closing it
		s.mu.Lock()
		stopped := s.stream != stream
		if !stopped {
			s.stream = nil
		}
		s.mu.Unlock()

		if !stopped {
			_ = stream.Close()
			if err := scanner.Err(); err != nil && onError != nil {
				onError(fmt.Errorf("speech recognition error: %w", err))
			}
		}
		if onEnd != nil {
			onEnd()
		}
	}()
	return nil
}

// Stop closes the stream and waits for the reader to finish
func (s *StreamRecognizer) Stop() error {
	s.mu.Lock()
	stream, done := s.stream, s.done
	s.stream = nil
	s.mu.Unlock()
	if stream == nil {
		return nil
	}
	err := stream.Close()
	<-done
	return err
}

// NewCommandRecognizer runs an external speech-to-text command and reads
// its standard output. The language tag is passed as the last argument.
func NewCommandRecognizer(name string, args ...string) *StreamRecognizer {
	return &StreamRecognizer{
		Open: func(lang string) (io.ReadCloser, error) {
			if _, err := exec.LookPath(name); err != nil {
				return nil, fmt.Errorf("%w: %s not found", ErrUnsupported, name)
			}
			cmd := exec.Command(name, append(append([]string{}, args...), lang)...)
			out, err := cmd.StdoutPipe()
			if err != nil {
				return nil, err
			}
			if err := cmd.Start(); err != nil {
				return nil, err
			}
			return &commandStream{ReadCloser: out, cmd: cmd}, nil
		},
	}
}

type commandStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (c *commandStream) Close() error {
	_ = c.cmd.Process.Kill()
	err := c.ReadCloser.Close()
	_ = c.cmd.Wait()
	return err
}
