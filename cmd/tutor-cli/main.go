package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"tutor-app/internal/logger"
	"tutor-app/pkg/client"
	"tutor-app/pkg/voice"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// cliConfig is read from the environment
type cliConfig struct {
	APIURL       string   `env:"TUTOR_API_URL" envDefault:"http://localhost:8080"`
	Username     string   `env:"TUTOR_USERNAME"`
	Password     string   `env:"TUTOR_PASSWORD"`
	TTSCommand   string   `env:"TUTOR_TTS_COMMAND" envDefault:"espeak"`
	STTCommand   string   `env:"TUTOR_STT_COMMAND"`
	STTArgs      []string `env:"TUTOR_STT_ARGS" envSeparator:" "`
	SpeakReplies bool     `env:"TUTOR_SPEAK_REPLIES" envDefault:"true"`
}

const help = `Commands:
  /speak [text]         read the last reply (or text) aloud
  /listen               dictate a message, press Enter to stop
  /settings             show settings
  /set tts on|off       toggle text-to-speech
  /set rate <n>         speech rate, e.g. 0.8
  /set level <level>    easy, medium or hard
  /topic [name]         list topics or start one
  /tip                  show a learning tip
  /quit                 leave`

func main() {
	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Log.WithError(err).Fatal("Failed to parse environment")
	}
	// Keep the terminal readable; only problems are logged
	logger.Log.SetLevel(logrus.WarnLevel)
	logger.Log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(cfg.APIURL)
	if cfg.Username != "" {
		if _, err := api.Login(ctx, cfg.Username, cfg.Password); err != nil {
			logger.Log.WithError(err).Fatal("Login failed")
		}
	}

	t := &tutor{
		session: client.NewSession(api, voice.NewSpeaker(voice.CommandSynthesizer{Command: cfg.TTSCommand})),
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		speak:   cfg.SpeakReplies,
	}
	if cfg.STTCommand != "" {
		t.recognizer = voice.NewCommandRecognizer(cfg.STTCommand, cfg.STTArgs...)
	}

	if err := t.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Fatal("Tutor stopped")
	}
}

type tutor struct {
	session    *client.Session
	recognizer voice.Recognizer
	in         *bufio.Scanner
	out        io.Writer
	speak      bool
}

func (t *tutor) run(ctx context.Context) error {
	if err := t.session.Load(ctx); err != nil {
		fmt.Fprintf(t.out, "Could not load history: %v\n", err)
	}

	if transcript := t.session.Transcript(); len(transcript) == 0 {
		welcome := client.WelcomeMessage("")
		fmt.Fprintf(t.out, "Tutor: %s\n       %s\n", welcome.German, welcome.English)
	} else {
		for _, m := range transcript {
			t.printMessage(m)
		}
	}
	fmt.Fprintln(t.out, "Type /help for commands.")

	for {
		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			return t.in.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(t.in.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			t.send(ctx, line)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(t.out, help)
		case "/speak":
			t.speakLast(ctx, arg)
		case "/listen":
			t.listen(ctx)
		case "/settings":
			s := t.session.Settings()
			fmt.Fprintf(t.out, "tts=%v rate=%s level=%s progress=%d%%\n", s.TextToSpeechEnabled, s.SpeechRate, s.DifficultyLevel, t.session.Progress())
		case "/set":
			t.set(ctx, arg)
		case "/topic":
			t.topic(ctx, arg)
		case "/tip":
			tip := client.RandomTip()
			fmt.Fprintf(t.out, "Lerntipp: %s\nLearning tip: %s\n", tip.German, tip.English)
		default:
			fmt.Fprintf(t.out, "Unknown command %s\n%s\n", cmd, help)
		}
	}
}

func (t *tutor) send(ctx context.Context, text string) {
	fmt.Fprintln(t.out, "...")
	reply, err := t.session.Send(ctx, text)
	if err != nil {
		fmt.Fprintf(t.out, "Send failed: %v\n", err)
		return
	}
	t.printMessage(reply.AssistantMessage)
	if t.speak {
		t.play(ctx, reply.AssistantMessage.Content)
	}
}

func (t *tutor) printMessage(m client.Message) {
	if m.Role == "user" {
		fmt.Fprintf(t.out, "You:   %s\n", m.Content)
		return
	}
	fmt.Fprintf(t.out, "Tutor: %s\n", client.FormatMessageText(m.Content))
}

func (t *tutor) play(ctx context.Context, text string) {
	if err := t.session.PlayAudio(ctx, text); err != nil {
		logger.Log.WithError(err).Warn("Text-to-speech error")
	}
}

func (t *tutor) speakLast(ctx context.Context, text string) {
	if text == "" {
		transcript := t.session.Transcript()
		for i := len(transcript) - 1; i >= 0; i-- {
			if transcript[i].Role == "assistant" {
				text = transcript[i].Content
				break
			}
		}
	}
	if text == "" {
		text = client.WelcomeMessage("").English
	}
	t.play(ctx, text)
}

func (t *tutor) listen(ctx context.Context) {
	listener := voice.NewListener(t.recognizer, func(text string) {
		if text != "" {
			fmt.Fprintf(t.out, "\r  heard: %s\n", text)
		}
	}, func(err error) {
		fmt.Fprintf(t.out, "Speech recognition error: %v\n", err)
	})

	if err := listener.Start(voice.DefaultLanguage); err != nil {
		return
	}
	fmt.Fprintln(t.out, "Listening... press Enter to stop.")
	t.in.Scan()
	if err := listener.Stop(); err != nil {
		logger.Log.WithError(err).Warn("Failed to stop recognizer")
	}

	if transcript := listener.Transcript(); transcript != "" {
		t.send(ctx, transcript)
	} else {
		fmt.Fprintln(t.out, "Nothing was heard.")
	}
}

func (t *tutor) set(ctx context.Context, arg string) {
	key, value, _ := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)
	s := t.session.Settings()

	switch key {
	case "tts":
		switch value {
		case "on":
			s.TextToSpeechEnabled = true
		case "off":
			s.TextToSpeechEnabled = false
		default:
			fmt.Fprintln(t.out, "Usage: /set tts on|off")
			return
		}
	case "rate":
		s.SpeechRate = value
	case "level":
		s.DifficultyLevel = value
	default:
		fmt.Fprintln(t.out, help)
		return
	}

	if err := t.session.SaveSettings(ctx, s); err != nil {
		fmt.Fprintf(t.out, "Could not save settings: %v\n", err)
		return
	}
	fmt.Fprintln(t.out, "Settings saved.")
}

func (t *tutor) topic(ctx context.Context, name string) {
	if name == "" {
		for _, topic := range client.Topics() {
			fmt.Fprintf(t.out, "  %s %s | %s\n", topic.Emoji, topic.German, topic.English)
		}
		return
	}
	topic, ok := client.TopicByName(name)
	if !ok {
		fmt.Fprintf(t.out, "Unknown topic %q\n", name)
		return
	}
	fmt.Fprintf(t.out, "You:   %s\n", topic.Prompt)
	t.send(ctx, topic.Prompt)
}
