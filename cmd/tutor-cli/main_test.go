package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"tutor-app/internal/api/handlers"
	"tutor-app/internal/auth"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/memory"
	"tutor-app/internal/service/llm"
	"tutor-app/internal/testutil"
	"tutor-app/pkg/client"
	"tutor-app/pkg/voice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTutor(t *testing.T, input string) (string, *memory.MemoryDB) {
	t.Helper()
	logger.Silence()

	store := memory.NewMemoryDB()
	provider := &testutil.MockProvider{
		SendMessageFunc: func(context.Context, []llm.Message, string) (string, error) {
			return "Super!\n- cat\n- dog", nil
		},
	}
	cfg := testutil.NewMockConfig(store, provider)
	authService := auth.NewService(store, cfg.AppConfig.Auth)
	_, err := authService.EnsureDefaultUser(context.Background(), "demo", "demo123")
	require.NoError(t, err)
	srv := httptest.NewServer(handlers.NewRouter(cfg, authService))
	defer srv.Close()

	var out bytes.Buffer
	tt := &tutor{
		session: client.NewSession(client.New(srv.URL), voice.NewSpeaker(nil)),
		in:      bufio.NewScanner(strings.NewReader(input)),
		out:     &out,
	}
	require.NoError(t, tt.run(context.Background()))
	return out.String(), store
}

func TestTutor_Commands(t *testing.T) {
	out, store := runTutor(t, "/tip\n/set level hard\n/set rate 1.2\n/settings\n/topic\n/quit\n")

	assert.Contains(t, out, "What would you like to talk about today?")
	assert.Contains(t, out, "Learning tip:")
	assert.Contains(t, out, "tts=true rate=1.2 level=hard progress=5%")
	assert.Contains(t, out, "Minecraft | Minecraft")

	settings, err := store.GetSettings(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1.2", settings.SpeechRate)
}

func TestTutor_SendAndTopic(t *testing.T) {
	out, store := runTutor(t, "Hallo\n/topic food\n/listen\n\n")

	assert.Contains(t, out, "Tutor: Super!\n  • cat\n  • dog")
	assert.Contains(t, out, "Let's talk about food")
	assert.Contains(t, out, "Speech recognition error")

	messages, err := store.ListMessages(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestTutor_InvalidSetting(t *testing.T) {
	out, _ := runTutor(t, "/set level expert\n/set tts maybe\n/quit\n")

	assert.Contains(t, out, "Could not save settings")
	assert.Contains(t, out, "Usage: /set tts on|off")
}
