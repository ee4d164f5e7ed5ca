package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tutor-app/internal/repository/db"
	"tutor-app/internal/repository/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestListMessagesReturnsNewestLimitOldestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	user := int64Ptr(1)

	for _, content := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, err := m.AppendMessage(ctx, user, db.RoleUser, content)
		require.NoError(t, err)
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 3, want: []string{"e", "f", "g"}},
		{limit: 7, want: []string{"a", "b", "c", "d", "e", "f", "g"}},
		{limit: 20, want: []string{"a", "b", "c", "d", "e", "f", "g"}},
		{limit: 0, want: []string{"a", "b", "c", "d", "e", "f", "g"}},
	}
	for _, tt := range tests {
		got, err := m.ListMessages(ctx, user, tt.limit)
		require.NoError(t, err)
		contents := make([]string, 0, len(got))
		for i, msg := range got {
			contents = append(contents, msg.Content)
			if i > 0 {
				assert.Greater(t, msg.ID, got[i-1].ID)
				assert.False(t, msg.Timestamp.Before(got[i-1].Timestamp))
			}
		}
		assert.Equal(t, tt.want, contents, "limit %d", tt.limit)
	}
}

func TestListMessagesFiltersByUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	_, _ = m.AppendMessage(ctx, int64Ptr(1), db.RoleUser, "one")
	_, _ = m.AppendMessage(ctx, int64Ptr(2), db.RoleUser, "two")
	_, _ = m.AppendMessage(ctx, nil, db.RoleAssistant, "anonymous")
	_, _ = m.AppendMessage(ctx, int64Ptr(1), db.RoleAssistant, "three")

	mine, err := m.ListMessages(ctx, int64Ptr(1), 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "one", mine[0].Content)
	assert.Equal(t, "three", mine[1].Content)

	all, err := m.ListMessages(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAppendMessageClampsBackwardsClock(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(-time.Minute)}
	m.now = func() time.Time {
		s := stamps[0]
		stamps = stamps[1:]
		return s
	}

	first, _ := m.AppendMessage(ctx, nil, db.RoleUser, "first")
	second, _ := m.AppendMessage(ctx, nil, db.RoleUser, "second")

	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, first.Timestamp, second.Timestamp)
}

func TestReturnedMessagesDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	msg, _ := m.AppendMessage(ctx, int64Ptr(1), db.RoleUser, "hi")
	*msg.UserID = 99

	got, _ := m.ListMessages(ctx, int64Ptr(1), 0)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), *got[0].UserID)
}

func TestUpsertSettingsMergesAndKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	_, err := m.GetSettings(ctx, 1)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	hard := db.DifficultyHard
	first, err := m.UpsertSettings(ctx, 1, db.SettingsUpdate{DifficultyLevel: &hard})
	require.NoError(t, err)
	assert.Equal(t, db.Settings{ID: 1, UserID: 1, TextToSpeechEnabled: true, SpeechRate: "1.0", DifficultyLevel: db.DifficultyHard}, *first)

	rate := "1.5"
	second, err := m.UpsertSettings(ctx, 1, db.SettingsUpdate{SpeechRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, db.DifficultyHard, second.DifficultyLevel)
	assert.Equal(t, "1.5", second.SpeechRate)
	assert.Len(t, m.settings, 1)

	other, err := m.UpsertSettings(ctx, 2, db.SettingsUpdate{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	user, err := m.CreateUser(ctx, "demo", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = m.CreateUser(ctx, "demo", "other")
	assert.ErrorIs(t, err, db.ErrUserExists)

	byName, err := m.GetUserByUsername(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "hash", byName.PasswordHash)

	_, err = m.GetUser(ctx, 42)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestConcurrentAppendsAssignUniqueIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.AppendMessage(ctx, int64Ptr(1), db.RoleUser, "x")
		}()
	}
	wg.Wait()

	all, err := m.ListMessages(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 50)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].ID+1, all[i].ID)
	}
}

func TestMemoryDBConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) db.Database { return NewMemoryDB() })
}
