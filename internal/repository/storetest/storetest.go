// Package storetest holds the behavior every db.Database backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"tutor-app/internal/repository/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store produced by newStore for each subtest
func Run(t *testing.T, newStore func(t *testing.T) db.Database) {
	t.Run("ListMessagesLimit", func(t *testing.T) { testListMessagesLimit(t, newStore(t)) })
	t.Run("ListMessagesByUser", func(t *testing.T) { testListMessagesByUser(t, newStore(t)) })
	t.Run("SettingsUpsert", func(t *testing.T) { testSettingsUpsert(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func id(v int64) *int64 { return &v }

func testListMessagesLimit(t *testing.T, s db.Database) {
	ctx := context.Background()
	defer s.Close()

	for i := 0; i < 8; i++ {
		role := db.RoleUser
		if i%2 == 1 {
			role = db.RoleAssistant
		}
		_, err := s.AppendMessage(ctx, id(1), role, fmt.Sprintf("turn %d", i))
		require.NoError(t, err)
	}

	for _, k := range []int{1, 5, 8, 12} {
		got, err := s.ListMessages(ctx, id(1), k)
		require.NoError(t, err)
		want := k
		if want > 8 {
			want = 8
		}
		require.Len(t, got, want)
		for i := 1; i < len(got); i++ {
			assert.Greater(t, got[i].ID, got[i-1].ID)
			assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp))
		}
		assert.Equal(t, "turn 7", got[len(got)-1].Content)
	}

	all, err := s.ListMessages(ctx, id(1), 0)
	require.NoError(t, err)
	require.Len(t, all, 8)
	assert.Equal(t, "turn 0", all[0].Content)
	assert.Equal(t, db.RoleAssistant, all[1].Role)
}

func testListMessagesByUser(t *testing.T, s db.Database) {
	ctx := context.Background()
	defer s.Close()

	_, err := s.AppendMessage(ctx, id(1), db.RoleUser, "mine")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, id(2), db.RoleUser, "theirs")
	require.NoError(t, err)
	anon, err := s.AppendMessage(ctx, nil, db.RoleUser, "nobody")
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)

	mine, err := s.ListMessages(ctx, id(1), 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Content)
	require.NotNil(t, mine[0].UserID)
	assert.Equal(t, int64(1), *mine[0].UserID)

	all, err := s.ListMessages(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "nobody", all[2].Content)
}

func testSettingsUpsert(t *testing.T, s db.Database) {
	ctx := context.Background()
	defer s.Close()

	_, err := s.GetSettings(ctx, 7)
	require.ErrorIs(t, err, db.ErrNotFound)

	off := false
	first, err := s.UpsertSettings(ctx, 7, db.SettingsUpdate{TextToSpeechEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, int64(7), first.UserID)
	assert.False(t, first.TextToSpeechEnabled)
	assert.Equal(t, db.DefaultSpeechRate, first.SpeechRate)
	assert.Equal(t, db.DifficultyEasy, first.DifficultyLevel)

	medium := db.DifficultyMedium
	second, err := s.UpsertSettings(ctx, 7, db.SettingsUpdate{DifficultyLevel: &medium})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.TextToSpeechEnabled, "fields from the first upsert must survive")
	assert.Equal(t, db.DifficultyMedium, second.DifficultyLevel)

	stored, err := s.GetSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, *second, *stored)
}

func testUsers(t *testing.T, s db.Database) {
	ctx := context.Background()
	defer s.Close()

	created, err := s.CreateUser(ctx, "learner", "hash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = s.CreateUser(ctx, "learner", "other")
	require.ErrorIs(t, err, db.ErrUserExists)

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "learner", byID.Username)

	byName, err := s.GetUserByUsername(ctx, "learner")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	_, err = s.GetUserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, db.ErrNotFound)
}
