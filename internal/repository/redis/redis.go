package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Ensure RedisDB implements db.Database interface
var _ db.Database = (*RedisDB)(nil)

// nextMessageScript assigns the id and reads the server clock in one step so
// timestamps follow id order even with concurrent writers.
var nextMessageScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1])
local now = redis.call('TIME')
return {id, now[1], now[2]}
`)

// createUserScript reserves the username and stores the record together, so
// a name never points at a missing user.
// KEYS: users:byname, user:<id>. ARGV: username, id, user JSON.
var createUserScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return 0
end
redis.call('SET', KEYS[2], ARGV[3])
return 1
`)

// upsertSettingsScript creates the record with defaults on first use, taking
// an id only then, and applies the supplied fields. It returns the full hash.
// KEYS: settings:<userID>, seq:settings.
// ARGV: userID, default tts, default rate, default level, then field/value pairs.
var upsertSettingsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  local id = redis.call('INCR', KEYS[2])
  redis.call('HSET', KEYS[1], 'id', id, 'userId', ARGV[1],
    'textToSpeechEnabled', ARGV[2], 'speechRate', ARGV[3], 'difficultyLevel', ARGV[4])
end
for i = 5, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return redis.call('HGETALL', KEYS[1])
`)

// RedisDB stores users, messages and settings in Redis.
//
// Keys (prefix omitted):
//
//	seq:user, seq:message, seq:settings  counters
//	user:<id>                            user JSON
//	users:byname                         hash username -> id
//	messages:all, messages:user:<id>     sorted sets of message JSON scored by id
//	settings:<userID>                    settings hash
type RedisDB struct {
	client *redis.Client
	prefix string
}

// NewRedisDB connects to the configured Redis server
func NewRedisDB(cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	logger.Log.WithField("addr", cfg.Addr).Info("Connected to Redis")
	return &RedisDB{client: client, prefix: cfg.KeyPrefix}, nil
}

// Close closes the client
func (r *RedisDB) Close() error {
	return r.client.Close()
}

func (r *RedisDB) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		if k != "" {
			k += ":"
		}
		k += p
	}
	return k
}

type userRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser reserves the username and stores the user in one script
func (r *RedisDB) CreateUser(ctx context.Context, username, passwordHash string) (*db.User, error) {
	id, err := r.client.Incr(ctx, r.key("seq", "user")).Result()
	if err != nil {
		return nil, fmt.Errorf("error allocating user id: %w", err)
	}

	rec := userRecord{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("error encoding user: %w", err)
	}

	keys := []string{r.key("users", "byname"), r.key("user", strconv.FormatInt(id, 10))}
	created, err := createUserScript.Run(ctx, r.client, keys, username, id, payload).Int64()
	if err != nil {
		return nil, fmt.Errorf("error storing user: %w", err)
	}
	if created == 0 {
		return nil, db.ErrUserExists
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": id}).Info("Created new user")
	return rec.toUser(), nil
}

// GetUser retrieves a user by id
func (r *RedisDB) GetUser(ctx context.Context, id int64) (*db.User, error) {
	raw, err := r.client.Get(ctx, r.key("user", strconv.FormatInt(id, 10))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("error decoding user: %w", err)
	}
	return rec.toUser(), nil
}

// GetUserByUsername retrieves a user by username
func (r *RedisDB) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	id, err := r.client.HGet(ctx, r.key("users", "byname"), username).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return r.GetUser(ctx, id)
}

func (rec userRecord) toUser() *db.User {
	return &db.User{ID: rec.ID, Username: rec.Username, PasswordHash: rec.PasswordHash, CreatedAt: rec.CreatedAt}
}

// AppendMessage stores the message in the global and per-user sorted sets
func (r *RedisDB) AppendMessage(ctx context.Context, userID *int64, role db.Role, content string) (*db.Message, error) {
	res, err := nextMessageScript.Run(ctx, r.client, []string{r.key("seq", "message")}).Slice()
	if err != nil {
		return nil, fmt.Errorf("error allocating message id: %w", err)
	}
	id, stamp, err := parseSeqAndTime(res)
	if err != nil {
		return nil, err
	}

	msg := db.Message{ID: id, UserID: userID, Role: role, Content: content, Timestamp: stamp}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("error encoding message: %w", err)
	}

	member := redis.Z{Score: float64(id), Member: payload}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.key("messages", "all"), member)
		if userID != nil {
			pipe.ZAdd(ctx, r.key("messages", "user", strconv.FormatInt(*userID, 10)), member)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"message_id": id, "role": role}).Debug("Added message")
	return &msg, nil
}

// ListMessages returns the newest limit messages, oldest-first
func (r *RedisDB) ListMessages(ctx context.Context, userID *int64, limit int) ([]db.Message, error) {
	key := r.key("messages", "all")
	if userID != nil {
		key = r.key("messages", "user", strconv.FormatInt(*userID, 10))
	}

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := r.client.ZRevRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}

	messages := make([]db.Message, len(raw))
	for i, item := range raw {
		var msg db.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("error decoding message: %w", err)
		}
		// ZREVRANGE is newest-first
		messages[len(raw)-1-i] = msg
	}
	return messages, nil
}

// GetSettings returns the user's record or db.ErrNotFound
func (r *RedisDB) GetSettings(ctx context.Context, userID int64) (*db.Settings, error) {
	fields, err := r.client.HGetAll(ctx, r.settingsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("error retrieving settings: %w", err)
	}
	if len(fields) == 0 {
		return nil, db.ErrNotFound
	}
	return settingsFromHash(fields)
}

// UpsertSettings merges update atomically. Concurrent writers for the same
// user never fail and share one record.
func (r *RedisDB) UpsertSettings(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	defaults := db.DefaultSettings()
	args := []interface{}{
		userID,
		strconv.FormatBool(defaults.TextToSpeechEnabled),
		defaults.SpeechRate,
		string(defaults.DifficultyLevel),
	}
	if update.TextToSpeechEnabled != nil {
		args = append(args, "textToSpeechEnabled", strconv.FormatBool(*update.TextToSpeechEnabled))
	}
	if update.SpeechRate != nil {
		args = append(args, "speechRate", *update.SpeechRate)
	}
	if update.DifficultyLevel != nil {
		args = append(args, "difficultyLevel", string(*update.DifficultyLevel))
	}

	keys := []string{r.settingsKey(userID), r.key("seq", "settings")}
	res, err := upsertSettingsScript.Run(ctx, r.client, keys, args...).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("error upserting settings: %w", err)
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	s, err := settingsFromHash(fields)
	if err != nil {
		return nil, err
	}
	logger.Log.WithField("user_id", userID).Debug("Upserted settings")
	return s, nil
}

func (r *RedisDB) settingsKey(userID int64) string {
	return r.key("settings", strconv.FormatInt(userID, 10))
}

func settingsFromHash(fields map[string]string) (*db.Settings, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error decoding settings id: %w", err)
	}
	userID, err := strconv.ParseInt(fields["userId"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error decoding settings user: %w", err)
	}
	tts, err := strconv.ParseBool(fields["textToSpeechEnabled"])
	if err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	return &db.Settings{
		ID:                  id,
		UserID:              userID,
		TextToSpeechEnabled: tts,
		SpeechRate:          fields["speechRate"],
		DifficultyLevel:     db.Difficulty(fields["difficultyLevel"]),
	}, nil
}

func parseSeqAndTime(res []interface{}) (int64, time.Time, error) {
	if len(res) != 3 {
		return 0, time.Time{}, fmt.Errorf("unexpected sequence reply: %v", res)
	}
	id, ok := res[0].(int64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unexpected sequence id: %v", res[0])
	}
	sec, err := strconv.ParseInt(fmt.Sprint(res[1]), 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("unexpected server time: %w", err)
	}
	usec, err := strconv.ParseInt(fmt.Sprint(res[2]), 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("unexpected server time: %w", err)
	}
	return id, time.Unix(sec, usec*1000).UTC(), nil
}
