package memory

import (
	"context"
	"sync"
	"time"

	"tutor-app/internal/repository/db"
)

// Ensure MemoryDB implements db.Database interface
var _ db.Database = (*MemoryDB)(nil)

// MemoryDB keeps users, messages and settings in-process. State lives for the
// lifetime of the process.
type MemoryDB struct {
	mu sync.RWMutex

	users      map[int64]db.User
	usernames  map[string]int64
	messages   []db.Message // append order == id order
	settings   map[int64]db.Settings // key: user ID
	lastUserID int64
	lastMsgID  int64
	lastSetID  int64
	lastStamp  time.Time

	now func() time.Time
}

// NewMemoryDB initializes an empty in-memory store
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:     make(map[int64]db.User),
		usernames: make(map[string]int64),
		settings:  make(map[int64]db.Settings),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op for the in-memory store
func (m *MemoryDB) Close() error {
	return nil
}

// GetUser retrieves a user by id
func (m *MemoryDB) GetUser(_ context.Context, id int64) (*db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (m *MemoryDB) GetUserByUsername(_ context.Context, username string) (*db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

// CreateUser stores a new user with an already hashed password
func (m *MemoryDB) CreateUser(_ context.Context, username, passwordHash string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usernames[username]; exists {
		return nil, db.ErrUserExists
	}
	m.lastUserID++
	user := db.User{
		ID:           m.lastUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now(),
	}
	m.users[user.ID] = user
	m.usernames[username] = user.ID
	return &user, nil
}

// AppendMessage adds a message and assigns its id and timestamp
func (m *MemoryDB) AppendMessage(_ context.Context, userID *int64, role db.Role, content string) (*db.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Timestamps never move backwards relative to ids
	stamp := m.now()
	if stamp.Before(m.lastStamp) {
		stamp = m.lastStamp
	}
	m.lastStamp = stamp
	m.lastMsgID++

	msg := db.Message{
		ID:        m.lastMsgID,
		UserID:    copyID(userID),
		Role:      role,
		Content:   content,
		Timestamp: stamp,
	}
	m.messages = append(m.messages, msg)
	out := msg
	out.UserID = copyID(msg.UserID)
	return &out, nil
}

// ListMessages returns the newest limit messages for the user, oldest-first
func (m *MemoryDB) ListMessages(_ context.Context, userID *int64, limit int) ([]db.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]db.Message, 0)
	for i := len(m.messages) - 1; i >= 0; i-- {
		if limit > 0 && len(res) == limit {
			break
		}
		msg := m.messages[i]
		if userID != nil && (msg.UserID == nil || *msg.UserID != *userID) {
			continue
		}
		msg.UserID = copyID(msg.UserID)
		res = append(res, msg)
	}
	// Collected newest-first; return chronological order
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// GetSettings returns the user's record or db.ErrNotFound
func (m *MemoryDB) GetSettings(_ context.Context, userID int64) (*db.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

// UpsertSettings merges update into the user's record, creating it if needed
func (m *MemoryDB) UpsertSettings(_ context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		m.lastSetID++
		s = db.DefaultSettings()
		s.ID = m.lastSetID
		s.UserID = userID
	}
	update.Apply(&s)
	m.settings[userID] = s
	return &s, nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
