package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Ensure SQLiteDB implements db.Database interface
var _ db.Database = (*SQLiteDB)(nil)

type userModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type messageModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    *int64 `gorm:"index"`
	Role      string `gorm:"not null"`
	Content   string `gorm:"not null"`
	Timestamp time.Time
}

func (messageModel) TableName() string { return "messages" }

type settingsModel struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement"`
	UserID              int64  `gorm:"uniqueIndex;not null"`
	TextToSpeechEnabled bool   `gorm:"not null"`
	SpeechRate          string `gorm:"not null"`
	DifficultyLevel     string `gorm:"not null"`
}

func (settingsModel) TableName() string { return "settings" }

// SQLiteDB is a single-file store backed by gorm
type SQLiteDB struct {
	conn *gorm.DB

	// serializes appends so timestamps follow id order
	appendMu  sync.Mutex
	lastStamp time.Time
}

// NewSQLiteDB opens (and creates if needed) the database file and migrates the schema
func NewSQLiteDB(cfg config.SQLiteConfig) (*SQLiteDB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory %q: %w", dir, err)
		}
	}

	gormLog := gormlogger.New(logger.Log, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sqlite handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&userModel{}, &messageModel{}, &settingsModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error migrating sqlite schema: %w", err)
	}

	logger.Log.WithField("path", cfg.Path).Info("Connected to SQLite database")
	return &SQLiteDB{conn: conn}, nil
}

// Close closes the underlying connection
func (s *SQLiteDB) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser creates a new user
func (s *SQLiteDB) CreateUser(ctx context.Context, username, passwordHash string) (*db.User, error) {
	m := userModel{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	err := s.conn.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, db.ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": m.ID}).Info("Created new user")
	return m.toUser(), nil
}

// GetUser retrieves a user by id
func (s *SQLiteDB) GetUser(ctx context.Context, id int64) (*db.User, error) {
	var m userModel
	err := s.conn.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return m.toUser(), nil
}

// GetUserByUsername retrieves a user by username
func (s *SQLiteDB) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	var m userModel
	err := s.conn.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return m.toUser(), nil
}

func (m userModel) toUser() *db.User {
	return &db.User{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}
}

// AppendMessage inserts a new message
func (s *SQLiteDB) AppendMessage(ctx context.Context, userID *int64, role db.Role, content string) (*db.Message, error) {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	stamp := time.Now().UTC()
	if stamp.Before(s.lastStamp) {
		stamp = s.lastStamp
	}

	m := messageModel{UserID: userID, Role: string(role), Content: content, Timestamp: stamp}
	if err := s.conn.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}
	s.lastStamp = stamp

	logger.Log.WithFields(logrus.Fields{"message_id": m.ID, "role": role}).Debug("Added message")
	msg := m.toMessage()
	return &msg, nil
}

// ListMessages returns the newest limit messages, oldest-first
func (s *SQLiteDB) ListMessages(ctx context.Context, userID *int64, limit int) ([]db.Message, error) {
	q := s.conn.WithContext(ctx).Order("id DESC")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []messageModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}

	messages := make([]db.Message, len(rows))
	for i, m := range rows {
		messages[len(rows)-1-i] = m.toMessage()
	}
	return messages, nil
}

func (m messageModel) toMessage() db.Message {
	return db.Message{ID: m.ID, UserID: m.UserID, Role: db.Role(m.Role), Content: m.Content, Timestamp: m.Timestamp}
}

// GetSettings returns the user's record or db.ErrNotFound
func (s *SQLiteDB) GetSettings(ctx context.Context, userID int64) (*db.Settings, error) {
	var m settingsModel
	err := s.conn.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving settings: %w", err)
	}
	settings := m.toSettings()
	return &settings, nil
}

// UpsertSettings merges update into the stored record inside one transaction
func (s *SQLiteDB) UpsertSettings(ctx context.Context, userID int64, update db.SettingsUpdate) (*db.Settings, error) {
	var result db.Settings
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m settingsModel
		err := tx.Where("user_id = ?", userID).First(&m).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = db.DefaultSettings()
			result.UserID = userID
		case err != nil:
			return err
		default:
			result = m.toSettings()
		}

		update.Apply(&result)
		m = settingsModel{
			ID:                  result.ID,
			UserID:              userID,
			TextToSpeechEnabled: result.TextToSpeechEnabled,
			SpeechRate:          result.SpeechRate,
			DifficultyLevel:     string(result.DifficultyLevel),
		}
		if m.ID == 0 {
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			result.ID = m.ID
			return nil
		}
		// Select("*") so a false boolean is written too
		return tx.Model(&m).Select("*").Updates(&m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error upserting settings: %w", err)
	}

	logger.Log.WithField("user_id", userID).Debug("Upserted settings")
	return &result, nil
}

func (m settingsModel) toSettings() db.Settings {
	return db.Settings{
		ID:                  m.ID,
		UserID:              m.UserID,
		TextToSpeechEnabled: m.TextToSpeechEnabled,
		SpeechRate:          m.SpeechRate,
		DifficultyLevel:     db.Difficulty(m.DifficultyLevel),
	}
}
