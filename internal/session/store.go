package session

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"taskflow/internal/models"
)

// Record is the persisted auth slice for one API origin
type Record struct {
	Origin      string `gorm:"primaryKey"`
	UserID      string
	UserName    string
	UserEmail   string
	UserAvatar  string
	AccessToken string
	ResetToken  string
	ResetEmail  string
	UpdatedAt   time.Time
}

// TableName specifies the table name for Record
func (Record) TableName() string {
	return "sessions"
}

// Cookie is a persisted cookie, mainly the refresh token cookie
type Cookie struct {
	ID       uint   `gorm:"primaryKey"`
	Origin   string `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	Secure   bool
	HttpOnly bool
}

// TableName specifies the table name for Cookie
func (Cookie) TableName() string {
	return "cookies"
}

// Store keeps sessions in SQLite so a login survives restarts.
type Store struct {
	db *gorm.DB
}

// Open opens (creating when needed) the session database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	// glebarez/sqlite is pure Go, no CGO required
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return NewStore(db)
}

// NewStore migrates db and wraps it
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Record{}, &Cookie{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the saved session and cookies for origin. A missing session
// is not an error.
func (s *Store) Load(origin string) (models.Session, []*http.Cookie, error) {
	var rec Record
	err := s.db.Where("origin = ?", origin).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, nil, nil
	}
	if err != nil {
		return models.Session{}, nil, err
	}

	sess := models.Session{AccessToken: rec.AccessToken, ResetToken: rec.ResetToken, ResetEmail: rec.ResetEmail}
	if rec.UserID != "" {
		sess.User = &models.User{ID: rec.UserID, Name: rec.UserName, Email: rec.UserEmail, Avatar: rec.UserAvatar}
	}

	var rows []Cookie
	if err := s.db.Where("origin = ?", origin).Find(&rows).Error; err != nil {
		return models.Session{}, nil, err
	}
	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(rows))
	for _, r := range rows {
		if !r.Expires.IsZero() && r.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     r.Name,
			Value:    r.Value,
			Path:     r.Path,
			Domain:   r.Domain,
			Expires:  r.Expires,
			Secure:   r.Secure,
			HttpOnly: r.HttpOnly,
		})
	}
	return sess, cookies, nil
}

// Save replaces the session and cookies stored for origin
func (s *Store) Save(origin string, sess models.Session, cookies []*http.Cookie) error {
	rec := Record{
		Origin:      origin,
		AccessToken: sess.AccessToken,
		ResetToken:  sess.ResetToken,
		ResetEmail:  sess.ResetEmail,
	}
	if sess.User != nil {
		rec.UserID = sess.User.ID
		rec.UserName = sess.User.Name
		rec.UserEmail = sess.User.Email
		rec.UserAvatar = sess.User.Avatar
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("origin = ?", origin).Delete(&Cookie{}).Error; err != nil {
			return err
		}
		for _, c := range cookies {
			row := Cookie{
				Origin:   origin,
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				Domain:   c.Domain,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HttpOnly: c.HttpOnly,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear forgets everything stored for origin
func (s *Store) Clear(origin string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("origin = ?", origin).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Where("origin = ?", origin).Delete(&Cookie{}).Error
	})
}

// Close releases the database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
