package memstore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error carries a user-facing message along with one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

type userRecord struct {
	user     models.User
	password []byte
}

type otpRecord struct {
	code      string
	expiresAt time.Time
}

type resetRecord struct {
	email     string
	expiresAt time.Time
}

// Store keeps every TaskFlow entity in memory. It backs the development server
// and the client tests; nothing is persisted.
type Store struct {
	mu sync.RWMutex

	users       map[string]*userRecord
	byEmail     map[string]string
	projects    map[string]*models.Project
	tasks       map[string]*models.Task
	invitations map[string]*models.Invitation
	activities  []models.Activity
	refresh     map[string]string
	otps        map[string]otpRecord
	resets      map[string]resetRecord

	// NewOTP generates one-time codes; tests replace it to get a known code.
	NewOTP func() string
	now    func() time.Time
	cost   int
}

// New returns an empty store
func New() *Store {
	return &Store{
		users:       make(map[string]*userRecord),
		byEmail:     make(map[string]string),
		projects:    make(map[string]*models.Project),
		tasks:       make(map[string]*models.Task),
		invitations: make(map[string]*models.Invitation),
		refresh:     make(map[string]string),
		otps:        make(map[string]otpRecord),
		resets:      make(map[string]resetRecord),
		NewOTP:      randomOTP,
		now:         func() time.Time { return time.Now().UTC() },
		cost:        bcrypt.MinCost,
	}
}

func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account
func (s *Store) CreateUser(name, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if strings.TrimSpace(name) == "" || email == "" || len(password) < 6 {
		return models.User{}, fail(ErrInvalidInput, "Name, email and a password of at least 6 characters are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, fail(ErrConflict, "Email already registered")
	}
	u := models.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email}
	s.users[u.ID] = &userRecord{user: u, password: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Authenticate checks email and password
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return models.User{}, fail(ErrInvalidCredentials, "Invalid email or password")
	}
	rec := s.users[id]
	if bcrypt.CompareHashAndPassword(rec.password, []byte(password)) != nil {
		return models.User{}, fail(ErrInvalidCredentials, "Invalid email or password")
	}
	return rec.user, nil
}

// User looks up a user by id
func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, fail(ErrNotFound, "User not found")
	}
	return rec.user, nil
}

// UpdateName changes a user's display name
func (s *Store) UpdateName(id, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fail(ErrInvalidInput, "Name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, fail(ErrNotFound, "User not found")
	}
	rec.user.Name = name
	return rec.user, nil
}

// IssueRefreshToken creates a refresh token for userID
func (s *Store) IssueRefreshToken(userID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.refresh[token] = userID
	s.mu.Unlock()
	return token
}

// RefreshUser resolves a refresh token to its user
func (s *Store) RefreshUser(token string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.refresh[token]
	if !ok {
		return models.User{}, false
	}
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return rec.user, true
}

// RevokeRefreshToken invalidates a refresh token
func (s *Store) RevokeRefreshToken(token string) {
	s.mu.Lock()
	delete(s.refresh, token)
	s.mu.Unlock()
}

// StartPasswordReset issues an OTP valid for ten minutes
func (s *Store) StartPasswordReset(email string) (string, error) {
	email = normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; !ok {
		return "", fail(ErrNotFound, "No account with that email")
	}
	code := s.NewOTP()
	s.otps[email] = otpRecord{code: code, expiresAt: s.now().Add(10 * time.Minute)}
	return code, nil
}

// VerifyOTP consumes an OTP and returns a reset token valid for fifteen minutes
func (s *Store) VerifyOTP(email, otp string) (string, error) {
	email = normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.otps[email]
	if !ok || rec.code != otp || !s.now().Before(rec.expiresAt) {
		return "", fail(ErrInvalidOTP, "Invalid or expired OTP")
	}
	delete(s.otps, email)
	token := uuid.NewString()
	s.resets[token] = resetRecord{email: email, expiresAt: s.now().Add(15 * time.Minute)}
	return token, nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *Store) ResetPassword(token, password string) error {
	if len(password) < 6 {
		return fail(ErrInvalidInput, "Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.resets[token]
	if !ok || !s.now().Before(rec.expiresAt) {
		return fail(ErrInvalidResetToken, "Invalid or expired reset token")
	}
	delete(s.resets, token)
	s.users[s.byEmail[rec.email]].password = hash
	return nil
}

func (s *Store) record(projectID, taskID string, user models.User, action, details string) {
	s.activities = append(s.activities, models.Activity{
		ID:        uuid.NewString(),
		Project:   projectID,
		Task:      taskID,
		User:      user,
		Action:    action,
		Details:   details,
		CreatedAt: s.now(),
	})
}

// Activity returns the log of a project, newest first
func (s *Store) Activity(userID, projectID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.memberProject(userID, projectID); err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0)
	for i := len(s.activities) - 1; i >= 0; i-- {
		if s.activities[i].Project == projectID {
			out = append(out, s.activities[i])
		}
	}
	return out, nil
}

func sortProjects(list []models.Project) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
}
