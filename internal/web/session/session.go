// Package session stores login sessions in a fiber storage backend. A session
// only holds the identity and a permission snapshot for display; every
// authorization decision resolves the principal again.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/secret"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

var (
	// ErrNotInitialized is returned when the store is used before Init.
	ErrNotInitialized = errors.New("session store is not initialized")

	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the global session storage backend.
var Store fiber.Storage //nolint:gochecknoglobals

// Data represents the session data structure.
type Data struct {
	Principal auth.Principal `json:"principal"`
	IssuedAt  time.Time      `json:"issuedAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// New returns session data for p valid for exp.
func New(p *auth.Principal, exp time.Duration) *Data {
	now := time.Now()

	return &Data{
		Principal: *p,
		IssuedAt:  now,
		ExpiresAt: now.Add(exp),
	}
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	if Store == nil {
		return ErrNotInitialized
	}

	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID. Expired sessions are
// reported as not found even when the backend has not evicted them yet.
func (s *Data) Read(sessionID string) error {
	if Store == nil {
		return ErrNotInitialized
	}

	if sessionID == "" {
		return ErrSessionNotFound
	}

	byteData, err := Store.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrSessionNotFound
	}

	if err = json.Unmarshal(byteData, s); err != nil {
		return err
	}

	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return ErrSessionNotFound
	}

	return nil
}

// Delete removes the session with the given ID.
func Delete(sessionID string) error {
	if Store == nil {
		return ErrNotInitialized
	}

	return Store.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
func Init(storage fiber.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = storage
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	return secret.Token()
}
