package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/domain"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	// 32 bytes, 64 hex characters
	tokenLength = 32
)

// SessionService issues and resolves login sessions.
type SessionService struct {
	sessions domain.SessionRepository
	authors  *AuthorService
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(sessions domain.SessionRepository, authors *AuthorService, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		authors:  authors,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Login checks the credentials and starts a fresh session, ending any the
// author already had.
func (s *SessionService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.Author, error) {
	author, err := s.authors.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sessions.DeleteByAuthor(ctx, author.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to end previous sessions: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		Token:     token,
		AuthorID:  author.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("username", author.Username).Time("expiresAt", session.ExpiresAt).Msg("Author logged in")

	return session, author, nil
}

// Resolve returns the author behind a session token. Expired sessions are
// removed and reported as domain.ErrSessionExpired.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Author, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return nil, domain.ErrSessionExpired
	}

	author, err := s.authors.GetAuthor(ctx, session.AuthorID)
	if err != nil {
		return nil, err
	}

	return author, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired deletes every session past its expiry.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("Removed expired sessions")
	}
	return n, nil
}

func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
