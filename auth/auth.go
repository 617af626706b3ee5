// Package auth issues and verifies the credentials the API layer runs on.
//
// Login is passwordless: a user requests a magic link by email, the link
// carries a one-time token, and redeeming it yields a signed JWT whose
// subject is the user ID. Every authenticated request presents that JWT.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/user"
)

var (
	// ErrInvalidToken means a JWT failed signature or claim validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrInvalidLink means a magic-link token is unknown, expired, or
	// already redeemed.
	ErrInvalidLink = errors.New("auth: invalid or expired magic link")
)

const (
	// DefaultTokenTTL is how long issued JWTs stay valid.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// DefaultLinkTTL is how long a magic link can be redeemed.
	DefaultLinkTTL = 15 * time.Minute
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTokenTTL sets the JWT lifetime.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) { s.tokenTTL = d }
}

// WithLinkTTL sets the magic-link lifetime.
func WithLinkTTL(d time.Duration) Option {
	return func(s *Service) { s.linkTTL = d }
}

// WithFrom sets the sender address on magic-link emails.
func WithFrom(from string) Option {
	return func(s *Service) { s.from = from }
}

type linkEntry struct {
	userID    id.UserID
	expiresAt time.Time
}

// Service implements passwordless authentication. Magic-link tokens are
// held in memory, so pending links do not survive a restart; the user just
// requests a new one.
type Service struct {
	users  user.Store
	mailer mail.Mailer
	secret []byte
	logger *slog.Logger

	tokenTTL time.Duration
	linkTTL  time.Duration
	from     string

	mu    sync.Mutex
	links map[string]linkEntry
}

// NewService creates an auth service signing JWTs with secret.
func NewService(users user.Store, mailer mail.Mailer, secret []byte, opts ...Option) *Service {
	s := &Service{
		users:    users,
		mailer:   mailer,
		secret:   secret,
		logger:   slog.Default(),
		tokenTTL: DefaultTokenTTL,
		linkTTL:  DefaultLinkTTL,
		links:    make(map[string]linkEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken signs a JWT for u with the user ID as subject.
func (s *Service) IssueToken(u *user.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      u.ID.String(),
		"username": u.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a JWT and returns the user ID it was issued for.
func (s *Service) VerifyToken(tokenString string) (id.UserID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return id.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return id.Nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return id.Nil, ErrInvalidToken
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return id.Nil, ErrInvalidToken
	}
	return userID, nil
}

// StartMagicLink creates a one-time login token for the account registered
// under email and mails the login URL. The link is returned so callers in
// development setups without a relay can surface it directly.
func (s *Service) StartMagicLink(ctx context.Context, email, baseURL string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := secureToken(32)
	if err != nil {
		return "", fmt.Errorf("auth: generate link token: %w", err)
	}

	s.mu.Lock()
	s.purgeExpiredLocked(time.Now().UTC())
	s.links[token] = linkEntry{userID: u.ID, expiresAt: time.Now().UTC().Add(s.linkTTL)}
	s.mu.Unlock()

	link := fmt.Sprintf("%s/auth/magic-link?token=%s", baseURL, token)
	msg := &mail.Message{
		From:    s.from,
		To:      []string{u.Email},
		Subject: "Your Task Manager login link",
		Body: fmt.Sprintf(
			"Hi %s,\n\nClick the link below to log in:\n\n%s\n\nThe link expires in %s. If you didn't request it, ignore this email.",
			u.DisplayName(), link, s.linkTTL,
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("magic link email failed",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return link, nil
}

// RedeemMagicLink consumes a one-time token and returns the user plus a
// signed JWT. A token redeems at most once.
func (s *Service) RedeemMagicLink(ctx context.Context, token string) (*user.User, string, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	entry, ok := s.links[token]
	if ok {
		delete(s.links, token)
	}
	s.purgeExpiredLocked(now)
	s.mu.Unlock()

	if !ok || now.After(entry.expiresAt) {
		return nil, "", ErrInvalidLink
	}

	u, err := s.users.GetUser(ctx, entry.userID)
	if err != nil {
		return nil, "", err
	}
	signed, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("magic link redeemed", slog.String("user_id", u.ID.String()))
	return u, signed, nil
}

// purgeExpiredLocked drops expired link tokens. Caller holds s.mu.
func (s *Service) purgeExpiredLocked(now time.Time) {
	for token, entry := range s.links {
		if now.After(entry.expiresAt) {
			delete(s.links, token)
		}
	}
}

func secureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
