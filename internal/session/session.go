// Package session holds the signed-in user. It is created once at startup,
// loads any stored token in Init and forgets it again on Logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/model"
)

// DefaultTTL is how long a stored token is kept.
const DefaultTTL = 7 * 24 * time.Hour

type claims struct {
	FullName string      `json:"fullName"`
	UserID   json.Number `json:"id"`
	jwt.RegisteredClaims
}

type Session struct {
	store  TokenStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
}

func New(store TokenStore, ttl time.Duration, logger *zap.Logger) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Session{store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Init restores the session from the store. An unreadable or expired
// token is removed and the session stays anonymous.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		s.logger.Debug("no stored session")
		return nil
	}
	if err != nil {
		return err
	}

	user, _, err := s.decode(token)
	if err != nil {
		s.logger.Info("discarding stored token", zap.Error(err))
		if derr := s.store.Delete(ctx); derr != nil {
			s.logger.Warn("failed to delete stored token", zap.Error(derr))
		}
		return nil
	}

	s.restoreProfile(ctx, user)

	s.mu.Lock()
	s.token, s.user = token, user
	s.mu.Unlock()
	s.logger.Info("session restored", zap.String("email", user.Email))
	return nil
}

// restoreProfile fills user with the profile stored for its account. A
// store failure only costs the extra fields.
func (s *Session) restoreProfile(ctx context.Context, user *model.User) {
	stored, err := s.store.LoadProfile(ctx, user.Email)
	if err != nil {
		s.logger.Warn("failed to load stored profile", zap.String("email", user.Email), zap.Error(err))
		return
	}
	if stored != nil {
		mergeProfile(user, *stored)
	}
}

// Establish stores creds and makes their user current. The stored profile
// of the account and then the fields set in profile fill in what the token
// does not carry.
func (s *Session) Establish(ctx context.Context, creds model.Credentials, profile *model.User) (*model.User, error) {
	user, expires, err := s.decode(creds.Token)
	if err != nil {
		return nil, apperrors.Protocol("token no válido", err)
	}
	s.restoreProfile(ctx, user)
	if profile != nil {
		mergeProfile(user, *profile)
		if err := s.store.SaveProfile(ctx, user.Email, *user); err != nil {
			s.logger.Warn("failed to store profile", zap.String("email", user.Email), zap.Error(err))
		}
	}

	ttl := s.ttl
	if !expires.IsZero() {
		ttl = min(ttl, expires.Sub(s.now()))
	}
	if err := s.store.Save(ctx, creds.Token, ttl); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token, s.user = creds.Token, user
	s.mu.Unlock()
	s.logger.Info("session established", zap.String("email", user.Email), zap.Duration("ttl", ttl))
	return cloneUser(user), nil
}

// Logout forgets the token locally and in the store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()
	if err := s.store.Delete(ctx); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

// Token returns the bearer token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when anonymous.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// UpdateUser applies fn to the current user and stores the result as the
// account's profile.
func (s *Session) UpdateUser(ctx context.Context, fn func(*model.User)) (*model.User, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, apperrors.Unauthorized(0, "no active session")
	}
	fn(s.user)
	updated := cloneUser(s.user)
	s.mu.Unlock()

	if err := s.store.SaveProfile(ctx, updated.Email, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Decision is the outcome of a route guard check.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard decides whether path may be visited. Anonymous visitors are sent
// to the login page with path as the return target.
func (s *Session) Guard(path string) Decision {
	if s.Authenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: "/login?next=" + url.QueryEscape(path)}
}

func (s *Session) decode(token string) (*model.User, time.Time, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, time.Time{}, fmt.Errorf("session: decode token: %w", err)
	}

	var expires time.Time
	if c.ExpiresAt != nil {
		expires = c.ExpiresAt.Time
		if !s.now().Before(expires) {
			return nil, time.Time{}, fmt.Errorf("session: token expired at %s", expires.Format(time.RFC3339))
		}
	}
	if c.Subject == "" {
		return nil, time.Time{}, errors.New("session: token without subject")
	}

	user := &model.User{Email: c.Subject, FullName: c.FullName}
	if c.UserID != "" {
		id, err := c.UserID.Int64()
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("session: token id %q: %w", c.UserID, err)
		}
		user.ID = id
	}
	return user, expires, nil
}

func mergeProfile(u *model.User, p model.User) {
	if p.FullName != "" {
		u.FullName = p.FullName
	}
	if p.ProfessionalTitle != "" {
		u.ProfessionalTitle = p.ProfessionalTitle
	}
	if p.Company != "" {
		u.Company = p.Company
	}
	if p.Location != "" {
		u.Location = p.Location
	}
	if p.Bio != "" {
		u.Bio = p.Bio
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), p.Skills...)
	}
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Skills = append([]string(nil), u.Skills...)
	return &c
}
