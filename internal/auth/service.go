package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/internal/http/middleware"
	"github.com/wolfman30/dental-premium/pkg/logging"
	"github.com/wolfman30/dental-premium/pkg/password"
)

const (
	adminsCollection = "admins"
	defaultTokenTTL  = 12 * time.Hour
)

// TokenConfig controls admin token signing.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Service authenticates admins against the document store.
type Service struct {
	docs   docstore.Store
	hasher *password.Hasher
	tokens TokenConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewService(docs docstore.Store, hasher *password.Hasher, tokens TokenConfig, logger *logging.Logger) *Service {
	if docs == nil {
		panic("auth: document store cannot be nil")
	}
	if hasher == nil {
		hasher = password.NewHasher(nil)
	}
	if tokens.TTL <= 0 {
		tokens.TTL = defaultTokenTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		docs:   docs,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidCredential
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidCredential
	}
	return email, nil
}

// EnsureAdmin creates the admin account if it does not exist yet. It reports
// whether a new account was written.
func (s *Service) EnsureAdmin(ctx context.Context, email, plain string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if plain == "" {
		return false, ErrInvalidCredential
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return false, fmt.Errorf("auth: hash password: %w", err)
	}
	user := AdminUser{
		Email:        email,
		PasswordHash: hash,
		Role:         middleware.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	err = s.docs.Create(ctx, adminsCollection, email, user)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: create admin: %w", err)
	}
	s.logger.Info("admin account created", "email", email)
	return true, nil
}

// Login verifies the credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, email, plain string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if plain == "" {
		return Session{}, ErrInvalidCredential
	}

	doc, err := s.docs.Get(ctx, adminsCollection, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return Session{}, ErrUserNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: load admin: %w", err)
	}
	var user AdminUser
	if err := doc.Decode(&user); err != nil {
		return Session{}, err
	}

	if err := s.hasher.Verify(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return Session{}, ErrWrongPassword
		}
		return Session{}, fmt.Errorf("auth: verify password: %w", err)
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, plain)
	}

	return s.issue(email)
}

func (s *Service) rehash(ctx context.Context, user AdminUser, plain string) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		s.logger.Warn("failed to rehash admin password", "error", err)
		return
	}
	user.PasswordHash = hash
	if err := s.docs.Update(ctx, adminsCollection, user.Email, user); err != nil {
		s.logger.Warn("failed to store rehashed admin password", "error", err, "email", user.Email)
	}
}

func (s *Service) issue(email string) (Session, error) {
	if s.tokens.Secret == "" {
		return Session{}, errors.New("auth: token secret not configured")
	}
	now := s.now().UTC()
	expires := now.Add(s.tokens.TTL)
	claims := middleware.AdminClaims{
		Role: middleware.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    middleware.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return Session{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Session{Token: signed, Email: email, ExpiresAt: expires}, nil
}
