package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/thewoodfish/property-delphi-contract/internal/crypto"
	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/limiter"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

// AuthService binds logins to principals and issues access tokens.
type AuthService interface {
	// Enroll creates a credential bound to a fresh principal.
	Enroll(ctx context.Context, login, password string) (model.Principal, error)
	// LoginWithIP applies rate-limiting and authenticates the login.
	LoginWithIP(ctx context.Context, login, password, ip string) (model.Tokens, model.Principal, error)
}

type AuthServiceImpl struct {
	creds     repository.CredentialRepository
	hasher    pkgcrypto.Params
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	now       func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(creds repository.CredentialRepository, hasher pkgcrypto.Params, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{creds: creds, hasher: hasher, signKey: signKey, accessTTL: accessTTL, lim: lim, now: time.Now}
}

// Enroll hashes the password with a per-credential salt.
func (s *AuthServiceImpl) Enroll(ctx context.Context, login, password string) (model.Principal, error) {
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: empty login/password", errs.ErrInvalidArgument)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	salt, err := s.hasher.NewSalt()
	if err != nil {
		return "", err
	}
	c := &model.Credential{
		Principal: model.Principal(id.String()),
		Login:     login,
		PwdHash:   s.hasher.Hash([]byte(password), salt),
		Salt:      salt,
		CreatedAt: s.now(),
	}
	if err := s.creds.Create(ctx, c); err != nil {
		return "", fmt.Errorf("login %q: %w", login, err)
	}
	return c.Principal, nil
}

// LoginWithIP authenticates with rate limiting by (login, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, login, password, ip string) (model.Tokens, model.Principal, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, login, ipHash)
	if err != nil {
		return model.Tokens{}, "", err
	}
	if !allowed {
		return model.Tokens{}, "", errs.ErrRateLimited
	}

	c, err := s.creds.GetByLogin(ctx, login)
	if err != nil || !s.hasher.Verify([]byte(password), c.Salt, c.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, login, ipHash); ferr == nil && blocked {
			return model.Tokens{}, "", errs.ErrRateLimited
		}
		// unknown login and wrong password look the same
		return model.Tokens{}, "", errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, login, ipHash)

	access, exp, err := s.issueAccessToken(c.Principal)
	if err != nil {
		return model.Tokens{}, "", err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, c.Principal, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(p model.Principal) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   string(p),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return signed, exp, err
}
