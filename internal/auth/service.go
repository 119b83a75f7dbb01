package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// UserStore is the user-record contract the service consumes. Lookups report
// a missing user with sql.ErrNoRows; Insert reports a username collision with
// ErrDuplicateUser.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	Insert(ctx context.Context, username, passwordHash string) (User, error)
}

type Service struct {
	store      UserStore
	whitelist  *Whitelist
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(store UserStore, whitelist *Whitelist, codec *Codec) *Service {
	return &Service{
		store:      store,
		whitelist:  whitelist,
		codec:      codec,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
}

func (s *Service) WithTokenTTL(accessTTL, refreshTTL time.Duration) {
	if accessTTL > 0 {
		s.accessTTL = accessTTL
	}
	if refreshTTL > 0 {
		s.refreshTTL = refreshTTL
	}
}

// Register creates the user and logs them in. Registration is not rolled
// back when the whitelist write fails: a retried login mints fresh tokens.
func (s *Service) Register(ctx context.Context, username, password string) (User, TokenPair, error) {
	username = normalizeUsername(username)

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	user, err := s.store.Insert(ctx, username, hash)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	pair, err := s.issueTokenPair(ctx, user.Username)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	return user, pair, nil
}

// Login verifies the credentials and mints a fresh pair, overwriting any
// prior session for the user. A missing user and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issueTokenPair(ctx, user.Username)
}

// CurrentUser resolves a bearer token to its user. The token must decode,
// carry the expected type, name an existing user and match the current
// whitelist entry. A whitelist store failure counts as not authenticated.
func (s *Service) CurrentUser(ctx context.Context, tokenString string, expectedType TokenType) (User, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if claims.Type != expectedType {
		return User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	member, err := s.whitelist.Contains(ctx, tokenString, user.Username)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrTokenRevoked, err)
	}
	if !member {
		return User{}, ErrTokenRevoked
	}

	return user, nil
}

// Refresh mints a new access token against a valid refresh token. The
// refresh token itself is not rotated and stays whitelisted until its own
// expiry or the next login.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.CurrentUser(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	return s.issueToken(ctx, user.Username, TokenTypeAccess, s.accessTTL)
}

// RevokeSessions logs a user out everywhere by dropping both whitelist
// entries. Outstanding tokens keep their valid signatures but stop resolving.
func (s *Service) RevokeSessions(ctx context.Context, username string) error {
	return s.whitelist.ClearUser(ctx, normalizeUsername(username))
}

func (s *Service) issueTokenPair(ctx context.Context, username string) (TokenPair, error) {
	access, err := s.issueToken(ctx, username, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.issueToken(ctx, username, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// issueToken mints and whitelists one token. The whitelist TTL equals the
// token lifetime, so the entry disappears exactly when the embedded expiry
// passes. A failed whitelist write aborts issuance.
func (s *Service) issueToken(ctx context.Context, username string, tokenType TokenType, ttl time.Duration) (string, error) {
	token, err := s.codec.Encode(Claims{
		Subject:   username,
		ExpiresAt: time.Now().UTC().Add(ttl),
		Type:      tokenType,
	})
	if err != nil {
		return "", err
	}

	if err := s.whitelist.Add(ctx, token, username, tokenType, ttl); err != nil {
		return "", err
	}

	return token, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
