package core

import (
	"context"
	"errors"
	"fmt"

	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

// UserService owns accounts and the sessions issued for them.
type UserService struct {
	dbStore *store.SQLiteStore
	tokens  *auth.Tokens
}

func NewUserService(db *store.SQLiteStore, tokens *auth.Tokens) *UserService {
	return &UserService{dbStore: db, tokens: tokens}
}

func (s *UserService) CreateUser(ctx context.Context, uid, password string, isAdmin bool) (*store.User, error) {
	existing, err := s.dbStore.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.dbStore.CreateUser(ctx, uid, hash, isAdmin)
}

// Login checks the password and returns a session token.
func (s *UserService) Login(ctx context.Context, uid, password string) (string, error) {
	user, err := s.dbStore.GetUserByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.GenerateJWT(user.UID)
}

// Authenticate resolves a session token to its user. A valid token for a
// removed account yields nil, nil.
func (s *UserService) Authenticate(ctx context.Context, token string) (*store.User, error) {
	uid, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil, err
	}
	return s.dbStore.GetUserByUID(ctx, uid)
}

// DeleteUser removes the account and all of its user-scoped settings.
func (s *UserService) DeleteUser(ctx context.Context, uid string) (bool, error) {
	return s.dbStore.DeleteUser(ctx, uid)
}
