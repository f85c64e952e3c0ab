package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/auth"
	"github.com/recipebox/backend/internal/db"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
)

const (
	msgInvalidCredentials  = "Invalid credentials"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgInvalidToken        = "Invalid token"
	msgUserNotFound        = "User not found or inactive"
)

// AuthService owns registration and the session lifecycle. Each user has at
// most one live refresh token: the one whose digest is stored on the user
// row. Login and refresh overwrite it, logout clears it.
type AuthService struct {
	users  UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	log    logging.Logger
}

func NewAuthService(users UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenIssuer, log logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, avatar *model.ImageSlot) (model.PublicUser, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return model.PublicUser{}, apperror.BadRequest("Invalid role")
	}

	email := auth.NormalizeEmail(req.Email)
	if !auth.IsEmail(email) {
		return model.PublicUser{}, apperror.BadRequest("Please provide a valid email")
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return model.PublicUser{}, apperror.Conflict("Email is already registered")
	}
	if !errors.Is(err, db.ErrNotFound) {
		return model.PublicUser{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	user, err := s.users.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Avatar:       avatar,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, db.ErrDuplicate) {
			return model.PublicUser{}, apperror.Conflict("Email is already registered")
		}
		return model.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user.Public(), nil
}

// Login accepts email identifiers only. Every failure returns the same
// Unauthorized error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (model.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if !auth.IsEmail(identifier) {
		return model.LoginResult{}, apperror.Unauthorized(msgInvalidCredentials)
	}

	user, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(identifier))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.LoginResult{}, apperror.Unauthorized(msgInvalidCredentials)
		}
		return model.LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return model.LoginResult{}, apperror.Unauthorized(msgInvalidCredentials)
	}

	return s.startSession(ctx, user)
}

// Refresh rotates the session: the presented token must be the one stored
// for its user, and a fresh pair replaces it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return model.LoginResult{}, apperror.Unauthorized(msgInvalidRefreshToken)
	}

	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return model.LoginResult{}, apperror.Unauthorized(msgInvalidRefreshToken)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.LoginResult{}, apperror.Unauthorized(msgInvalidRefreshToken)
		}
		return model.LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !sameDigest(user.RefreshTokenHash, hashRefreshToken(refreshToken)) {
		s.log.Warn(ctx, "refresh token reuse rejected", "user_id", user.ID)
		return model.LoginResult{}, apperror.Unauthorized(msgInvalidRefreshToken)
	}

	return s.startSession(ctx, user)
}

// Logout revokes the stored refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authenticate resolves an access token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.Verify(accessToken, auth.AccessToken)
	if err != nil {
		return nil, apperror.Unauthorized(msgInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.Unauthorized(msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Me returns the public projection of a user.
func (s *AuthService) Me(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.PublicUser{}, apperror.NotFound("User not found")
		}
		return model.PublicUser{}, fmt.Errorf("lookup user: %w", err)
	}
	return user.Public(), nil
}

// EnsureAdmin creates the bootstrap administrator unless the account
// already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("ADMIN_EMAIL/ADMIN_PASSWORD are required")
	}

	_, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	_, err = s.Register(ctx, model.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}, nil)
	if apperror.IsKind(err, apperror.KindConflict) {
		return nil
	}
	return err
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (model.LoginResult, error) {
	claims := model.TokenClaims{UserID: user.ID, Role: user.Role}

	accessToken, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return model.LoginResult{}, err
	}
	refreshToken, err := s.tokens.IssueRefresh(claims)
	if err != nil {
		return model.LoginResult{}, err
	}

	if err := s.users.SetRefreshTokenHash(ctx, user.ID, hashRefreshToken(refreshToken)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.LoginResult{}, apperror.Unauthorized(msgUserNotFound)
		}
		return model.LoginResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	return model.LoginResult{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func sameDigest(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
