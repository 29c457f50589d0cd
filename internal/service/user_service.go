package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ProvisionUserRequest is the admin-only account creation payload.
type ProvisionUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required,user_role"`
	Phone    string `json:"phone"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    string       `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// TokenClaims is what a verified access token says about its bearer.
type TokenClaims struct {
	UserID    uuid.UUID
	Role      lifecycle.Role
	TokenID   string
	ExpiresAt time.Time
}

// Denylist remembers access tokens revoked before they expire.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// --- Interface ---

type UserService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*TokenResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	SignOut(ctx context.Context, actor lifecycle.Actor, claims TokenClaims) error
	Me(ctx context.Context, actor lifecycle.Actor) (*UserResponse, error)

	// Authenticate verifies an access token and resolves the caller from the
	// users table. Inactive or revoked callers are refused.
	Authenticate(ctx context.Context, token string) (lifecycle.Actor, TokenClaims, error)

	ProvisionUser(ctx context.Context, actor lifecycle.Actor, req ProvisionUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, actor lifecycle.Actor, page, limit int) ([]UserResponse, int64, error)
	SetUserActive(ctx context.Context, actor lifecycle.Actor, id string, active bool) (*UserResponse, error)

	// EnsureAdmin creates the first administrator when no account uses email.
	EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error)
}

type userService struct {
	repo     repository.UserRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	denylist Denylist
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewUserService wires the identity provider. denylist may be nil, in which
// case sign-out only revokes refresh tokens.
func NewUserService(repo repository.UserRepository, deps Deps, denylist Denylist, cfg AuthConfig) UserService {
	return &userService{
		repo:     repo,
		audit:    deps.Audit,
		tx:       deps.Tx,
		denylist: denylist,
		cfg:      cfg,
		log:      deps.logger(),
		now:      time.Now,
	}
}

var errBadCredentials = apperror.Unauthenticated("invalid email or password")

// --- Implementation ---

func (s *userService) SignUp(ctx context.Context, req SignUpRequest) (*TokenResponse, error) {
	user, err := s.createUser(ctx, nil, req.Email, req.Password, req.FullName, req.Phone, lifecycle.RoleStaff, model.ActionSignUp)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *userService) SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, apperror.Unauthenticated("account is deactivated")
	}
	return s.issue(ctx, user)
}

// Refresh rotates the refresh token: the presented one is consumed whether or
// not it is still valid.
func (s *userService) Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	hash := hashToken(req.RefreshToken)
	stored, err := s.repo.FindRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid refresh token")
		}
		return nil, err
	}
	if err := s.repo.DeleteRefreshToken(ctx, hash); err != nil {
		return nil, err
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, apperror.Unauthenticated("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthenticated("account is deactivated")
	}
	return s.issue(ctx, user)
}

func (s *userService) SignOut(ctx context.Context, actor lifecycle.Actor, claims TokenClaims) error {
	if err := s.repo.DeleteRefreshTokensForUser(ctx, actor.UserID); err != nil {
		return err
	}
	if s.denylist == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		// The refresh tokens are gone; the access token lapses on its own.
		s.log.Warn("access token revocation failed", zap.String("jti", claims.TokenID), zap.Error(err))
	}
	return nil
}

func (s *userService) Me(ctx context.Context, actor lifecycle.Actor) (*UserResponse, error) {
	if actor.IsZero() {
		return nil, apperror.Unauthenticated("authentication required")
	}
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) Authenticate(ctx context.Context, raw string) (lifecycle.Actor, TokenClaims, error) {
	claims, err := s.parseToken(raw)
	if err != nil {
		return lifecycle.Actor{}, TokenClaims{}, err
	}
	if s.denylist != nil && claims.TokenID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			// Degrade to signature and expiry checks only.
			s.log.Warn("token denylist unavailable", zap.Error(err))
		} else if revoked {
			return lifecycle.Actor{}, TokenClaims{}, apperror.Unauthenticated("token has been revoked")
		}
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return lifecycle.Actor{}, TokenClaims{}, apperror.Unauthenticated("unknown user")
		}
		return lifecycle.Actor{}, TokenClaims{}, err
	}
	if !user.IsActive {
		return lifecycle.Actor{}, TokenClaims{}, apperror.Unauthenticated("account is deactivated")
	}
	return lifecycle.Actor{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
	}, claims, nil
}

func (s *userService) ProvisionUser(ctx context.Context, actor lifecycle.Actor, req ProvisionUserRequest) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := lifecycle.Role(req.Role)
	if !role.Valid() {
		return nil, apperror.Validation("invalid role %q", req.Role)
	}
	user, err := s.createUser(ctx, &actor, req.Email, req.Password, req.FullName, req.Phone, role, model.ActionProvisionUser)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, actor lifecycle.Actor, page, limit int) ([]UserResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityUser); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) SetUserActive(ctx context.Context, actor lifecycle.Actor, id string, active bool) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	userID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	if userID == actor.UserID && !active {
		return nil, apperror.Validation("admins cannot deactivate themselves")
	}

	var user *model.User
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, userID, active); err != nil {
			return err
		}
		if !active {
			if err := s.repo.DeleteRefreshTokensForUser(txCtx, userID); err != nil {
				return err
			}
		}
		if user, err = s.repo.GetByID(txCtx, userID); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionSetUserActive, lifecycle.EntityUser, user.ID, user.FullName, map[string]interface{}{
			"is_active": active,
		}))
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return false, err
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	if _, err := s.createUser(ctx, nil, email, password, fullName, "", lifecycle.RoleAdmin, model.ActionProvisionUser); err != nil {
		return false, err
	}
	return true, nil
}

// --- Helpers ---

func (s *userService) createUser(ctx context.Context, by *lifecycle.Actor, email, password, fullName, phone string, role lifecycle.Role, action string) (*model.User, error) {
	if len(password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, apperror.Validation("full_name is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	user := &model.User{
		ID:       uuid.New(),
		FullName: strings.TrimSpace(fullName),
		Email:    normalizeEmail(email),
		Password: string(hashed),
		Role:     role,
		Phone:    phone,
		IsActive: true,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				return apperror.Validation("a user with email %s already exists", user.Email)
			}
			return err
		}
		actor := lifecycle.Actor{UserID: user.ID, Role: role}
		if by != nil {
			actor = *by
		}
		return s.audit.Log(txCtx, auditEntry(actor, action, lifecycle.EntityUser, user.ID, user.FullName, map[string]interface{}{
			"email": user.Email,
			"role":  role,
		}))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// issue signs an access token and stores a fresh opaque refresh token.
func (s *userService) issue(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	expires := now.Add(s.cfg.AccessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	})
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate token")
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate refresh token")
	}
	if err := s.repo.SaveRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenResponse{
		Token:        signed,
		RefreshToken: refresh,
		ExpiresAt:    expires.Format(timeLayout),
		User:         *mapToResponse(user),
	}, nil
}

func (s *userService) parseToken(raw string) (TokenClaims, error) {
	if raw == "" {
		return TokenClaims{}, apperror.Unauthenticated("authorization is missing")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return TokenClaims{}, apperror.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, apperror.Unauthenticated("invalid token claims")
	}
	sub, _ := claims.GetSubject()
	userID, err := uuid.Parse(sub)
	if err != nil {
		return TokenClaims{}, apperror.Unauthenticated("invalid token subject")
	}
	out := TokenClaims{UserID: userID}
	if role, ok := claims["role"].(string); ok {
		out.Role = lifecycle.Role(role)
	}
	if jti, ok := claims["jti"].(string); ok {
		out.TokenID = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func requireAdmin(actor lifecycle.Actor) error {
	if actor.IsZero() {
		return apperror.Unauthenticated("authentication required")
	}
	if actor.Role != lifecycle.RoleAdmin {
		return apperror.Unauthorized("admin role required")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      string(user.Role),
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(timeLayout),
	}
}
