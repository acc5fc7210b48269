package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealership/internal/middleware"
	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/pkg/apperror"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

// DTOs for Request validation
type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// DTO for returning User without exposing the password hash
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"createdAt"`
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(s middleware.Session) (string, time.Time, error)
}

// UserService covers back-office accounts. Applicants never log in.
type UserService interface {
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	repo   repository.UserRepository
	issuer TokenIssuer
	log    *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, issuer TokenIssuer, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, issuer: issuer, log: log}
}

var errBadCredentials = apperror.New(apperror.CodeUnauthorized, "invalid email or password")

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	token, expiresAt, err := s.issuer.Issue(middleware.Session{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: token, ExpiresAt: expiresAt, User: mapToResponse(user)}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if exists {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{Name: "Administrator", Email: email, Password: string(hashed), Role: model.RoleAdmin}
	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	s.log.Info("seeded admin account", zap.String("email", email))
	return nil
}
