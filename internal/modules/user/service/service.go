package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/modules/user/dto"
	"anoa.com/jobportal/internal/modules/user/repository"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/ratelimiter"
	"anoa.com/jobportal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "Invalid username or password.", apperror.ErrUnauthorized)
	ErrTooManyAttempts    = apperror.New(http.StatusTooManyRequests, "Too many login attempts. Please try again later.", apperror.ErrRateLimitExceeded)
)

const loginAction = "login"

type LoginThrottle struct {
	MaxAttempts int64
	Window      time.Duration
}

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error)
	Authenticate(ctx context.Context, input dto.LoginInput) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

type authService struct {
	repo     repository.UserRepository
	limiter  *ratelimiter.Limiter
	throttle LoginThrottle

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(repo repository.UserRepository, limiter *ratelimiter.Limiter, throttle LoginThrottle) AuthService {
	return &authService{
		repo:     repo,
		limiter:  limiter,
		throttle: throttle,
	}
}

// Register creates the user and its profile. Field problems come back as
// validator.FieldErrors wrapped in apperror.ErrInvalidInput.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.TrimSpace(input.Email)

	fields := validator.FieldErrors{}
	if !validator.IsValidUsername(username) {
		fields.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if !entity.ValidRole(input.Role) {
		fields.Add("role", "Select a valid choice.")
	}
	if isNumeric(input.Password1) {
		fields.Add("password1", "This password is entirely numeric.")
	}
	if strings.EqualFold(input.Password1, username) {
		fields.Add("password1", "The password is too similar to the username.")
	}

	taken, err := s.repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		fields.Add("email", "This email address is already in use.")
	}

	taken, err = s.repo.UsernameTaken(ctx, username, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		fields.Add("username", "A user with that username already exists.")
	}

	if fields.Any() {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidInput, fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	profile := &entity.Profile{Role: input.Role}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidInput, validator.FieldErrors{
				"__all__": "A user with that username or email already exists.",
			})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("👤 Registered %s (%s)", user.Username, profile.Role)
	return user, nil
}

// Authenticate checks credentials. Unknown user, inactive user and wrong
// password all return ErrInvalidCredentials.
func (s *authService) Authenticate(ctx context.Context, input dto.LoginInput) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))

	exceeded, err := s.limiter.Exceeded(ctx, username, loginAction, s.throttle.MaxAttempts)
	if err != nil {
		log.Printf("login throttle check failed: %v", err)
	}
	if exceeded {
		return nil, ErrTooManyAttempts
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil {
		// keep timing close to a real comparison
		bcrypt.CompareHashAndPassword(s.dummy(), []byte(input.Password))
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil || !user.IsActive {
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, username, loginAction); err != nil {
		log.Printf("failed to reset login throttle for %s: %v", username, err)
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("failed to update last login for %s: %v", username, err)
	} else {
		user.LastLogin = &now
	}

	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) recordFailure(ctx context.Context, username string) {
	if _, err := s.limiter.Hit(ctx, username, loginAction, s.throttle.Window); err != nil {
		log.Printf("failed to record login attempt for %s: %v", username, err)
	}
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
