package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/mallkit/internal/hash"
	"github.com/Skotchmaster/mallkit/internal/logging"
	"github.com/Skotchmaster/mallkit/internal/models"
	"github.com/Skotchmaster/mallkit/internal/mq"
	"github.com/Skotchmaster/mallkit/internal/repo"
	"github.com/Skotchmaster/mallkit/internal/tokens"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrPhoneTaken         = errors.New("phone already taken") // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 400
)

type AuthService struct {
	Repo      repo.GormRepo
	JWTSecret []byte
	Producer  *mq.Producer
}

// AuthResult is what register and login hand back to the transport layer.
type AuthResult struct {
	Token    string
	Role     string
	Username string
}

func (s *AuthService) Register(ctx context.Context, phone, password, username string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if phone == "" || password == "" || username == "" {
		return nil, fmt.Errorf("%w: phone, password and username required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Phone:        phone,
		Username:     username,
		PasswordHash: pwHash,
		Role:         "user",
	}

	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrPhoneTaken) {
			l.Warn("register_conflict", "phone", phone)
			return nil, ErrPhoneTaken
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	token, err := tokens.Issue(user.Phone, user.Role, s.JWTSecret)
	if err != nil {
		l.Error("register_error", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	s.publishUserEvent(ctx, "user_registered", &user)

	return &AuthResult{Token: token, Role: user.Role, Username: user.Username}, nil
}

func (s *AuthService) Login(ctx context.Context, phone, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if phone == "" || password == "" {
		return nil, fmt.Errorf("%w: phone and password required", ErrValidation)
	}

	user, err := s.Repo.FindUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "reason", "unknown phone")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := tokens.Issue(user.Phone, user.Role, s.JWTSecret)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	s.publishUserEvent(ctx, "user_logged_in", user)

	return &AuthResult{Token: token, Role: user.Role, Username: user.Username}, nil
}

// Profile is a pure projection of the resolved identity.
func (s *AuthService) Profile(user *models.User) (phone, username, role string) {
	return user.Phone, user.Username, user.Role
}

func (s *AuthService) publishUserEvent(ctx context.Context, eventType string, user *models.User) {
	event := map[string]any{
		"type":     eventType,
		"phone":    user.Phone,
		"username": user.Username,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Producer.PublishEvent(pubCtx, mq.TopicUserEvents, user.Phone, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", mq.TopicUserEvents, "error", err)
	}
}
