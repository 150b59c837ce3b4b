package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	Users     UserStore
	Secret    []byte
	TTL       time.Duration
	Now       func() time.Time
	RequestID string
}

type LoginResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "email", Msg: "email and password are required"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(storeErr("user", err)) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, storeErr("user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		utils.LogEvent(s.RequestID, "auth", "login_failed", "user_id="+u.ID)
		return LoginResult{}, ErrInvalidCredentials
	}

	now := utils.NowUTC()
	if s.Now != nil {
		now = s.Now()
	}
	token, err := auth.Issue(s.Secret, u.ID, u.Role, s.TTL, now)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "failed to issue token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user_id="+u.ID)
	return LoginResult{Token: token, User: u.ToPublic()}, nil
}
