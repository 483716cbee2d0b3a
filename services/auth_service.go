package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pg-backend/models"
	"pg-backend/repository"
	"pg-backend/utils"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 12 * time.Hour
)

// AuthService verifies admin credentials and issues bearer sessions. It sits
// in front of the core services and never gates them itself.
type AuthService struct {
	store   repository.Store
	log     *zap.Logger
	ttl     time.Duration
	now     func() time.Time
	compare func(hash, password []byte) error
}

var (
	decoyOnce sync.Once
	decoyHash []byte
)

// decoyPasswordHash is compared against when the email is unknown, so a
// miss costs the same bcrypt round as a wrong password.
func decoyPasswordHash() []byte {
	decoyOnce.Do(func() {
		decoyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-admin"), bcrypt.DefaultCost)
	})
	return decoyHash
}

func NewAuthService(store repository.Store, log *zap.Logger, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{
		store:   store,
		log:     log,
		ttl:     ttl,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// EnsureAdmin creates the first admin when none exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("admin email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx repository.Tx) error {
		n, err := tx.CountAdmins()
		if err != nil || n > 0 {
			return err
		}
		admin := models.Admin{FullName: "Admin", Email: email, Password: string(hash)}
		if err := tx.CreateAdmin(&admin); err != nil {
			return err
		}
		s.log.Info("default admin seeded", zap.String("email", email))
		return nil
	})
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, ErrInvalidCredentials
	}

	var admin models.Admin
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		admin, err = tx.GetAdminByEmail(email)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.compare(decoyPasswordHash(), []byte(password))
		return models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, err
	}
	if s.compare([]byte(admin.Password), []byte(password)) != nil {
		s.log.Info("AuthService.Login bad password", zap.String("email", email))
		return models.Session{}, ErrInvalidCredentials
	}

	token, err := utils.GenerateSecureToken(sessionTokenBytes)
	if err != nil {
		return models.Session{}, err
	}
	sess := models.Session{
		Token:     token,
		AdminID:   admin.ID,
		Email:     admin.Email,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.store.Atomic(ctx, func(tx repository.Tx) error { return tx.CreateSession(&sess) }); err != nil {
		return models.Session{}, err
	}
	s.log.Info("AuthService.Login", zap.String("email", admin.Email))
	return sess, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Session{}, ErrInvalidCredentials
	}
	var sess models.Session
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		sess, err = tx.GetSession(token)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, err
	}
	if sess.Expired(s.now()) {
		_ = s.Logout(ctx, token)
		return models.Session{}, ErrInvalidCredentials
	}
	return sess, nil
}

// Logout drops the session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.store.Atomic(ctx, func(tx repository.Tx) error { return tx.DeleteSession(token) })
}
