package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/hash"
	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/models"
)

const (
	usersCollection = "users"

	sessionTTL = 12 * time.Hour
	persistTTL = 7 * 24 * time.Hour

	resetTokenTTL = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("account already exists")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrValidation         = errors.New("validation failed")
)

// User is the authenticated identity the rest of the app consumes.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Session is one issued sign-in. Persist selects whether the session is
// meant to outlive the browser tab; the transport layer maps it onto
// cookie lifetime.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
	Persist   bool
}

// EventPublisher delivers identity events; implementations may drop them.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Service implements the identity provider: account storage, password
// and delegated sign-in, role lookup and the session-change
// subscription. Role records live in the document store's "users"
// collection and default to "user"; nothing here ever writes "admin".
type Service struct {
	DB        *gorm.DB
	Gateway   *gateway.Store
	Producer  EventPublisher
	Verifier  ProviderVerifier
	JWTSecret []byte

	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextSub int
}

func NewService(db *gorm.DB, gw *gateway.Store, producer EventPublisher, verifier ProviderVerifier, jwtSecret []byte) *Service {
	return &Service{
		DB:        db,
		Gateway:   gw,
		Producer:  producer,
		Verifier:  verifier,
		JWTSecret: jwtSecret,
		subs:      map[int]func(*User){},
	}
}

// Register creates a password account plus its default role record and
// signs the new user in.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}

	var existing models.Account
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	acc := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pwHash,
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     string(ProviderPassword),
	}
	if err := s.DB.WithContext(ctx).Create(&acc).Error; err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if _, err := s.Gateway.Put(ctx, usersCollection, acc.ID, map[string]any{"role": "user"}); err != nil {
		return nil, fmt.Errorf("register role record: %w", err)
	}

	s.publish(ctx, acc.ID, map[string]any{
		"type":   "user_registered",
		"userID": acc.ID,
		"email":  acc.Email,
	})

	return s.startSession(ctx, acc, true)
}

// SignInWithPassword checks the credentials and issues a session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string, persist bool) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var acc models.Account
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if acc.PasswordHash == "" || !hash.CheckPassword(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	s.publish(ctx, acc.ID, map[string]any{
		"type":   "user_signed_in",
		"userID": acc.ID,
		"email":  acc.Email,
	})

	return s.startSession(ctx, acc, persist)
}

// SignInWithProvider resolves a delegated provider token to a profile,
// creating the account and its default role record on first sign-in.
// Instagram and unknown providers are rejected outright.
func (s *Service) SignInWithProvider(ctx context.Context, p Provider, accessToken string, persist bool) (*Session, error) {
	switch p {
	case ProviderGoogle, ProviderFacebook:
	default:
		return nil, ErrProviderNotSupported
	}

	profile, err := s.Verifier.Verify(ctx, p, accessToken)
	if err != nil {
		return nil, fmt.Errorf("verify %s token: %w", p, err)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, fmt.Errorf("%s profile has no email", p)
	}

	var acc models.Account
	err = s.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		displayName := profile.DisplayName
		if displayName == "" {
			displayName = strings.SplitN(email, "@", 2)[0]
		}
		acc = models.Account{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
			Provider:    string(p),
		}
		if err := s.DB.WithContext(ctx).Create(&acc).Error; err != nil {
			return nil, fmt.Errorf("provider sign in: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("provider sign in: %w", err)
	}

	// first delegated sign-in may predate any role record
	if _, err := s.Gateway.Get(ctx, usersCollection, acc.ID); errors.Is(err, gateway.ErrNotFound) {
		if _, err := s.Gateway.Put(ctx, usersCollection, acc.ID, map[string]any{"role": "user"}); err != nil {
			return nil, fmt.Errorf("provider role record: %w", err)
		}
	}

	s.publish(ctx, acc.ID, map[string]any{
		"type":     "user_signed_in",
		"userID":   acc.ID,
		"email":    acc.Email,
		"provider": string(p),
	})

	return s.startSession(ctx, acc, persist)
}

// SignOut ends the current session and notifies subscribers of the
// signed-out transition.
func (s *Service) SignOut(ctx context.Context, userID string) {
	s.publish(ctx, userID, map[string]any{
		"type":   "user_signed_out",
		"userID": userID,
	})
	s.notify(nil)
}

// CurrentRole reads the role record for an identity; any identity
// without an explicit record is a plain "user".
func (s *Service) CurrentRole(ctx context.Context, userID string) (string, error) {
	doc, err := s.Gateway.Get(ctx, usersCollection, userID)
	if errors.Is(err, gateway.ErrNotFound) {
		return "user", nil
	}
	if err != nil {
		return "", fmt.Errorf("role lookup: %w", err)
	}
	if role, ok := doc["role"].(string); ok && role != "" {
		return role, nil
	}
	return "user", nil
}

// OnChange registers a callback invoked with the current identity
// immediately and on every subsequent signed-in/signed-out transition.
// The returned function unsubscribes.
func (s *Service) OnChange(cb func(*User)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	current := s.current
	s.mu.Unlock()

	cb(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// RequestPasswordReset issues a single-use expiring token. Unknown
// emails are ignored so the endpoint does not leak account existence.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var acc models.Account
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	reset := models.PasswordReset{
		Token:     uuid.NewString(),
		AccountID: acc.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&reset).Error; err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	// no mailer; delivery is the event stream plus the log
	s.publish(ctx, acc.ID, map[string]any{
		"type":   "password_reset_requested",
		"userID": acc.ID,
		"token":  reset.Token,
	})
	logging.FromContext(ctx).Info("password_reset_requested", "userID", acc.ID)
	return nil
}

// ConfirmPasswordReset consumes a reset token and rehashes the password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	var reset models.PasswordReset
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("password reset confirm: %w", err)
	}
	if reset.Used || time.Now().After(reset.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("password reset confirm: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", reset.AccountID).
		Update("password_hash", pwHash).Error; err != nil {
		return fmt.Errorf("password reset confirm: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("token = ?", token).
		Update("used", true).Error; err != nil {
		return fmt.Errorf("password reset confirm: %w", err)
	}
	return nil
}

// UserFromToken restores the identity behind a session token, refreshing
// the role from the document store.
func (s *Service) UserFromToken(ctx context.Context, token string) (*User, error) {
	claims, err := AccessClaimsFromToken(token, s.JWTSecret)
	if err != nil || claims == nil {
		return nil, ErrInvalidCredentials
	}

	var acc models.Account
	if err := s.DB.WithContext(ctx).Where("id = ?", claims.Subject).First(&acc).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	role, err := s.CurrentRole(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	return &User{ID: acc.ID, Email: acc.Email, DisplayName: acc.DisplayName, Role: role}, nil
}

func (s *Service) startSession(ctx context.Context, acc models.Account, persist bool) (*Session, error) {
	role, err := s.CurrentRole(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	user := User{ID: acc.ID, Email: acc.Email, DisplayName: acc.DisplayName, Role: role}

	ttl := sessionTTL
	if persist {
		ttl = persistTTL
	}
	token, exp, err := issueAccessToken(s.JWTSecret, user, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.notify(&user)
	return &Session{User: user, Token: token, ExpiresAt: exp, Persist: persist}, nil
}

func (s *Service) notify(u *User) {
	s.mu.Lock()
	s.current = u
	cbs := make([]func(*User), 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(u)
	}
}

func (s *Service) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", event["type"], "error", err)
	}
}
