package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/repository"
)

// MessageOTPSent acknowledges every successful registration request.
const MessageOTPSent = "OTP sent to your email. Please verify."

const cooldownKeyPrefix = "otp:cooldown:"

// OTPMailer delivers verification codes.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Cooldown grants a key to one holder for a period.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AuthService coordinates registration, verification and login flows.
type AuthService struct {
	users          repository.UserRepository
	mailer         OTPMailer
	cooldown       Cooldown
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	tokenMgr       *auth.TokenManager
	bcryptCost     int
	otpTTL         time.Duration
	resendCooldown time.Duration
	mailTimeout    time.Duration
	dummyHash      string
	now            func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Mailer     OTPMailer
	Cooldown   Cooldown
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dummy, err := auth.HashPassword("inventory-login-placeholder", cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:          deps.UserRepo,
		mailer:         deps.Mailer,
		cooldown:       deps.Cooldown,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		bcryptCost:     cfg.Auth.BcryptCost,
		otpTTL:         cfg.Auth.OTPTTL,
		resendCooldown: cfg.Auth.OTPResendCooldown,
		mailTimeout:    cfg.Auth.MailTimeout,
		dummyHash:      dummy,
		now:            time.Now,
	}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an unverified account, or rotates the pending code of an
// existing unverified one, and mails a fresh verification code.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	errs := fieldErrors{}
	errs.required("name", name)
	errs.email("email", email)
	errs.password("password", password)
	if err := errs.err(); err != nil {
		return "", err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsVerified {
			return "", ErrAlreadyRegistered
		}
	case errors.Is(err, pgx.ErrNoRows):
		existing = nil
	default:
		return "", err
	}

	held, err := s.acquireCooldown(ctx, email)
	if err != nil {
		return "", err
	}
	issued := false
	if held {
		defer func() {
			if !issued {
				s.releaseCooldown(ctx, email)
			}
		}()
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}
	otpHash, err := auth.HashPassword(code, s.bcryptCost)
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.otpTTL)

	var userID string
	created := existing == nil
	if created {
		userID, created, err = s.createPending(ctx, name, email, password, otpHash, expires)
	} else {
		userID = existing.ID
		err = s.rotateOTP(ctx, userID, otpHash, expires)
	}
	if err != nil {
		return "", err
	}

	if err := s.sendOTP(ctx, userID, email, code); err != nil {
		return "", err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   events.UserRegisteredPayload{Email: email, Created: created},
	})
	issued = true
	s.logger.Info("verification code issued", zap.String("user_id", userID), zap.Bool("created", created))
	return MessageOTPSent, nil
}

// createPending inserts a new unverified user. A concurrent insert of the
// same email falls back to rotating the winner's code.
func (s *AuthService) createPending(ctx context.Context, name, email, password, otpHash string, expires time.Time) (string, bool, error) {
	passwordHash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", false, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		OTPHash:      &otpHash,
		OTPExpires:   &expires,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		return user.ID, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return "", false, err
	}

	winner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", false, err
	}
	if winner.IsVerified {
		return "", false, ErrAlreadyRegistered
	}
	return winner.ID, false, s.rotateOTP(ctx, winner.ID, otpHash, expires)
}

func (s *AuthService) rotateOTP(ctx context.Context, userID, otpHash string, expires time.Time) error {
	err := s.users.SetOTP(ctx, userID, otpHash, expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyRegistered
	}
	return err
}

// acquireCooldown reports whether a cooldown slot is now held for email.
// Cooldown store errors let the request through without holding a slot.
func (s *AuthService) acquireCooldown(ctx context.Context, email string) (bool, error) {
	if s.resendCooldown <= 0 || s.cooldown == nil {
		return false, nil
	}
	ok, err := s.cooldown.Acquire(ctx, cooldownKeyPrefix+email, s.resendCooldown)
	if err != nil {
		s.logger.Warn("otp cooldown unavailable", zap.Error(err))
		return false, nil
	}
	if !ok {
		return false, ErrOTPCooldown
	}
	return true, nil
}

// releaseCooldown frees the slot of a register attempt that sent no code.
func (s *AuthService) releaseCooldown(ctx context.Context, email string) {
	if err := s.cooldown.Release(context.WithoutCancel(ctx), cooldownKeyPrefix+email); err != nil {
		s.logger.Warn("release otp cooldown", zap.Error(err))
	}
}

func (s *AuthService) sendOTP(ctx context.Context, userID, email, code string) error {
	if s.mailer == nil {
		return ErrEmailDeliveryFailed
	}
	mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	if err := s.mailer.SendOTP(mailCtx, email, code); err != nil {
		s.logger.Error("send verification email", zap.String("user_id", userID), zap.Error(err))
		return ErrEmailDeliveryFailed.WithCause(err)
	}
	return nil
}

// VerifyOTP marks the account verified when code matches the pending one and
// returns a fresh session token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*domain.User, string, time.Time, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	errs := fieldErrors{}
	errs.email("email", email)
	errs.required("otp", code)
	if err := errs.err(); err != nil {
		return nil, "", time.Time{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, ErrUserNotFound
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user.IsVerified {
		return nil, "", time.Time{}, ErrAlreadyVerified
	}
	if !user.HasPendingOTP() {
		return nil, "", time.Time{}, ErrNoPendingOTP
	}
	if s.now().After(*user.OTPExpires) {
		return nil, "", time.Time{}, ErrOTPExpired
	}
	if !auth.IsOTPFormat(code) || auth.ComparePassword(*user.OTPHash, code) != nil {
		return nil, "", time.Time{}, ErrInvalidOTP
	}

	verified, err := s.users.MarkVerified(ctx, user.ID, *user.OTPHash)
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.users.GetByID(ctx, user.ID)
		if getErr != nil {
			return nil, "", time.Time{}, getErr
		}
		if current.IsVerified {
			return nil, "", time.Time{}, ErrAlreadyVerified
		}
		return nil, "", time.Time{}, ErrInvalidOTP
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(verified.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserVerified,
		UserID:    verified.ID,
		Timestamp: s.now(),
		Payload:   events.UserVerifiedPayload{Email: verified.Email, Name: verified.Name, Role: verified.Role},
	})
	s.logger.Info("user verified", zap.String("user_id", verified.ID))
	return verified, token, exp, nil
}

// Login authenticates a verified user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = NormalizeEmail(email)

	errs := fieldErrors{}
	errs.required("email", email)
	errs.required("password", password)
	if err := errs.err(); err != nil {
		return nil, "", time.Time{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", time.Time{}, ErrEmailNotVerified
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
