package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/repository"
	"github.com/spec-kit/inventory-service/internal/repository/memory"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

type authFixture struct {
	svc      *AuthService
	users    repository.UserRepository
	mailer   *mockMailer
	codes    []string
	captured []events.Event
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		OTPTTL:      10 * time.Minute,
		MailTimeout: time.Second,
		BcryptCost:  bcrypt.MinCost,
	}}
}

func newAuthFixture(t *testing.T, cfg config.Config, cooldown Cooldown) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  memory.NewStore().Users(),
		mailer: new(mockMailer),
	}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.captured = append(f.captured, e)
		return nil
	}
	dispatcher.Subscribe(events.EventUserRegistered, record)
	dispatcher.Subscribe(events.EventUserVerified, record)

	svc, err := NewAuthService(cfg, AuthDependencies{
		UserRepo:   f.users,
		Mailer:     f.mailer,
		Cooldown:   cooldown,
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *authFixture) captureCodes() {
	f.mailer.On("SendOTP", mock.Anything, mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { f.codes = append(f.codes, args.String(2)) }).
		Return(nil)
}

func (f *authFixture) lastCode() string {
	return f.codes[len(f.codes)-1]
}

func otherCode(code string) string {
	if code == "123456" {
		return "654321"
	}
	return "123456"
}

func TestRegisterVerifyLoginScenario(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	msg, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, MessageOTPSent, msg)
	require.Len(t, f.codes, 1)
	code := f.lastCode()
	assert.Len(t, code, 6)

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", otherCode(code))
	assert.ErrorIs(t, err, ErrInvalidOTP)

	user, token, exp, err := f.svc.VerifyOTP(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	userID, err := f.svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	loggedIn, loginToken, _, err := f.svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, loginToken)

	require.Len(t, f.captured, 2)
	assert.Equal(t, events.EventUserRegistered, f.captured[0].Type)
	assert.Equal(t, events.UserRegisteredPayload{Email: "a@x.com", Created: true}, f.captured[0].Payload)
	assert.Equal(t, events.EventUserVerified, f.captured[1].Type)
}

func TestSecretsAreStoredHashed(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "plain-password")
	require.NoError(t, err)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "plain-password", stored.PasswordHash)
	require.True(t, stored.HasPendingOTP())
	assert.NotEqual(t, f.lastCode(), *stored.OTPHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.OTPHash), []byte(f.lastCode())))
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.OTPExpires, 5*time.Second)
}

func TestReRegisterRotatesCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	first := f.lastCode()
	for f.lastCode() == first {
		_, err = f.svc.Register(ctx, "A", "a@x.com", "other-pw")
		require.NoError(t, err)
	}
	latest := f.lastCode()

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", first)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", latest)
	require.NoError(t, err)

	// the password from the first registration is kept
	_, _, _, err = f.svc.Login(ctx, "a@x.com", "pw")
	assert.NoError(t, err)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "  A@X.com ", "pw")
	require.NoError(t, err)
	f.mailer.AssertCalled(t, "SendOTP", mock.Anything, "a@x.com", f.lastCode())

	_, _, _, err = f.svc.VerifyOTP(ctx, "A@x.COM", f.lastCode())
	assert.NoError(t, err)
}

func TestRegisterVerifiedUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", f.lastCode())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "A", "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	f.mailer.AssertNumberOfCalls(t, "SendOTP", 1)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t, testConfig(), nil)

	_, err := f.svc.Register(context.Background(), "", "not-an-email", "")
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
	f.mailer.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterMailFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	cause := errors.New("dial tcp: connection refused")
	f.mailer.On("SendOTP", mock.Anything, "a@x.com", mock.Anything).Return(cause)

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)
	assert.ErrorIs(t, err, cause)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "Could not send verification email.", de.Message)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.HasPendingOTP())
}

func TestRegisterMailUsesBoundedContext(t *testing.T) {
	f := newAuthFixture(t, testConfig(), nil)
	f.mailer.On("SendOTP", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "a@x.com", mock.Anything).Return(nil)

	_, err := f.svc.Register(context.Background(), "A", "a@x.com", "pw")
	require.NoError(t, err)
	f.mailer.AssertExpectations(t)
}

func TestRegisterCooldown(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.OTPResendCooldown = time.Minute
	cooldown := new(mockCooldown)
	cooldown.On("Acquire", mock.Anything, "otp:cooldown:a@x.com", time.Minute).Return(true, nil).Once()
	cooldown.On("Acquire", mock.Anything, "otp:cooldown:a@x.com", time.Minute).Return(false, nil).Once()

	f := newAuthFixture(t, cfg, cooldown)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "A", "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrOTPCooldown)
	assert.Equal(t, 429, apperrors.ToDomainError(err).HTTPStatus)
	assert.Len(t, f.codes, 1)
	cooldown.AssertExpectations(t)
}

func TestVerifyOTPFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, _, _, err := f.svc.VerifyOTP(ctx, "nobody@x.com", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.users.Create(ctx, &domain.User{Name: "B", Email: "b@x.com", PasswordHash: "h"}))
	_, _, _, err = f.svc.VerifyOTP(ctx, "b@x.com", "123456")
	assert.ErrorIs(t, err, ErrNoPendingOTP)

	_, err = f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	code := f.lastCode()

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", "abc")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", code)
	require.NoError(t, err)

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyOTPExpired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", f.lastCode())
	assert.ErrorIs(t, err, ErrOTPExpired)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)

	_, _, _, err = f.svc.Login(ctx, "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, _, _, err = f.svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", f.lastCode())
	require.NoError(t, err)

	_, _, _, wrongPassword := f.svc.Login(ctx, "a@x.com", "wrong")
	_, _, _, unknownEmail := f.svc.Login(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.OTPResendCooldown = time.Minute
	cooldown := new(mockCooldown)
	f := newAuthFixture(t, cfg, cooldown)

	_, err := f.svc.Register(ctx, "A", "a@x.com", strings.Repeat("p", 73))
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, 400, de.HTTPStatus)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "must be at most 72 bytes", de.Details["password"])

	_, err = f.users.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	cooldown.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterMailFailureReleasesCooldown(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.OTPResendCooldown = time.Minute
	cooldown := new(mockCooldown)
	cooldown.On("Acquire", mock.Anything, "otp:cooldown:a@x.com", time.Minute).Return(true, nil).Twice()
	cooldown.On("Release", mock.Anything, "otp:cooldown:a@x.com").Return(nil).Once()

	f := newAuthFixture(t, cfg, cooldown)
	f.mailer.On("SendOTP", mock.Anything, "a@x.com", mock.Anything).Return(errors.New("relay down")).Once()
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)

	_, err = f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	assert.Len(t, f.codes, 1)
	cooldown.AssertExpectations(t)
}

func TestConcurrentVerifyHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	code := f.lastCode()

	const callers = 8
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, results[i] = f.svc.VerifyOTP(ctx, "a@x.com", code)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	}
	assert.Equal(t, 1, winners)
}

// interleavedUsers runs beforeMark ahead of the guarded verify write, simulating
// a competing request that lands between the read and the write.
type interleavedUsers struct {
	repository.UserRepository
	beforeMark func()
}

func (u *interleavedUsers) MarkVerified(ctx context.Context, id, otpHash string) (*domain.User, error) {
	if u.beforeMark != nil {
		u.beforeMark()
	}
	return u.UserRepository.MarkVerified(ctx, id, otpHash)
}

func TestVerifyLosesToConcurrentVerify(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	f.svc.users = &interleavedUsers{UserRepository: f.users, beforeMark: func() {
		_, err := f.users.MarkVerified(ctx, stored.ID, *stored.OTPHash)
		require.NoError(t, err)
	}}

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", f.lastCode())
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyLosesToCodeRotation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, testConfig(), nil)
	f.captureCodes()

	_, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)
	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	f.svc.users = &interleavedUsers{UserRepository: f.users, beforeMark: func() {
		require.NoError(t, f.users.SetOTP(ctx, stored.ID, "rotated-hash", time.Now().Add(time.Minute)))
	}}

	_, _, _, err = f.svc.VerifyOTP(ctx, "a@x.com", f.lastCode())
	assert.ErrorIs(t, err, ErrInvalidOTP)

	current, err := f.users.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, current.IsVerified)
}
