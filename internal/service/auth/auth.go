package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/crypto"
	"github.com/Alijeyrad/healthmarket_backend/pkg/phone"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
	"github.com/Alijeyrad/healthmarket_backend/pkg/util/otp"
	"github.com/Alijeyrad/healthmarket_backend/pkg/util/password"
)

const (
	maxOTPAttempts   = 5
	accountLockMins  = 15
	maxLoginAttempts = 5
)

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*repo.User, error)
	CreateUser(ctx context.Context, u *repo.User) error
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
}

type SessionStore interface {
	ReplaceDeviceSession(ctx context.Context, s *repo.Session) ([]uuid.UUID, error)
	GetSession(ctx context.Context, id uuid.UUID) (*repo.Session, error)
	ListActiveSessions(ctx context.Context, userID uuid.UUID) ([]repo.Session, error)
	TouchSession(ctx context.Context, id uuid.UUID) error
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Store is implemented by *repo.Client.
type Store interface {
	UserStore
	SessionStore
}

type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// RoleAssigner binds a user to the RBAC role of their account type.
type RoleAssigner interface {
	Assign(ctx context.Context, userID uuid.UUID, accountRole string) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Device struct {
	ID        string
	Type      string // android, ios or web
	Name      string
	IP        string
	UserAgent string
}

type SendOTPRequest struct {
	Phone string
	Role  string
}

type OTPDispatch struct {
	Phone     string
	ExpiresIn int64 // seconds
	IsNewUser bool
}

type VerifyOTPRequest struct {
	Phone  string
	Code   string
	Role   string
	Device Device
}

type AdminLoginRequest struct {
	Phone    string
	Password string
	Device   Device
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until access token expires
}

type LoginResult struct {
	Tokens
	User      *repo.User
	SessionID uuid.UUID
	IsNewUser bool
}

// Options are the tunables read from configuration.
type Options struct {
	OTPTTL         time.Duration
	ResendCooldown time.Duration
	OTPLength      int
	PhoneRegion    string
}

func OptionsFromConfig(cfg *config.Config) Options {
	o := Options{
		OTPTTL:         time.Duration(cfg.Authentication.OTPTTLMinutes) * time.Minute,
		ResendCooldown: time.Duration(cfg.Authentication.OTPResendCooldownSeconds) * time.Second,
		OTPLength:      otp.FromCentralConfig(cfg.OTP).Length,
		PhoneRegion:    cfg.Authentication.DefaultPhoneRegion,
	}
	if o.OTPTTL <= 0 {
		o.OTPTTL = 5 * time.Minute
	}
	return o
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	SendOTP(ctx context.Context, req SendOTPRequest) (*OTPDispatch, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*LoginResult, error)
	AdminLogin(ctx context.Context, req AdminLoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, userID, sessionID uuid.UUID) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]repo.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
	ForceLogout(ctx context.Context, userID uuid.UUID) error
	SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
	CreateAdmin(ctx context.Context, phone, password string) (*repo.User, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store  Store
	state  StateStore
	sms    OTPSender
	roles  RoleAssigner
	tokens *token.Manager
	hasher *password.Hasher
	phones *phone.Normalizer
	opts   Options
}

func New(
	store Store,
	state StateStore,
	sms OTPSender,
	roles RoleAssigner,
	tokens *token.Manager,
	hasher *password.Hasher,
	opts Options,
) Service {
	return &authService{
		store:  store,
		state:  state,
		sms:    sms,
		roles:  roles,
		tokens: tokens,
		hasher: hasher,
		phones: phone.NewNormalizer(opts.PhoneRegion),
		opts:   opts,
	}
}

func validOTPRole(role string) bool {
	switch role {
	case repo.RolePatient, repo.RoleDoctor, repo.RoleHospital:
		return true
	}
	return false
}

func (s *authService) normalize(raw string) (string, error) {
	p, err := s.phones.E164(raw)
	if err != nil {
		return "", ErrInvalidPhone
	}
	return p, nil
}

// checkExisting rejects a login for an existing account of another role or a
// blocked account. u is nil when the phone is unknown.
func (s *authService) checkExisting(ctx context.Context, phone, role string) (*repo.User, error) {
	u, err := s.store.GetUserByPhone(ctx, phone)
	if repo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Role != role {
		return nil, ErrRoleMismatch
	}
	if u.Status == repo.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// SendOTP
// ---------------------------------------------------------------------------

func (s *authService) SendOTP(ctx context.Context, req SendOTPRequest) (*OTPDispatch, error) {
	if !validOTPRole(req.Role) {
		return nil, ErrInvalidRole
	}
	ph, err := s.normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	u, err := s.checkExisting(ctx, ph, req.Role)
	if err != nil {
		return nil, err
	}

	code, err := otp.Generate(s.opts.OTPLength)
	if err != nil {
		return nil, fmt.Errorf("generate OTP: %w", err)
	}

	stored, err := s.state.SaveOTP(ctx, ph, otp.Hash(code), s.opts.OTPTTL, s.opts.ResendCooldown)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, ErrOTPCooldown
	}

	if err := s.sms.SendOTP(ctx, ph, code); err != nil {
		slog.Warn("failed to send OTP SMS", "phone", ph, "error", err)
	}

	return &OTPDispatch{
		Phone:     ph,
		ExpiresIn: int64(s.opts.OTPTTL.Seconds()),
		IsNewUser: u == nil,
	}, nil
}

// ---------------------------------------------------------------------------
// VerifyOTP
// ---------------------------------------------------------------------------

func (s *authService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*LoginResult, error) {
	if !validOTPRole(req.Role) {
		return nil, ErrInvalidRole
	}
	ph, err := s.normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	// attempts are counted before the code is compared
	hash, attempts, err := s.state.TakeOTPAttempt(ctx, ph)
	if err != nil {
		return nil, err
	}
	if attempts > maxOTPAttempts {
		return nil, ErrOTPMaxAttempts
	}
	if err := otp.Verify(hash, strings.TrimSpace(req.Code)); err != nil {
		return nil, ErrOTPInvalid
	}
	if err := s.state.ClearOTP(ctx, ph); err != nil {
		slog.Warn("failed to clear OTP", "phone", ph, "error", err)
	}

	u, err := s.checkExisting(ctx, ph, req.Role)
	if err != nil {
		return nil, err
	}

	isNew := u == nil
	if isNew {
		u, err = s.createUser(ctx, ph, req.Role)
		if err != nil {
			return nil, err
		}
	}

	// Assign is idempotent; running it on every login restores a binding
	// lost to an earlier failure.
	if err := s.roles.Assign(ctx, u.ID, u.Role); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	if !u.PhoneVerified {
		if err := s.store.MarkPhoneVerified(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("mark phone verified: %w", err)
		}
		u.PhoneVerified = true
	}

	res, err := s.openSession(ctx, u, req.Device)
	if err != nil {
		return nil, err
	}
	res.IsNewUser = isNew
	return res, nil
}

// createUser inserts the account. A concurrent
// registration of the same phone resolves to the winner's row.
func (s *authService) createUser(ctx context.Context, ph, role string) (*repo.User, error) {
	u := &repo.User{Phone: ph, Role: role, Status: repo.UserStatusActive}
	err := s.store.CreateUser(ctx, u)
	if repo.IsConstraint(err, repo.ConstraintUserPhone) {
		existing, getErr := s.store.GetUserByPhone(ctx, ph)
		if getErr != nil {
			return nil, fmt.Errorf("reload user: %w", getErr)
		}
		if existing.Role != role {
			return nil, ErrRoleMismatch
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// AdminLogin
// ---------------------------------------------------------------------------

func (s *authService) AdminLogin(ctx context.Context, req AdminLoginRequest) (*LoginResult, error) {
	ph, err := s.normalize(req.Phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.GetUserByPhone(ctx, ph)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Role != repo.RoleAdmin || u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status == repo.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}
	if u.LockedUntil != nil && time.Now().Before(*u.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := s.hasher.Verify(*u.PasswordHash, req.Password); err != nil {
		if err := s.store.RecordLoginFailure(ctx, u.ID, maxLoginAttempts, accountLockMins*time.Minute); err != nil {
			slog.Warn("failed to record login failure", "user_id", u.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, u, req.Device)
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.tokens.VerifyType(refreshToken, token.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	alive, err := s.state.ExtendSession(ctx, claims.SessionID, s.tokens.RefreshTTL())
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, ErrSessionNotFound
	}

	sess, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.RevokedAt != nil || sess.UserID != claims.UserID || sess.RefreshTokenHash != crypto.Hash(refreshToken) {
		_ = s.state.DropSessions(ctx, claims.SessionID)
		return nil, ErrSessionNotFound
	}
	if err := s.store.TouchSession(ctx, sess.ID); err != nil {
		slog.Warn("failed to touch session", "session_id", sess.ID, "error", err)
	}

	access, err := s.tokens.IssueAccess(claims.UserID, claims.SessionID, claims.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &Tokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.state.DropSessions(ctx, sessionID); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	err := s.store.RevokeSession(ctx, userID, sessionID)
	if err != nil && !repo.IsNotFound(err) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.store.RevokeAllSessions(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.state.DropSessions(ctx, ids...); err != nil {
		return fmt.Errorf("drop sessions: %w", err)
	}
	return nil
}

func (s *authService) ListSessions(ctx context.Context, userID uuid.UUID) ([]repo.Session, error) {
	return s.store.ListActiveSessions(ctx, userID)
}

func (s *authService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.store.RevokeSession(ctx, userID, sessionID); err != nil {
		if repo.IsNotFound(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return s.state.DropSessions(ctx, sessionID)
}

// ForceLogout ends every session of a user on behalf of an admin.
func (s *authService) ForceLogout(ctx context.Context, userID uuid.UUID) error {
	if err := s.LogoutAll(ctx, userID); err != nil {
		return err
	}
	slog.Info("forced logout", "user_id", userID)
	return nil
}

func (s *authService) SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return s.state.SessionAlive(ctx, sessionID)
}

// ---------------------------------------------------------------------------
// CreateAdmin
// ---------------------------------------------------------------------------

func (s *authService) CreateAdmin(ctx context.Context, rawPhone, pass string) (*repo.User, error) {
	ph, err := s.normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(pass)
	if errors.Is(err, password.ErrTooShort) {
		return nil, ErrPasswordTooShort
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &repo.User{
		Phone:         ph,
		Role:          repo.RoleAdmin,
		Status:        repo.UserStatusActive,
		PhoneVerified: true,
		PasswordHash:  &hash,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if repo.IsConstraint(err, repo.ConstraintUserPhone) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	if err := s.roles.Assign(ctx, u.ID, repo.RoleAdmin); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// openSession binds a new session to the device, revoking any session the
// device already held, and issues the token pair.
func (s *authService) openSession(ctx context.Context, u *repo.User, d Device) (*LoginResult, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Type == "" {
		d.Type = "web"
	}

	sessionID := uuid.Must(uuid.NewV7())
	access, err := s.tokens.IssueAccess(u.ID, sessionID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(u.ID, sessionID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	refreshTTL := s.tokens.RefreshTTL()
	sess := &repo.Session{
		ID:               sessionID,
		UserID:           u.ID,
		DeviceID:         d.ID,
		DeviceType:       d.Type,
		DeviceName:       d.Name,
		RefreshTokenHash: crypto.Hash(refresh),
		IP:               d.IP,
		UserAgent:        d.UserAgent,
		ExpiresAt:        time.Now().Add(refreshTTL),
	}
	previous, err := s.store.ReplaceDeviceSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := s.state.DropSessions(ctx, previous...); err != nil {
		slog.Warn("failed to drop device sessions", "user_id", u.ID, "error", err)
	}
	if err := s.state.PutSession(ctx, sessionID, u.ID, refreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	if err := s.store.RecordLoginSuccess(ctx, u.ID); err != nil {
		slog.Warn("failed to record login", "user_id", u.ID, "error", err)
	}

	return &LoginResult{
		Tokens: Tokens{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		},
		User:      u,
		SessionID: sessionID,
	}, nil
}
