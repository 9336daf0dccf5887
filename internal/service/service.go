package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/mailer"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
	"github.com/planning-tool/planner-server/internal/secrets"
	"github.com/planning-tool/planner-server/internal/translate"
	"github.com/planning-tool/planner-server/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	AuthService
	UserService
	TaskService
	TeamService
	SettingService
	ContentService
	LeaveService
	GuestService
	BookmarkService
	SubscriptionService

	Health(ctx context.Context) error
}

// AuthService covers registration, login and password recovery
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
}

// UserService manages org chart entries
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateOrgUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// GuestLimits bounds anonymous translation sessions
type GuestLimits struct {
	MaxUses          int
	SessionTTL       time.Duration
	MaxSessionsPerIP int
	SystemTenantID   string
}

// Options carries the collaborators and settings of DefaultService
type Options struct {
	JWTSecret     string
	TokenDuration time.Duration
	ResetTokenTTL time.Duration
	FrontendURL   string
	Guest         GuestLimits

	Clock      utils.Clock
	Logger     logrus.FieldLogger
	Mailer     mailer.Mailer
	Translator translate.Translator
	KeyChecker translate.KeyChecker
	Cipher     *secrets.Cipher
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	resetTokenTTL time.Duration
	frontendURL   string
	guest         GuestLimits

	clock      utils.Clock
	logger     logrus.FieldLogger
	mailer     mailer.Mailer
	translator translate.Translator
	keyChecker translate.KeyChecker
	cipher     *secrets.Cipher
}

var _ Service = (*DefaultService)(nil)

// NewDefaultService creates a new DefaultService, filling unset options
func NewDefaultService(repo repository.Repository, opts Options) *DefaultService {
	if opts.TokenDuration <= 0 {
		opts.TokenDuration = 24 * time.Hour
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.Guest.MaxUses <= 0 {
		opts.Guest.MaxUses = 10
	}
	if opts.Guest.SessionTTL <= 0 {
		opts.Guest.SessionTTL = 24 * time.Hour
	}
	if opts.Guest.MaxSessionsPerIP <= 0 {
		opts.Guest.MaxSessionsPerIP = 5
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Mailer == nil {
		opts.Mailer = mailer.NewSMTPMailer(mailer.Config{}, opts.Logger)
	}
	if opts.Cipher == nil {
		opts.Cipher = secrets.NewCipher(opts.JWTSecret)
	}

	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(opts.JWTSecret),
		tokenDuration: opts.TokenDuration,
		resetTokenTTL: opts.ResetTokenTTL,
		frontendURL:   opts.FrontendURL,
		guest:         opts.Guest,
		clock:         opts.Clock,
		logger:        opts.Logger,
		mailer:        opts.Mailer,
		translator:    opts.Translator,
		keyChecker:    opts.KeyChecker,
		cipher:        opts.Cipher,
	}
}

// Health checks that storage is reachable
func (s *DefaultService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Authentication methods
func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = "member"
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		TenantRole:   "member",
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hashedPassword,
		Role:         role,
		Position:     req.Position,
		LineManager:  req.LineManager,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	invalid := fmt.Errorf("%w: incorrect email or password", ErrUnauthorized)
	if user == nil || user.PasswordHash == nil {
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenDuration.Seconds()),
	}, nil
}

// ForgotPassword never reports whether the address is known. Storage and
// mail failures are logged, not returned.
func (s *DefaultService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.logger.WithError(err).Error("forgot password lookup failed")
		return nil
	}
	if user == nil {
		return nil
	}

	token, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}

	now := s.clock.Now()
	reset := &models.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.repo.ReplacePasswordResetToken(ctx, reset); err != nil {
		s.logger.WithError(err).Error("failed to store reset token")
		return nil
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	body := fmt.Sprintf(
		`<p>Hello %s,</p><p>Click the link below to reset your password. It expires in %d minutes.</p>`+
			`<p><a href="%s">Reset password</a></p>`,
		user.Name, int(s.resetTokenTTL.Minutes()), link)

	if err := s.mailer.Send(ctx, user.Email, "Password Reset Request", body); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to send reset email")
	}
	return nil
}

func (s *DefaultService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	reset, err := s.repo.GetPasswordResetToken(ctx, req.Token)
	if err != nil {
		return fmt.Errorf("error getting reset token: %w", err)
	}
	if reset == nil {
		return fmt.Errorf("%w: invalid or expired reset token", ErrValidation)
	}

	now := s.clock.Now()
	if !now.Before(reset.ExpiresAt) {
		if err := s.repo.DeletePasswordResetToken(ctx, reset.ID); err != nil {
			s.logger.WithError(err).Warn("failed to delete expired reset token")
		}
		return fmt.Errorf("%w: reset token has expired", ErrValidation)
	}

	user, err := s.repo.GetUserByID(ctx, reset.UserID)
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}

	hashedPassword, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.repo.ResetPassword(ctx, user.ID, hashedPassword, reset.ID, now); err != nil {
		return fmt.Errorf("error resetting password: %w", err)
	}
	return nil
}

// User methods
func (s *DefaultService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

func (s *DefaultService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return user, nil
}

// CreateOrgUser adds a position to the org chart. It has no password and
// cannot log in.
func (s *DefaultService) CreateOrgUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	id := uuid.New().String()
	now := s.clock.Now()

	user := &models.User{
		ID:          id,
		TenantRole:  "member",
		Name:        valueOr(req.Name, "Vacancy"),
		Email:       valueOr(req.Email, fmt.Sprintf("vacancy-%s@placeholder.local", id[:8])),
		Role:        valueOr(req.Role, "Position Open"),
		Position:    req.Position,
		LineManager: req.LineManager,
		Status:      valueOr(req.Status, "inactive"),
		AvatarURL:   req.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if user.Position == nil {
		position := "Open Position"
		user.Position = &position
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

func (s *DefaultService) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		other, err := s.repo.GetUserByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("error checking email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hashed
	}

	setString(&user.Name, req.Name)
	setString(&user.Role, req.Role)
	setString(&user.Status, req.Status)
	setOptional(&user.Position, req.Position)
	setOptional(&user.LineManager, req.LineManager)
	setOptional(&user.AvatarURL, req.AvatarURL)
	setOptional(&user.StartDate, req.StartDate)
	setOptional(&user.EndDate, req.EndDate)
	setOptional(&user.Computer, req.Computer)
	setOptional(&user.Mobile, req.Mobile)
	setOptional(&user.Phone, req.Phone)
	setOptional(&user.Birthday, req.Birthday)
	setOptional(&user.DiscType, req.DiscType)
	setOptional(&user.PersonalityType, req.PersonalityType)
	user.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}

func (s *DefaultService) DeleteUser(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	now := s.clock.Now()

	claims := jwt.MapClaims{
		"sub":         user.ID, // subject
		"email":       user.Email,
		"name":        user.Name,
		"role":        user.Role,
		"tenant_role": user.TenantRole,
		"exp":         now.Add(s.tokenDuration).Unix(),
		"iat":         now.Unix(), // issued at
	}
	if user.TenantID != nil {
		claims["tenant_id"] = *user.TenantID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}

// randomToken returns n random bytes, base64url encoded without padding
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func valueOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setOptional(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
