package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/storage"
	"github.com/dukerupert/balaguruva/internal/telemetry"
	"github.com/dukerupert/balaguruva/internal/validation"
)

// UserService provides business logic for storefront accounts
type UserService interface {
	// Signup registers a password account and signs the caller in.
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)

	// Login authenticates with a password or a Google id. The Google flow
	// creates the account on first login.
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)

	GetProfile(ctx context.Context, userID string) (*domain.User, error)

	// UpdateProfile overwrites the non-empty fields of input. An inline
	// data:image profile picture is uploaded and replaced by its URL.
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error)

	ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error

	// DeleteAccount removes the user record and, best-effort, their cart.
	DeleteAccount(ctx context.Context, userID string) error

	// ExportData gathers everything stored about the user.
	ExportData(ctx context.Context, userID string) (*AccountExport, error)
}

// SignupInput is the registration payload.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=100"`
}

// LoginInput is the login payload. Either Password or GoogleID is required.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required_without=GoogleID"`
	GoogleID string `json:"googleId"`
	Name     string `json:"name" validate:"max=100"`
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Name         string              `json:"name" validate:"max=100"`
	Phone        string              `json:"phone" validate:"max=30"`
	Address      string              `json:"address" validate:"max=500"`
	Preferences  *domain.Preferences `json:"preferences"`
	ProfileImage string              `json:"profileImage"`
}

// ChangePasswordInput is the password change payload.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// AuthResult is returned on signup and login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AccountExport is the downloadable copy of a user's data.
type AccountExport struct {
	Profile    *domain.User   `json:"profile"`
	Orders     []domain.Order `json:"orders"`
	ExportDate time.Time      `json:"exportDate"`
	ExportedBy string         `json:"exportedBy"`
}

type userService struct {
	users   domain.UserStore
	orders  domain.OrderStore
	carts   domain.CartStore
	hasher  *auth.Hasher
	tokens  *auth.Tokens
	storage storage.Storage
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(
	users domain.UserStore,
	orders domain.OrderStore,
	carts domain.CartStore,
	hasher *auth.Hasher,
	tokens *auth.Tokens,
	store storage.Storage,
	logger *slog.Logger,
) UserService {
	return &userService{
		users:   users,
		orders:  orders,
		carts:   carts,
		hasher:  hasher,
		tokens:  tokens,
		storage: store,
		logger:  logger,
	}
}

func (s *userService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	const op = "user.signup"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.NewValidationError(op, "password", "must be at least 8 characters")
		}
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        domain.NormalizeEmail(input.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Preferences:  domain.DefaultPreferences(),
		Wishlist:     []domain.WishlistItem{},
		OrderHistory: []string{},
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			return nil, domain.WithOp(ErrEmailTaken, op)
		}
		return nil, domain.WithOp(err, op)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	if telemetry.Business != nil {
		telemetry.Business.Signups.WithLabelValues("password").Inc()
	}
	return s.issue(ctx, op, user)
}

func (s *userService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	const op = "user.login"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !domain.IsCode(err, domain.ENOTFOUND) {
		return nil, domain.WithOp(err, op)
	}

	if googleID := strings.TrimSpace(input.GoogleID); googleID != "" {
		return s.loginWithGoogle(ctx, op, user, email, googleID, input.Name)
	}

	if user == nil {
		recordLoginFailure("unknown_user")
		return nil, domain.WithOp(ErrInvalidCredentials, op)
	}
	if !user.HasPassword() {
		recordLoginFailure("external_account")
		return nil, domain.WithOp(ErrExternalAccount, op)
	}
	if err := s.hasher.Verify(input.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			recordLoginFailure("bad_password")
			return nil, domain.WithOp(ErrInvalidCredentials, op)
		}
		return nil, domain.Internal(err, op, "failed to verify password")
	}

	if err := s.touchLogin(ctx, user); err != nil {
		return nil, domain.WithOp(err, op)
	}
	if telemetry.Business != nil {
		telemetry.Business.Logins.WithLabelValues("password").Inc()
	}
	return s.issue(ctx, op, user)
}

func (s *userService) loginWithGoogle(ctx context.Context, op string, user *domain.User, email, googleID, name string) (*AuthResult, error) {
	if user == nil {
		now := time.Now().UTC()
		user = &domain.User{
			Email:        email,
			GoogleID:     googleID,
			Name:         strings.TrimSpace(name),
			Preferences:  domain.DefaultPreferences(),
			Wishlist:     []domain.WishlistItem{},
			OrderHistory: []string{},
			CreatedAt:    now,
			LastLogin:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if domain.IsCode(err, domain.ECONFLICT) {
				return nil, domain.WithOp(ErrEmailTaken, op)
			}
			return nil, domain.WithOp(err, op)
		}

		s.logger.InfoContext(ctx, "user signed up with google", "user_id", user.ID)
		if telemetry.Business != nil {
			telemetry.Business.Signups.WithLabelValues("google").Inc()
		}
		return s.issue(ctx, op, user)
	}

	if user.GoogleID != "" && user.GoogleID != googleID {
		recordLoginFailure("google_mismatch")
		return nil, domain.WithOp(ErrGoogleIDMismatch, op)
	}
	user.GoogleID = googleID

	if err := s.touchLogin(ctx, user); err != nil {
		return nil, domain.WithOp(err, op)
	}
	if telemetry.Business != nil {
		telemetry.Business.Logins.WithLabelValues("google").Inc()
	}
	return s.issue(ctx, op, user)
}

func (s *userService) touchLogin(ctx context.Context, user *domain.User) error {
	user.LastLogin = time.Now().UTC()
	return s.users.Update(ctx, user)
}

func (s *userService) issue(ctx context.Context, op string, user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func recordLoginFailure(reason string) {
	if telemetry.Business != nil {
		telemetry.Business.LoginFailed.WithLabelValues(reason).Inc()
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrUserNotFound, "user.get_profile")
		}
		return nil, domain.WithOp(err, "user.get_profile")
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	const op = "user.update_profile"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	if v := strings.TrimSpace(input.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(input.Phone); v != "" {
		user.Phone = v
	}
	if v := strings.TrimSpace(input.Address); v != "" {
		user.Address = v
	}
	if input.Preferences != nil {
		user.Preferences = *input.Preferences
	}
	if input.ProfileImage != "" {
		image := input.ProfileImage
		if storage.IsDataURL(image) {
			url, err := storage.PutDataURL(ctx, s.storage, "profiles/"+user.ID, image)
			if err != nil {
				if domain.ErrorCode(err) == domain.EINTERNAL {
					return nil, domain.Unavailable(err, op, "failed to store profile image")
				}
				return nil, domain.WithOp(err, op)
			}
			image = url
		}
		user.ProfileImage = image
	}

	now := time.Now().UTC()
	user.LastUpdated = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, domain.WithOp(err, op)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	const op = "user.change_password"

	if err := validation.Struct(op, input); err != nil {
		return err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.WithOp(err, op)
	}
	if !user.HasPassword() {
		return domain.WithOp(ErrPasswordChangeDenied, op)
	}

	if err := s.hasher.Verify(input.CurrentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return domain.WithOp(ErrWrongPassword, op)
		}
		return domain.Internal(err, op, "failed to verify password")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return domain.Internal(err, op, "failed to hash password")
	}

	now := time.Now().UTC()
	user.PasswordHash = hash
	user.LastUpdated = &now
	if err := s.users.Update(ctx, user); err != nil {
		return domain.WithOp(err, op)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	const op = "user.delete_account"

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.WithOp(err, op)
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return domain.WithOp(ErrUserNotFound, op)
		}
		return domain.WithOp(err, op)
	}

	if err := s.carts.Delete(ctx, domain.NormalizeEmail(user.Email)); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart of deleted account",
			"user_id", user.ID,
			"error", err,
		)
	} else if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues("account_deleted").Inc()
	}

	s.logger.InfoContext(ctx, "account deleted", "user_id", user.ID)
	if telemetry.Business != nil {
		telemetry.Business.AccountsDeleted.WithLabelValues().Inc()
	}
	return nil
}

func (s *userService) ExportData(ctx context.Context, userID string) (*AccountExport, error) {
	const op = "user.export"

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}
	orders, err := s.orders.ListForUser(ctx, user.ID, user.Email)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return &AccountExport{
		Profile:    user,
		Orders:     orders,
		ExportDate: time.Now().UTC(),
		ExportedBy: user.ID,
	}, nil
}
