package user

import (
	"context"
	defError "errors"
	"time"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenLifetime = time.Hour

// EmailSender delivers password-reset mail.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PersonalFolderEnsurer lazily creates the user's folder under the system
// Users folder. Implemented by the folder service.
type PersonalFolderEnsurer interface {
	// EnsurePersonalFolder reports whether it created a folder.
	EnsurePersonalFolder(ctx context.Context, ownerID uuid.UUID, username string) (bool, error)
}

// UpdateProfileRequest carries mutable profile fields.
type UpdateProfileRequest struct {
	FirstName  string
	LastName   string
	Department *string
}

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *User) error
	Login(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
	ListUsers(ctx context.Context) ([]SafeUser, error)
	SetRole(ctx context.Context, id uuid.UUID, role permission.Role) error
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	BackfillPersonalFolders(ctx context.Context) (int, error)
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
	mailer     EmailSender
	folders    PersonalFolderEnsurer
	frontend   string
}

// NewService creates a new user service. folders may be nil when personal
// folders are not managed (tests).
func NewService(repository UserRepository, mailer EmailSender, folders PersonalFolderEnsurer, frontendAddress string) Service {
	return &DefaultService{
		repository: repository,
		mailer:     mailer,
		folders:    folders,
		frontend:   frontendAddress,
	}
}

// Register registers a new user with the default role.
func (s *DefaultService) Register(ctx context.Context, user *User) error {
	// Check if user with username or email already exists
	if _, err := s.repository.FindByUsername(ctx, user.Username); err == nil {
		return errors.Conflict("Username already taken", nil)
	} else if !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.repository.FindByEmail(ctx, user.Email); err == nil {
		return errors.Conflict("Email already registered", nil)
	} else if !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true
	if !user.Role.Valid() {
		user.Role = permission.RoleUser
	}

	return s.repository.Create(ctx, user)
}

// Login authenticates a user, updates the last-login stamp and makes sure
// the personal folder exists.
func (s *DefaultService) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repository.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Unauthorized("Invalid username or password", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid username or password", err)
	}

	now := time.Now().UTC()
	if err := s.repository.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	if s.folders != nil {
		if _, err := s.folders.EnsurePersonalFolder(ctx, user.ID, user.Username); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *DefaultService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("User not found", err)
	}
	return user, err
}

func (s *DefaultService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.BadRequest("Invalid current password", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashed)

	return s.repository.Update(ctx, user)
}

func (s *DefaultService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Department = req.Department

	if err := s.repository.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DefaultService) ListUsers(ctx context.Context) ([]SafeUser, error) {
	users, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}

	safe := make([]SafeUser, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.ToSafeUser())
	}
	return safe, nil
}

func (s *DefaultService) SetRole(ctx context.Context, id uuid.UUID, role permission.Role) error {
	if !role.Valid() {
		return errors.BadRequest("Unknown role", nil)
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	user.Role = role
	return s.repository.Update(ctx, user)
}

// DeactivateUser disables login; the account and its resources stay.
func (s *DefaultService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	user.IsActive = false
	return s.repository.Update(ctx, user)
}

// RequestPasswordReset mails a reset link. An unknown email is reported as
// success so the endpoint can't be used to enumerate accounts.
func (s *DefaultService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token := &PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(resetTokenLifetime),
	}
	if err := s.repository.CreateResetToken(ctx, token); err != nil {
		return err
	}

	body := "Reset your password: " + s.frontend + "/reset-password?token=" + token.Token
	return s.mailer.Send(ctx, user.Email, "Password reset", body)
}

func (s *DefaultService) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := s.repository.FindResetToken(ctx, token)
	if err != nil {
		return errors.BadRequest("Invalid or expired token", err)
	}
	if t.Used || time.Now().UTC().After(t.ExpiresAt) {
		return errors.BadRequest("Invalid or expired token", nil)
	}

	user, err := s.GetUserByID(ctx, t.UserID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashed)

	if err := s.repository.Update(ctx, user); err != nil {
		return err
	}
	return s.repository.MarkResetTokenUsed(ctx, t.ID)
}

// BackfillPersonalFolders creates missing personal folders for every active
// user and returns how many were created. Exposed on the admin surface for
// deployments that predate lazy personal folders.
func (s *DefaultService) BackfillPersonalFolders(ctx context.Context) (int, error) {
	if s.folders == nil {
		return 0, nil
	}

	users, err := s.repository.List(ctx)
	if err != nil {
		return 0, errors.Internal(err)
	}

	created := 0
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		didCreate, err := s.folders.EnsurePersonalFolder(ctx, u.ID, u.Username)
		if err != nil {
			return created, errors.Internal(err)
		}
		if didCreate {
			created++
		}
	}
	return created, nil
}
