package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// RegisterUserInput is the data required to create an account
type RegisterUserInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// UserService manages accounts and credentials
type UserService interface {
	// CreateUser registers a new account with the "user" role
	CreateUser(ctx context.Context, input RegisterUserInput) (*models.User, error)
	// GetUserByEmail looks up an account by its login email
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID looks up an account by id
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	// ListUsers returns one page of users ordered by username
	ListUsers(ctx context.Context, page PageRequest) ([]models.User, int64, error)
	// Authenticate checks an email/password pair
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	// ChangePassword replaces the password after checking the current one
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	// EnsureAdmin creates or promotes the account with the given email to admin
	EnsureAdmin(ctx context.Context, email, password string) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

// NewUserService creates a new instance of UserService
func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) CreateUser(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	verr := &ValidationError{}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := db.Model(&models.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      models.RoleUser,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("email", "A user with that email or username already exists.")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userService) ListUsers(ctx context.Context, page PageRequest) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("username ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return NewValidationError("current_password", "Invalid password.")
	}
	if current == next {
		return NewValidationError("new_password", "The new password must differ from the current one.")
	}
	if err := user.SetPassword(next); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password_hash", user.PasswordHash).Error
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		username := strings.SplitN(email, "@", 2)[0]
		user = &models.User{
			Email:    strings.ToLower(email),
			Username: username,
			Role:     models.RoleAdmin,
		}
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, err
		}
		log.WithField("email", user.Email).Info("Admin account created")
		return user, nil
	case err != nil:
		return nil, err
	}

	if user.Role != models.RoleAdmin {
		if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
		log.WithField("email", user.Email).Info("Account promoted to admin")
	}
	return user, nil
}
