package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

// AdminUserInput carries the fields an admin sets when creating an account.
type AdminUserInput struct {
	Email    string
	Username string
	Password string
	FullName string
	IsActive bool
	IsAdmin  bool
}

// AdminUserUpdate carries partial updates to an account. Nil fields are
// left untouched.
type AdminUserUpdate struct {
	Email    *string
	Username *string
	Password *string
	FullName *string
	IsActive *bool
	IsAdmin  *bool
}

// AdminService manages user accounts on behalf of administrators.
type AdminService interface {
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error)
	CreateUser(ctx context.Context, input AdminUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, update AdminUserUpdate) (*domain.User, error)
	// DeleteUser removes the account together with all workouts and
	// templates it owns.
	DeleteUser(ctx context.Context, userID primitive.ObjectID) error
}

type adminService struct {
	userRepo repository.UserRepository
}

// NewAdminService creates a new admin service.
func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	return s.userRepo.List(ctx, normalizeSkip(skip), normalizeLimit(limit))
}

func (s *adminService) CreateUser(ctx context.Context, input AdminUserInput) (*domain.User, error) {
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return nil, errors.New("email, username and password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		IsActive:     input.IsActive,
		IsAdmin:      input.IsAdmin,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, userID primitive.ObjectID, update AdminUserUpdate) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Password != nil && *update.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrHashingFailed
		}
		user.PasswordHash = string(hashedPassword)
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
