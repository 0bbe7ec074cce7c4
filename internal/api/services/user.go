package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"agrohire/internal/domain"
	r "agrohire/internal/redis"
	"agrohire/internal/repository"
	"agrohire/internal/util"
)

type UpdateProfileInput struct {
	Name         string
	PhoneNumber  string
	BusinessName string
	City         string
}

type UserService struct {
	userRepo  *repository.UserRepository
	userCache r.Cache[domain.User]
}

func NewUserService(userRepo *repository.UserRepository, rdb *goredis.Client) *UserService {
	return &UserService{
		userRepo:  userRepo,
		userCache: r.NewJSONCache[domain.User](rdb, "user", 10*time.Minute),
	}
}

func (s *UserService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userCache.Get(ctx, userID.String())
	if err != nil {
		fmt.Printf("redis get error %s\n", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.userRepo.FindByID(userID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	_ = s.userCache.Set(ctx, userID.String(), user)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	if input.PhoneNumber != "" {
		normalized := domain.NormalizeMSISDN(input.PhoneNumber)
		if normalized == "" {
			return nil, ErrInvalidInput
		}
		user.PhoneNumber = normalized
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.BusinessName != "" {
		user.BusinessName = input.BusinessName
	}
	if input.City != "" {
		user.City = input.City
	}

	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, err
	}

	_ = s.userCache.Delete(ctx, userID.String())
	return s.userRepo.FindByID(userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < 6 {
		return ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return repository.ErrUserNotFound
	}

	if err := util.CheckPassword(user.Password, current); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := util.HashPassword(next)
	if err != nil {
		return ErrInternalError
	}

	return s.userRepo.UpdatePassword(userID, hashed)
}

func (s *UserService) VerifyUser(ctx context.Context, adminID, userID uuid.UUID) error {
	admin, err := s.userRepo.FindByID(adminID)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	if err := s.userRepo.SetVerified(userID, true); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return repository.ErrUserNotFound
		}
		return err
	}

	_ = s.userCache.Delete(ctx, userID.String())
	return nil
}
