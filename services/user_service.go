package services

import (
	"context"
	"errors"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
)

// UserService — административное управление учётными записями.
// Реактивация (blocked -> approved) применима только к учётным записям,
// никогда — к отклонённым кандидатурам: те терминальны.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeUnavailable(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter repositories.ListUsersFilter) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// SetStatus меняет статус учётной записи (approve/reject/block/reactivate).
func (s *UserService) SetStatus(ctx context.Context, userID int, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, ErrValidationFailed
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeUnavailable(err)
	}

	return s.GetByID(ctx, userID)
}
