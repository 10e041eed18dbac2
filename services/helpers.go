package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
)

// storeUnavailable оборачивает непредвиденную ошибку хранилища.
// Известные ошибки предметной области должны быть отфильтрованы до вызова.
func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// invalidState дополняет ErrInvalidState текущей фазой, чтобы клиент
// мог принять решение без дополнительного запроса.
func invalidState(current models.ElectionPhase) error {
	return fmt.Errorf("%w (current phase: %s)", ErrInvalidState, current)
}

// callerIsApproved — чистый предикат, переиспользуемый всеми сервисами.
func callerIsApproved(user *models.User, role models.UserRole) bool {
	return user != nil && user.Role == role && user.Status == models.UserStatusApproved
}

// resolveCaller перечитывает вызывающего из хранилища. Роль и статус
// в JWT отстают от БД: токен живёт сутки, а блокировка должна
// действовать сразу. Операции записи гейтятся по текущей записи,
// не по claims.
func resolveCaller(ctx context.Context, userRepo repositories.UserRepository, caller *models.User) (*models.User, error) {
	if caller == nil {
		return nil, ErrNotAuthorized
	}
	user, err := userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, storeUnavailable(err)
	}
	return user, nil
}
