package service

import (
	"context"
	"fmt"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
	"strconv"
)

type UserResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DefaultUserService struct {
	Store *repository.Store
}

func NewUserService(store *repository.Store) *DefaultUserService {
	return &DefaultUserService{Store: store}
}

// EnsureUser mirrors an authenticated principal into the users table so that
// everything it creates has a row to reference.
func (u *DefaultUserService) EnsureUser(ctx context.Context, id int, username string, role entity.Role) apierror.ErrorResponse {
	if !role.Valid() {
		return apierror.InvalidAuthTokenError
	}

	if username == "" {
		username = fmt.Sprintf("user-%d", id)
	}

	now := utils.NowUTC()
	user := &entity.User{ID: id, Username: username, Role: role, CreatedAt: now, UpdatedAt: now}
	if err := u.Store.WithContext(ctx).Users().Ensure(user); err != nil {
		log.Errorf("failed to mirror user %d: %v", id, err)
		return apierror.StorageUnavailableError
	}
	return nil
}

// GetUser accepts a numeric id or "@me" for the caller.
func (u *DefaultUserService) GetUser(ctx context.Context, rawId string, callerID int) (*UserResponse, apierror.ErrorResponse) {
	userId := callerID
	if rawId != "@me" {
		var err error
		userId, err = strconv.Atoi(rawId)
		if err != nil {
			return nil, apierror.NewInvalidParamTypeError("id", "an integer")
		}
	}

	user, err := u.Store.WithContext(ctx).Users().FindByID(userId)
	if err != nil {
		log.Errorf("failed to find user (%d) by id: %v", userId, err)
		return nil, apierror.StorageUnavailableError
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}
	return toUserResponse(user), nil
}

func toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: utils.FormatEpoch(user.CreatedAt),
		UpdatedAt: utils.FormatEpoch(user.UpdatedAt),
	}
}
