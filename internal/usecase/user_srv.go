package usecase

import (
	"context"
	"fmt"

	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/dto/response"
	"github.com/dataweston/Dinewith/pkg/utils"

	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, actor utils.Actor) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, actor utils.Actor) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", actor.ID.String()))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
