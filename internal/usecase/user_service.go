package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
)

// Principal is the caller resolved from a bearer token.
type Principal struct {
	UserID string
	Email  string
	Name   string
}

type UserService struct {
	userRepo user.Repository
	now      func() time.Time
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

// EnsureUser records the principal on first sight and returns the stored user.
func (s *UserService) EnsureUser(ctx context.Context, principal Principal) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.EnsureUser")
	defer span.End()

	userID := strings.TrimSpace(principal.UserID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: principal has no subject", ErrUnauthorized)
	}

	now := s.now().UTC()
	if err := s.userRepo.Upsert(ctx, user.User{
		ID:          userID,
		Email:       strings.ToLower(strings.TrimSpace(principal.Email)),
		DisplayName: strings.TrimSpace(principal.Name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return user.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (user.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	item, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return item, nil
}

func (s *UserService) UpdateDisplayName(ctx context.Context, userID, displayName string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.UpdateDisplayName")
	defer span.End()

	displayName = strings.Join(strings.Fields(displayName), " ")
	if err := user.ValidateDisplayName(displayName); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.userRepo.UpdateDisplayName(ctx, strings.TrimSpace(userID), displayName, s.now().UTC())
	if err != nil {
		return user.User{}, fmt.Errorf("update display name: %w", err)
	}
	if !updated {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return s.GetProfile(ctx, userID)
}
