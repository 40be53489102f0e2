package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	usermock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/user"
)

func TestUserService_EnsureUser_UpsertsPrincipalUsingMockery(t *testing.T) {
	t.Parallel()

	repo := usermock.NewRepository(t)
	svc := NewUserService(repo)
	svc.now = fixedNow

	repo.
		On("Upsert", anyCtx(), mock.MatchedBy(func(u user.User) bool {
			return u.ID == "sub-1" && u.Email == "ana@example.pt" && u.CreatedAt.Equal(testNow)
		})).
		Return(nil).
		Once()
	repo.On("GetByID", anyCtx(), "sub-1").Return(user.User{ID: "sub-1", Email: "ana@example.pt", DisplayName: "Ana"}, true, nil).Once()

	got, err := svc.EnsureUser(context.Background(), Principal{UserID: "sub-1", Email: " Ana@Example.pt "})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if got.DisplayName != "Ana" {
		t.Fatalf("stored display name must win: %+v", got)
	}
}

func TestUserService_EnsureUser_RequiresSubject(t *testing.T) {
	t.Parallel()

	svc := NewUserService(usermock.NewRepository(t))
	if _, err := svc.EnsureUser(context.Background(), Principal{Email: "x@example.pt"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUserService_UpdateDisplayName_CollapsesSpacesUsingMockery(t *testing.T) {
	t.Parallel()

	repo := usermock.NewRepository(t)
	svc := NewUserService(repo)
	svc.now = fixedNow

	repo.On("UpdateDisplayName", anyCtx(), "sub-1", "Ana Sousa", testNow).Return(true, nil).Once()
	repo.On("GetByID", anyCtx(), "sub-1").Return(user.User{ID: "sub-1", DisplayName: "Ana Sousa"}, true, nil).Once()

	got, err := svc.UpdateDisplayName(context.Background(), "sub-1", "  Ana   Sousa ")
	if err != nil {
		t.Fatalf("update display name: %v", err)
	}
	if got.DisplayName != "Ana Sousa" {
		t.Fatalf("unexpected display name: %q", got.DisplayName)
	}

	if _, err := svc.UpdateDisplayName(context.Background(), "sub-1", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
