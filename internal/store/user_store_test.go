package store

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/domain"
)

func TestMockUserStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMockUserStore()

	u := &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"}
	if err := s.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create must stamp CreatedAt")
	}

	byEmail, err := s.GetByEmail(ctx, "ana@example.com")
	if err != nil || byEmail.ID != "u1" {
		t.Fatalf("GetByEmail: %+v, %v", byEmail, err)
	}
	byID, err := s.GetByID(ctx, "u1")
	if err != nil || byID.Email != "ana@example.com" {
		t.Fatalf("GetByID: %+v, %v", byID, err)
	}

	dup := &domain.User{ID: "u2", Name: "Other", Email: "ana@example.com"}
	if err := s.Create(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate email: got %v, want conflict", err)
	}
	if _, err := s.GetByID(ctx, "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: got %v", err)
	}
}
