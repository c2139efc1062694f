package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/service"
)

func TestUserService_ListAndGet(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewUserService(db.Users())
	ctx := context.Background()

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}

	id := seedOwner(t, db, "a@x.com")
	got, err := svc.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := svc.GetByID(ctx, id+100); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_RemoveCascadesTasks(t *testing.T) {
	db := newTestDB(t)
	users := service.NewUserService(db.Users())
	tasks := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()

	gone := seedOwner(t, db, "gone@x.com")
	kept := seedOwner(t, db, "kept@x.com")
	for _, owner := range []int64{gone, gone, kept} {
		if _, err := tasks.Create(ctx, owner, "task"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := users.Remove(ctx, gone); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	list, err := tasks.List(ctx, gone)
	if err != nil {
		t.Fatalf("List removed owner: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected removed user's tasks to be gone, got %d", len(list))
	}
	list, err = tasks.List(ctx, kept)
	if err != nil {
		t.Fatalf("List kept owner: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected kept user's task to remain, got %d", len(list))
	}

	if err := users.Remove(ctx, gone); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing twice, got %v", err)
	}
}
