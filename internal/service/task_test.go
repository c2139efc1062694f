package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/repository/sqlite"
	"github.com/devrayanco/task-manager-api/internal/service"
)

// fakeCache is an in-memory versioned TaskListCache that counts
// invalidations per owner.
type fakeCache struct {
	mu          sync.Mutex
	versions    map[int64]int64
	lists       map[[2]int64][]domain.Task
	invalidated map[int64]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		versions:    map[int64]int64{},
		lists:       map[[2]int64][]domain.Task{},
		invalidated: map[int64]int{},
	}
}

func (c *fakeCache) Version(_ context.Context, ownerID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[ownerID], nil
}

func (c *fakeCache) GetList(_ context.Context, ownerID, version int64) ([]domain.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks, ok := c.lists[[2]int64{ownerID, version}]
	return tasks, ok, nil
}

func (c *fakeCache) SetList(_ context.Context, ownerID, version int64, tasks []domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[[2]int64{ownerID, version}] = tasks
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[ownerID]++
	c.invalidated[ownerID]++
	return nil
}

// cached reports whether the owner has a listing at the current version.
func (c *fakeCache) cached(ownerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lists[[2]int64{ownerID, c.versions[ownerID]}]
	return ok
}

func seedOwner(t *testing.T, db *sqlite.DB, email string) int64 {
	t.Helper()
	user := &domain.User{Username: email, Email: email, PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user.ID
}

func TestTaskService_CreateDefaultsToToDo(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	owner := seedOwner(t, db, "a@x.com")

	task, err := svc.Create(ctx, owner, "  write report ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == 0 || task.UserID != owner {
		t.Fatalf("unexpected task identity: %+v", task)
	}
	if task.Title != "write report" || task.Status != domain.TaskStatusToDo {
		t.Fatalf("expected ToDo task titled %q, got %+v", "write report", task)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	if _, err := svc.Create(ctx, owner, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}
}

func TestTaskService_OwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	alice := seedOwner(t, db, "alice@x.com")
	bob := seedOwner(t, db, "bob@x.com")

	task, err := svc.Create(ctx, alice, "alice's task")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, bob, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get by non-owner: expected ErrNotFound, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, bob, task.ID, "Done"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateStatus by non-owner: expected ErrNotFound, got %v", err)
	}
	if err := svc.UpdateTitle(ctx, bob, task.ID, "hijacked"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateTitle by non-owner: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, bob, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete by non-owner: expected ErrNotFound, got %v", err)
	}

	bobs, err := svc.List(ctx, bob)
	if err != nil {
		t.Fatalf("List bob: %v", err)
	}
	if bobs == nil || len(bobs) != 0 {
		t.Fatalf("expected empty non-nil list for bob, got %#v", bobs)
	}

	got, err := svc.Get(ctx, alice, task.ID)
	if err != nil {
		t.Fatalf("Get by owner: %v", err)
	}
	if got.Title != "alice's task" || got.Status != domain.TaskStatusToDo {
		t.Fatalf("task was modified by non-owner: %+v", got)
	}
}

func TestTaskService_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	owner := seedOwner(t, db, "a@x.com")

	task, err := svc.Create(ctx, owner, "write report")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdateStatus(ctx, owner, task.ID, "done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := svc.Get(ctx, owner, task.ID)
	if got.Status != domain.TaskStatusDone {
		t.Fatalf("expected Done, got %v", got.Status)
	}

	// Done back to ToDo is allowed.
	if err := svc.UpdateStatus(ctx, owner, task.ID, "TODO"); err != nil {
		t.Fatalf("UpdateStatus back to ToDo: %v", err)
	}

	if err := svc.UpdateStatus(ctx, owner, task.ID, "archived"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, _ = svc.Get(ctx, owner, task.ID)
	if got.Status != domain.TaskStatusToDo {
		t.Fatalf("rejected status must not change the task, got %v", got.Status)
	}

	if err := svc.UpdateStatus(ctx, owner, 9999, "Done"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing task, got %v", err)
	}
}

func TestTaskService_UpdateTitle(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	owner := seedOwner(t, db, "a@x.com")

	task, err := svc.Create(ctx, owner, "draft")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdateTitle(ctx, owner, task.ID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdateTitle(ctx, owner, task.ID, "final"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	got, _ := svc.Get(ctx, owner, task.ID)
	if got.Title != "final" {
		t.Fatalf("expected title %q, got %q", "final", got.Title)
	}
}

func TestTaskService_ListOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	owner := seedOwner(t, db, "a@x.com")

	titles := []string{"first", "second", "third", "fourth"}
	ids := make(map[string]int64)
	for _, title := range titles {
		task, err := svc.Create(ctx, owner, title)
		if err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
		ids[title] = task.ID
		time.Sleep(2 * time.Millisecond)
	}
	if err := svc.UpdateStatus(ctx, owner, ids["first"], "Done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := svc.UpdateStatus(ctx, owner, ids["second"], "InProgress"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	tasks, err := svc.List(ctx, owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"fourth", "third", "second", "first"}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, tasks[i].Title)
		}
	}
}

func TestTaskService_CacheInvalidatedPerOwner(t *testing.T) {
	db := newTestDB(t)
	cache := newFakeCache()
	svc := service.NewTaskService(db.Tasks(), cache)
	ctx := context.Background()
	alice := seedOwner(t, db, "alice@x.com")
	bob := seedOwner(t, db, "bob@x.com")

	if _, err := svc.Create(ctx, bob, "bob's task"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.List(ctx, bob); err != nil {
		t.Fatalf("List bob: %v", err)
	}

	task, err := svc.Create(ctx, alice, "alice's task")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cache.invalidated[alice] != 1 {
		t.Fatalf("expected alice's listing invalidated once, got %d", cache.invalidated[alice])
	}
	if !cache.cached(bob) {
		t.Fatal("creating alice's task must not evict bob's listing")
	}

	list, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List alice: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 task for alice, got %d", len(list))
	}
	if !cache.cached(alice) {
		t.Fatal("expected alice's listing to be cached")
	}

	if err := svc.UpdateStatus(ctx, alice, task.ID, "Done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	list, err = svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List alice: %v", err)
	}
	if list[0].Status != domain.TaskStatusDone {
		t.Fatalf("expected fresh listing after update, got %v", list[0].Status)
	}

	if err := svc.Delete(ctx, alice, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err = svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List alice: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty listing after delete, got %d", len(list))
	}
	if cache.invalidated[bob] != 1 {
		t.Fatalf("expected bob's listing invalidated only by his own create, got %d", cache.invalidated[bob])
	}
}

func TestTaskService_Delete(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewTaskService(db.Tasks(), nil)
	ctx := context.Background()
	owner := seedOwner(t, db, "a@x.com")

	task, err := svc.Create(ctx, owner, "temp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, owner, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, owner, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, owner, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
