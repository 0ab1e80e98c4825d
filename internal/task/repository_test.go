package task

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"TaskManager/internal/storage"
)

func newSQLiteRepository(t *testing.T) *SQLRepository {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "task_manager_test.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	repo := NewSQLRepository(store)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"memory": NewMemoryRepository(),
		"sqlite": newSQLiteRepository(t),
	}
}

func TestRepositoryCreateThenList(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := repo.Create(ctx, "Laundry", "wash and fold")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			second, err := repo.Create(ctx, "Groceries", "milk")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if first.ID == 0 || second.ID == 0 || first.ID == second.ID {
				t.Fatalf("expected fresh unique ids, got %d and %d", first.ID, second.ID)
			}

			list, err := repo.FindAll(ctx)
			if err != nil {
				t.Fatalf("find all: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("expected 2 tasks, got %d", len(list))
			}
			seen := 0
			for _, task := range list {
				if task.ID == second.ID {
					seen++
				}
			}
			if seen != 1 {
				t.Fatalf("new task should be listed exactly once, seen %d times", seen)
			}
			if list[0].ID != first.ID || list[1].ID != second.ID {
				t.Fatalf("expected ascending id order: %+v", list)
			}
		})
	}
}

func TestRepositoryFindByIDReturnsStoredValues(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, "X", "Y")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			got, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if got.Title != "X" || got.Description != "Y" || got.ID != created.ID {
				t.Fatalf("unexpected task: %+v", got)
			}

			got.Title = "mutated"
			again, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if again.Title != "X" {
				t.Fatalf("returned tasks must be independent copies")
			}
		})
	}
}

func TestRepositoryUpdate(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, "old", "old description")
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			updated, err := repo.Update(ctx, created.ID, "new", "new description")
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if updated.ID != created.ID || updated.Title != "new" || updated.Description != "new description" {
				t.Fatalf("unexpected update result: %+v", updated)
			}

			got, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if got.ID != created.ID || got.Title != "new" || got.Description != "new description" {
				t.Fatalf("update not persisted: %+v", got)
			}

			// 写入相同的值依然返回任务。
			if _, err := repo.Update(ctx, created.ID, "new", "new description"); err != nil {
				t.Fatalf("idempotent update: %v", err)
			}

			if _, err := repo.Update(ctx, created.ID+100, "a", "b"); !IsNotFound(err) {
				t.Fatalf("expected not found for missing id, got %v", err)
			}
		})
	}
}

func TestRepositoryDelete(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, "temporary", "")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := repo.Delete(ctx, created.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := repo.FindByID(ctx, created.ID); !IsNotFound(err) {
				t.Fatalf("expected not found after delete, got %v", err)
			}
			if err := repo.Delete(ctx, created.ID); err != nil {
				t.Fatalf("deleting a missing task should not fail: %v", err)
			}
			if err := repo.Delete(ctx, 424242); err != nil {
				t.Fatalf("deleting an unknown id should not fail: %v", err)
			}
		})
	}
}

func TestRepositoryRejectsOversizedFields(t *testing.T) {
	long := strings.Repeat("a", MaxFieldLength+1)
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := repo.Create(ctx, long, ""); !IsValidation(err) {
				t.Fatalf("expected validation error for long title, got %v", err)
			}
			if _, err := repo.Create(ctx, "ok", long); !IsValidation(err) {
				t.Fatalf("expected validation error for long description, got %v", err)
			}
			exact := strings.Repeat("é", MaxFieldLength)
			if _, err := repo.Create(ctx, exact, exact); err != nil {
				t.Fatalf("64 characters should be accepted: %v", err)
			}
		})
	}
}
