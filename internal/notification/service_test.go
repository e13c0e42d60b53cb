package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/MumuCarrot/vote-BE/internal/repository"
)

type fakeStore struct {
	rows []repository.Notification
}

func (f *fakeStore) match(cond repository.Condition, n repository.Notification) bool {
	expr, args := cond.SQL()
	switch expr {
	case "TRUE":
		return true
	case "id = ?":
		return n.ID == args[0].(string)
	case "user_id = ?":
		return n.UserID == args[0].(string)
	case "(id = ?) AND (user_id = ?)":
		return n.ID == args[0].(string) && n.UserID == args[1].(string)
	}
	return false
}

func (f *fakeStore) Create(ctx context.Context, n *repository.Notification, exists repository.Condition) (*repository.Notification, error) {
	f.rows = append(f.rows, *n)
	return n, nil
}

func (f *fakeStore) ReadOne(ctx context.Context, cond repository.Condition) (*repository.Notification, error) {
	for i := range f.rows {
		if f.match(cond, f.rows[i]) {
			out := f.rows[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.Notification, error) {
	var out []repository.Notification
	for _, n := range f.rows {
		if f.match(cond, n) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (f *fakeStore) UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.Notification, error) {
	for i := range f.rows {
		if !f.match(cond, f.rows[i]) {
			continue
		}
		if v, ok := patch["is_read"]; ok {
			f.rows[i].IsRead = v.(bool)
		}
		out := f.rows[i]
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func TestNotifyCreatesUnread(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)

	n, err := svc.Notify(context.Background(), "user-1", "Election opened")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if n.IsRead {
		t.Error("new notification created as read")
	}
	if n.UserID != "user-1" || n.Message != "Election opened" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestMarkRead(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)
	ctx := context.Background()

	n, err := svc.Notify(ctx, "user-1", "Election opened")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	read, err := svc.MarkRead(ctx, n.ID, "user-1")
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !read.IsRead {
		t.Error("notification not flagged read")
	}
}

func TestMarkReadForeignNotification(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)
	ctx := context.Background()

	n, err := svc.Notify(ctx, "user-1", "Election opened")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	// Another user's notification is indistinguishable from a missing one
	_, err = svc.MarkRead(ctx, n.ID, "intruder")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if store.rows[0].IsRead {
		t.Error("foreign notification was still marked read")
	}
}

func TestListForUserScopesToOwner(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Notify(ctx, "user-1", "first"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if _, err := svc.Notify(ctx, "user-2", "second"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	list, err := svc.ListForUser(ctx, "user-1", 1, 10)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 1 || list[0].Message != "first" {
		t.Errorf("list = %+v, want only user-1's notification", list)
	}

	empty, err := svc.ListForUser(ctx, "user-3", 1, 10)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("list = %v, want empty non-nil slice", empty)
	}
}
