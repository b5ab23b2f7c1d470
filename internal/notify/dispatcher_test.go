package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
)

type fakeNotificationStore struct {
	mu         sync.Mutex
	nextID     model.ID
	rows       []model.Notification
	failInsert bool
}

func (s *fakeNotificationStore) Insert(_ context.Context, dto database.InsertNotificationDTO) (model.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInsert {
		return 0, errors.New("store down")
	}

	s.nextID++
	s.rows = append(s.rows, model.Notification{
		ID:        s.nextID,
		CreatedAt: time.Now(),
		User:      dto.User,
		Type:      dto.Type,
		Message:   dto.Message,
		Data:      dto.Data,
	})
	return s.nextID, nil
}

func (s *fakeNotificationStore) Get(_ context.Context, id model.ID) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return model.Notification{}, model.NewError("notification", model.ErrNotFound)
}

func (s *fakeNotificationStore) FindByUser(_ context.Context, user model.ID, opts database.FindOptions) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]model.Notification, 0)
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].User != user {
			continue
		}
		found = append(found, s.rows[i])
		if opts.Limit > 0 && len(found) == opts.Limit {
			break
		}
	}
	return found, nil
}

func (s *fakeNotificationStore) MarkAllRead(_ context.Context, user model.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var marked int64
	for i := range s.rows {
		if s.rows[i].User == user && !s.rows[i].IsRead {
			s.rows[i].IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (s *fakeNotificationStore) rowsFor(user model.ID) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]model.Notification, 0)
	for _, row := range s.rows {
		if row.User == user {
			found = append(found, row)
		}
	}
	return found
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchPersistsAndPushes(t *testing.T) {
	store := &fakeNotificationStore{}
	registry := NewRegistry()
	d := NewDispatcher(testLogger(), store, registry)

	connected := &fakeChannel{}
	second := &fakeChannel{}
	registry.Register(connected, 2)
	registry.Register(second, 2)

	notification, err := d.Dispatch(context.Background(), 2, "info", "hello", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if notification.ID == 0 || notification.User != 2 || notification.IsRead {
		t.Errorf("unexpected notification %+v", notification)
	}

	// Every open channel of the recipient gets the payload once.
	for i, ch := range []*fakeChannel{connected, second} {
		if got := ch.count(); got != 1 {
			t.Errorf("channel %d received %d messages, want 1", i, got)
		}
	}

	payload := string(connected.messages[0])
	if !strings.Contains(payload, `"event": "notification"`) && !strings.Contains(payload, `"event":"notification"`) {
		t.Errorf("payload missing event tag: %s", payload)
	}
}

func TestDispatchWithoutChannelsStillPersists(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(testLogger(), store, NewRegistry())

	if _, err := d.Dispatch(context.Background(), 4, "info", "offline", nil); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := len(store.rowsFor(4)); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
}

func TestDispatchSwallowsPushFailure(t *testing.T) {
	store := &fakeNotificationStore{}
	registry := NewRegistry()
	d := NewDispatcher(testLogger(), store, registry)

	registry.Register(&fakeChannel{fail: true}, 2)

	if _, err := d.Dispatch(context.Background(), 2, "info", "hello", nil); err != nil {
		t.Fatalf("push failure escalated: %v", err)
	}
	if got := len(store.rowsFor(2)); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
}

func TestDispatchChangeAssignment(t *testing.T) {
	// Task reassigned from user 2 to user 5 by actor 3: exactly one
	// notification, for the new assignee.
	store := &fakeNotificationStore{}
	d := NewDispatcher(testLogger(), store, NewRegistry())

	actor := model.User{ID: 3, Name: "Carol"}
	oldTask := baseTask()
	newTask := baseTask()
	newTask.AssignedTo = idPtr(5)

	change := DetectTaskChange(oldTask, newTask, actor)
	if change == nil {
		t.Fatal("expected a change")
	}

	recipients := Resolve(*change, EntityContext{
		PrevAssignee: oldTask.AssignedTo,
		PrevCreator:  idPtr(oldTask.CreatedBy),
		NewAssignee:  newTask.AssignedTo,
	})
	d.DispatchChange(context.Background(), *change, recipients)

	rows := store.rowsFor(5)
	if len(rows) != 1 {
		t.Fatalf("new assignee rows = %d, want 1", len(rows))
	}
	if !strings.Contains(rows[0].Message, "assigned you to") {
		t.Errorf("unexpected message %q", rows[0].Message)
	}

	for _, bystander := range []model.ID{2, 3} {
		if got := len(store.rowsFor(bystander)); got != 0 {
			t.Errorf("user %d rows = %d, want 0", bystander, got)
		}
	}
}

func TestDispatchChangeSelfMutationCreatesNothing(t *testing.T) {
	// Status change by the task's own assignee-creator resolves to nobody.
	store := &fakeNotificationStore{}
	d := NewDispatcher(testLogger(), store, NewRegistry())

	actor := model.User{ID: 2, Name: "Bob"}
	oldTask := baseTask()
	oldTask.CreatedBy = 2
	newTask := oldTask
	newTask.Status = "done"

	change := DetectTaskChange(oldTask, newTask, actor)
	if change == nil {
		t.Fatal("expected a change")
	}

	recipients := Resolve(*change, EntityContext{
		PrevAssignee: oldTask.AssignedTo,
		PrevCreator:  idPtr(oldTask.CreatedBy),
	})
	if len(recipients) != 0 {
		t.Fatalf("recipients = %v, want none", recipients)
	}

	d.DispatchChange(context.Background(), *change, recipients)

	if got := len(store.rows); got != 0 {
		t.Errorf("rows = %d, want 0", got)
	}
}

func TestDispatchChangeSkipsFailingRecipient(t *testing.T) {
	store := &fakeNotificationStore{failInsert: true}
	d := NewDispatcher(testLogger(), store, NewRegistry())

	// Must not panic or escalate; the mutation that triggered this already
	// succeeded.
	d.DispatchChange(context.Background(), Change{Kind: KindStatusChanged, Message: "x"}, []model.ID{1, 2})
}

func TestListForUserOrderAndCap(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(testLogger(), store, NewRegistry())
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if _, err := d.Dispatch(ctx, 1, "info", "msg", nil); err != nil {
			t.Fatal(err)
		}
	}

	notifications, err := d.ListForUser(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifications) != 50 {
		t.Errorf("default list length = %d, want 50", len(notifications))
	}
	if notifications[0].ID < notifications[1].ID {
		t.Errorf("list is not newest-first: %d before %d", notifications[0].ID, notifications[1].ID)
	}

	notifications, err = d.ListForUser(ctx, 1, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifications) != 50 {
		t.Errorf("oversized limit returned %d rows, want cap of 50", len(notifications))
	}
}

func TestMarkAllReadIdempotent(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(testLogger(), store, NewRegistry())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := d.Dispatch(ctx, 1, "info", "msg", nil); err != nil {
			t.Fatal(err)
		}
	}

	for call := 0; call < 2; call++ {
		if err := d.MarkAllRead(ctx, 1); err != nil {
			t.Fatalf("call %d: %v", call, err)
		}

		for _, row := range store.rowsFor(1) {
			if !row.IsRead {
				t.Errorf("call %d: row %d still unread", call, row.ID)
			}
		}
	}
}
