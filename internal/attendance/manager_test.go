package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
)

// fakeStore reproduces the store-side behavior the manager depends on: the
// partial unique index rejecting a second active session, and the
// conditional-update clock-out that computes duration and appends notes.
type fakeStore struct {
	mu       sync.Mutex
	nextID   model.ID
	sessions []model.AttendanceSession
}

func (s *fakeStore) Get(_ context.Context, id model.ID) (model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, nil
		}
	}
	return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
}

func (s *fakeStore) GetActive(_ context.Context, user model.ID) (model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.User == user && sess.Status == model.SessionActive {
			return sess, nil
		}
	}
	return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
}

func (s *fakeStore) Insert(_ context.Context, dto database.InsertSessionDTO) (model.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.User == dto.User && sess.Status == model.SessionActive {
			return 0, model.NewError("attendance session", model.ErrExists)
		}
	}

	s.nextID++
	s.sessions = append(s.sessions, model.AttendanceSession{
		ID:          s.nextID,
		CreatedAt:   dto.ClockIn,
		User:        dto.User,
		ClockInTime: dto.ClockIn,
		Status:      model.SessionActive,
		Notes:       dto.Notes,
	})
	return s.nextID, nil
}

func (s *fakeStore) Complete(_ context.Context, dto database.CompleteSessionDTO) (model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		sess := &s.sessions[i]
		if sess.User != dto.User || sess.Status != model.SessionActive {
			continue
		}

		sess.Status = model.SessionCompleted
		clockOut := dto.ClockOut
		sess.ClockOutTime = &clockOut

		minutes := int(math.Round(clockOut.Sub(sess.ClockInTime).Seconds() / 60))
		sess.WorkDurationMinutes = &minutes

		if dto.Notes != "" {
			if sess.Notes == nil || *sess.Notes == "" {
				notes := dto.Notes
				sess.Notes = &notes
			} else {
				joined := *sess.Notes + "\n" + dto.Notes
				sess.Notes = &joined
			}
		}

		return *sess, nil
	}

	return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
}

func (s *fakeStore) FindByUser(_ context.Context, user model.ID, opts database.FindOptions) ([]model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]model.AttendanceSession, 0)
	for _, sess := range s.sessions {
		if sess.User == user {
			found = append(found, sess)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ClockInTime.After(found[j].ClockInTime)
	})
	if opts.Limit > 0 && len(found) > opts.Limit {
		found = found[:opts.Limit]
	}
	return found, nil
}

func (s *fakeStore) FindBetween(_ context.Context, from, to time.Time) ([]model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]model.AttendanceSession, 0)
	for _, sess := range s.sessions {
		if !sess.ClockInTime.Before(from) && sess.ClockInTime.Before(to) {
			found = append(found, sess)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ClockInTime.After(found[j].ClockInTime)
	})
	return found, nil
}

func (s *fakeStore) activeCount(user model.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	for _, sess := range s.sessions {
		if sess.User == user && sess.Status == model.SessionActive {
			count++
		}
	}
	return count
}

func newTestManager(store Store) *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
}

func TestClockInThenStatus(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	session, err := m.ClockIn(ctx, 1, nil)
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if session.Status != model.SessionActive {
		t.Errorf("status = %q, want %q", session.Status, model.SessionActive)
	}
	if session.ClockOutTime != nil {
		t.Errorf("clockOutTime = %v, want nil", session.ClockOutTime)
	}
	if session.WorkDurationMinutes != nil {
		t.Errorf("workDurationMinutes = %v, want nil", session.WorkDurationMinutes)
	}

	active, err := m.Status(ctx, 1)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if active == nil {
		t.Fatal("Status() = nil, want the active session")
	}
	if active.ID != session.ID {
		t.Errorf("Status() id = %d, want %d", active.ID, session.ID)
	}
}

func TestStatusWithoutSession(t *testing.T) {
	m := newTestManager(&fakeStore{})

	session, err := m.Status(context.Background(), 1)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if session != nil {
		t.Errorf("Status() = %+v, want nil", session)
	}
}

func TestDoubleClockIn(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	if _, err := m.ClockIn(ctx, 1, nil); err != nil {
		t.Fatalf("first ClockIn() error = %v", err)
	}

	_, err := m.ClockIn(ctx, 1, nil)
	if !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("second ClockIn() error = %v, want ErrAlreadyClockedIn", err)
	}

	if got := store.activeCount(1); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}

	// Another user is unaffected.
	if _, err := m.ClockIn(ctx, 2, nil); err != nil {
		t.Errorf("ClockIn() for other user error = %v", err)
	}
}

func TestClockOutWithoutSession(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)

	_, err := m.ClockOut(context.Background(), 1, "")
	if !errors.Is(err, ErrNotClockedIn) {
		t.Fatalf("ClockOut() error = %v, want ErrNotClockedIn", err)
	}

	if got := len(store.sessions); got != 0 {
		t.Errorf("sessions = %d, want 0 (clock-out must not create rows)", got)
	}
}

func TestClockOutComputesDuration(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	clockIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clockIn }

	if _, err := m.ClockIn(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return clockIn.Add(90 * time.Minute) }

	session, err := m.ClockOut(ctx, 1, "")
	if err != nil {
		t.Fatalf("ClockOut() error = %v", err)
	}

	if session.Status != model.SessionCompleted {
		t.Errorf("status = %q, want %q", session.Status, model.SessionCompleted)
	}
	if session.WorkDurationMinutes == nil || *session.WorkDurationMinutes != 90 {
		t.Errorf("workDurationMinutes = %v, want 90", session.WorkDurationMinutes)
	}
	if session.ClockOutTime == nil || !session.ClockOutTime.Equal(clockIn.Add(90*time.Minute)) {
		t.Errorf("clockOutTime = %v, want clock-in + 90m", session.ClockOutTime)
	}

	// The finalized session is mutated exactly once.
	if _, err := m.ClockOut(ctx, 1, ""); !errors.Is(err, ErrNotClockedIn) {
		t.Errorf("second ClockOut() error = %v, want ErrNotClockedIn", err)
	}
}

func TestClockOutRoundsToNearestMinute(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	clockIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clockIn }

	if _, err := m.ClockIn(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return clockIn.Add(90*time.Minute + 31*time.Second) }

	session, err := m.ClockOut(ctx, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if session.WorkDurationMinutes == nil || *session.WorkDurationMinutes != 91 {
		t.Errorf("workDurationMinutes = %v, want 91", session.WorkDurationMinutes)
	}
}

func TestClockOutAppendsNotes(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	clockInNotes := "starting on the reports"
	if _, err := m.ClockIn(ctx, 1, &clockInNotes); err != nil {
		t.Fatal(err)
	}

	session, err := m.ClockOut(ctx, 1, "wrapped up early")
	if err != nil {
		t.Fatal(err)
	}

	want := "starting on the reports\nwrapped up early"
	if session.Notes == nil || *session.Notes != want {
		t.Errorf("notes = %v, want %q", session.Notes, want)
	}
}

func TestConcurrentClockIn(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	const attempts = 20

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.ClockIn(ctx, 1, nil)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyClockedIn):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("%d clock-ins succeeded, want exactly 1", succeeded)
	}
	if got := store.activeCount(1); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		m.now = func() time.Time { return base.AddDate(0, 0, day) }
		if _, err := m.ClockIn(ctx, 1, nil); err != nil {
			t.Fatal(err)
		}
		m.now = func() time.Time { return base.AddDate(0, 0, day).Add(8 * time.Hour) }
		if _, err := m.ClockOut(ctx, 1, ""); err != nil {
			t.Fatal(err)
		}
	}

	history, err := m.History(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[0].ClockInTime.After(history[1].ClockInTime) {
		t.Errorf("history is not newest-first")
	}
}

func TestTodayForAll(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	ctx := context.Background()

	today := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	// Yesterday's session must not appear.
	m.now = func() time.Time { return today.AddDate(0, 0, -1) }
	if _, err := m.ClockIn(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ClockOut(ctx, 1, ""); err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return today }
	for _, user := range []model.ID{1, 2} {
		if _, err := m.ClockIn(ctx, user, nil); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := m.TodayForAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions today = %d, want 2", len(sessions))
	}
}
