package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/events"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/reconcile"
)

type fakeRoomRepository struct {
	reapable   []domain.Room
	findErr    error
	failDelete map[string]error

	deleted []string
	query   domain.ReapQuery
}

func (f *fakeRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	return nil, domain.ErrRoomNotFound
}

func (f *fakeRoomRepository) ListActive(ctx context.Context, limit int64) ([]domain.Room, error) {
	return nil, nil
}

func (f *fakeRoomRepository) UpsertSnapshot(ctx context.Context, id string, patch domain.RoomPatch) error {
	return nil
}

func (f *fakeRoomRepository) Merge(ctx context.Context, id string, patch domain.RoomPatch) error {
	return nil
}

func (f *fakeRoomRepository) FindReapable(ctx context.Context, q domain.ReapQuery) ([]domain.Room, error) {
	f.query = q
	return f.reapable, f.findErr
}

func (f *fakeRoomRepository) Delete(ctx context.Context, id string) error {
	if err, ok := f.failDelete[id]; ok {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRoomRepository) EnsureIndexes(ctx context.Context) error { return nil }

var testRules = reconcile.Rules{GraceWindow: 30 * time.Minute, MaxAge: 24 * time.Hour}

func newTestSweeper(repo *fakeRoomRepository) *Sweeper {
	return New(repo, events.NewRoomPublisher(nil), testRules, time.Minute, logging.NopLogger{})
}

func archivedRoom(id string, idle time.Duration) domain.Room {
	ended := time.Now().UTC().Add(-idle)
	return domain.Room{
		ID:            id,
		IsActive:      false,
		CreatedAt:     ended.Add(-time.Hour),
		LastUpdatedAt: ended,
		EndedAt:       &ended,
	}
}

func TestSweepReapsArchivedPastGrace(t *testing.T) {
	repo := &fakeRoomRepository{
		reapable: []domain.Room{
			archivedRoom("old", time.Hour),
		},
	}

	summary := newTestSweeper(repo).Sweep(context.Background())

	if summary.Evaluated != 1 || summary.Deleted != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 evaluated, 1 deleted", summary)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "old" {
		t.Fatalf("deleted = %v, want [old]", repo.deleted)
	}
}

func TestSweepReapsLongLivedActiveRoom(t *testing.T) {
	repo := &fakeRoomRepository{
		reapable: []domain.Room{
			{
				ID:            "zombie",
				IsActive:      true,
				MemberCount:   3,
				CreatedAt:     time.Now().UTC().Add(-25 * time.Hour),
				LastUpdatedAt: time.Now().UTC().Add(-time.Minute),
			},
		},
	}

	summary := newTestSweeper(repo).Sweep(context.Background())

	if summary.Deleted != 1 {
		t.Fatalf("summary = %+v, want the max-age backstop to delete", summary)
	}
}

// The store query is a coarse prefilter; a candidate that no longer
// satisfies the policy at evaluation time must be left alone.
func TestSweepRechecksCandidates(t *testing.T) {
	repo := &fakeRoomRepository{
		reapable: []domain.Room{
			archivedRoom("fresh", time.Minute),
		},
	}

	summary := newTestSweeper(repo).Sweep(context.Background())

	if summary.Evaluated != 1 || summary.Deleted != 0 {
		t.Fatalf("summary = %+v, want 1 evaluated and nothing deleted", summary)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("deleted = %v, want none", repo.deleted)
	}
}

func TestSweepIsolatesPerRoomFailures(t *testing.T) {
	repo := &fakeRoomRepository{
		reapable: []domain.Room{
			archivedRoom("a", time.Hour),
			archivedRoom("b", time.Hour),
			archivedRoom("c", time.Hour),
		},
		failDelete: map[string]error{"b": errors.New("write conflict")},
	}

	summary := newTestSweeper(repo).Sweep(context.Background())

	if summary.Evaluated != 3 {
		t.Errorf("evaluated = %d, want 3", summary.Evaluated)
	}
	if summary.Deleted != 2 {
		t.Errorf("deleted = %d, want 2: one failure must not stop the sweep", summary.Deleted)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
}

func TestSweepQueryFailure(t *testing.T) {
	repo := &fakeRoomRepository{findErr: errors.New("server selection timeout")}

	summary := newTestSweeper(repo).Sweep(context.Background())

	if summary != (Summary{}) {
		t.Fatalf("summary = %+v, want empty on query failure", summary)
	}
}

func TestSweepQueryCutoffs(t *testing.T) {
	repo := &fakeRoomRepository{}
	before := time.Now().UTC()

	newTestSweeper(repo).Sweep(context.Background())

	graceCutoff := repo.query.ArchivedBefore
	if d := before.Add(-testRules.GraceWindow).Sub(graceCutoff); d < -time.Second || d > time.Second {
		t.Errorf("ArchivedBefore = %v, want about now minus the grace window", graceCutoff)
	}
	ageCutoff := repo.query.CreatedBefore
	if d := before.Add(-testRules.MaxAge).Sub(ageCutoff); d < -time.Second || d > time.Second {
		t.Errorf("CreatedBefore = %v, want about now minus the max age", ageCutoff)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeRoomRepository{}
	s := New(repo, events.NewRoomPublisher(nil), testRules, 10*time.Millisecond, logging.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
