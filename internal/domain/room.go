package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// Room is the denormalized copy of a LiveKit room kept in the document
// store. LiveKit owns the authoritative membership state; this record is
// rebuilt from webhook events and is eventually consistent.
type Room struct {
	ID            string     `bson:"_id" json:"roomId"`
	MemberCount   int        `bson:"member_count" json:"memberCount"`
	IsActive      bool       `bson:"is_active" json:"isActive"`
	CreatedAt     time.Time  `bson:"created_at" json:"createdAt"`
	LastUpdatedAt time.Time  `bson:"last_updated_at" json:"lastUpdatedAt"`
	EndedAt       *time.Time `bson:"ended_at,omitempty" json:"endedAt,omitempty"`

	// LastEventAt holds the upstream timestamp (unix seconds) of the newest
	// event applied to this record. Writes carrying an older timestamp are
	// rejected so a reordered stale snapshot cannot overwrite newer state.
	LastEventAt int64 `bson:"last_event_at" json:"-"`
}

// RoomPatch is a partial field merge. Nil fields are left untouched by the
// store, which is what lets the webhook handler and the sweeper write
// concurrently without clobbering fields they don't own.
type RoomPatch struct {
	MemberCount   *int
	IsActive      *bool
	CreatedAt     *time.Time
	LastUpdatedAt *time.Time
	EndedAt       *time.Time
	EventAt       *int64
}

// ReapQuery selects rooms the sweeper should consider: archived rooms whose
// last update is older than the grace cutoff, and any room created before
// the absolute cutoff.
type ReapQuery struct {
	ArchivedBefore time.Time
	CreatedBefore  time.Time
}

type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*Room, error)
	ListActive(ctx context.Context, limit int64) ([]Room, error)

	// UpsertSnapshot applies a membership snapshot, creating the record if
	// it does not exist. A snapshot older than the stored LastEventAt is a
	// silent no-op.
	UpsertSnapshot(ctx context.Context, id string, patch RoomPatch) error

	// Merge applies a partial update to an existing record. A missing
	// record means the room was already reconciled away and is a no-op.
	Merge(ctx context.Context, id string, patch RoomPatch) error

	FindReapable(ctx context.Context, q ReapQuery) ([]Room, error)

	// Delete is idempotent: deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error

	EnsureIndexes(ctx context.Context) error
}

// Archived reports whether the record is retained but hidden from active
// listings, which is distinct from the record being deleted outright.
func (r *Room) Archived() bool {
	return !r.IsActive
}

// Age returns how long ago the room was first observed.
func (r *Room) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// IdleSince returns the most recent moment the room showed any life: the
// finish timestamp if one was recorded, otherwise the last membership
// update, otherwise creation.
func (r *Room) IdleSince() time.Time {
	if r.EndedAt != nil {
		return *r.EndedAt
	}
	if !r.LastUpdatedAt.IsZero() {
		return r.LastUpdatedAt
	}
	return r.CreatedAt
}
