// Package reconcile holds the shared decision logic consulted by the two
// room writers, the webhook handler and the sweeper. It performs no I/O:
// callers describe what they observed and get back the write to apply.
// Keeping both writers on this one policy is what stops them from
// disagreeing about what "finished" or "stale" means.
package reconcile

import (
	"time"

	"github.com/livekit/protocol/webhook"

	"github.com/lingopods/roomsync/internal/domain"
)

type Action int

const (
	ActionNone Action = iota
	ActionUpsert
	ActionMerge
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionMerge:
		return "merge"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Snapshot is the room state reported by a single upstream event. The
// member count is the absolute count LiveKit reported, never a delta.
type Snapshot struct {
	RoomID      string
	MemberCount int
	// EventAt is the upstream event timestamp in unix seconds. Writes
	// derived from this snapshot are rejected by the store if a newer
	// event has already been applied.
	EventAt int64
}

// Rules configures the sweeper side of the policy. GraceWindow applies to
// archived rooms, measured from the moment they went quiet. MaxAge is the
// backstop for rooms whose finish event never arrived at all: past it a
// room is reaped regardless of its activity flag.
type Rules struct {
	GraceWindow time.Duration
	MaxAge      time.Duration
}

type Decision struct {
	Action Action
	Patch  domain.RoomPatch
	Reason string
}

// ForEvent maps one webhook event onto the write to apply.
//
// Membership events set the count to the reported value, which makes
// redelivery and single lost events self-healing. Finish events archive
// the record rather than deleting it: a finish can race a slightly stale
// join still in flight, and a hard delete would let that join resurrect a
// phantom room. Deletion is the sweeper's job, after the grace window.
func ForEvent(kind string, snap Snapshot, now time.Time) Decision {
	if snap.RoomID == "" {
		// Some event kinds carry no room context. Nothing to reconcile.
		return Decision{Action: ActionNone, Reason: "no room in event"}
	}

	switch kind {
	case webhook.EventParticipantJoined, webhook.EventParticipantLeft, webhook.EventRoomStarted:
		count := snap.MemberCount
		if count < 0 {
			count = 0
		}
		active := true
		eventAt := snap.EventAt
		ts := now
		return Decision{
			Action: ActionUpsert,
			Patch: domain.RoomPatch{
				MemberCount:   &count,
				IsActive:      &active,
				CreatedAt:     &ts,
				LastUpdatedAt: &ts,
				EventAt:       &eventAt,
			},
			Reason: "membership snapshot",
		}

	case webhook.EventRoomFinished:
		zero := 0
		inactive := false
		eventAt := snap.EventAt
		ts := now
		return Decision{
			Action: ActionMerge,
			Patch: domain.RoomPatch{
				MemberCount:   &zero,
				IsActive:      &inactive,
				LastUpdatedAt: &ts,
				EndedAt:       &ts,
				EventAt:       &eventAt,
			},
			Reason: "room finished",
		}
	}

	return Decision{Action: ActionNone, Reason: "ignored event kind"}
}

// ForAge decides whether elapsed time alone justifies reclaiming a room.
//
// Archived rooms are deleted once the grace window has passed; the window
// exists so late events for a just-finished room still find a record to
// no-op against. Rooms older than MaxAge are deleted whatever their state,
// which catches rooms whose finish event the upstream dropped entirely. A
// populated, genuinely long-lived room is only ever touched by the second
// rule.
func ForAge(room domain.Room, now time.Time, rules Rules) Decision {
	if room.Archived() && now.Sub(room.IdleSince()) > rules.GraceWindow {
		return Decision{Action: ActionDelete, Reason: "grace window elapsed"}
	}
	if room.Age(now) > rules.MaxAge {
		return Decision{Action: ActionDelete, Reason: "max age exceeded"}
	}
	return Decision{Action: ActionNone, Reason: "still fresh"}
}

// ReapQueryAt translates the rules into the store-side candidate filter
// for a sweep starting at now. ForAge remains the final word on each
// candidate; the query only narrows the scan.
func ReapQueryAt(now time.Time, rules Rules) domain.ReapQuery {
	return domain.ReapQuery{
		ArchivedBefore: now.Add(-rules.GraceWindow),
		CreatedBefore:  now.Add(-rules.MaxAge),
	}
}
