package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/persistence/db"
)

type roomRepository struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewRoomRepository(database *mongo.Database) domain.RoomRepository {
	return &roomRepository{
		db:      database,
		timeout: db.DefaultOperationTimeout,
	}
}

func (r *roomRepository) collection() *mongo.Collection {
	return r.db.Collection(db.RoomsCollection)
}

func (r *roomRepository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var room domain.Room
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) ListActive(ctx context.Context, limit int64) ([]domain.Room, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

// UpsertSnapshot applies a membership snapshot. The last_event_at guard in
// the filter makes stale snapshots a no-op: if the record exists with a
// newer event applied, the filter matches nothing and the attempted insert
// collides on _id, which we swallow as "superseded".
func (r *roomRepository) UpsertSnapshot(ctx context.Context, id string, patch domain.RoomPatch) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	filter := bson.M{"_id": id}
	if patch.EventAt != nil {
		filter["last_event_at"] = bson.M{"$lte": *patch.EventAt}
	}

	update := bson.M{"$set": setDoc(patch)}
	if patch.CreatedAt != nil {
		update["$setOnInsert"] = bson.M{"created_at": *patch.CreatedAt}
	}

	_, err := r.collection().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// Merge updates a subset of fields on an existing record. A record that no
// longer exists, or one already carrying a newer event, matches nothing;
// both are expected race outcomes and resolve as success.
func (r *roomRepository) Merge(ctx context.Context, id string, patch domain.RoomPatch) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	filter := bson.M{"_id": id}
	if patch.EventAt != nil {
		filter["last_event_at"] = bson.M{"$lte": *patch.EventAt}
	}

	_, err := r.collection().UpdateOne(ctx, filter, bson.M{"$set": setDoc(patch)})
	return err
}

func (r *roomRepository) FindReapable(ctx context.Context, q domain.ReapQuery) ([]domain.Room, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	filter := reapableFilter(q)

	cursor, err := r.collection().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	_, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *roomRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "last_updated_at", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	}

	_, err := r.collection().Indexes().CreateMany(ctx, indexes)
	return err
}

// setDoc builds the $set document from the non-nil patch fields only, so
// concurrent writers never clobber fields they don't own.
func setDoc(patch domain.RoomPatch) bson.M {
	set := bson.M{}
	if patch.MemberCount != nil {
		set["member_count"] = *patch.MemberCount
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	if patch.LastUpdatedAt != nil {
		set["last_updated_at"] = *patch.LastUpdatedAt
	}
	if patch.EndedAt != nil {
		set["ended_at"] = *patch.EndedAt
	}
	if patch.EventAt != nil {
		set["last_event_at"] = *patch.EventAt
	}
	return set
}

func reapableFilter(q domain.ReapQuery) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{
				"is_active":       false,
				"last_updated_at": bson.M{"$lt": q.ArchivedBefore},
			},
			bson.M{
				"created_at": bson.M{"$lt": q.CreatedBefore},
			},
		},
	}
}
