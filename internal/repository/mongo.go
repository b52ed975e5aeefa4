package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

// Collection names.
const (
	collAdmins      = "admins"
	collClasses     = "classes"
	collSubjects    = "subjects"
	collTeachers    = "teachers"
	collStudents    = "students"
	collParents     = "parents"
	collFees        = "fees"
	collBooks       = "books"
	collBorrows     = "borrows"
	collAssignments = "assignments"
	collMessages    = "messages"
	collEvents      = "events"
	collNotices     = "notices"
	collComplaints  = "complaints"
	collTimetables  = "timetables"
)

// QueryObserver receives the duration of every store call, labelled collection.operation.
type QueryObserver func(label string, duration time.Duration)

// Store wraps the entity database shared by every repository.
type Store struct {
	db      *mongo.Database
	observe QueryObserver
}

// NewStore builds a Store. observe may be nil.
func NewStore(db *mongo.Database, observe QueryObserver) *Store {
	return &Store{db: db, observe: observe}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return mapMongoError("ping", s.db.Client().Ping(ctx, nil))
}

// collection is a typed view over one Mongo collection. Every method maps driver errors to
// the storage sentinels in pkg/errors.
type collection[T any] struct {
	coll    *mongo.Collection
	name    string
	observe QueryObserver
}

func newCollection[T any](s *Store, name string) *collection[T] {
	return &collection[T]{coll: s.db.Collection(name), name: name, observe: s.observe}
}

func (c *collection[T]) track(op string, start time.Time) {
	if c.observe != nil {
		c.observe(c.name+"."+op, time.Since(start))
	}
}

func (c *collection[T]) insert(ctx context.Context, doc *T) error {
	defer c.track("insert", time.Now())
	_, err := c.coll.InsertOne(ctx, doc)
	return mapMongoError("insert "+c.name, err)
}

func (c *collection[T]) insertMany(ctx context.Context, docs []T) error {
	defer c.track("insert_many", time.Now())
	if len(docs) == 0 {
		return nil
	}
	items := make([]interface{}, len(docs))
	for i := range docs {
		items[i] = docs[i]
	}
	_, err := c.coll.InsertMany(ctx, items)
	return mapMongoError("insert "+c.name, err)
}

func (c *collection[T]) findByID(ctx context.Context, id string) (*T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *collection[T]) findOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	defer c.track("find_one", time.Now())
	var out T
	if err := c.coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, mapMongoError("find "+c.name, err)
	}
	return &out, nil
}

func (c *collection[T]) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	defer c.track("find", time.Now())
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapMongoError("find "+c.name, err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoError("decode "+c.name, err)
	}
	return out, nil
}

func (c *collection[T]) count(ctx context.Context, filter interface{}) (int64, error) {
	defer c.track("count", time.Now())
	n, err := c.coll.CountDocuments(ctx, filter)
	return n, mapMongoError("count "+c.name, err)
}

func (c *collection[T]) exists(ctx context.Context, filter interface{}) (bool, error) {
	defer c.track("exists", time.Now())
	n, err := c.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, mapMongoError("count "+c.name, err)
	}
	return n > 0, nil
}

// updateByID applies update to one document and reports ErrNoRecord when the ID is unknown.
func (c *collection[T]) updateByID(ctx context.Context, id string, update interface{}) error {
	defer c.track("update_one", time.Now())
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapMongoError("update "+c.name, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", c.name, id, appErrors.ErrNoRecord)
	}
	return nil
}

// updateOne returns the matched count so callers can detect a failed precondition.
func (c *collection[T]) updateOne(ctx context.Context, filter, update interface{}) (int64, error) {
	defer c.track("update_one", time.Now())
	res, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, mapMongoError("update "+c.name, err)
	}
	return res.MatchedCount, nil
}

func (c *collection[T]) updateMany(ctx context.Context, filter, update interface{}) (int64, error) {
	defer c.track("update_many", time.Now())
	res, err := c.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, mapMongoError("update "+c.name, err)
	}
	return res.ModifiedCount, nil
}

func (c *collection[T]) findOneAndUpdate(ctx context.Context, filter, update interface{}) (*T, error) {
	defer c.track("find_one_and_update", time.Now())
	var out T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, mapMongoError("update "+c.name, err)
	}
	return &out, nil
}

func (c *collection[T]) replace(ctx context.Context, id string, doc *T) error {
	defer c.track("replace", time.Now())
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapMongoError("replace "+c.name, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace %s %s: %w", c.name, id, appErrors.ErrNoRecord)
	}
	return nil
}

// deleteByID reports ErrNoRecord when nothing was deleted, so a repeated delete fails the same way.
func (c *collection[T]) deleteByID(ctx context.Context, id string) error {
	defer c.track("delete_one", time.Now())
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError("delete "+c.name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s %s: %w", c.name, id, appErrors.ErrNoRecord)
	}
	return nil
}

func (c *collection[T]) deleteMany(ctx context.Context, filter interface{}) (int64, error) {
	defer c.track("delete_many", time.Now())
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, mapMongoError("delete "+c.name, err)
	}
	return res.DeletedCount, nil
}

// ids returns the _id of every matching document.
func (c *collection[T]) ids(ctx context.Context, filter interface{}) ([]string, error) {
	defer c.track("ids", time.Now())
	cur, err := c.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, mapMongoError("find "+c.name, err)
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapMongoError("decode "+c.name, err)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out, nil
}

func (c *collection[T]) aggregate(ctx context.Context, pipeline interface{}, out interface{}) error {
	defer c.track("aggregate", time.Now())
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return mapMongoError("aggregate "+c.name, err)
	}
	return mapMongoError("decode "+c.name, cur.All(ctx, out))
}

// mapMongoError wraps driver errors with the matching storage sentinel.
func mapMongoError(op string, err error) error {
	if err == nil {
		return nil
	}
	var selection topology.ServerSelectionError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, appErrors.ErrNoRecord)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %w", op, appErrors.ErrDuplicateRecord, err)
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.As(err, &selection),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, appErrors.ErrStoreDown, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
