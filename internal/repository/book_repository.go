package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// BookRepository manages persistence for the library catalogue.
type BookRepository struct {
	books *collection[models.Book]
}

// NewBookRepository constructs a BookRepository.
func NewBookRepository(s *Store) *BookRepository {
	return &BookRepository{books: newCollection[models.Book](s, collBooks)}
}

var byTitle = options.Find().SetSort(bson.D{{Key: "title", Value: 1}})

// Create inserts a book. ISBNs are unique.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.books.insert(ctx, book)
}

// FindByID returns the book.
func (r *BookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	return r.books.findByID(ctx, id)
}

// FindByIDs returns books with the given IDs ordered by title.
func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	return r.books.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, byTitle)
}

// List returns the books of a school.
func (r *BookRepository) List(ctx context.Context, schoolID string, filter models.BookFilter) ([]models.Book, error) {
	query := bson.M{"school": schoolID}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.AvailableOnly {
		query["availableCopies"] = bson.M{"$gt": 0}
	}
	return r.books.find(ctx, query, byTitle)
}

// Search matches title, author or isbn case-insensitively.
func (r *BookRepository) Search(ctx context.Context, schoolID, term string, limit int64) ([]models.Book, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	query := bson.M{"school": schoolID, "$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"author": pattern},
		bson.M{"isbn": pattern},
	}}
	return r.books.find(ctx, query, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}).SetLimit(limit))
}

// Update sets the given fields and returns the updated book.
func (r *BookRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Book, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.books.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AdjustCopies shifts totalCopies and availableCopies by delta unless availableCopies would drop
// below zero. It reports whether the book matched the precondition.
func (r *BookRepository) AdjustCopies(ctx context.Context, id string, delta int) (bool, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["availableCopies"] = bson.M{"$gte": -delta}
	}
	matched, err := r.books.updateOne(ctx, filter, bson.M{
		"$inc": bson.M{"totalCopies": delta, "availableCopies": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	return matched > 0, err
}

// TakeCopy decrements availableCopies when at least one copy is on the shelf. It reports
// whether a copy was taken.
func (r *BookRepository) TakeCopy(ctx context.Context, id string) (bool, error) {
	matched, err := r.books.updateOne(ctx,
		bson.M{"_id": id, "availableCopies": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"availableCopies": -1}},
	)
	return matched > 0, err
}

// ReturnCopy increments availableCopies.
func (r *BookRepository) ReturnCopy(ctx context.Context, id string) error {
	return r.books.updateByID(ctx, id, bson.M{"$inc": bson.M{"availableCopies": 1}})
}

// Delete removes the book.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	return r.books.deleteByID(ctx, id)
}

// Count returns the number of titles in a school.
func (r *BookRepository) Count(ctx context.Context, schoolID string) (int64, error) {
	return r.books.count(ctx, bson.M{"school": schoolID})
}

// SumAvailable returns the copies currently on the shelf across a school.
func (r *BookRepository) SumAvailable(ctx context.Context, schoolID string) (int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"school": schoolID}},
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$availableCopies"}}},
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := r.books.aggregate(ctx, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
