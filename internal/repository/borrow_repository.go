package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// BorrowRepository manages persistence for book loans.
type BorrowRepository struct {
	borrows *collection[models.Borrow]
}

// NewBorrowRepository constructs a BorrowRepository.
func NewBorrowRepository(s *Store) *BorrowRepository {
	return &BorrowRepository{borrows: newCollection[models.Borrow](s, collBorrows)}
}

var newestBorrowFirst = options.Find().SetSort(bson.D{{Key: "borrowDate", Value: -1}})

// Create inserts a loan.
func (r *BorrowRepository) Create(ctx context.Context, borrow *models.Borrow) error {
	return r.borrows.insert(ctx, borrow)
}

// FindByID returns the loan.
func (r *BorrowRepository) FindByID(ctx context.Context, id string) (*models.Borrow, error) {
	return r.borrows.findByID(ctx, id)
}

// Save replaces the stored loan.
func (r *BorrowRepository) Save(ctx context.Context, borrow *models.Borrow) error {
	return r.borrows.replace(ctx, borrow.ID, borrow)
}

// HasOpen reports whether the borrower currently holds the book.
func (r *BorrowRepository) HasOpen(ctx context.Context, bookID string, borrower models.Ref) (bool, error) {
	return r.borrows.exists(ctx, bson.M{
		"book":          bookID,
		"borrower.type": borrower.Type,
		"borrower.id":   borrower.ID,
		"status":        models.BorrowBorrowed,
	})
}

// CountOpenForBook counts loans of the book that are still out.
func (r *BorrowRepository) CountOpenForBook(ctx context.Context, bookID string) (int64, error) {
	return r.borrows.count(ctx, bson.M{"book": bookID, "status": models.BorrowBorrowed})
}

// ListByBorrower returns the borrower's loans.
func (r *BorrowRepository) ListByBorrower(ctx context.Context, borrower models.Ref) ([]models.Borrow, error) {
	return r.borrows.find(ctx, bson.M{"borrower.type": borrower.Type, "borrower.id": borrower.ID}, newestBorrowFirst)
}

// ListBySchool returns loans of a school, optionally narrowed by status.
func (r *BorrowRepository) ListBySchool(ctx context.Context, schoolID, status string) ([]models.Borrow, error) {
	query := bson.M{"school": schoolID}
	if status != "" {
		query["status"] = status
	}
	return r.borrows.find(ctx, query, newestBorrowFirst)
}

func overdueFilter(schoolID string, now time.Time) bson.M {
	return bson.M{"school": schoolID, "status": models.BorrowBorrowed, "dueDate": bson.M{"$lt": now}}
}

// ListOverdue returns open loans past their due date.
func (r *BorrowRepository) ListOverdue(ctx context.Context, schoolID string, now time.Time) ([]models.Borrow, error) {
	return r.borrows.find(ctx, overdueFilter(schoolID, now), options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
}

// CountBorrowed counts open loans in a school.
func (r *BorrowRepository) CountBorrowed(ctx context.Context, schoolID string) (int64, error) {
	return r.borrows.count(ctx, bson.M{"school": schoolID, "status": models.BorrowBorrowed})
}

// CountOverdue counts open loans past their due date.
func (r *BorrowRepository) CountOverdue(ctx context.Context, schoolID string, now time.Time) (int64, error) {
	return r.borrows.count(ctx, overdueFilter(schoolID, now))
}

// SumUnpaidFines totals fines that are still owed.
func (r *BorrowRepository) SumUnpaidFines(ctx context.Context, schoolID string) (float64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"school": schoolID, "fine.paid": false, "fine.amount": bson.M{"$gt": 0}}},
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$fine.amount"}}},
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := r.borrows.aggregate(ctx, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
