package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/search"
)

const searchLimit = 20

type bookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id string) (*models.Book, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Book, error)
	List(ctx context.Context, schoolID string, filter models.BookFilter) ([]models.Book, error)
	Search(ctx context.Context, schoolID, term string, limit int64) ([]models.Book, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Book, error)
	AdjustCopies(ctx context.Context, id string, delta int) (bool, error)
	TakeCopy(ctx context.Context, id string) (bool, error)
	ReturnCopy(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, schoolID string) (int64, error)
	SumAvailable(ctx context.Context, schoolID string) (int64, error)
}

type borrowRepository interface {
	Create(ctx context.Context, borrow *models.Borrow) error
	FindByID(ctx context.Context, id string) (*models.Borrow, error)
	Save(ctx context.Context, borrow *models.Borrow) error
	HasOpen(ctx context.Context, bookID string, borrower models.Ref) (bool, error)
	CountOpenForBook(ctx context.Context, bookID string) (int64, error)
	ListByBorrower(ctx context.Context, borrower models.Ref) ([]models.Borrow, error)
	ListBySchool(ctx context.Context, schoolID, status string) ([]models.Borrow, error)
	ListOverdue(ctx context.Context, schoolID string, now time.Time) ([]models.Borrow, error)
	CountBorrowed(ctx context.Context, schoolID string) (int64, error)
	CountOverdue(ctx context.Context, schoolID string, now time.Time) (int64, error)
	SumUnpaidFines(ctx context.Context, schoolID string) (float64, error)
}

// bookIndex is the optional full text index of the catalogue.
type bookIndex interface {
	Index(ctx context.Context, doc search.BookDocument) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, schoolID, term string, limit int) ([]string, error)
}

type refLookup interface {
	InSchool(ctx context.Context, ref models.Ref, schoolID string) (*models.RefSummary, error)
}

// LibraryService runs the book catalogue and loans.
type LibraryService struct {
	books     bookRepository
	borrows   borrowRepository
	index     bookIndex
	refs      refLookup
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLibraryService constructs a LibraryService. index may be nil, in which case searches
// fall back to the entity store.
func NewLibraryService(books bookRepository, borrows borrowRepository, index bookIndex, refs refLookup, validate *validator.Validate, logger *zap.Logger) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibraryService{books: books, borrows: borrows, index: index, refs: refs, validator: validate, logger: logger, now: time.Now}
}

// AddBook catalogues a book. ISBNs are unique.
func (s *LibraryService) AddBook(ctx context.Context, schoolID string, req models.CreateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid book payload")
	}
	available := req.TotalCopies
	if req.AvailableCopies != nil {
		available = *req.AvailableCopies
	}
	now := s.now().UTC()
	book := &models.Book{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		ISBN:            strings.TrimSpace(req.ISBN),
		Category:        req.Category,
		Publisher:       req.Publisher,
		PublishYear:     req.PublishYear,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: available,
		School:          schoolID,
		Location:        req.Location,
		Description:     req.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, storeError(err, "book with this ISBN", "add book")
	}
	s.reindex(ctx, book)
	return book, nil
}

// ListBooks returns the catalogue of a school.
func (s *LibraryService) ListBooks(ctx context.Context, schoolID string, filter models.BookFilter) ([]models.Book, error) {
	books, err := s.books.List(ctx, schoolID, filter)
	if err != nil {
		return nil, storeError(err, "book", "list books")
	}
	return books, nil
}

// GetBook returns the book.
func (s *LibraryService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "book", "load book")
	}
	return book, nil
}

// UpdateBook edits catalogue fields. Changing totalCopies moves availableCopies by the same
// amount and is refused when that would leave fewer copies than are on loan.
func (s *LibraryService) UpdateBook(ctx context.Context, id string, req models.UpdateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid book payload")
	}
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TotalCopies != nil && *req.TotalCopies != book.TotalCopies {
		ok, err := s.books.AdjustCopies(ctx, id, *req.TotalCopies-book.TotalCopies)
		if err != nil {
			return nil, storeError(err, "book", "update copies")
		}
		if !ok {
			return nil, conflict("cannot remove copies that are on loan")
		}
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		fields["author"] = strings.TrimSpace(*req.Author)
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Publisher != nil {
		fields["publisher"] = *req.Publisher
	}
	if req.PublishYear != nil {
		fields["publishYear"] = *req.PublishYear
	}
	if req.Location != nil {
		fields["location"] = req.Location
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	updated, err := s.books.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "book", "update book")
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// DeleteBook removes a book that has no copies on loan.
func (s *LibraryService) DeleteBook(ctx context.Context, schoolID, id string) error {
	existing, err := s.books.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "book", "load book")
	}
	if err := ownedBy(existing.School, schoolID, "book"); err != nil {
		return err
	}
	open, err := s.borrows.CountOpenForBook(ctx, id)
	if err != nil {
		return storeError(err, "borrow", "check open loans")
	}
	if open > 0 {
		return conflict("book has copies on loan")
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return storeError(err, "book", "delete book")
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("failed to remove book from index", zap.String("book_id", id), zap.Error(err))
		}
	}
	return nil
}

// SearchBooks matches title, author or ISBN. The search index is preferred; the entity store
// answers when no index is configured or the index fails.
func (s *LibraryService) SearchBooks(ctx context.Context, schoolID, term string) ([]models.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalid("search query is required")
	}
	if s.index != nil {
		ids, err := s.index.Search(ctx, schoolID, term, searchLimit)
		if err == nil {
			return s.booksInOrder(ctx, ids)
		}
		s.logger.Warn("book index search failed, falling back to store", zap.Error(err))
	}
	books, err := s.books.Search(ctx, schoolID, term, searchLimit)
	if err != nil {
		return nil, storeError(err, "book", "search books")
	}
	return books, nil
}

// Issue lends a copy to a student or teacher of the school.
func (s *LibraryService) Issue(ctx context.Context, schoolID, issuedBy string, req models.IssueBookRequest) (*models.Borrow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid issue payload")
	}
	if req.Borrower.Type != models.RefStudent && req.Borrower.Type != models.RefTeacher {
		return nil, invalid("only students and teachers can borrow books")
	}
	book, err := s.GetBook(ctx, req.Book)
	if err != nil {
		return nil, err
	}
	if book.School != schoolID {
		return nil, invalid("book belongs to another school")
	}
	if _, err := s.refs.InSchool(ctx, req.Borrower, schoolID); err != nil {
		return nil, err
	}
	open, err := s.borrows.HasOpen(ctx, book.ID, req.Borrower)
	if err != nil {
		return nil, storeError(err, "borrow", "check open loans")
	}
	if open {
		return nil, conflict("borrower already has this book")
	}
	taken, err := s.books.TakeCopy(ctx, book.ID)
	if err != nil {
		return nil, storeError(err, "book", "take copy")
	}
	if !taken {
		return nil, conflict("no copies available")
	}

	now := s.now().UTC()
	borrow := &models.Borrow{
		ID:         uuid.NewString(),
		Book:       book.ID,
		Borrower:   req.Borrower,
		School:     schoolID,
		BorrowDate: now,
		DueDate:    req.DueDate.UTC(),
		Status:     models.BorrowBorrowed,
		IssuedBy:   issuedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.borrows.Create(ctx, borrow); err != nil {
		if rerr := s.books.ReturnCopy(context.WithoutCancel(ctx), book.ID); rerr != nil {
			s.logger.Error("failed to put back copy after issue failure", zap.String("book_id", book.ID), zap.Error(rerr))
		}
		return nil, storeError(err, "borrow", "issue book")
	}
	return borrow, nil
}

// Return closes a loan, charging a fine for every started day past the due date.
func (s *LibraryService) Return(ctx context.Context, id, returnedTo string, req models.ReturnBookRequest) (*models.Borrow, error) {
	borrow, err := s.borrows.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "borrow", "load borrow")
	}
	if borrow.Status != models.BorrowBorrowed {
		return nil, conflict("book already returned")
	}
	now := s.now().UTC()
	borrow.ReturnDate = &now
	borrow.Status = models.BorrowReturned
	borrow.ReturnedTo = returnedTo
	borrow.Remarks = req.Remarks
	borrow.Fine = models.FineFor(borrow.DueDate, now)
	borrow.UpdatedAt = now
	if err := s.borrows.Save(ctx, borrow); err != nil {
		return nil, storeError(err, "borrow", "return book")
	}
	if err := s.books.ReturnCopy(ctx, borrow.Book); err != nil {
		return nil, storeError(err, "book", "return copy")
	}
	return borrow, nil
}

// PayFine settles the fine of a returned loan. Only the borrower or an admin may pay.
func (s *LibraryService) PayFine(ctx context.Context, id string, caller models.Ref) (*models.Borrow, error) {
	borrow, err := s.borrows.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "borrow", "load borrow")
	}
	if caller.Type != models.RefAdmin && !caller.Equal(borrow.Borrower) {
		return nil, forbidden("only the borrower can pay this fine")
	}
	if borrow.Fine == nil || borrow.Fine.Amount <= 0 {
		return nil, invalid("no fine to pay")
	}
	if borrow.Fine.Paid {
		return nil, conflict("fine already paid")
	}
	now := s.now().UTC()
	borrow.Fine.Paid = true
	borrow.Fine.PaidDate = &now
	borrow.UpdatedAt = now
	if err := s.borrows.Save(ctx, borrow); err != nil {
		return nil, storeError(err, "borrow", "pay fine")
	}
	return borrow, nil
}

// MyBorrows lists the caller's loans.
func (s *LibraryService) MyBorrows(ctx context.Context, borrower models.Ref) ([]models.Borrow, error) {
	borrows, err := s.borrows.ListByBorrower(ctx, borrower)
	if err != nil {
		return nil, storeError(err, "borrow", "list borrows")
	}
	return s.markOverdue(borrows), nil
}

// SchoolBorrows lists the loans of a school, optionally by status.
func (s *LibraryService) SchoolBorrows(ctx context.Context, schoolID, status string) ([]models.Borrow, error) {
	if status == models.BorrowOverdue {
		return s.Overdue(ctx, schoolID)
	}
	borrows, err := s.borrows.ListBySchool(ctx, schoolID, status)
	if err != nil {
		return nil, storeError(err, "borrow", "list borrows")
	}
	return s.markOverdue(borrows), nil
}

// Overdue lists open loans past their due date.
func (s *LibraryService) Overdue(ctx context.Context, schoolID string) ([]models.Borrow, error) {
	borrows, err := s.borrows.ListOverdue(ctx, schoolID, s.now().UTC())
	if err != nil {
		return nil, storeError(err, "borrow", "list overdue borrows")
	}
	return s.markOverdue(borrows), nil
}

// Stats summarises the library of a school.
func (s *LibraryService) Stats(ctx context.Context, schoolID string) (*models.LibraryStats, error) {
	now := s.now().UTC()
	stats := &models.LibraryStats{}
	var err error
	if stats.TotalBooks, err = s.books.Count(ctx, schoolID); err != nil {
		return nil, storeError(err, "book", "count books")
	}
	if stats.AvailableBooks, err = s.books.SumAvailable(ctx, schoolID); err != nil {
		return nil, storeError(err, "book", "count available books")
	}
	if stats.BorrowedBooks, err = s.borrows.CountBorrowed(ctx, schoolID); err != nil {
		return nil, storeError(err, "borrow", "count borrowed books")
	}
	if stats.OverdueBooks, err = s.borrows.CountOverdue(ctx, schoolID, now); err != nil {
		return nil, storeError(err, "borrow", "count overdue books")
	}
	if stats.UnpaidFines, err = s.borrows.SumUnpaidFines(ctx, schoolID); err != nil {
		return nil, storeError(err, "borrow", "sum unpaid fines")
	}
	return stats, nil
}

// markOverdue reports open loans past their due date as Overdue without persisting it.
func (s *LibraryService) markOverdue(borrows []models.Borrow) []models.Borrow {
	now := s.now()
	for i := range borrows {
		if borrows[i].Status == models.BorrowBorrowed && now.After(borrows[i].DueDate) {
			borrows[i].Status = models.BorrowOverdue
		}
	}
	return borrows
}

func (s *LibraryService) booksInOrder(ctx context.Context, ids []string) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "book", "load books")
	}
	byID := make(map[string]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]models.Book, 0, len(books))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *LibraryService) reindex(ctx context.Context, book *models.Book) {
	if s.index == nil || book == nil {
		return
	}
	doc := search.BookDocument{ID: book.ID, School: book.School, Title: book.Title, Author: book.Author, ISBN: book.ISBN}
	if err := s.index.Index(ctx, doc); err != nil {
		s.logger.Warn("failed to index book", zap.String("book_id", book.ID), zap.Error(err))
	}
}
