package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/search"
)

type memLibrary struct {
	mu      sync.Mutex
	books   map[string]*models.Book
	borrows map[string]*models.Borrow
}

func newMemLibrary() *memLibrary {
	return &memLibrary{books: map[string]*models.Book{}, borrows: map[string]*models.Borrow{}}
}

type memBooks struct{ *memLibrary }

func (m memBooks) Create(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN == book.ISBN {
			return appErrors.ErrDuplicateRecord
		}
	}
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m memBooks) FindByID(ctx context.Context, id string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *b
	return &cp, nil
}

func (m memBooks) FindByIDs(ctx context.Context, ids []string) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m memBooks) List(ctx context.Context, schoolID string, filter models.BookFilter) ([]models.Book, error) {
	return nil, nil
}

func (m memBooks) Search(ctx context.Context, schoolID, term string, limit int64) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Book
	for _, b := range m.books {
		if b.School == schoolID && b.Title == term {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m memBooks) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Book, error) {
	return m.FindByID(ctx, id)
}

func (m memBooks) AdjustCopies(ctx context.Context, id string, delta int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.books[id]
	if b.AvailableCopies+delta < 0 {
		return false, nil
	}
	b.TotalCopies += delta
	b.AvailableCopies += delta
	return true, nil
}

func (m memBooks) TakeCopy(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.books[id]
	if b.AvailableCopies == 0 {
		return false, nil
	}
	b.AvailableCopies--
	return true, nil
}

func (m memBooks) ReturnCopy(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[id].AvailableCopies++
	return nil
}

func (m memBooks) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(m.books, id)
	return nil
}

func (m memBooks) Count(ctx context.Context, schoolID string) (int64, error) {
	return int64(len(m.books)), nil
}

func (m memBooks) SumAvailable(ctx context.Context, schoolID string) (int64, error) {
	var n int64
	for _, b := range m.books {
		n += int64(b.AvailableCopies)
	}
	return n, nil
}

type memBorrows struct{ *memLibrary }

func (m memBorrows) Create(ctx context.Context, borrow *models.Borrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *borrow
	m.borrows[borrow.ID] = &cp
	return nil
}

func (m memBorrows) FindByID(ctx context.Context, id string) (*models.Borrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.borrows[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *b
	return &cp, nil
}

func (m memBorrows) Save(ctx context.Context, borrow *models.Borrow) error {
	return m.Create(ctx, borrow)
}

func (m memBorrows) HasOpen(ctx context.Context, bookID string, borrower models.Ref) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.borrows {
		if b.Book == bookID && b.Borrower.Equal(borrower) && b.Status == models.BorrowBorrowed {
			return true, nil
		}
	}
	return false, nil
}

func (m memBorrows) CountOpenForBook(ctx context.Context, bookID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.borrows {
		if b.Book == bookID && b.Status == models.BorrowBorrowed {
			n++
		}
	}
	return n, nil
}

func (m memBorrows) ListByBorrower(ctx context.Context, borrower models.Ref) ([]models.Borrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Borrow
	for _, b := range m.borrows {
		if b.Borrower.Equal(borrower) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m memBorrows) ListBySchool(ctx context.Context, schoolID, status string) ([]models.Borrow, error) {
	return nil, nil
}

func (m memBorrows) ListOverdue(ctx context.Context, schoolID string, now time.Time) ([]models.Borrow, error) {
	return nil, nil
}

func (m memBorrows) CountBorrowed(ctx context.Context, schoolID string) (int64, error) {
	return 0, nil
}

func (m memBorrows) CountOverdue(ctx context.Context, schoolID string, now time.Time) (int64, error) {
	return 0, nil
}

func (m memBorrows) SumUnpaidFines(ctx context.Context, schoolID string) (float64, error) {
	return 0, nil
}

type schoolRefs map[string]string

func (r schoolRefs) InSchool(ctx context.Context, ref models.Ref, schoolID string) (*models.RefSummary, error) {
	school, ok := r[ref.ID]
	if !ok {
		return nil, notFound(string(ref.Type))
	}
	if school != schoolID {
		return nil, invalid("belongs to another school")
	}
	return &models.RefSummary{Ref: ref}, nil
}

type failingIndex struct{ indexed []string }

func (f *failingIndex) Index(ctx context.Context, doc search.BookDocument) error {
	f.indexed = append(f.indexed, doc.ID)
	return nil
}

func (f *failingIndex) Remove(ctx context.Context, id string) error { return nil }

func (f *failingIndex) Search(ctx context.Context, schoolID, term string, limit int) ([]string, error) {
	return nil, errors.New("cluster unavailable")
}

func newLibraryFixture(t *testing.T, now time.Time) (*LibraryService, *memLibrary) {
	t.Helper()
	lib := newMemLibrary()
	refs := schoolRefs{"st1": "school-1", "st2": "school-2"}
	svc := NewLibraryService(memBooks{lib}, memBorrows{lib}, nil, refs, nil, nil)
	svc.now = func() time.Time { return now }
	return svc, lib
}

func addBook(t *testing.T, svc *LibraryService, copies int) *models.Book {
	t.Helper()
	book, err := svc.AddBook(context.Background(), "school-1", models.CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "978-0441013593", TotalCopies: copies,
	})
	require.NoError(t, err)
	return book
}

func TestLibraryServiceIssueTakesCopies(t *testing.T) {
	svc, lib := newLibraryFixture(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	book := addBook(t, svc, 1)
	assert.Equal(t, 1, book.AvailableCopies)

	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	borrow, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"}, DueDate: due,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowBorrowed, borrow.Status)
	assert.Equal(t, 0, lib.books[book.ID].AvailableCopies)

	_, err = svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"}, DueDate: due,
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	lib.books[book.ID].AvailableCopies = 0
	lib.borrows = map[string]*models.Borrow{}
	_, err = svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"}, DueDate: due,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "no copies available")
}

func TestLibraryServiceIssueRejectsOtherSchoolBorrower(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Now())
	book := addBook(t, svc, 2)
	_, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st2"}, DueDate: time.Now().Add(24 * time.Hour),
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefParent, ID: "p1"}, DueDate: time.Now().Add(24 * time.Hour),
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLibraryServiceLateReturnChargesFine(t *testing.T) {
	start := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	svc, lib := newLibraryFixture(t, start)
	book := addBook(t, svc, 1)
	borrow, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"},
		DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC) }
	returned, err := svc.Return(context.Background(), borrow.ID, "admin-1", models.ReturnBookRequest{Remarks: "cover worn"})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowReturned, returned.Status)
	require.NotNil(t, returned.Fine)
	assert.Equal(t, 15.0, returned.Fine.Amount)
	assert.False(t, returned.Fine.Paid)
	assert.Equal(t, 1, lib.books[book.ID].AvailableCopies)

	_, err = svc.Return(context.Background(), borrow.ID, "admin-1", models.ReturnBookRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.PayFine(context.Background(), borrow.ID, models.Ref{Type: models.RefStudent, ID: "st9"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	paid, err := svc.PayFine(context.Background(), borrow.ID, models.Ref{Type: models.RefStudent, ID: "st1"})
	require.NoError(t, err)
	assert.True(t, paid.Fine.Paid)
	require.NotNil(t, paid.Fine.PaidDate)

	_, err = svc.PayFine(context.Background(), borrow.ID, models.Ref{Type: models.RefAdmin, ID: "admin-1"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLibraryServicePayFineWithoutFine(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	book := addBook(t, svc, 1)
	borrow, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"},
		DueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	returned, err := svc.Return(context.Background(), borrow.ID, "admin-1", models.ReturnBookRequest{})
	require.NoError(t, err)
	assert.Nil(t, returned.Fine)

	_, err = svc.PayFine(context.Background(), borrow.ID, models.Ref{Type: models.RefStudent, ID: "st1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLibraryServiceDeleteWithOpenLoan(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Now())
	book := addBook(t, svc, 2)
	_, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"}, DueDate: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	err = svc.DeleteBook(context.Background(), "school-2", book.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	err = svc.DeleteBook(context.Background(), "school-1", book.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.UpdateBook(context.Background(), book.ID, models.UpdateBookRequest{TotalCopies: intPtr(0)})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLibraryServiceDuplicateISBN(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Now())
	addBook(t, svc, 1)
	_, err := svc.AddBook(context.Background(), "school-1", models.CreateBookRequest{
		Title: "Dune Messiah", Author: "Frank Herbert", ISBN: "978-0441013593", TotalCopies: 1,
	})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateKey))
}

func TestLibraryServiceSearchFallsBackToStore(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Now())
	index := &failingIndex{}
	svc.index = index
	book := addBook(t, svc, 1)
	assert.Equal(t, []string{book.ID}, index.indexed)

	books, err := svc.SearchBooks(context.Background(), "school-1", "Dune")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)

	_, err = svc.SearchBooks(context.Background(), "school-1", "  ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLibraryServiceMyBorrowsMarksOverdue(t *testing.T) {
	svc, _ := newLibraryFixture(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	book := addBook(t, svc, 1)
	_, err := svc.Issue(context.Background(), "school-1", "admin-1", models.IssueBookRequest{
		Book: book.ID, Borrower: models.Ref{Type: models.RefStudent, ID: "st1"},
		DueDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC) }
	borrows, err := svc.MyBorrows(context.Background(), models.Ref{Type: models.RefStudent, ID: "st1"})
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	assert.Equal(t, models.BorrowOverdue, borrows[0].Status)
}

func intPtr(v int) *int { return &v }
