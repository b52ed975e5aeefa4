package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

type libraryService interface {
	AddBook(ctx context.Context, schoolID string, req models.CreateBookRequest) (*models.Book, error)
	ListBooks(ctx context.Context, schoolID string, filter models.BookFilter) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (*models.Book, error)
	UpdateBook(ctx context.Context, id string, req models.UpdateBookRequest) (*models.Book, error)
	DeleteBook(ctx context.Context, schoolID, id string) error
	SearchBooks(ctx context.Context, schoolID, term string) ([]models.Book, error)
	Issue(ctx context.Context, schoolID, issuedBy string, req models.IssueBookRequest) (*models.Borrow, error)
	Return(ctx context.Context, id, returnedTo string, req models.ReturnBookRequest) (*models.Borrow, error)
	PayFine(ctx context.Context, id string, caller models.Ref) (*models.Borrow, error)
	MyBorrows(ctx context.Context, borrower models.Ref) ([]models.Borrow, error)
	SchoolBorrows(ctx context.Context, schoolID, status string) ([]models.Borrow, error)
	Overdue(ctx context.Context, schoolID string) ([]models.Borrow, error)
	Stats(ctx context.Context, schoolID string) (*models.LibraryStats, error)
}

// LibraryHandler exposes books, loans and fines.
type LibraryHandler struct {
	library libraryService
}

// NewLibraryHandler constructs a LibraryHandler.
func NewLibraryHandler(library libraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// AddBook godoc
// @Summary Add book to the catalogue
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body models.CreateBookRequest true "Book payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /books [post]
func (h *LibraryHandler) AddBook(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.CreateBookRequest
	if !bindJSON(c, &req, "invalid book payload") {
		return
	}
	book, err := h.library.AddBook(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// ListBooks godoc
// @Summary List books of a school
// @Tags Library
// @Produce json
// @Param schoolId path string true "School ID"
// @Param category query string false "Category"
// @Param available query bool false "Only books with free copies"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/books [get]
func (h *LibraryHandler) ListBooks(c *gin.Context) {
	var filter models.BookFilter
	if !bindQuery(c, &filter, "invalid book filter") {
		return
	}
	books, err := h.library.ListBooks(c.Request.Context(), c.Param("schoolId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, nil)
}

// SearchBooks godoc
// @Summary Search books by title, author or ISBN
// @Tags Library
// @Produce json
// @Param schoolId path string true "School ID"
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/books/search [get]
func (h *LibraryHandler) SearchBooks(c *gin.Context) {
	books, err := h.library.SearchBooks(c.Request.Context(), c.Param("schoolId"), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, nil)
}

// GetBook godoc
// @Summary Book detail
// @Tags Library
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Router /books/{id} [get]
func (h *LibraryHandler) GetBook(c *gin.Context) {
	book, err := h.library.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// UpdateBook godoc
// @Summary Update book
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param payload body models.UpdateBookRequest true "Book payload"
// @Success 200 {object} response.Envelope
// @Router /books/{id} [put]
func (h *LibraryHandler) UpdateBook(c *gin.Context) {
	var req models.UpdateBookRequest
	if !bindJSON(c, &req, "invalid book payload") {
		return
	}
	book, err := h.library.UpdateBook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// DeleteBook godoc
// @Summary Delete book
// @Tags Library
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /books/{id} [delete]
func (h *LibraryHandler) DeleteBook(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.library.DeleteBook(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "book deleted")
}

// Issue godoc
// @Summary Issue a book
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body models.IssueBookRequest true "Loan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /borrows [post]
func (h *LibraryHandler) Issue(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.IssueBookRequest
	if !bindJSON(c, &req, "invalid loan payload") {
		return
	}
	borrow, err := h.library.Issue(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, borrow)
}

// Return godoc
// @Summary Return a book
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Borrow ID"
// @Param payload body models.ReturnBookRequest false "Return payload"
// @Success 200 {object} response.Envelope
// @Router /borrows/{id}/return [post]
func (h *LibraryHandler) Return(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.ReturnBookRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid return payload") {
		return
	}
	borrow, err := h.library.Return(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrow, nil)
}

// PayFine godoc
// @Summary Pay the fine of a loan
// @Tags Library
// @Produce json
// @Param id path string true "Borrow ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /borrows/{id}/fine/pay [post]
func (h *LibraryHandler) PayFine(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	borrow, err := h.library.PayFine(c.Request.Context(), c.Param("id"), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrow, nil)
}

// MyBorrows godoc
// @Summary Books borrowed by the caller
// @Tags Library
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /borrows/mine [get]
func (h *LibraryHandler) MyBorrows(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	borrows, err := h.library.MyBorrows(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrows, nil)
}

// SchoolBorrows godoc
// @Summary Loans of a school
// @Tags Library
// @Produce json
// @Param schoolId path string true "School ID"
// @Param status query string false "Borrowed, Returned or Overdue"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/borrows [get]
func (h *LibraryHandler) SchoolBorrows(c *gin.Context) {
	borrows, err := h.library.SchoolBorrows(c.Request.Context(), c.Param("schoolId"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrows, nil)
}

// Overdue godoc
// @Summary Overdue loans of a school
// @Tags Library
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/borrows/overdue [get]
func (h *LibraryHandler) Overdue(c *gin.Context) {
	borrows, err := h.library.Overdue(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrows, nil)
}

// Stats godoc
// @Summary Library statistics
// @Tags Library
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/library/stats [get]
func (h *LibraryHandler) Stats(c *gin.Context) {
	stats, err := h.library.Stats(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
