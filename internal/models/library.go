package models

import (
	"math"
	"time"
)

// FinePerDay is charged for every started day a book is returned late.
const FinePerDay = 5

// Borrow statuses.
const (
	BorrowBorrowed = "Borrowed"
	BorrowReturned = "Returned"
	BorrowOverdue  = "Overdue"
	BorrowLost     = "Lost"
)

// ShelfLocation says where a book sits in the library.
type ShelfLocation struct {
	Shelf string `bson:"shelf,omitempty" json:"shelf,omitempty"`
	Row   string `bson:"row,omitempty" json:"row,omitempty"`
}

// Book is a catalogue entry with a copy count.
type Book struct {
	ID              string         `bson:"_id" json:"id"`
	Title           string         `bson:"title" json:"title"`
	Author          string         `bson:"author" json:"author"`
	ISBN            string         `bson:"isbn" json:"isbn"`
	Category        string         `bson:"category,omitempty" json:"category,omitempty"`
	Publisher       string         `bson:"publisher,omitempty" json:"publisher,omitempty"`
	PublishYear     int            `bson:"publishYear,omitempty" json:"publishYear,omitempty"`
	TotalCopies     int            `bson:"totalCopies" json:"totalCopies"`
	AvailableCopies int            `bson:"availableCopies" json:"availableCopies"`
	School          string         `bson:"school" json:"school"`
	Location        *ShelfLocation `bson:"location,omitempty" json:"location,omitempty"`
	Description     string         `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Fine is charged on a late return.
type Fine struct {
	Amount   float64    `bson:"amount" json:"amount"`
	Paid     bool       `bson:"paid" json:"paid"`
	PaidDate *time.Time `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
}

// Borrow is one loan of a book to a student or teacher.
type Borrow struct {
	ID         string     `bson:"_id" json:"id"`
	Book       string     `bson:"book" json:"book"`
	Borrower   Ref        `bson:"borrower" json:"borrower"`
	School     string     `bson:"school" json:"school"`
	BorrowDate time.Time  `bson:"borrowDate" json:"borrowDate"`
	DueDate    time.Time  `bson:"dueDate" json:"dueDate"`
	ReturnDate *time.Time `bson:"returnDate,omitempty" json:"returnDate,omitempty"`
	Status     string     `bson:"status" json:"status"`
	Fine       *Fine      `bson:"fine,omitempty" json:"fine,omitempty"`
	IssuedBy   string     `bson:"issuedBy,omitempty" json:"issuedBy,omitempty"`
	ReturnedTo string     `bson:"returnedTo,omitempty" json:"returnedTo,omitempty"`
	Remarks    string     `bson:"remarks,omitempty" json:"remarks,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// FineFor returns the fine for returning at returnedAt, or nil when on time.
func FineFor(dueDate, returnedAt time.Time) *Fine {
	if !returnedAt.After(dueDate) {
		return nil
	}
	days := math.Ceil(returnedAt.Sub(dueDate).Hours() / 24)
	return &Fine{Amount: days * FinePerDay}
}

// CreateBookRequest adds a book. AvailableCopies defaults to TotalCopies.
type CreateBookRequest struct {
	Title           string         `json:"title" validate:"required"`
	Author          string         `json:"author" validate:"required"`
	ISBN            string         `json:"isbn" validate:"required"`
	Category        string         `json:"category" validate:"omitempty,oneof=Fiction Non-Fiction Science Mathematics History Literature Reference Other"`
	Publisher       string         `json:"publisher"`
	PublishYear     int            `json:"publishYear"`
	TotalCopies     int            `json:"totalCopies" validate:"required,min=1"`
	AvailableCopies *int           `json:"availableCopies" validate:"omitempty,min=0,ltefield=TotalCopies"`
	Location        *ShelfLocation `json:"location"`
	Description     string         `json:"description"`
}

// UpdateBookRequest edits catalogue fields.
type UpdateBookRequest struct {
	Title       *string        `json:"title"`
	Author      *string        `json:"author"`
	Category    *string        `json:"category" validate:"omitempty,oneof=Fiction Non-Fiction Science Mathematics History Literature Reference Other"`
	Publisher   *string        `json:"publisher"`
	PublishYear *int           `json:"publishYear"`
	TotalCopies *int           `json:"totalCopies" validate:"omitempty,min=0"`
	Location    *ShelfLocation `json:"location"`
	Description *string        `json:"description"`
}

// BookFilter narrows a book listing.
type BookFilter struct {
	Category      string `form:"category"`
	AvailableOnly bool   `form:"available"`
}

// IssueBookRequest lends a book.
type IssueBookRequest struct {
	Book     string    `json:"bookId" validate:"required"`
	Borrower Ref       `json:"borrower" validate:"required"`
	DueDate  time.Time `json:"dueDate" validate:"required"`
}

// ReturnBookRequest closes a loan.
type ReturnBookRequest struct {
	Remarks string `json:"remarks"`
}

// LibraryStats summarises a school library.
type LibraryStats struct {
	TotalBooks     int64   `json:"totalBooks"`
	AvailableBooks int64   `json:"availableBooks"`
	BorrowedBooks  int64   `json:"borrowedBooks"`
	OverdueBooks   int64   `json:"overdueBooks"`
	UnpaidFines    float64 `json:"unpaidFines"`
}
