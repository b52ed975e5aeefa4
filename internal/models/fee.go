package models

import "time"

// Fee statuses, derived by Recompute.
const (
	FeePaid    = "Paid"
	FeePartial = "Partial"
	FeePending = "Pending"
	FeeOverdue = "Overdue"
)

// OtherFee is an ad-hoc line in the fee structure.
type OtherFee struct {
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// FeeStructure itemises how a total fee is composed.
type FeeStructure struct {
	TuitionFee   float64    `bson:"tuitionFee" json:"tuitionFee"`
	TransportFee float64    `bson:"transportFee" json:"transportFee"`
	LibraryFee   float64    `bson:"libraryFee" json:"libraryFee"`
	LabFee       float64    `bson:"labFee" json:"labFee"`
	SportsFee    float64    `bson:"sportsFee" json:"sportsFee"`
	OtherFees    []OtherFee `bson:"otherFees" json:"otherFees"`
}

// Total sums every line of the structure.
func (s FeeStructure) Total() float64 {
	total := s.TuitionFee + s.TransportFee + s.LibraryFee + s.LabFee + s.SportsFee
	for _, other := range s.OtherFees {
		total += other.Amount
	}
	return total
}

// Payment is one instalment recorded against a fee.
type Payment struct {
	Amount        float64   `bson:"amount" json:"amount"`
	PaymentDate   time.Time `bson:"paymentDate" json:"paymentDate"`
	Method        string    `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	TransactionID string    `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	ReceiptNumber string    `bson:"receiptNumber" json:"receiptNumber"`
	Remarks       string    `bson:"remarks,omitempty" json:"remarks,omitempty"`
	ReceivedBy    string    `bson:"receivedBy,omitempty" json:"receivedBy,omitempty"`
}

// Discount reduces the total fee.
type Discount struct {
	Amount float64 `bson:"amount" json:"amount"`
	Reason string  `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Fee is the amount a student owes for an academic year.
type Fee struct {
	ID              string       `bson:"_id" json:"id"`
	Student         string       `bson:"student" json:"student"`
	Class           string       `bson:"class" json:"class"`
	School          string       `bson:"school" json:"school"`
	AcademicYear    string       `bson:"academicYear" json:"academicYear"`
	Structure       FeeStructure `bson:"feeStructure" json:"feeStructure"`
	TotalFee        float64      `bson:"totalFee" json:"totalFee"`
	PaidAmount      float64      `bson:"paidAmount" json:"paidAmount"`
	RemainingAmount float64      `bson:"remainingAmount" json:"remainingAmount"`
	Payments        []Payment    `bson:"payments" json:"payments"`
	DueDate         time.Time    `bson:"dueDate" json:"dueDate"`
	Status          string       `bson:"status" json:"status"`
	Discount        *Discount    `bson:"discount,omitempty" json:"discount,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// Recompute refreshes remainingAmount and status. It must run before every save.
func (f *Fee) Recompute(now time.Time) {
	f.RemainingAmount = f.TotalFee - f.PaidAmount
	switch {
	case f.PaidAmount >= f.TotalFee:
		f.Status = FeePaid
	case f.PaidAmount > 0:
		f.Status = FeePartial
	case now.After(f.DueDate):
		f.Status = FeeOverdue
	default:
		f.Status = FeePending
	}
}

// CreateFeeRequest creates a fee. TotalFee defaults to the structure total.
type CreateFeeRequest struct {
	Student      string       `json:"student" validate:"required"`
	AcademicYear string       `json:"academicYear" validate:"required"`
	Structure    FeeStructure `json:"feeStructure"`
	TotalFee     float64      `json:"totalFee" validate:"min=0"`
	DueDate      time.Time    `json:"dueDate" validate:"required"`
}

// PaymentRequest records a payment.
type PaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"paymentMethod" validate:"omitempty,oneof=Cash Card 'Bank Transfer' Online Cheque"`
	TransactionID string  `json:"transactionId"`
	ReceiptNumber string  `json:"receiptNumber"`
	Remarks       string  `json:"remarks"`
}

// DiscountRequest applies a discount.
type DiscountRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason"`
}

// UpdateFeeRequest edits a fee. Derived fields are recomputed afterwards.
type UpdateFeeRequest struct {
	AcademicYear *string       `json:"academicYear"`
	Structure    *FeeStructure `json:"feeStructure"`
	TotalFee     *float64      `json:"totalFee" validate:"omitempty,min=0"`
	DueDate      *time.Time    `json:"dueDate"`
}

// FeeSummary aggregates every fee of a school.
type FeeSummary struct {
	TotalExpected  float64 `json:"totalExpected"`
	TotalCollected float64 `json:"totalCollected"`
	TotalPending   float64 `json:"totalPending"`
	PaidCount      int     `json:"paidCount"`
	PartialCount   int     `json:"partialCount"`
	PendingCount   int     `json:"pendingCount"`
	OverdueCount   int     `json:"overdueCount"`
}

// FeeReportFilter narrows a fee report.
type FeeReportFilter struct {
	AcademicYear string `form:"academicYear"`
	Status       string `form:"status" validate:"omitempty,oneof=Paid Partial Pending Overdue"`
}
