package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/export"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

type feeRepository interface {
	Create(ctx context.Context, fee *models.Fee) error
	FindByID(ctx context.Context, id string) (*models.Fee, error)
	Save(ctx context.Context, fee *models.Fee) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Fee, error)
	ListByClass(ctx context.Context, classID string) ([]models.Fee, error)
	ListBySchool(ctx context.Context, schoolID string, filter models.FeeReportFilter) ([]models.Fee, error)
	Delete(ctx context.Context, id string) error
}

type feeStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type datasetExporter interface {
	Export(ctx context.Context, schoolID, format string, data export.Dataset) (*models.ExportResult, error)
}

// FeePaymentEvent is published after every recorded payment.
type FeePaymentEvent struct {
	FeeID         string  `json:"feeId"`
	Student       string  `json:"student"`
	School        string  `json:"school"`
	Amount        float64 `json:"amount"`
	ReceiptNumber string  `json:"receiptNumber"`
	Status        string  `json:"status"`
}

// FeeService manages student fees. Remaining amount and status are recomputed on every write
// and refreshed on every read so an unpaid fee turns Overdue once its due date passes.
type FeeService struct {
	repo      feeRepository
	students  feeStudentRepository
	exporter  datasetExporter
	publisher notify.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeeService constructs a FeeService.
func NewFeeService(repo feeRepository, students feeStudentRepository, exporter datasetExporter, publisher notify.Publisher, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &FeeService{repo: repo, students: students, exporter: exporter, publisher: publisher, validator: validate, logger: logger, now: time.Now}
}

// Create issues a fee to a student. The total defaults to the sum of the fee structure.
func (s *FeeService) Create(ctx context.Context, schoolID string, req models.CreateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid fee payload")
	}
	student, err := s.students.FindByID(ctx, req.Student)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	if student.School != schoolID {
		return nil, invalid("student belongs to another school")
	}
	total := req.TotalFee
	if total == 0 {
		total = req.Structure.Total()
	}
	if total <= 0 {
		return nil, invalid("total fee must be greater than zero")
	}

	now := s.now().UTC()
	fee := &models.Fee{
		ID:           uuid.NewString(),
		Student:      student.ID,
		Class:        student.Class,
		School:       schoolID,
		AcademicYear: req.AcademicYear,
		Structure:    req.Structure,
		TotalFee:     total,
		Payments:     []models.Payment{},
		DueDate:      req.DueDate.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fee.Recompute(now)
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, storeError(err, "fee", "create fee")
	}
	return fee, nil
}

// Get returns the fee with fresh derived fields.
func (s *FeeService) Get(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "fee", "load fee")
	}
	fee.Recompute(s.now())
	return fee, nil
}

// ListByStudent returns a student's fees, newest academic year first.
func (s *FeeService) ListByStudent(ctx context.Context, studentID string) ([]models.Fee, error) {
	fees, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "fee", "list student fees")
	}
	return s.refresh(fees), nil
}

// ListByClass returns the fees of a class.
func (s *FeeService) ListByClass(ctx context.Context, classID string) ([]models.Fee, error) {
	fees, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "fee", "list class fees")
	}
	return s.refresh(fees), nil
}

// AddPayment records an instalment. Payments may not exceed the total fee.
func (s *FeeService) AddPayment(ctx context.Context, id, receivedBy string, req models.PaymentRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid payment payload")
	}
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fee.PaidAmount+req.Amount > fee.TotalFee {
		return nil, conflict(fmt.Sprintf("payment of %.2f exceeds the remaining amount %.2f", req.Amount, fee.RemainingAmount))
	}

	now := s.now().UTC()
	receipt := req.ReceiptNumber
	if receipt == "" {
		receipt = receiptNumber(now)
	}
	payment := models.Payment{
		Amount:        req.Amount,
		PaymentDate:   now,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		ReceiptNumber: receipt,
		Remarks:       req.Remarks,
		ReceivedBy:    receivedBy,
	}
	fee.Payments = append(fee.Payments, payment)
	fee.PaidAmount += req.Amount
	fee.Recompute(now)
	fee.UpdatedAt = now
	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, storeError(err, "fee", "record payment")
	}

	event := FeePaymentEvent{FeeID: fee.ID, Student: fee.Student, School: fee.School, Amount: req.Amount, ReceiptNumber: receipt, Status: fee.Status}
	if err := s.publisher.Publish(ctx, notify.SubjectFeePayment, event); err != nil {
		s.logger.Warn("failed to publish fee payment", zap.String("fee_id", fee.ID), zap.Error(err))
	}
	return fee, nil
}

// ApplyDiscount lowers the total fee. A discount cannot exceed what is still owed.
func (s *FeeService) ApplyDiscount(ctx context.Context, id string, req models.DiscountRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid discount payload")
	}
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Amount > fee.RemainingAmount {
		return nil, conflict("discount exceeds the remaining amount")
	}
	discount := models.Discount{Amount: req.Amount, Reason: req.Reason}
	if fee.Discount != nil {
		discount.Amount += fee.Discount.Amount
		if discount.Reason == "" {
			discount.Reason = fee.Discount.Reason
		}
	}
	now := s.now().UTC()
	fee.Discount = &discount
	fee.TotalFee -= req.Amount
	fee.Recompute(now)
	fee.UpdatedAt = now
	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, storeError(err, "fee", "apply discount")
	}
	return fee, nil
}

// Update edits the fee. The total may not drop below what has been paid.
func (s *FeeService) Update(ctx context.Context, id string, req models.UpdateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid fee payload")
	}
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AcademicYear != nil {
		fee.AcademicYear = *req.AcademicYear
	}
	if req.Structure != nil {
		fee.Structure = *req.Structure
		if req.TotalFee == nil {
			fee.TotalFee = req.Structure.Total()
			if fee.Discount != nil {
				fee.TotalFee -= fee.Discount.Amount
			}
		}
	}
	if req.TotalFee != nil {
		fee.TotalFee = *req.TotalFee
	}
	if req.DueDate != nil {
		fee.DueDate = req.DueDate.UTC()
	}
	if fee.TotalFee < fee.PaidAmount {
		return nil, conflict("total fee cannot be less than the amount already paid")
	}
	now := s.now().UTC()
	fee.Recompute(now)
	fee.UpdatedAt = now
	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, storeError(err, "fee", "update fee")
	}
	return fee, nil
}

// Delete removes the fee.
func (s *FeeService) Delete(ctx context.Context, schoolID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "fee", "load fee")
	}
	if err := ownedBy(existing.School, schoolID, "fee"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "fee", "delete fee")
	}
	return nil
}

// Summary totals every fee of a school.
func (s *FeeService) Summary(ctx context.Context, schoolID string) (*models.FeeSummary, error) {
	fees, err := s.repo.ListBySchool(ctx, schoolID, models.FeeReportFilter{})
	if err != nil {
		return nil, storeError(err, "fee", "summarise fees")
	}
	summary := &models.FeeSummary{}
	for _, fee := range s.refresh(fees) {
		summary.TotalExpected += fee.TotalFee
		summary.TotalCollected += fee.PaidAmount
		summary.TotalPending += fee.RemainingAmount
		switch fee.Status {
		case models.FeePaid:
			summary.PaidCount++
		case models.FeePartial:
			summary.PartialCount++
		case models.FeePending:
			summary.PendingCount++
		case models.FeeOverdue:
			summary.OverdueCount++
		}
	}
	return summary, nil
}

// Report lists the fees of a school filtered by academic year and status.
func (s *FeeService) Report(ctx context.Context, schoolID string, filter models.FeeReportFilter) ([]models.Fee, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, validationError(err, "invalid report filter")
	}
	fees, err := s.repo.ListBySchool(ctx, schoolID, models.FeeReportFilter{AcademicYear: filter.AcademicYear})
	if err != nil {
		return nil, storeError(err, "fee", "build fee report")
	}
	fees = s.refresh(fees)
	if filter.Status == "" {
		return fees, nil
	}
	out := fees[:0]
	for _, fee := range fees {
		if fee.Status == filter.Status {
			out = append(out, fee)
		}
	}
	return out, nil
}

// ExportReport renders the fee report as CSV or XLSX.
func (s *FeeService) ExportReport(ctx context.Context, schoolID string, filter models.FeeReportFilter, req models.ExportRequest) (*models.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid export payload")
	}
	fees, err := s.Report(ctx, schoolID, filter)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	ids := make([]string, 0, len(fees))
	for _, fee := range fees {
		ids = append(ids, fee.Student)
	}
	if len(ids) > 0 {
		students, err := s.students.FindByIDs(ctx, dedupe(ids))
		if err != nil {
			return nil, storeError(err, "student", "load students")
		}
		for _, st := range students {
			names[st.ID] = st.Name
		}
	}

	data := export.Dataset{
		Title:   "Fee Report",
		Headers: []string{"Student", "Academic Year", "Total Fee", "Paid", "Remaining", "Due Date", "Status"},
	}
	for _, fee := range fees {
		data.Rows = append(data.Rows, map[string]string{
			"Student":       names[fee.Student],
			"Academic Year": fee.AcademicYear,
			"Total Fee":     money(fee.TotalFee),
			"Paid":          money(fee.PaidAmount),
			"Remaining":     money(fee.RemainingAmount),
			"Due Date":      fee.DueDate.Format("2006-01-02"),
			"Status":        fee.Status,
		})
	}
	return s.exporter.Export(ctx, schoolID, req.Format, data)
}

func (s *FeeService) refresh(fees []models.Fee) []models.Fee {
	now := s.now()
	for i := range fees {
		fees[i].Recompute(now)
	}
	return fees
}

func receiptNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "RCP-" + at.Format("20060102") + "-" + suffix
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
