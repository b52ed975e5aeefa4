package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

const journalColumns = `id, operation, root_id, status, steps, error, attempts, created_at, updated_at`

// CascadeJournalRepository records cascade outcomes in Postgres.
type CascadeJournalRepository struct {
	db *sqlx.DB
}

// NewCascadeJournalRepository constructs a CascadeJournalRepository.
func NewCascadeJournalRepository(db *sqlx.DB) *CascadeJournalRepository {
	return &CascadeJournalRepository{db: db}
}

// Create inserts a journal entry.
func (r *CascadeJournalRepository) Create(ctx context.Context, entry *models.CascadeJournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO cascade_journal (` + journalColumns + `) VALUES (:id, :operation, :root_id, :status, :steps, :error, :attempts, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create cascade journal entry: %w", err)
	}
	return nil
}

// Update stores the new status, steps and attempt count of an entry.
func (r *CascadeJournalRepository) Update(ctx context.Context, entry *models.CascadeJournalEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cascade_journal SET status = :status, steps = :steps, error = :error, attempts = :attempts, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update cascade journal entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update cascade journal entry %s: %w", entry.ID, appErrors.ErrNoRecord)
	}
	return nil
}

// FindByID returns a journal entry.
func (r *CascadeJournalRepository) FindByID(ctx context.Context, id string) (*models.CascadeJournalEntry, error) {
	var entry models.CascadeJournalEntry
	query := `SELECT ` + journalColumns + ` FROM cascade_journal WHERE id = $1`
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find cascade journal entry %s: %w", id, appErrors.ErrNoRecord)
		}
		return nil, fmt.Errorf("find cascade journal entry: %w", err)
	}
	return &entry, nil
}

// ListPartial returns up to limit partial entries, oldest first.
func (r *CascadeJournalRepository) ListPartial(ctx context.Context, limit int) ([]models.CascadeJournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + journalColumns + ` FROM cascade_journal WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var entries []models.CascadeJournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, models.CascadePartial, limit); err != nil {
		return nil, fmt.Errorf("list partial cascades: %w", err)
	}
	return entries, nil
}

// List returns a page of journal entries, newest first, and the total count.
func (r *CascadeJournalRepository) List(ctx context.Context, filter models.CascadeJournalFilter) ([]models.CascadeJournalEntry, int, error) {
	baseQuery := `FROM cascade_journal WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", journalColumns, baseQuery, pageSize, offset)
	var entries []models.CascadeJournalEntry
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list cascade journal: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cascade journal: %w", err)
	}
	return entries, total, nil
}
