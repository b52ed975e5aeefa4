package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Journal statuses of a cascade run.
const (
	CascadeCompleted = "completed"
	CascadePartial   = "partial"
	CascadeResolved  = "resolved"
)

// Step outcomes.
const (
	StepOK     = "ok"
	StepFailed = "failed"
)

// Cascade operations recorded in the journal.
const (
	OpDeleteClass   = "class.delete"
	OpDeleteSubject = "subject.delete"
	OpDeleteTeacher = "teacher.delete"
	OpDeleteStudent = "student.delete"
	OpDeleteParent  = "parent.delete"
	OpLinkSubject   = "teacher.link_subject"
	OpLinkParent    = "student.link_parent"
)

// CascadeStep is one idempotent dependent update. Args are the IDs the step filters on.
type CascadeStep struct {
	Name     string   `json:"name"`
	Args     []string `json:"args"`
	Status   string   `json:"status"`
	Affected int64    `json:"affected"`
	Error    string   `json:"error,omitempty"`
}

// CascadeSteps is persisted as JSONB.
type CascadeSteps []CascadeStep

// Value marshals steps to JSON for persistence.
func (s CascadeSteps) Value() (driver.Value, error) {
	if s == nil {
		s = CascadeSteps{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal cascade steps: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the steps slice.
func (s *CascadeSteps) Scan(value interface{}) error {
	if value == nil {
		*s = CascadeSteps{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for CascadeSteps", value)
	}
	if len(data) == 0 {
		*s = CascadeSteps{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal cascade steps: %w", err)
	}
	return nil
}

// Failed returns the steps that did not apply.
func (s CascadeSteps) Failed() CascadeSteps {
	var failed CascadeSteps
	for _, step := range s {
		if step.Status == StepFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// CascadeJournalEntry records the outcome of one cascade.
type CascadeJournalEntry struct {
	ID        string       `db:"id" json:"id"`
	Operation string       `db:"operation" json:"operation"`
	RootID    string       `db:"root_id" json:"rootId"`
	Status    string       `db:"status" json:"status"`
	Steps     CascadeSteps `db:"steps" json:"steps"`
	Error     string       `db:"error" json:"error,omitempty"`
	Attempts  int          `db:"attempts" json:"attempts"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// CascadeJournalFilter narrows a journal listing.
type CascadeJournalFilter struct {
	Status   string `form:"status" validate:"omitempty,oneof=completed partial resolved"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// BulkDeleteResult summarises a bulk cascade.
type BulkDeleteResult struct {
	Matched int `json:"matched"`
	Deleted int `json:"deleted"`
	Partial int `json:"partial"`
}

// ReconcileResult summarises a reconciliation pass.
type ReconcileResult struct {
	EntriesScanned  int `json:"entriesScanned"`
	EntriesResolved int `json:"entriesResolved"`
	StepsReplayed   int `json:"stepsReplayed"`
	LinksRepaired   int `json:"linksRepaired"`
}
