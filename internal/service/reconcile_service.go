package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

const reconcileBatch = 100

type linkTeacherRepository interface {
	ListLinked(ctx context.Context) ([]models.Teacher, error)
	ClearSubjects(ctx context.Context, subjectIDs []string) (int64, error)
	ReleaseSubject(ctx context.Context, subjectID, keepID string) (int64, error)
}

type linkSubjectRepository interface {
	ListLinked(ctx context.Context) ([]models.Subject, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
	SetTeacher(ctx context.Context, subjectID, teacherID string) (int64, error)
	UnsetTeacher(ctx context.Context, subjectID string) (int64, error)
}

// ReconcileService replays failed cascade steps and repairs teacher and subject links that
// drifted apart.
type ReconcileService struct {
	cascade  *CascadeService
	journal  cascadeJournalRepository
	teachers linkTeacherRepository
	subjects linkSubjectRepository
	audit    auditRecorder
	logger   *zap.Logger
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(cascade *CascadeService, journal cascadeJournalRepository, teachers linkTeacherRepository, subjects linkSubjectRepository, audit auditRecorder, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{cascade: cascade, journal: journal, teachers: teachers, subjects: subjects, audit: audit, logger: logger}
}

// Run performs one reconciliation pass.
func (s *ReconcileService) Run(ctx context.Context) (*models.ReconcileResult, error) {
	result := &models.ReconcileResult{}
	if s.journal != nil {
		entries, err := s.journal.ListPartial(ctx, reconcileBatch)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load partial cascades")
		}
		result.EntriesScanned = len(entries)
		for i := range entries {
			replayed, resolved := s.replay(ctx, &entries[i])
			result.StepsReplayed += replayed
			if resolved {
				result.EntriesResolved++
			}
		}
	}

	repaired, err := s.repairLinks(ctx)
	if err != nil {
		return result, storeError(err, "link", "repair teacher subject links")
	}
	result.LinksRepaired = repaired

	s.logger.Info("reconciliation finished",
		zap.Int("entries_scanned", result.EntriesScanned),
		zap.Int("entries_resolved", result.EntriesResolved),
		zap.Int("steps_replayed", result.StepsReplayed),
		zap.Int("links_repaired", result.LinksRepaired),
	)
	if s.audit != nil && (result.EntriesResolved > 0 || result.LinksRepaired > 0) {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			Role:     "system",
			Action:   models.AuditActionReconcile,
			Resource: "cascade",
		}); err != nil {
			s.logger.Warn("failed to record reconcile audit log", zap.Error(err))
		}
	}
	return result, nil
}

// replay reruns the failed steps of one entry and stores the new outcome.
func (s *ReconcileService) replay(ctx context.Context, entry *models.CascadeJournalEntry) (int, bool) {
	replayed := 0
	var stillFailing []string
	for i := range entry.Steps {
		if entry.Steps[i].Status != models.StepFailed {
			continue
		}
		replayed++
		entry.Steps[i] = s.cascade.runStep(ctx, entry.Steps[i].Name, entry.Steps[i].Args)
		if entry.Steps[i].Status == models.StepFailed {
			stillFailing = append(stillFailing, entry.Steps[i].Name)
		}
	}
	entry.Attempts++
	if len(stillFailing) == 0 {
		entry.Status = models.CascadeResolved
		entry.Error = ""
	} else {
		entry.Error = "failed steps: " + strings.Join(stillFailing, ", ")
	}
	if err := s.journal.Update(ctx, entry); err != nil {
		s.logger.Warn("failed to update cascade journal", zap.String("journal_id", entry.ID), zap.Error(err))
		return replayed, false
	}
	if s.cascade.metrics != nil && entry.Status == models.CascadeResolved {
		s.cascade.metrics.RecordCascade(entry.Operation, models.CascadeResolved)
	}
	return replayed, entry.Status == models.CascadeResolved
}

// repairLinks makes Teacher.teachSubject and Subject.teacher agree. The teacher side wins when
// the subject is free; a subject owned by a teacher pointing back keeps that owner.
func (s *ReconcileService) repairLinks(ctx context.Context) (int, error) {
	teachers, err := s.teachers.ListLinked(ctx)
	if err != nil {
		return 0, err
	}
	subjects, err := s.subjects.ListLinked(ctx)
	if err != nil {
		return 0, err
	}

	teaches := make(map[string]string, len(teachers))
	wanted := make([]string, 0, len(teachers))
	for _, t := range teachers {
		teaches[t.ID] = t.TeachSubject
		wanted = append(wanted, t.TeachSubject)
	}
	owner := make(map[string]string, len(subjects))
	for _, sub := range subjects {
		owner[sub.ID] = sub.Teacher
	}
	existing, err := s.subjects.FindByIDs(ctx, wanted)
	if err != nil {
		return 0, err
	}
	exists := make(map[string]bool, len(existing))
	for _, sub := range existing {
		exists[sub.ID] = true
	}

	repaired := 0
	for _, t := range teachers {
		subjectID := t.TeachSubject
		if teaches[t.ID] != subjectID {
			continue
		}
		switch current := owner[subjectID]; {
		case !exists[subjectID]:
			if _, err := s.teachers.ClearSubjects(ctx, []string{subjectID}); err != nil {
				return repaired, err
			}
			repaired++
		case current == "" || teaches[current] != subjectID:
			if _, err := s.teachers.ReleaseSubject(ctx, subjectID, t.ID); err != nil {
				return repaired, err
			}
			if _, err := s.subjects.SetTeacher(ctx, subjectID, t.ID); err != nil {
				return repaired, err
			}
			owner[subjectID] = t.ID
			for id, sid := range teaches {
				if sid == subjectID && id != t.ID {
					delete(teaches, id)
				}
			}
			repaired++
		case current != t.ID:
			// The subject already has a consistent owner; this teacher lost the race.
			if _, err := s.teachers.ReleaseSubject(ctx, subjectID, current); err != nil {
				return repaired, err
			}
			delete(teaches, t.ID)
			repaired++
		}
	}

	for _, sub := range subjects {
		if teaches[owner[sub.ID]] == sub.ID {
			continue
		}
		if _, err := s.subjects.UnsetTeacher(ctx, sub.ID); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}
