package repository

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
	"github.com/infem06/progress/internal/store"
)

// LogRepository handles the therapy log collection.
type LogRepository struct {
	store *store.Store
	log   *logrus.Logger
}

// NewLogRepository creates a new log repository.
func NewLogRepository(st *store.Store, logger *logrus.Logger) *LogRepository {
	return &LogRepository{store: st, log: logger}
}

// List returns logs newest-first. A non-empty patientID filters to one
// patient.
func (r *LogRepository) List(patientID string) []domain.TherapyLog {
	snap := r.store.Snapshot()
	logs := make([]domain.TherapyLog, 0, len(snap.Logs))
	for _, l := range snap.Logs {
		if patientID == "" || l.PatientID == patientID {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt > logs[j].CreatedAt
	})
	return logs
}

// Get returns the log with the given id.
func (r *LogRepository) Get(id string) (*domain.TherapyLog, error) {
	for _, l := range r.store.Snapshot().Logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("log %q: %w", id, domain.ErrNotFound)
}

// CreateBatch persists a generated batch in one mutation, so five new logs
// cost one debounced write. All logs must reference an existing patient.
func (r *LogRepository) CreateBatch(logs []domain.TherapyLog) error {
	if len(logs) == 0 {
		return nil
	}
	patientID := logs[0].PatientID

	exists := false
	for _, p := range r.store.Snapshot().Patients {
		if p.ID == patientID {
			exists = true
			break
		}
	}
	if !exists {
		return fmt.Errorf("patient %q: %w", patientID, domain.ErrNotFound)
	}

	r.store.Mutate(func(s *store.State) {
		s.Logs = append(logs, s.Logs...)
	})
	r.log.WithFields(logrus.Fields{
		"patient_id": patientID,
		"count":      len(logs),
	}).Info("Log batch persisted")
	return nil
}

// SetReaction updates the clinician reaction note, the only field a log can
// change after creation.
func (r *LogRepository) SetReaction(id, reaction string) error {
	found := false
	r.store.Mutate(func(s *store.State) {
		for i := range s.Logs {
			if s.Logs[i].ID == id {
				s.Logs[i].Reaction = reaction
				found = true
				return
			}
		}
	})
	if !found {
		return fmt.Errorf("log %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a single log.
func (r *LogRepository) Delete(id string) error {
	found := false
	r.store.Mutate(func(s *store.State) {
		logs := s.Logs[:0]
		for _, l := range s.Logs {
			if l.ID == id {
				found = true
				continue
			}
			logs = append(logs, l)
		}
		s.Logs = logs
	})
	if !found {
		return fmt.Errorf("log %q: %w", id, domain.ErrNotFound)
	}
	r.log.WithField("log_id", id).Info("Log deleted")
	return nil
}

// Count returns the total number of logs.
func (r *LogRepository) Count() int {
	return len(r.store.Snapshot().Logs)
}
