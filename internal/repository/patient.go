// Package repository provides typed access to the application state owned
// by the store. Each repository wraps the same Store; mutations go through
// single debounced writes.
package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
	"github.com/infem06/progress/internal/store"
)

// PatientRepository handles the patient roster.
type PatientRepository struct {
	store *store.Store
	log   *logrus.Logger
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(st *store.Store, logger *logrus.Logger) *PatientRepository {
	return &PatientRepository{store: st, log: logger}
}

// List returns all patients in registration order.
func (r *PatientRepository) List() []domain.Patient {
	return r.store.Snapshot().Patients
}

// Get returns the patient with the given id.
func (r *PatientRepository) Get(id string) (*domain.Patient, error) {
	for _, p := range r.store.Snapshot().Patients {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("patient %q: %w", id, domain.ErrNotFound)
}

// Create assigns a fresh id and appends the patient to the roster.
func (r *PatientRepository) Create(p domain.Patient) domain.Patient {
	p.ID = uuid.New().String()
	r.store.Mutate(func(s *store.State) {
		s.Patients = append(s.Patients, p)
	})
	r.log.WithFields(logrus.Fields{
		"patient_id": p.ID,
		"diagnosis":  p.Diagnosis,
	}).Info("Patient registered")
	return p
}

// Replace swaps the whole record for the patient with p.ID. The edit form
// submits a complete record, so partial updates are not supported.
func (r *PatientRepository) Replace(p domain.Patient) error {
	found := false
	r.store.Mutate(func(s *store.State) {
		for i := range s.Patients {
			if s.Patients[i].ID == p.ID {
				s.Patients[i] = p
				found = true
				return
			}
		}
	})
	if !found {
		return fmt.Errorf("patient %q: %w", p.ID, domain.ErrNotFound)
	}
	r.log.WithField("patient_id", p.ID).Info("Patient record replaced")
	return nil
}

// Delete removes the patient and all of their logs in a single mutation, so
// no orphaned log can survive a crash between two writes.
func (r *PatientRepository) Delete(id string) error {
	found := false
	removedLogs := 0
	r.store.Mutate(func(s *store.State) {
		patients := s.Patients[:0]
		for _, p := range s.Patients {
			if p.ID == id {
				found = true
				continue
			}
			patients = append(patients, p)
		}
		s.Patients = patients
		if !found {
			return
		}
		logs := s.Logs[:0]
		for _, l := range s.Logs {
			if l.PatientID == id {
				removedLogs++
				continue
			}
			logs = append(logs, l)
		}
		s.Logs = logs
	})
	if !found {
		return fmt.Errorf("patient %q: %w", id, domain.ErrNotFound)
	}
	r.log.WithFields(logrus.Fields{
		"patient_id":   id,
		"removed_logs": removedLogs,
	}).Info("Patient deleted with dependent logs")
	return nil
}
