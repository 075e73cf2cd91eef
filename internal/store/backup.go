package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/infem06/progress/internal/domain"
)

// BackupPayload is the full-state export/import format: the same three
// collections the blob store keeps, in one document.
type BackupPayload struct {
	User     domain.User         `json:"user"`
	Patients []domain.Patient    `json:"patients"`
	Logs     []domain.TherapyLog `json:"logs"`
}

// Export returns the current state as a backup payload.
func (s *Store) Export() BackupPayload {
	snap := s.Snapshot()
	return BackupPayload{User: snap.User, Patients: snap.Patients, Logs: snap.Logs}
}

// DecodeBackup parses and validates an import payload. The payload must be
// structurally valid as a whole before any of it is applied; enum values are
// checked against their closed sets during decoding.
func DecodeBackup(data []byte) (*BackupPayload, error) {
	var p BackupPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImportRejected, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImportRejected, err)
	}
	return &p, nil
}

// Validate checks cross-record structure: ids, goal invariants and log
// ownership references.
func (p *BackupPayload) Validate() error {
	if p.User.ID == "" {
		return fmt.Errorf("user id is required")
	}

	patientIDs := make(map[string]bool, len(p.Patients))
	for i, patient := range p.Patients {
		if patient.ID == "" {
			return fmt.Errorf("patient %d: id is required", i)
		}
		if patientIDs[patient.ID] {
			return fmt.Errorf("patient %d: duplicate id %q", i, patient.ID)
		}
		patientIDs[patient.ID] = true
		if patient.Name == "" {
			return fmt.Errorf("patient %q: name is required", patient.ID)
		}
		for _, g := range patient.Goals {
			if strings.TrimSpace(g) == "" {
				return fmt.Errorf("patient %q: goals must not contain empty entries", patient.ID)
			}
		}
	}

	logIDs := make(map[string]bool, len(p.Logs))
	for i, l := range p.Logs {
		if l.ID == "" {
			return fmt.Errorf("log %d: id is required", i)
		}
		if logIDs[l.ID] {
			return fmt.Errorf("log %d: duplicate id %q", i, l.ID)
		}
		logIDs[l.ID] = true
		if !patientIDs[l.PatientID] {
			return fmt.Errorf("log %q: unknown patient %q", l.ID, l.PatientID)
		}
	}

	return nil
}

// Import replaces the whole state with the validated payload in a single
// mutation.
func (s *Store) Import(p *BackupPayload) {
	s.Mutate(func(st *State) {
		st.User = p.User
		st.Patients = p.Patients
		st.Logs = p.Logs
	})
}
