package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is the single practitioner profile of the installation. The password
// gates the local lock screen only; it is not a real credential. APIKey is
// the opaque generation credential entered on the settings screen and is
// persisted alongside the rest of the profile.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
	APIKey   string `json:"apiKey,omitempty"`
}

// DefaultUser returns the profile created on first run.
func DefaultUser() User {
	return User{ID: "user_1", Name: "김주영"}
}

// SuspensionRange records a pause interval in a patient's treatment timeline.
type SuspensionRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Patient is one client record: identity, diagnosis, treatment goals and the
// three assessment checkpoints. Goals never contain empty strings; interim
// and final assessment fields may be unset.
type Patient struct {
	ID                     string             `json:"id"`
	Name                   string             `json:"name"`
	Gender                 Gender             `json:"gender"`
	BirthDate              string             `json:"birthDate"`
	Diagnosis              Diagnosis          `json:"diagnosis"`
	DisabilitySeverity     DisabilitySeverity `json:"disabilitySeverity"`
	Goals                  []string           `json:"goals"`
	InitialAssessment      string             `json:"initialAssessment"`
	InitialAssessmentDate  string             `json:"initialAssessmentDate"`
	InterimAssessment      string             `json:"interimAssessment"`
	InterimAssessmentDate  string             `json:"interimAssessmentDate"`
	FinalAssessment        string             `json:"finalAssessment"`
	FinalAssessmentDate    string             `json:"finalAssessmentDate"`
	TherapyStartDate       string             `json:"therapyStartDate"`
	Suspensions            []SuspensionRange  `json:"suspensions"`
	TerminationDate        string             `json:"terminationDate,omitempty"`
}

// Clone returns a deep copy so a snapshot cannot alias live state.
func (p Patient) Clone() Patient {
	out := p
	if p.Goals != nil {
		out.Goals = append([]string(nil), p.Goals...)
	}
	if p.Suspensions != nil {
		out.Suspensions = append([]SuspensionRange(nil), p.Suspensions...)
	}
	return out
}

// TherapyLog is one generated session record. Logs are created only through
// batch generation and are never mutated afterwards except for the
// clinician's reaction note.
type TherapyLog struct {
	ID           string `json:"id"`
	PatientID    string `json:"patientId"`
	Date         string `json:"date"`
	ActivityName string `json:"activityName"`
	GeneratedLog string `json:"generatedLog"`
	Reaction     string `json:"reaction"`
	CreatedAt    int64  `json:"createdAt"`
}

// NewLogID builds a time-based log id. Batch members share one timestamp and
// are disambiguated by their index offset, which also drives newest-first
// ordering within the batch.
func NewLogID(t time.Time, offset int) string {
	return strconv.FormatInt(t.UnixMilli()+int64(offset), 10)
}

// ParseGoals splits a comma-separated goal input into the stored goal list.
// Entries are trimmed and empty entries discarded.
func ParseGoals(input string) []string {
	parts := strings.Split(input, ",")
	goals := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			goals = append(goals, g)
		}
	}
	return goals
}
