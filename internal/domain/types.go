package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnosis is the primary clinical diagnosis category of a patient.
// Values are persisted as their clinical display strings, so the stored
// form and the UI selection option are the same literal.
type Diagnosis string

const (
	DiagnosisASD      Diagnosis = "자폐스펙트럼"
	DiagnosisADHD     Diagnosis = "주의력결핍 과잉행동장애"
	DiagnosisID       Diagnosis = "지적장애"
	DiagnosisCP       Diagnosis = "뇌병변"
	DiagnosisDD       Diagnosis = "발달지연"
	DiagnosisPhysical Diagnosis = "지체장애"
	DiagnosisLanguage Diagnosis = "언어장애"
	DiagnosisVisual   Diagnosis = "시각장애"
	DiagnosisOther    Diagnosis = "기타"
)

// Diagnoses returns the closed set of valid diagnosis categories in
// UI selection order.
func Diagnoses() []Diagnosis {
	return []Diagnosis{
		DiagnosisASD,
		DiagnosisADHD,
		DiagnosisID,
		DiagnosisCP,
		DiagnosisDD,
		DiagnosisPhysical,
		DiagnosisLanguage,
		DiagnosisVisual,
		DiagnosisOther,
	}
}

// Valid reports whether d is a member of the closed diagnosis set.
func (d Diagnosis) Valid() bool {
	for _, v := range Diagnoses() {
		if d == v {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes a diagnosis and rejects values outside the closed
// set. Stored records are not revalidated elsewhere, so an unknown value
// must fail here rather than be accepted silently.
func (d *Diagnosis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Diagnosis(s)
	if !v.Valid() {
		return fmt.Errorf("unknown diagnosis %q", s)
	}
	*d = v
	return nil
}

// DisabilitySeverity is the registered disability grade of a patient.
type DisabilitySeverity string

const (
	SeveritySevere    DisabilitySeverity = "심한 장애"
	SeverityNotSevere DisabilitySeverity = "심하지 않은 장애"
)

// Severities returns the closed set of valid severity values.
func Severities() []DisabilitySeverity {
	return []DisabilitySeverity{SeveritySevere, SeverityNotSevere}
}

// Valid reports whether s is a member of the closed severity set.
func (s DisabilitySeverity) Valid() bool {
	return s == SeveritySevere || s == SeverityNotSevere
}

// UnmarshalJSON decodes a severity, rejecting values outside the closed set.
func (s *DisabilitySeverity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := DisabilitySeverity(raw)
	if !v.Valid() {
		return fmt.Errorf("unknown disability severity %q", raw)
	}
	*s = v
	return nil
}

// Gender of a patient.
type Gender string

const (
	GenderMale   Gender = "남"
	GenderFemale Gender = "여"
)

// Genders returns the closed set of valid gender values.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

// Valid reports whether g is a member of the closed gender set.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// UnmarshalJSON decodes a gender, rejecting values outside the closed set.
func (g *Gender) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Gender(raw)
	if !v.Valid() {
		return fmt.Errorf("unknown gender %q", raw)
	}
	*g = v
	return nil
}

// AssessmentStage identifies one of the three clinical checkpoints.
type AssessmentStage string

const (
	StageInitial AssessmentStage = "initial"
	StageInterim AssessmentStage = "interim"
	StageFinal   AssessmentStage = "final"
)

// ParseAssessmentStage parses a stage name from a route or form value.
func ParseAssessmentStage(s string) (AssessmentStage, error) {
	switch AssessmentStage(strings.ToLower(strings.TrimSpace(s))) {
	case StageInitial:
		return StageInitial, nil
	case StageInterim:
		return StageInterim, nil
	case StageFinal:
		return StageFinal, nil
	}
	return "", fmt.Errorf("unknown assessment stage %q", s)
}
