package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
)

// AssessmentDrafter produces interim and final assessment drafts. The draft
// is returned as plain text for the clinician to edit; nothing is persisted
// here.
type AssessmentDrafter struct {
	client domain.GenerationClient
	log    *logrus.Logger
}

// NewAssessmentDrafter creates an assessment drafter.
func NewAssessmentDrafter(client domain.GenerationClient, logger *logrus.Logger) *AssessmentDrafter {
	return &AssessmentDrafter{client: client, log: logger}
}

// Draft generates an assessment draft for the given stage. Only interim and
// final stages can be drafted; the initial assessment is always hand-written.
func (a *AssessmentDrafter) Draft(ctx context.Context, patient *domain.Patient, stage domain.AssessmentStage) (string, error) {
	if !a.client.Ready() {
		return "", domain.ErrNotConfigured
	}

	var prompt string
	goals := strings.Join(patient.Goals, ", ")
	switch stage {
	case domain.StageInterim:
		prompt = fmt.Sprintf("작업치료사로서 중간평가를 작성하세요.\n진단: %s\n목표: %s\n초기평가: %s",
			patient.Diagnosis, goals, patient.InitialAssessment)
	case domain.StageFinal:
		prompt = fmt.Sprintf("작업치료사로서 종결평가를 작성하세요.\n진단: %s\n목표: %s\n초기평가: %s\n중간평가: %s",
			patient.Diagnosis, goals, patient.InitialAssessment, patient.InterimAssessment)
	default:
		return "", fmt.Errorf("stage %q cannot be drafted", stage)
	}

	text, err := a.client.GenerateText(ctx, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return "", err
		}
		a.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"stage":      stage,
			"error":      err,
		}).Error("Assessment draft call failed")
		return "", domain.ErrGenerationFailed
	}
	if strings.TrimSpace(text) == "" {
		a.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"stage":      stage,
		}).Error("Assessment draft came back empty")
		return "", domain.ErrGenerationFailed
	}
	return text, nil
}
