// Package service holds the business workflows: batch log generation,
// assessment drafting, the local session gate and log-deletion confirmation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
)

// SessionsPerBatch is the number of therapy logs produced per generation
// request: one treatment week of weekday sessions.
const SessionsPerBatch = 5

// fallbackKeywords is substituted into the prompt when the clinician leaves
// the activity field empty.
const fallbackKeywords = "치료 관련 활동"

// GeneratedEntry is one generated session before ids and timestamps are
// assigned. The service hands these back as plain data; callers persist.
type GeneratedEntry struct {
	Date         string `json:"date"`
	ActivityName string `json:"activityName"`
	Content      string `json:"content"`
}

type batchResponse struct {
	Logs []GeneratedEntry `json:"logs"`
}

// LogGenerator produces a week of therapy logs for one patient per request.
type LogGenerator struct {
	client domain.GenerationClient
	log    *logrus.Logger
}

// NewLogGenerator creates a log generator.
func NewLogGenerator(client domain.GenerationClient, logger *logrus.Logger) *LogGenerator {
	return &LogGenerator{client: client, log: logger}
}

// GenerateWeekLogs builds the batch prompt for patient and returns exactly
// SessionsPerBatch entries, or fails as a whole. Session dates are computed
// here, not requested from the model; the model's date output is discarded.
func (g *LogGenerator) GenerateWeekLogs(ctx context.Context, patient *domain.Patient, activityKeywords, startDate string) ([]GeneratedEntry, error) {
	if !g.client.Ready() {
		return nil, domain.ErrNotConfigured
	}

	dates, err := SessionDates(startDate, SessionsPerBatch)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}

	prompt := buildBatchPrompt(patient, activityKeywords, dates)

	raw, err := g.client.GenerateJSON(ctx, prompt, batchLogSchema())
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return nil, err
		}
		g.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"error":      err,
		}).Error("Batch generation call failed")
		return nil, domain.ErrGenerationFailed
	}

	var parsed batchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		g.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"error":      err,
		}).Error("Batch generation response not parseable")
		return nil, domain.ErrGenerationFailed
	}
	if len(parsed.Logs) != SessionsPerBatch {
		g.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"count":      len(parsed.Logs),
		}).Error("Batch generation returned wrong entry count")
		return nil, domain.ErrGenerationFailed
	}
	for i, entry := range parsed.Logs {
		if entry.ActivityName == "" || entry.Content == "" {
			g.log.WithFields(logrus.Fields{
				"patient_id": patient.ID,
				"index":      i,
			}).Error("Batch generation returned incomplete entry")
			return nil, domain.ErrGenerationFailed
		}
	}

	// The computed weekday dates are authoritative, whatever the model wrote.
	entries := parsed.Logs
	for i := range entries {
		entries[i].Date = dates[i]
	}

	g.log.WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"start_date": dates[0],
		"end_date":   dates[len(dates)-1],
	}).Info("Batch generation succeeded")
	return entries, nil
}

// SessionDates returns n consecutive weekday dates starting at start
// (YYYY-MM-DD), skipping Saturdays and Sundays. A weekend start advances to
// the following Monday.
func SessionDates(start string, n int) ([]string, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, n)
	for len(dates) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates, nil
}

// assessmentExcerpt truncates the initial assessment for the prompt.
func assessmentExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100])
}

func buildBatchPrompt(patient *domain.Patient, activityKeywords string, dates []string) string {
	keywords := strings.TrimSpace(activityKeywords)
	if keywords == "" {
		keywords = fallbackKeywords
	}
	goals := strings.Join(patient.Goals, ", ")

	var dateLines strings.Builder
	for i, d := range dates {
		fmt.Fprintf(&dateLines, "%d일차: %s\n", i+1, d)
	}

	return fmt.Sprintf(`당신은 16년차 베테랑 작업치료사입니다. 이용자 [%s]의 정보를 바탕으로 %d일치 '치료활동일지'를 작성해주세요.

[이용자 정보]
- 진단명: %s
- 치료 목표: %s
- 초기평가: %s...

[치료 일자 - 아래 날짜를 순서대로 date 필드에 그대로 사용할 것]
%s
[작성 양식 - 반드시 이 형식을 지키고 각 줄 끝에 줄바꿈(Enter)을 넣으세요]
*제목
1. (해당일 치료 내용 첫 번째 줄)
2. (해당일 치료 내용 두 번째 줄)
3. (해당일 치료 내용 세 번째 줄)
4. (해당일 치료 내용 네 번째 줄)
5. (해당일 치료 내용 다섯 번째 줄)

*상담내용
- (치료 내용에 대한 구체적인 상담 및 피드백 내용)

[작성 규칙 - 중요!]
1. 각 일지는 %s 중 '딱 하나의 목표'에만 집중하여 작성할 것.
2. *제목 아래의 5줄은 반드시 각각 줄을 나누어 작성하여, 복사했을 때 바로 5행이 되어야 함.
3. *제목 섹션과 *상담내용 섹션 사이에는 반드시 빈 줄(Enter 두 번)을 넣을 것.
4. 문장 끝은 전문적인 개조식(~함, ~됨, ~임)으로 작성할 것.
5. 입력된 키워드(%s)를 반영할 것.

결과물은 반드시 지정된 JSON 형식으로만 출력하세요. content 필드 안의 텍스트에는 줄바꿈 문자(\n)를 명확히 포함하세요.`,
		patient.Name,
		len(dates),
		patient.Diagnosis,
		goals,
		assessmentExcerpt(patient.InitialAssessment),
		dateLines.String(),
		goals,
		keywords,
	)
}

// batchLogSchema is the strict response schema for batch generation.
func batchLogSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"logs": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"date":         map[string]any{"type": "STRING", "description": "YYYY-MM-DD 형식의 날짜"},
						"activityName": map[string]any{"type": "STRING", "description": "해당 일의 주요 활동명"},
						"content":      map[string]any{"type": "STRING", "description": "줄바꿈(\\n)이 포함된 일지 내용 전체"},
					},
					"required": []string{"date", "activityName", "content"},
				},
			},
		},
		"required": []string{"logs"},
	}
}
