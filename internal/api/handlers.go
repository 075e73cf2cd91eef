package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infem06/progress/internal/domain"
	"github.com/infem06/progress/internal/store"
)

// --- session ---

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// handleLogin opens the local session gate. Any non-empty credential pair is
// accepted; this is a lock screen, not authentication.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body")
		return
	}
	if err := s.gate.Open(req.ID, req.Password); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "user": s.users.Get().Name})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.gate.Close()
	c.JSON(http.StatusOK, gin.H{"active": false})
}

// --- dashboard ---

func (s *Server) handleDashboard(c *gin.Context) {
	snap := s.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"user":          snap.User.Name,
		"patient_count": len(snap.Patients),
		"log_count":     len(snap.Logs),
		"ready":         s.client.Ready(),
	})
}

// --- patients ---

// patientRequest is the registration/edit form. Goals arrive as one
// comma-separated field, the way the form collects them.
type patientRequest struct {
	Name                  string                    `json:"name" binding:"required"`
	Gender                domain.Gender             `json:"gender" binding:"required"`
	BirthDate             string                    `json:"birthDate" binding:"required"`
	Diagnosis             domain.Diagnosis          `json:"diagnosis" binding:"required"`
	DisabilitySeverity    domain.DisabilitySeverity `json:"disabilitySeverity" binding:"required"`
	Goals                 string                    `json:"goals"`
	InitialAssessment     string                    `json:"initialAssessment"`
	InitialAssessmentDate string                    `json:"initialAssessmentDate"`
	InterimAssessment     string                    `json:"interimAssessment"`
	InterimAssessmentDate string                    `json:"interimAssessmentDate"`
	FinalAssessment       string                    `json:"finalAssessment"`
	FinalAssessmentDate   string                    `json:"finalAssessmentDate"`
	TherapyStartDate      string                    `json:"therapyStartDate" binding:"required"`
	Suspensions           []domain.SuspensionRange  `json:"suspensions"`
	TerminationDate       string                    `json:"terminationDate"`
}

func (r *patientRequest) toPatient() domain.Patient {
	return domain.Patient{
		Name:                  r.Name,
		Gender:                r.Gender,
		BirthDate:             r.BirthDate,
		Diagnosis:             r.Diagnosis,
		DisabilitySeverity:    r.DisabilitySeverity,
		Goals:                 domain.ParseGoals(r.Goals),
		InitialAssessment:     r.InitialAssessment,
		InitialAssessmentDate: r.InitialAssessmentDate,
		InterimAssessment:     r.InterimAssessment,
		InterimAssessmentDate: r.InterimAssessmentDate,
		FinalAssessment:       r.FinalAssessment,
		FinalAssessmentDate:   r.FinalAssessmentDate,
		TherapyStartDate:      r.TherapyStartDate,
		Suspensions:           r.Suspensions,
		TerminationDate:       r.TerminationDate,
	}
}

func (s *Server) handleListPatients(c *gin.Context) {
	patients := s.patients.List()
	if patients == nil {
		patients = []domain.Patient{}
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}
	patient := s.patients.Create(req.toPatient())
	c.JSON(http.StatusCreated, patient)
}

func (s *Server) handleGetPatient(c *gin.Context) {
	patient, err := s.patients.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}
	c.JSON(http.StatusOK, patient)
}

// handleReplacePatient replaces the whole record; the edit form always
// submits every field.
func (s *Server) handleReplacePatient(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}
	patient := req.toPatient()
	patient.ID = c.Param("id")
	if err := s.patients.Replace(patient); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (s *Server) handleDeletePatient(c *gin.Context) {
	if err := s.patients.Delete(c.Param("id")); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- log generation ---

type generateRequest struct {
	Activity  string `json:"activity"`
	StartDate string `json:"startDate" binding:"required"`
}

// handleGenerateLogs runs one batch generation for a patient. The batch is
// atomic: either five logs are persisted in one mutation or none are.
func (s *Server) handleGenerateLogs(c *gin.Context) {
	if !s.generating.CompareAndSwap(false, true) {
		s.respondError(c, http.StatusConflict, domain.CodeGenerationBusy, "a generation request is already in progress")
		return
	}
	defer s.generating.Store(false)

	patient, err := s.patients.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}

	entries, err := s.generator.GenerateWeekLogs(c.Request.Context(), patient, req.Activity, req.StartDate)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConfigured):
		s.respondError(c, http.StatusPreconditionFailed, domain.CodeNotConfigured,
			"generation credential is not configured; open settings")
		return
	case errors.Is(err, domain.ErrGenerationFailed):
		s.respondError(c, http.StatusBadGateway, domain.CodeGenerationFailed,
			"AI 일지 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.")
		return
	default:
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}

	now := time.Now()
	logs := make([]domain.TherapyLog, len(entries))
	for i, e := range entries {
		logs[i] = domain.TherapyLog{
			ID:           domain.NewLogID(now, i),
			PatientID:    patient.ID,
			Date:         e.Date,
			ActivityName: e.ActivityName,
			GeneratedLog: e.Content,
			CreatedAt:    now.UnixMilli() + int64(i),
		}
	}
	if err := s.logs.CreateBatch(logs); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"logs": logs})
}

// --- assessment drafts ---

func (s *Server) handleDraftAssessment(c *gin.Context) {
	stage, err := domain.ParseAssessmentStage(c.Param("stage"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}

	patient, err := s.patients.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "patient not found")
		return
	}

	draft, err := s.drafter.Draft(c.Request.Context(), patient, stage)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConfigured):
		s.respondError(c, http.StatusPreconditionFailed, domain.CodeNotConfigured,
			"generation credential is not configured; open settings")
		return
	case errors.Is(err, domain.ErrGenerationFailed):
		s.respondError(c, http.StatusBadGateway, domain.CodeGenerationFailed, "assessment draft failed")
		return
	default:
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"stage": stage, "content": draft})
}

// --- logs ---

func (s *Server) handleListLogs(c *gin.Context) {
	logs := s.logs.List(c.Query("patient_id"))
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

func (s *Server) handleSetReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body")
		return
	}
	if err := s.logs.SetReaction(c.Param("id"), req.Reaction); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "log not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// handleDeleteLog implements two-step deletion. The first request arms a
// confirmation and deletes nothing; a second request inside the window
// performs the deletion.
func (s *Server) handleDeleteLog(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.logs.Get(id); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "log not found")
		return
	}

	if !s.confirmer.Confirm(id) {
		c.JSON(http.StatusAccepted, gin.H{"deleted": false, "confirm_required": true})
		return
	}
	if err := s.logs.Delete(id); err != nil {
		s.respondError(c, http.StatusNotFound, domain.CodeNotFound, "log not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- settings ---

func (s *Server) handleGetSettings(c *gin.Context) {
	user := s.users.Get()
	c.JSON(http.StatusOK, gin.H{
		"name":        user.Name,
		"has_api_key": user.APIKey != "",
		"ready":       s.client.Ready(),
	})
}

type settingsRequest struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	APIKey      string `json:"apiKey"`
	ClearAPIKey bool   `json:"clearApiKey"`
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body")
		return
	}

	user := s.users.Update(req.Name, req.Password, req.APIKey, req.ClearAPIKey)
	if req.ClearAPIKey || req.APIKey != "" {
		s.client.SetCredential(user.APIKey)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        user.Name,
		"has_api_key": user.APIKey != "",
		"ready":       s.client.Ready(),
	})
}

// handleValidateCredential runs the single probe call against the provider.
func (s *Server) handleValidateCredential(c *gin.Context) {
	err := s.client.Validate(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ready": true})
	case errors.Is(err, domain.ErrNotConfigured):
		s.respondError(c, http.StatusPreconditionFailed, domain.CodeNotConfigured,
			"generation credential is not configured")
	default:
		c.JSON(http.StatusOK, gin.H{"ready": false})
	}
}

// --- backup ---

func (s *Server) handleExport(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Export())
}

// handleImport replaces the whole state with a validated payload. A
// malformed payload is rejected and the existing state stays untouched.
func (s *Server) handleImport(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeInvalidInput, "failed to read body")
		return
	}

	payload, err := store.DecodeBackup(data)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.CodeImportRejected, err.Error())
		return
	}

	s.store.Import(payload)
	s.client.SetCredential(payload.User.APIKey)
	c.JSON(http.StatusOK, gin.H{
		"patient_count": len(payload.Patients),
		"log_count":     len(payload.Logs),
	})
}
