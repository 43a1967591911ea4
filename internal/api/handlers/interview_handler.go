package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/services"
	"github.com/intervoice/backend/internal/utils"
)

const maxResumeBytes = 10 << 20

type InterviewHandler struct {
	resumes    services.ResumeService
	interviews services.InterviewService
}

func NewInterviewHandler(resumes services.ResumeService, interviews services.InterviewService) *InterviewHandler {
	return &InterviewHandler{resumes: resumes, interviews: interviews}
}

// Create handles the resume upload that opens a new session.
// multipart fields: resume (pdf), job_title, difficulty.
func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	const op = "InterviewHandler.Create"

	fh, err := c.FormFile("resume")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'resume'", err))
		return
	}

	jobTitle := strings.TrimSpace(c.PostForm("job_title"))
	if jobTitle == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "job_title is required", nil))
		return
	}

	difficulty := models.Difficulty(c.DefaultPostForm("difficulty", string(models.DifficultyMedium)))
	if !difficulty.Valid() {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "difficulty must be easy, medium, or hard", nil))
		return
	}

	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".pdf" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "only .pdf is allowed", nil))
		return
	}
	if fh.Size <= 0 || fh.Size > maxResumeBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	if ct := http.DetectContentType(data); ct != "application/pdf" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid content type (must be pdf)", nil))
		return
	}

	sess, err := h.resumes.CreateSession(c.Request.Context(), userID, data, jobTitle, difficulty)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// Start runs the orchestration: question generation (with fallback) followed
// by best-effort audio synthesis. Idempotent per session.
func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.interviews.Start(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Regenerate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.interviews.Regenerate(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.interviews.Get(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rows, err := h.interviews.List(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

type AnswerRequest struct {
	QuestionIndex int    `json:"question_index" binding:"required"`
	Answer        string `json:"answer" binding:"required"`
}

func (h *InterviewHandler) Answer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Answer", "invalid request body", err))
		return
	}

	sess, err := h.interviews.Answer(c.Request.Context(), userID, c.Param("session_id"), req.QuestionIndex, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.interviews.Complete(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) ListAudio(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	files, err := h.interviews.ListAudio(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": c.Param("session_id"),
		"audio":      files,
	})
}

// ServeAudio streams one question's WAV. Ownership is checked before any
// path is resolved; a foreign session's audio is never revealed.
func (h *InterviewHandler) ServeAudio(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	path, err := h.interviews.AudioFilePath(c.Request.Context(), userID, c.Param("session_id"), c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.File(path)
}
