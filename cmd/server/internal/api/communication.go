package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/studybuddy/cmd/server/internal/history"
	"github.com/houzhh15/studybuddy/cmd/server/internal/services"
	"github.com/houzhh15/studybuddy/pkg/commskills"
)

// EvaluateAudioRequest 音频评估请求，audioData 为 base64（可带 data URL 前缀）
type EvaluateAudioRequest struct {
	AudioData string `json:"audioData"`
	Format    string `json:"format"`
}

// EvaluateTextRequest 文本评估请求
type EvaluateTextRequest struct {
	Transcription string `json:"transcription"`
}

// SaveHistoryRequest 保存历史请求：评估结果字段平铺，外加学号
type SaveHistoryRequest struct {
	StudentRegisterNumber string `json:"student_register_number"`
	Timestamp             string `json:"timestamp"`
	Type                  string `json:"type"`
	commskills.EvaluationResult
}

// HandleEvaluateAudio POST /api/v1/transcription/evaluate
func HandleEvaluateAudio(svc *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EvaluateAudioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.AudioData) == "" {
			badRequestResponse(c, "audioData is required")
			return
		}
		if req.Format == "" {
			req.Format = "wav"
		}

		res, err := svc.EvaluateAudio(c.Request.Context(), currentActor(c), req.AudioData, req.Format)
		if err != nil {
			errorResponse(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleEvaluateText POST /api/v1/transcription/evaluate-text
// 空文本返回兜底结果而不是 400
func HandleEvaluateText(svc *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EvaluateTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		c.JSON(http.StatusOK, svc.EvaluateText(c.Request.Context(), currentActor(c), req.Transcription))
	}
}

// HandleSaveHistory POST /api/v1/communication/history
func HandleSaveHistory(svc *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveHistoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.StudentRegisterNumber) == "" {
			badRequestResponse(c, "student_register_number is required")
			return
		}
		rec := history.FromResult(req.StudentRegisterNumber, req.EvaluationResult)
		rec.Timestamp = req.Timestamp
		rec.Type = req.Type

		saved, err := svc.SaveHistory(currentActor(c), rec)
		switch {
		case errors.Is(err, services.ErrForbidden):
			forbiddenResponse(c, err.Error())
			return
		case err != nil:
			internalErrorResponse(c, "failed to save communication history")
			return
		}

		resp := gin.H{
			"success":    true,
			"message":    "Communication history saved successfully",
			"history_id": saved.ID,
		}
		if saved.RepeatOf != "" {
			resp["repeat_of"] = saved.RepeatOf
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleListHistory GET /api/v1/communication/history/:student
func HandleListHistory(svc *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		student := c.Param("student")
		records, err := svc.ListHistory(currentActor(c), student)
		if errors.Is(err, services.ErrForbidden) {
			forbiddenResponse(c, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"history": records,
			"count":   len(records),
		})
	}
}

// HandleDeleteHistory DELETE /api/v1/communication/history/:id
func HandleDeleteHistory(svc *services.CommunicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.DeleteHistory(currentActor(c), c.Param("id"))
		switch {
		case errors.Is(err, history.ErrNotFound), errors.Is(err, history.ErrNoHistory):
			notFoundResponse(c, "history item")
			return
		case errors.Is(err, services.ErrForbidden):
			forbiddenResponse(c, err.Error())
			return
		case err != nil:
			internalErrorResponse(c, "failed to delete history item")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "History item deleted successfully",
		})
	}
}
