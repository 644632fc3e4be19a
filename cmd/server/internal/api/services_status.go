package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber/degradation"
)

// TranscriberStatusProvider 提供转写服务当前状态（由降级控制器实现）
type TranscriberStatusProvider interface {
	Snapshot() degradation.Status
}

// TranscriberStatusResponse 转写服务状态响应
type TranscriberStatusResponse struct {
	Available bool                `json:"available"`
	Mode      string              `json:"mode"`
	Status    *degradation.Status `json:"status,omitempty"`
}

// HandleTranscriberStatus GET /api/v1/services/transcriber
// provider 为 nil 表示未配置语音转写，仅支持文本评估
func HandleTranscriberStatus(provider TranscriberStatusProvider, mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := TranscriberStatusResponse{Mode: mode}
		if provider != nil {
			st := provider.Snapshot()
			resp.Status = &st
			resp.Available = !st.Degraded
		}
		c.JSON(http.StatusOK, resp)
	}
}
