package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/studybuddy/cmd/server/internal/middleware"
	"github.com/houzhh15/studybuddy/cmd/server/internal/services"
)

// currentActor 组装服务层使用的请求者信息
func currentActor(c *gin.Context) services.Actor {
	actor := services.Actor{
		Username: c.GetString(middleware.ContextUser),
		UserType: c.GetString(middleware.ContextUserType),
	}
	if v, ok := c.Get(middleware.ContextScopes); ok {
		if scopes, ok := v.([]string); ok {
			actor.Scopes = scopes
		}
	}
	return actor
}

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// notFoundResponse 返回 404 响应
func notFoundResponse(c *gin.Context, resource string) {
	errorResponse(c, http.StatusNotFound, resource+" not found")
}

// badRequestResponse 返回 400 响应
func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, message)
}

// unauthorizedResponse 返回 401 响应
func unauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	errorResponse(c, http.StatusUnauthorized, message)
}

// forbiddenResponse 返回 403 响应
func forbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = "forbidden"
	}
	errorResponse(c, http.StatusForbidden, message)
}

// internalErrorResponse 返回 500 响应，不向客户端暴露内部错误
func internalErrorResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusInternalServerError, message)
}
