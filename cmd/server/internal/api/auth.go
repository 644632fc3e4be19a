package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

// callerCanCreateTeacher 注册接口为公开路由，这里自行解析可选的 Bearer token
func callerCanCreateTeacher(c *gin.Context, userManager *users.Manager) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	claims, err := userManager.ParseToken(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return "", false
	}
	return claims.Username, users.HasScope(claims.Scopes, users.ScopeHistoryReadAll)
}

// HandleRegister POST /api/v1/auth/register
// allowTeacherSignup 为 false 时，教师账号只能由已登录的教师创建
func HandleRegister(userManager *users.Manager, auditLogger audit.AuditLogger, allowTeacherSignup bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			badRequestResponse(c, "username and password are required")
			return
		}
		if req.UserType == "" {
			req.UserType = users.TypeStudent
		}
		if req.UserType == users.TypeTeacher && !allowTeacherSignup {
			if operator, ok := callerCanCreateTeacher(c, userManager); !ok {
				_ = auditLogger.LogAction(operator, audit.ActionRegister, req.Username, "denied", "user_type=teacher")
				forbiddenResponse(c, "teacher accounts can only be created by a teacher")
				return
			}
		}

		user, err := userManager.Register(users.RegisterInput{
			Username: req.Username,
			Password: req.Password,
			UserType: req.UserType,
			FullName: req.FullName,
			Email:    req.Email,
		})
		switch {
		case errors.Is(err, users.ErrUserExists):
			errorResponse(c, http.StatusConflict, "user already exists")
			return
		case errors.Is(err, users.ErrInvalidUserType):
			badRequestResponse(c, "user_type must be student or teacher")
			return
		case err != nil:
			internalErrorResponse(c, "failed to register user")
			return
		}

		_ = auditLogger.LogAction(user.Username, audit.ActionRegister, user.UserID, "success", "user_type="+user.UserType)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "User registered successfully",
			"user_id": user.UserID,
		})
	}
}

// HandleLogin POST /api/v1/auth/login
func HandleLogin(userManager *users.Manager, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		user, err := userManager.Authenticate(req.Username, req.Password, req.UserType)
		if err != nil {
			_ = auditLogger.LogAction(req.Username, audit.ActionLoginFailed, "", "failed", "")
			unauthorizedResponse(c, "invalid credentials")
			return
		}
		token, err := userManager.GenerateToken(user.Username)
		if err != nil {
			internalErrorResponse(c, "failed to issue token")
			return
		}

		_ = auditLogger.LogAction(user.Username, audit.ActionLogin, user.UserID, "success", "")
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Login successful",
			"token":     token,
			"user_id":   user.UserID,
			"username":  user.Username,
			"user_type": user.UserType,
		})
	}
}
