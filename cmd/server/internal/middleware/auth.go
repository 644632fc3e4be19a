package middleware

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
)

// gin.Context 中由认证中间件写入的键
const (
	ContextUser     = "user"
	ContextUserType = "user_type"
	ContextScopes   = "scopes"
)

// TokenParser 解析并校验 JWT
type TokenParser interface {
	ParseToken(token string) (*users.Claims, error)
}

// routeRule 预编译的 "METHOD /path/:param" 路由规则
type routeRule struct {
	method string
	re     *regexp.Regexp
	scopes []string
}

var paramPattern = regexp.MustCompile(`:[^/]+`)

func compileRoutes(routeScopes map[string][]string) []routeRule {
	rules := make([]routeRule, 0, len(routeScopes))
	for k, sc := range routeScopes {
		parts := strings.SplitN(k, " ", 2)
		if len(parts) != 2 {
			continue
		}
		reg := regexp.QuoteMeta(parts[1])
		// QuoteMeta 不转义 ':'，参数段可直接替换
		reg = paramPattern.ReplaceAllString(reg, `[^/]+`)
		reg = strings.ReplaceAll(reg, `\*`, `.*`)
		rules = append(rules, routeRule{method: parts[0], re: regexp.MustCompile("^" + reg + "$"), scopes: sc})
	}
	return rules
}

func matchRoute(rules []routeRule, method, path string) ([]string, bool) {
	for _, r := range rules {
		if r.method == method && r.re.MatchString(path) {
			return r.scopes, true
		}
	}
	return nil, false
}

// Auth Bearer JWT 认证 + 路由级权限校验
// publicPaths 中的路径、OPTIONS 请求以及非 /api/ 路径直接放行；
// routeScopes 中的路由要求用户至少拥有其中一个 scope
func Auth(parser TokenParser, routeScopes map[string][]string, publicPaths []string, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	rules := compileRoutes(routeScopes)
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if public[path] || c.Request.Method == http.MethodOptions || !strings.HasPrefix(path, "/api/") {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("missing bearer token", "method", c.Request.Method, "path", path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := parser.ParseToken(auth[7:])
		if err != nil {
			log.Warn("invalid token", "method", c.Request.Method, "path", path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextUser, claims.Username)
		c.Set(ContextUserType, claims.UserType)
		c.Set(ContextScopes, claims.Scopes)

		full := c.FullPath()
		if full == "" {
			full = path
		}
		if scs, ok := matchRoute(rules, c.Request.Method, full); ok && len(scs) > 0 {
			allowed := false
			for _, need := range scs {
				if users.HasScope(claims.Scopes, need) {
					allowed = true
					break
				}
			}
			if !allowed {
				log.Warn("permission denied",
					"method", c.Request.Method,
					"path", path,
					"user", claims.Username,
					"required_scopes", scs,
					"user_scopes", claims.Scopes,
				)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}
		c.Next()
	}
}
