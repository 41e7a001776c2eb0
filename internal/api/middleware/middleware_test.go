package middleware

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/pkg/consts"
	"CommandCenter/internal/pkg/logger"
	"CommandCenter/internal/pkg/redis"
	"CommandCenter/internal/pkg/security"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	config.Cfg = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", Issuer: "CommandCenter"}}
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })
	return mr
}

// signToken 按账号服务的格式签发 token
func signToken(t *testing.T, userID uint64, roles []string) string {
	t.Helper()
	now := time.Now()
	claims := &security.UserClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    config.Cfg.JWT.Issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Cfg.JWT.Secret))
	require.NoError(t, err)
	return token
}

func protectedEngine(roles ...string) *gin.Engine {
	r := gin.New()
	g := r.Group("/api", AuthMiddleware())
	g.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.Response{Code: 200, Data: c.GetUint64("user_id")})
	})
	if len(roles) > 0 {
		g.POST("/approve", CheckRoles(roles...), func(c *gin.Context) {
			c.JSON(http.StatusOK, dto.Response{Code: 200})
		})
	}
	return r
}

func call(t *testing.T, r http.Handler, method, path, token string) dto.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	setup(t)
	token := signToken(t, 7, []string{consts.RoleManager})

	res := call(t, protectedEngine(), http.MethodGet, "/api/me", token)

	assert.Equal(t, 200, res.Code)
	assert.EqualValues(t, 7, res.Data)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	mr := setup(t)
	token := signToken(t, 7, nil)
	r := protectedEngine()

	assert.Equal(t, 401, call(t, r, http.MethodGet, "/api/me", "").Code)
	assert.Equal(t, 401, call(t, r, http.MethodGet, "/api/me", "not-a-jwt").Code)

	config.Cfg.JWT.Secret = "rotated"
	assert.Equal(t, 401, call(t, r, http.MethodGet, "/api/me", token).Code)
	config.Cfg.JWT.Secret = "test-secret"

	sig, err := security.ExtractSignature(token)
	require.NoError(t, err)
	require.NoError(t, mr.Set(consts.TokenBlacklistKey+sig, "1"))
	assert.Equal(t, 401, call(t, r, http.MethodGet, "/api/me", token).Code)
}

func TestCheckRoles(t *testing.T) {
	setup(t)
	r := protectedEngine(consts.RoleManager, consts.RoleAdmin)

	author := signToken(t, 1, []string{"AUTHOR"})
	manager := signToken(t, 2, []string{consts.RoleManager})

	assert.Equal(t, 403, call(t, r, http.MethodPost, "/api/approve", author).Code)
	assert.Equal(t, 200, call(t, r, http.MethodPost, "/api/approve", manager).Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = logger.TraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(traceHeader, "upstream-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", seen)
	assert.Equal(t, "upstream-1", w.Header().Get(traceHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.True(t, strings.HasPrefix(seen, "http-"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.DELETE("/api/scheduler/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/scheduler/1", nil)
	req.Header.Set("Origin", "https://console.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
