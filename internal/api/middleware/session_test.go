package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/repository"
	"github.com/qs3c/datawarfare_server/internal/service"
	"github.com/qs3c/datawarfare_server/internal/testutil"
)

func sessionRouter(t *testing.T, userID string) (*gin.Engine, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	provider := service.NewSessionProvider(repository.NewProfileRepository(db), &config.Config{Plans: config.DefaultPlans()})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(UserIDKey, userID)
			c.Set(EmailKey, "s@example.com")
		}
		c.Next()
	})
	router.Use(LoadSession(provider))
	router.GET("/test", func(c *gin.Context) {
		s := GetSession(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": s.Authenticated(), "remaining": s.Remaining()})
	})

	return router, func() { testutil.CleanupTestDB(t, db) }
}

func TestLoadSession_Authenticated(t *testing.T) {
	router, cleanup := sessionRouter(t, "acct-1")
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"remaining":1}`, w.Body.String())
}

func TestLoadSession_Anonymous(t *testing.T) {
	router, cleanup := sessionRouter(t, "")
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.JSONEq(t, `{"authenticated":false,"remaining":0}`, w.Body.String())
}

func TestLoadSession_StoreFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	provider := service.NewSessionProvider(repository.NewProfileRepository(db), &config.Config{Plans: config.DefaultPlans()})
	require.NoError(t, db.Migrator().DropTable(&model.Profile{}))

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(UserIDKey, "acct-1"); c.Next() })
	router.Use(LoadSession(provider))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeServerError, parseResponse(t, w).Code)
}

func TestGetSession_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, GetSession(c).Authenticated())
}
