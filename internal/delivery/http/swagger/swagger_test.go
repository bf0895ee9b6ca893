package http_swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServesRegisteredDoc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New().RegisterRoutes(&engine.RouterGroup)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/polls/{poll_id}/vote")
}
