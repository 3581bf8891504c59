package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type staticSession bool

func (s staticSession) IsAuthenticated() bool { return bool(s) }

func newTestRouter(session Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/closed", RequireSession(session, logger), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(staticSession(false))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/open", nil))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(r, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequireSession(t *testing.T) {
	rec := serve(newTestRouter(staticSession(false)), httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"Status":"Fail","Message":"authentication required"}`, rec.Body.String())

	rec = serve(newTestRouter(staticSession(true)), httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
