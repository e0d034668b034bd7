package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/routes"
)

// newTestRouter 构建一套隔离的完整路由：记录文件指向临时目录，Redis和MQTT均未配置
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		EnvType:     "LOCAL",
		ServerPort:  "3001",
		RecordsFile: filepath.Join(t.TempDir(), "call_records.json"),
	}
	return routes.SetupRouter(cfg)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doRaw(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseJSON(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func startTestCall(t *testing.T, r *gin.Engine, number string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/call", gin.H{"phoneNumber": number})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	callID, _ := resp["callId"].(string)
	require.NotEmpty(t, callID)
	return callID
}

func TestStartCallEndpoint(t *testing.T) {
	r := newTestRouter(t)

	callID := startTestCall(t, r, "13800138000")

	w := doJSON(t, r, http.MethodGet, "/api/calls", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var calls []map[string]interface{}
	parseJSON(t, w, &calls)
	require.Len(t, calls, 1)
	assert.Equal(t, callID, calls[0]["callId"])
	assert.Equal(t, "ringing", calls[0]["status"])
	assert.Equal(t, false, calls[0]["isActive"])
}

func TestStartCallMissingNumber(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/call", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	assert.Equal(t, "缺少电话号码", resp["error"])
}

func TestStartCallRetryReturnsSameCallID(t *testing.T) {
	r := newTestRouter(t)

	first := startTestCall(t, r, "13800138000")
	second := startTestCall(t, r, "13800138000")
	assert.Equal(t, first, second)
}

func TestAnswerEndpoint(t *testing.T) {
	r := newTestRouter(t)
	callID := startTestCall(t, r, "13800138000")

	w := doJSON(t, r, http.MethodPost, "/api/answer", gin.H{"callId": callID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	assert.Equal(t, true, resp["success"])

	w = doJSON(t, r, http.MethodGet, "/api/calls", nil)
	var calls []map[string]interface{}
	parseJSON(t, w, &calls)
	require.Len(t, calls, 1)
	assert.Equal(t, "active", calls[0]["status"])
	assert.Equal(t, true, calls[0]["isActive"])
}

func TestAnswerUnknownCallReturns404(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/answer", gin.H{"callId": "no-such-call"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHangupEndpoint(t *testing.T) {
	r := newTestRouter(t)
	callID := startTestCall(t, r, "13800138000")

	w := doJSON(t, r, http.MethodPost, "/api/answer", gin.H{"callId": callID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/hangup", gin.H{"callId": callID})
	require.Equal(t, http.StatusOK, w.Code)

	// 挂断后不再活跃
	w = doJSON(t, r, http.MethodGet, "/api/calls", nil)
	var calls []map[string]interface{}
	parseJSON(t, w, &calls)
	assert.Empty(t, calls)

	// 记录折叠为一行已挂断
	w = doJSON(t, r, http.MethodGet, "/api/call-records", nil)
	var records []map[string]interface{}
	parseJSON(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "已挂断", records[0]["status"])
}

func TestHangupUnknownCallStillSucceeds(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/hangup", gin.H{"callId": "ghost"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	assert.Equal(t, true, resp["success"])
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)
	startTestCall(t, r, "13800138000")

	w := doJSON(t, r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	assert.Equal(t, "running", resp["status"])
	assert.Equal(t, float64(1), resp["activeCalls"])
	assert.Equal(t, float64(0), resp["connections"])
	assert.NotZero(t, resp["serverTime"])
}

func TestPingAndKeepAlive(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	parseJSON(t, w, &resp)
	assert.Equal(t, "pong", resp["message"])

	w = doJSON(t, r, http.MethodGet, "/keep-alive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodOptions, "/api/call", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
