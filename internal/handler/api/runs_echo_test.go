package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/service/ratelimit"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	startErr error
	started  []models.RunOptions
	last     *models.RunReport
}

func (f *fakeRuns) Start(_ context.Context, opts models.RunOptions) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, opts)
	return nil
}

func (f *fakeRuns) Last() (models.RunReport, bool) {
	if f.last == nil {
		return models.RunReport{}, false
	}
	return *f.last, true
}

func (f *fakeRuns) Running() bool { return len(f.started) > 0 }

func serve(t *testing.T, h *RunsEchoHandler, method, path, body string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestTriggerRunDefaultsToManual(t *testing.T) {
	runs := &fakeRuns{}
	h := NewRunsEchoHandler(xlogger.Nop(), runs, nil)

	rec, _ := serve(t, h, http.MethodPost, "/api/runs", `{"intervals":["60","5"]}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, runs.started, 1)
	assert.True(t, runs.started[0].Manual)
	assert.Equal(t, []string{"60", "5"}, runs.started[0].Intervals)
}

func TestTriggerRunValidation(t *testing.T) {
	runs := &fakeRuns{}
	h := NewRunsEchoHandler(xlogger.Nop(), runs, nil)

	rec, resp := serve(t, h, http.MethodPost, "/api/runs", `{"intervals":["1"],"symbols":["btcusdt"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, resp.Data, 2)
	assert.Empty(t, runs.started)
}

func TestTriggerRunConflict(t *testing.T) {
	h := NewRunsEchoHandler(xlogger.Nop(), &fakeRuns{startErr: models.ErrRunInProgress}, nil)

	rec, _ := serve(t, h, http.MethodPost, "/api/runs", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerRunThrottled(t *testing.T) {
	h := NewRunsEchoHandler(xlogger.Nop(), &fakeRuns{}, ratelimit.New(1, 0))

	rec, _ := serve(t, h, http.MethodPost, "/api/runs", `{"manual":false}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	rec, _ = serve(t, h, http.MethodPost, "/api/runs", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLastRun(t *testing.T) {
	runs := &fakeRuns{}
	h := NewRunsEchoHandler(xlogger.Nop(), runs, nil)

	rec, _ := serve(t, h, http.MethodGet, "/api/runs/last", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runs.last = &models.RunReport{ID: "abc", Delivered: 4}
	rec, resp := serve(t, h, http.MethodGet, "/api/runs/last", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "abc", data["id"])
	assert.Equal(t, 4.0, data["delivered"])
}

func TestHealth(t *testing.T) {
	rec, resp := serve(t, NewRunsEchoHandler(xlogger.Nop(), &fakeRuns{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Data.(map[string]interface{})["status"])
}
