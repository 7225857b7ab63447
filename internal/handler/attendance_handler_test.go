package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/service"
)

type mockAttendanceService struct {
	lastBatch []dto.AttendanceRecordRequest
	result    dto.ReconcileResult
	stats     dto.AttendanceStatsResponse
	err       error
}

func (m *mockAttendanceService) Reconcile(_ context.Context, records []dto.AttendanceRecordRequest) (dto.ReconcileResult, error) {
	m.lastBatch = records
	if m.err != nil {
		return dto.ReconcileResult{}, m.err
	}
	return m.result, nil
}

func (m *mockAttendanceService) List(_ context.Context, classID uint, date *time.Time) ([]dto.AttendanceResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.AttendanceResponse{{ID: 1, ClassID: classID, StudentID: 1, Status: "present"}}, nil
}

func (m *mockAttendanceService) Stats(_ context.Context, classID uint) (dto.AttendanceStatsResponse, error) {
	if m.err != nil {
		return dto.AttendanceStatsResponse{}, m.err
	}
	return m.stats, nil
}

func newAttendanceApp(svc service.AttendanceService) *fiber.App {
	app := fiber.New()
	handler.NewAttendanceHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/attendance"))
	return app
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func TestAttendanceHandler_ReconcileSuccess(t *testing.T) {
	svc := &mockAttendanceService{result: dto.ReconcileResult{Created: 2, Updated: 1}}
	app := newAttendanceApp(svc)

	req := jsonRequest(t, http.MethodPut, "/api/v1/attendance", []dto.AttendanceRecordRequest{
		{StudentID: 1, ClassID: 1, Date: "2026-03-09", Status: "present"},
		{StudentID: 2, ClassID: 1, Date: "2026-03-09", Status: "late"},
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Data    dto.ReconcileResult `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, 2, body.Data.Created)
	require.Equal(t, 1, body.Data.Updated)
	require.Len(t, svc.lastBatch, 2)
}

func TestAttendanceHandler_ReconcileFutureDate(t *testing.T) {
	svc := &mockAttendanceService{err: service.ErrFutureAttendanceDate}
	app := newAttendanceApp(svc)

	req := jsonRequest(t, http.MethodPut, "/api/v1/attendance", []dto.AttendanceRecordRequest{
		{StudentID: 1, ClassID: 1, Date: "2099-01-01", Status: "present"},
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAttendanceHandler_ReconcileBadBody(t *testing.T) {
	app := newAttendanceApp(&mockAttendanceService{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/attendance", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAttendanceHandler_ListRequiresClassID(t *testing.T) {
	app := newAttendanceApp(&mockAttendanceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAttendanceHandler_StatsSetsCacheHeader(t *testing.T) {
	svc := &mockAttendanceService{stats: dto.AttendanceStatsResponse{ClassID: 3, Total: 10, CacheHit: true}}
	app := newAttendanceApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/stats?classId=3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))
}
