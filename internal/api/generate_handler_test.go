package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/api/middleware"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/task"
)

const testAPIKey = "test-api-key-0123456789"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// stubService records submissions and serves canned status results.
type stubService struct {
	submitted []*domain.Request
	submitErr error
	statusRes task.Result
	statusErr error
	stats     task.Stats
}

func (s *stubService) Submit(req *domain.Request, _ int) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted = append(s.submitted, req)
	return nil
}

func (s *stubService) Status(_ context.Context, _ uuid.UUID) (task.Result, error) {
	return s.statusRes, s.statusErr
}

func (s *stubService) Stats() task.Stats { return s.stats }

func newTestServer(t *testing.T, svc *stubService) *httptest.Server {
	t.Helper()
	router := NewRouter(RouterConfig{
		Service: svc,
		Auth:    middleware.NewAPIKeyAuth([]string{testAPIKey}),
		Logger:  testLogger(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type formFile struct {
	field string
	data  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.field+".jpg")
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postGenerate(t *testing.T, srv *httptest.Server, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/generate", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func baseFields() map[string]string {
	return map[string]string{
		"text":     "red silk saree with zari border",
		"username": "acme",
		"product":  "silk saree",
	}
}

func TestGenerateAccepted(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	fields := baseFields()
	fields["numberOfOutputs"] = "3"
	fields["aspectRatio"] = "1:1"
	fields["generate_video"] = "true"
	fields["upscale"] = "false"
	fields["gender"] = "Female"

	body, ct := multipartBody(t, fields,
		formFile{"frontside", []byte("front-bytes")},
		formFile{"backside", []byte("back-bytes")},
	)
	resp := postGenerate(t, srv, body, ct)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted GenerateAcceptedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.Equal(t, "queued", accepted.Status)
	assert.Contains(t, accepted.StatusURL, accepted.RequestID.String())

	require.Len(t, svc.submitted, 1)
	req := svc.submitted[0]
	assert.Equal(t, accepted.RequestID, req.ID)
	assert.Equal(t, 3, req.NumberOfOutputs)
	assert.Equal(t, "1:1", req.AspectRatio)
	assert.Equal(t, "female", req.Gender)
	assert.True(t, req.WantVideo)
	assert.False(t, req.Upscale)
	assert.Equal(t, []byte("front-bytes"), req.ReferenceImages[domain.ViewFrontside])
	assert.Equal(t, []byte("back-bytes"), req.ReferenceImages[domain.ViewBackside])
}

func TestGenerateDefaults(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	body, ct := multipartBody(t, baseFields(), formFile{"frontside", []byte("front")})
	resp := postGenerate(t, srv, body, ct)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, svc.submitted, 1)

	req := svc.submitted[0]
	assert.Equal(t, 1, req.NumberOfOutputs)
	assert.Equal(t, "9:16", req.AspectRatio)
	assert.True(t, req.Upscale)
	assert.False(t, req.WantVideo)
}

func TestGenerateRejectsMissingFrontside(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	body, ct := multipartBody(t, baseFields(), formFile{"backside", []byte("back")})
	resp := postGenerate(t, srv, body, ct)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.submitted)
}

func TestGenerateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing text", func(f map[string]string) { delete(f, "text") }},
		{"missing username", func(f map[string]string) { delete(f, "username") }},
		{"too many outputs", func(f map[string]string) { f["numberOfOutputs"] = "7" }},
		{"outputs not a number", func(f map[string]string) { f["numberOfOutputs"] = "many" }},
		{"bad aspect ratio", func(f map[string]string) { f["aspectRatio"] = "21:9" }},
		{"bad gender", func(f map[string]string) { f["gender"] = "robot" }},
		{"bad backgrounds json", func(f map[string]string) { f["backgrounds"] = "{broken" }},
		{"unknown backgrounds view", func(f map[string]string) { f["backgrounds"] = `{"topview":[1,0,0]}` }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{}
			srv := newTestServer(t, svc)

			fields := baseFields()
			tc.mutate(fields)

			body, ct := multipartBody(t, fields, formFile{"frontside", []byte("front")})
			resp := postGenerate(t, srv, body, ct)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, svc.submitted)
		})
	}
}

func TestGenerateBackgroundsConfig(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	fields := baseFields()
	fields["backgrounds"] = `{"frontside": [1, 0, 2]}`

	body, ct := multipartBody(t, fields, formFile{"frontside", []byte("front")})
	resp := postGenerate(t, srv, body, ct)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, svc.submitted, 1)
	assert.Equal(t,
		domain.BackgroundCounts{1, 0, 2},
		svc.submitted[0].BackgroundConfig[domain.ViewFrontside])
}

func TestGenerateQueueFull(t *testing.T) {
	svc := &stubService{
		submitErr: fmt.Errorf("queue request: %w", task.ErrQueueFull),
	}
	srv := newTestServer(t, svc)

	body, ct := multipartBody(t, baseFields(), formFile{"frontside", []byte("front")})
	resp := postGenerate(t, srv, body, ct)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var errResp struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "Queue is full, try again later", errResp.Error)
	assert.NotEmpty(t, errResp.TraceID)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	body, ct := multipartBody(t, baseFields(), formFile{"frontside", []byte("front")})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/generate", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ct)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRejectsWrongKey(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/queue/status", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "not-the-right-key-at-all")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthOpen(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestStatusEndpoints(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	id := uuid.New()

	t.Run("succeeded run includes result", func(t *testing.T) {
		svc := &stubService{
			statusRes: task.Result{
				TaskID:      id,
				Status:      task.StatusSucceeded,
				Attempt:     1,
				SubmittedAt: now,
				StartedAt:   now,
				CompletedAt: now.Add(30 * time.Second),
				Value: &domain.Result{
					RequestID:       id,
					Outcome:         domain.OutcomeComplete,
					PrimaryImageURL: "http://x/front.jpg",
				},
			},
		}
		srv := newTestServer(t, svc)

		resp := getStatus(t, srv, id.String())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sr StatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
		assert.Equal(t, "succeeded", sr.Status)
		require.NotNil(t, sr.Result)
		assert.Equal(t, "http://x/front.jpg", sr.Result.PrimaryImageURL)
		assert.Empty(t, sr.Error)
	})

	t.Run("failed run carries safe error and partial result", func(t *testing.T) {
		svc := &stubService{
			statusRes: task.Result{
				TaskID:      id,
				Status:      task.StatusFailed,
				Attempt:     3,
				SubmittedAt: now,
				Err:         fmt.Errorf("flux call: %w", context.DeadlineExceeded),
				Value: &domain.Result{
					RequestID:       id,
					Outcome:         domain.OutcomeFailed,
					DegradedFields:  []string{},
					ProcessingTimes: map[string]float64{"analysis": 1.2, "total": 1.3},
					Error:           "generation stage: backend overloaded",
				},
			},
		}
		srv := newTestServer(t, svc)

		resp := getStatus(t, srv, id.String())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sr StatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
		assert.Equal(t, "failed", sr.Status)
		assert.Equal(t, "An unexpected error occurred", sr.Error)
		require.NotNil(t, sr.Result)
		assert.Equal(t, domain.OutcomeFailed, sr.Result.Outcome)
		assert.Contains(t, sr.Result.ProcessingTimes, "total")
		assert.NotNil(t, sr.Result.DegradedFields)
	})

	t.Run("archived failed run uses stored message", func(t *testing.T) {
		svc := &stubService{
			statusRes: task.Result{
				TaskID:      id,
				Status:      task.StatusFailed,
				SubmittedAt: now,
				Value: &domain.Result{
					RequestID:       id,
					Outcome:         domain.OutcomeFailed,
					ProcessingTimes: map[string]float64{"total": 2.5},
					Error:           "analysis stage: backend overloaded",
				},
			},
		}
		srv := newTestServer(t, svc)

		resp := getStatus(t, srv, id.String())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sr StatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
		assert.Equal(t, "failed", sr.Status)
		assert.Equal(t, "analysis stage: backend overloaded", sr.Error)
		require.NotNil(t, sr.Result)
		assert.Contains(t, sr.Result.ProcessingTimes, "total")
	})

	t.Run("unknown run is 404", func(t *testing.T) {
		svc := &stubService{
			statusErr: fmt.Errorf("%w: %s", task.ErrTaskNotFound, id),
		}
		srv := newTestServer(t, svc)

		resp := getStatus(t, srv, id.String())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		resp := getStatus(t, srv, "not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestQueueStatus(t *testing.T) {
	svc := &stubService{
		stats: task.Stats{
			QueueSize:      2,
			MaxQueueSize:   100,
			RunningTasks:   3,
			MaxWorkers:     10,
			CompletedTasks: 41,
			FailedTasks:    1,
			IsRunning:      true,
		},
	}
	srv := newTestServer(t, svc)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/queue/status", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats task.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, svc.stats, stats)
}

func getStatus(t *testing.T, srv *httptest.Server, id string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/generate/"+id, nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
