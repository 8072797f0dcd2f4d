package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/assessor"
	"tax-credit-engine/internal/services/cache"
	s3service "tax-credit-engine/internal/services/s3"
	"tax-credit-engine/internal/services/tax"
)

type stubPinger struct{ err error }

func (s stubPinger) HealthCheck(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   int
		database string
	}{
		{"no database", nil, http.StatusOK, "not configured"},
		{"database up", stubPinger{}, http.StatusOK, "connected"},
		{"database down", stubPinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewHealthHandler(tt.db).Handle(context.Background(), events.APIGatewayProxyRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body HealthResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.database, body.Database)
			assert.Equal(t, "tax-credit-engine", body.Service)
		})
	}
}

type stubPresigner struct {
	key string
	err error
}

func (s *stubPresigner) GeneratePresignedUploadURL(_ context.Context, key, _ string, expiry int) (*s3service.PresignedURLResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.key = key
	return &s3service.PresignedURLResult{URL: "https://bucket.example/" + key, Key: key, ExpiresAt: time.Now().Add(time.Duration(expiry) * time.Minute)}, nil
}

func TestPresignedURLHandler(t *testing.T) {
	presigner := &stubPresigner{}
	h := NewPresignedURLHandler(presigner)
	h.newID = func() string { return "batch-7" }

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"filename": "FY 2024 (final).csv"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body PresignedURLResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "uploads/batch-7/FY2024final.csv", body.S3Key)
	assert.Equal(t, "batch-7", body.BatchID)
	assert.Equal(t, 3600, body.ExpiresIn)
	assert.Equal(t, body.S3Key, presigner.key)
}

func TestPresignedURLHandler_Rejects(t *testing.T) {
	h := NewPresignedURLHandler(&stubPresigner{})
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"filename": "payload.exe"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h = NewPresignedURLHandler(&stubPresigner{err: errors.New("no creds")})
	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type memoryObjects struct {
	files    map[string]string
	archived []string
}

func (m *memoryObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	body, ok := m.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return []byte(body), nil
}

func (m *memoryObjects) ArchiveFile(_ context.Context, key string) (string, error) {
	m.archived = append(m.archived, key)
	return s3service.ProcessedKey(key), nil
}

func s3Event(key string) events.S3Event {
	return events.S3Event{Records: []events.S3EventRecord{{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "tax-bucket"},
			Object: events.S3Object{Key: key},
		},
	}}}
}

func TestCSVProcessorHandler(t *testing.T) {
	objects := &memoryObjects{files: map[string]string{
		"uploads/batch-9/in.csv": strings.Join([]string{
			"taxpayer_id,email,gross_income,80C",
			"TP001,rahul@example.com,1200000,150000",
			"TP002,bad-email,900000,",
			"TP003,asha@example.com,1000000,",
		}, "\n"),
	}}
	svc := assessor.NewService(cache.NewComparisons(tax.Default(), cache.NewMemoryCache(), time.Minute), nil)
	h := NewCSVProcessorHandler(objects, svc)

	result, err := h.Handle(context.Background(), s3Event("uploads/batch-9/in.csv"))
	require.NoError(t, err)

	assert.Equal(t, "batch-9", result.BatchID)
	assert.Equal(t, 2, result.Assessed)
	assert.Equal(t, 1, result.Failed)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 2, result.Summary.RecommendNew)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, []string{"uploads/batch-9/in.csv"}, objects.archived)
}

func TestCSVProcessorHandler_EscapedKeyAndNoProfiles(t *testing.T) {
	objects := &memoryObjects{files: map[string]string{
		"other/my file.csv": "taxpayer_id,gross_income\n,100\n",
	}}
	h := NewCSVProcessorHandler(objects, assessor.NewService(cache.NewComparisons(tax.Default(), cache.NewMemoryCache(), 0), nil))

	result, err := h.Handle(context.Background(), s3Event("other/my+file.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assessed)
	assert.Len(t, result.BatchID, 16)
	assert.Empty(t, objects.archived)
}

type failingAssessor struct{}

func (failingAssessor) AssessBatch(context.Context, string, []*models.TaxProfile) (*assessor.BatchResult, error) {
	return nil, errors.New("db down")
}

func TestCSVProcessorHandler_Errors(t *testing.T) {
	h := NewCSVProcessorHandler(&memoryObjects{files: map[string]string{}}, failingAssessor{})
	_, err := h.Handle(context.Background(), s3Event("uploads/b/missing.csv"))
	assert.ErrorContains(t, err, "failed to download CSV")

	h = NewCSVProcessorHandler(&memoryObjects{files: map[string]string{
		"uploads/b/in.csv": "taxpayer_id,gross_income\nTP1,500000\n",
	}}, failingAssessor{})
	_, err = h.Handle(context.Background(), s3Event("uploads/b/in.csv"))
	assert.ErrorContains(t, err, "db down")

	result, err := h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", result.Message)
}
