package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/upload-api/internal/config"
	"jan-server/services/upload-api/internal/domain/upload"
	"jan-server/services/upload-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/upload-api/internal/utils/platformerrors"
)

// MockUploadService is a mock implementation of upload.Service for testing.
type MockUploadService struct {
	PlanFunc     func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error)
	FinalizeFunc func(ctx context.Context, req upload.FinalizeRequest) (*upload.CompletedObject, error)
	AbortFunc    func(ctx context.Context, req upload.AbortRequest) error
}

func (m *MockUploadService) Plan(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
	if m.PlanFunc != nil {
		return m.PlanFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockUploadService) Finalize(ctx context.Context, req upload.FinalizeRequest) (*upload.CompletedObject, error) {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockUploadService) Abort(ctx context.Context, req upload.AbortRequest) error {
	if m.AbortFunc != nil {
		return m.AbortFunc(ctx, req)
	}
	return nil
}

func setupUploadTestRouter(service upload.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := &config.Config{PresignTTL: time.Hour}
	handler := handlers.NewUploadHandler(cfg, service, zerolog.Nop())

	uploads := r.Group("/v1/uploads")
	{
		uploads.POST("/plan", handler.Plan)
		uploads.POST("/complete", handler.Complete)
		uploads.POST("/abort", handler.Abort)
	}

	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPlanEndpoint(t *testing.T) {
	t.Run("single-shot plan", func(t *testing.T) {
		service := &MockUploadService{
			PlanFunc: func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
				assert.Equal(t, "photo.png", req.FileName)
				assert.Equal(t, "image/png", req.FileType)
				return &upload.UploadPlan{
					Mode:      upload.ModeSingle,
					Key:       "uploads/up_1-photo.png",
					ExpiresAt: time.Now().Add(time.Hour),
					UploadURL: "https://store.example.com/put",
				}, nil
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/plan", gin.H{
			"file_name": "photo.png",
			"file_type": "image/png",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "single", resp["mode"])
		assert.Equal(t, "uploads/up_1-photo.png", resp["key"])
		assert.Equal(t, "https://store.example.com/put", resp["upload_url"])
		assert.Equal(t, float64(3600), resp["expires_in"])
		assert.NotContains(t, resp, "parts")
		assert.NotContains(t, resp, "upload_id")
	})

	t.Run("multipart plan", func(t *testing.T) {
		service := &MockUploadService{
			PlanFunc: func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
				return &upload.UploadPlan{
					Mode:      upload.ModeMultipart,
					Key:       "uploads/up_1-big.bin",
					ExpiresAt: time.Now().Add(time.Hour),
					UploadID:  "mp-42",
					PartSize:  10 * 1024 * 1024,
					Parts: []upload.PartAuthorization{
						{PartNumber: 1, URL: "https://store.example.com/part/1"},
						{PartNumber: 2, URL: "https://store.example.com/part/2"},
					},
				}, nil
			},
		}
		router := setupUploadTestRouter(service)

		size := int64(150 * 1024 * 1024)
		w := postJSON(t, router, "/v1/uploads/plan", gin.H{
			"file_name": "big.bin",
			"file_type": "application/octet-stream",
			"file_size": size,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Mode     string `json:"mode"`
			UploadID string `json:"upload_id"`
			PartSize int64  `json:"part_size"`
			Parts    []struct {
				PartNumber int32  `json:"part_number"`
				URL        string `json:"url"`
			} `json:"parts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "multipart", resp.Mode)
		assert.Equal(t, "mp-42", resp.UploadID)
		assert.Equal(t, int64(10*1024*1024), resp.PartSize)
		require.Len(t, resp.Parts, 2)
		assert.Equal(t, int32(1), resp.Parts[0].PartNumber)
		assert.Equal(t, int32(2), resp.Parts[1].PartNumber)
	})

	t.Run("missing required fields", func(t *testing.T) {
		called := false
		service := &MockUploadService{
			PlanFunc: func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
				called = true
				return nil, nil
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/plan", gin.H{"file_name": "photo.png"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called, "service must not be called on binding failure")
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		service := &MockUploadService{
			PlanFunc: func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "file_name is required", nil, "")
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/plan", gin.H{"file_name": " ", "file_type": "image/png"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store error maps to 502", func(t *testing.T) {
		service := &MockUploadService{
			PlanFunc: func(ctx context.Context, req upload.UploadRequest) (*upload.UploadPlan, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError, "failed to initiate multipart upload", nil, "")
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/plan", gin.H{"file_name": "a.bin", "file_type": "application/octet-stream", "file_size": 1})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCompleteEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &MockUploadService{
			FinalizeFunc: func(ctx context.Context, req upload.FinalizeRequest) (*upload.CompletedObject, error) {
				assert.Equal(t, "mp-42", req.UploadID)
				assert.Equal(t, "uploads/up_1-big.bin", req.Key)
				require.Len(t, req.Parts, 2)
				assert.Equal(t, int32(1), req.Parts[0].PartNumber)
				return &upload.CompletedObject{
					Key:      req.Key,
					ETag:     `"final"`,
					Location: "https://store.example.com/" + req.Key,
				}, nil
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/complete", gin.H{
			"upload_id": "mp-42",
			"key":       "uploads/up_1-big.bin",
			"parts": []gin.H{
				{"part_number": 1, "etag": `"a"`},
				{"part_number": 2, "etag": `"b"`},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "uploads/up_1-big.bin", resp["key"])
		assert.Equal(t, `"final"`, resp["etag"])
	})

	t.Run("store rejection maps to 502", func(t *testing.T) {
		service := &MockUploadService{
			FinalizeFunc: func(ctx context.Context, req upload.FinalizeRequest) (*upload.CompletedObject, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError, "failed to complete multipart upload", nil, "")
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/complete", gin.H{
			"upload_id": "mp-42",
			"key":       "k",
			"parts":     []gin.H{{"part_number": 1, "etag": `"a"`}},
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("partial failure maps to 500", func(t *testing.T) {
		service := &MockUploadService{
			FinalizeFunc: func(ctx context.Context, req upload.FinalizeRequest) (*upload.CompletedObject, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypePartialFailure, "completion and compensating abort both failed", nil, "")
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/complete", gin.H{
			"upload_id": "mp-42",
			"key":       "k",
			"parts":     []gin.H{{"part_number": 1, "etag": `"a"`}},
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing manifest fails binding", func(t *testing.T) {
		router := setupUploadTestRouter(&MockUploadService{})

		w := postJSON(t, router, "/v1/uploads/complete", gin.H{
			"upload_id": "mp-42",
			"key":       "k",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAbortEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &MockUploadService{
			AbortFunc: func(ctx context.Context, req upload.AbortRequest) error {
				assert.Equal(t, "mp-42", req.UploadID)
				assert.Equal(t, "uploads/up_1-big.bin", req.Key)
				return nil
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/abort", gin.H{
			"upload_id": "mp-42",
			"key":       "uploads/up_1-big.bin",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
	})

	t.Run("unknown session maps to 502", func(t *testing.T) {
		service := &MockUploadService{
			AbortFunc: func(ctx context.Context, req upload.AbortRequest) error {
				return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError, "failed to abort multipart upload", nil, "")
			},
		}
		router := setupUploadTestRouter(service)

		w := postJSON(t, router, "/v1/uploads/abort", gin.H{"upload_id": "mp-gone", "key": "k"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
