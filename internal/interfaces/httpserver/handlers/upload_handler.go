package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/upload-api/internal/config"
	domain "jan-server/services/upload-api/internal/domain/upload"
	"jan-server/services/upload-api/internal/infrastructure/metrics"
	"jan-server/services/upload-api/internal/interfaces/httpserver/requests"
	"jan-server/services/upload-api/internal/interfaces/httpserver/responses"
	"jan-server/services/upload-api/internal/utils/platformerrors"
)

// UploadHandler exposes upload coordination endpoints.
type UploadHandler struct {
	cfg     *config.Config
	service domain.Service
	log     zerolog.Logger
}

func NewUploadHandler(cfg *config.Config, service domain.Service, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

// Plan godoc
// @Summary      Plan an upload
// @Description  Decides single-shot vs multipart and mints presigned URLs. Multipart plans carry one URL per part; the client uploads parts directly to the store and then calls complete.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.PlanUploadRequest  true  "Upload plan request"
// @Success      200      {object}  responses.PlanUploadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      502      {object}  responses.ErrorResponse
// @Router       /v1/uploads/plan [post]
func (h *UploadHandler) Plan(c *gin.Context) {
	var req requests.PlanUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "6a3667a8-4aef-44ab-9061-5f2ade1bb3f4")
		return
	}

	plan, err := h.service.Plan(c.Request.Context(), req.ToDomain())
	if err != nil {
		metrics.RecordPlan("unknown", "error", 0)
		h.log.Error().Err(err).Msg("plan upload failed")
		responses.HandleError(c, err, "failed to plan upload")
		return
	}

	var planned int64
	if req.FileSize != nil {
		planned = *req.FileSize
	}
	metrics.RecordPlan(plan.Mode, "success", planned)
	c.JSON(http.StatusOK, responses.BuildPlanUploadResponse(plan, h.cfg.PresignTTL))
}

// Complete godoc
// @Summary      Complete a multipart upload
// @Description  Assembles previously uploaded parts into the final object. On store rejection the session is aborted before the error is returned.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CompleteUploadRequest  true  "Completion manifest"
// @Success      200      {object}  responses.CompleteUploadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Failure      502      {object}  responses.ErrorResponse
// @Router       /v1/uploads/complete [post]
func (h *UploadHandler) Complete(c *gin.Context) {
	var req requests.CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "1da33a1e-402f-45ec-9e20-3a4f54a0f0b6")
		return
	}

	obj, err := h.service.Finalize(c.Request.Context(), req.ToDomain())
	if err != nil {
		metrics.RecordFinalize("error")
		h.log.Error().Err(err).Msg("complete upload failed")
		responses.HandleError(c, err, "failed to complete upload")
		return
	}

	metrics.RecordFinalize("success")
	c.JSON(http.StatusOK, responses.BuildCompleteUploadResponse(obj))
}

// Abort godoc
// @Summary      Abort a multipart upload
// @Description  Cancels an in-flight multipart upload and releases stored parts.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.AbortUploadRequest  true  "Abort request"
// @Success      200      {object}  responses.AbortUploadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      502      {object}  responses.ErrorResponse
// @Router       /v1/uploads/abort [post]
func (h *UploadHandler) Abort(c *gin.Context) {
	var req requests.AbortUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "7a2e43d2-9c64-4d2e-8f6c-8c1f18a43a21")
		return
	}

	if err := h.service.Abort(c.Request.Context(), req.ToDomain()); err != nil {
		metrics.RecordAbort("error")
		h.log.Error().Err(err).Msg("abort upload failed")
		responses.HandleError(c, err, "failed to abort upload")
		return
	}

	metrics.RecordAbort("success")
	c.JSON(http.StatusOK, responses.BuildAbortUploadResponse())
}
