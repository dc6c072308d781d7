package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/services/upload-api/internal/config"
	"jan-server/services/upload-api/internal/utils/platformerrors"
	"jan-server/services/upload-api/utils/uploadid"
)

// Storage abstracts the object store control plane the service drives.
// Implementations mint upload URLs and manage multipart sessions; object
// bytes never pass through this service.
type Storage interface {
	PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	CreateMultipartUpload(ctx context.Context, key string, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, key string, uploadID string, partNumber int32, ttl time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []CompletedPart) (*CompletedObject, error)
	AbortMultipartUpload(ctx context.Context, key string, uploadID string) error
	Health(ctx context.Context) error
}

// Service plans, finalizes and aborts client uploads.
type Service interface {
	Plan(ctx context.Context, req UploadRequest) (*UploadPlan, error)
	Finalize(ctx context.Context, req FinalizeRequest) (*CompletedObject, error)
	Abort(ctx context.Context, req AbortRequest) error
}

type service struct {
	cfg     *config.Config
	storage Storage
	log     zerolog.Logger
}

// NewService wires the upload domain service.
func NewService(cfg *config.Config, storage Storage, log zerolog.Logger) Service {
	return &service{
		cfg:     cfg,
		storage: storage,
		log:     log.With().Str("component", "upload-service").Logger(),
	}
}

// Plan validates the request, derives a unique object key and hands back
// either a single presigned PUT or a full multipart plan with one
// authorization per part.
func (s *service) Plan(ctx context.Context, req UploadRequest) (*UploadPlan, error) {
	fileName := strings.TrimSpace(req.FileName)
	fileType := strings.TrimSpace(req.FileType)

	if fileName == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"file_name is required",
			nil,
			"4f10ad91-ce83-4757-b48f-8343c2e2cdc5",
		)
	}
	if fileType == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"file_type is required",
			nil,
			"f0a3a9cc-2ab5-4bbc-8a4b-5df4709eef10",
		)
	}
	if req.FileSize != nil && *req.FileSize < 0 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"file_size must not be negative",
			nil,
			"0f922a80-6db1-4b95-bdd7-981ed5421a5e",
		)
	}

	key := s.objectKey(fileName, fileType)
	ttl := s.cfg.PresignTTL
	expiresAt := time.Now().UTC().Add(ttl)

	if req.FileSize == nil || *req.FileSize <= s.cfg.MultipartThreshold {
		url, err := s.storage.PresignPut(ctx, key, fileType, ttl)
		if err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeStorageError,
				"failed to authorize upload",
				err,
				"d462f848-53dd-4da0-9750-3b9925dce2d9",
			)
		}
		s.log.Info().Str("key", key).Str("mode", ModeSingle).Msg("upload plan issued")
		return &UploadPlan{
			Mode:      ModeSingle,
			Key:       key,
			ExpiresAt: expiresAt,
			UploadURL: url,
		}, nil
	}

	return s.planMultipart(ctx, key, fileType, *req.FileSize, ttl, expiresAt)
}

func (s *service) planMultipart(ctx context.Context, key, fileType string, fileSize int64, ttl time.Duration, expiresAt time.Time) (*UploadPlan, error) {
	partSize := s.cfg.PartSize
	partCount := ceilDiv(fileSize, partSize)

	if partCount > int64(s.cfg.MaxPartCount) {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file of %d bytes needs %d parts, exceeding the maximum of %d", fileSize, partCount, s.cfg.MaxPartCount),
			nil,
			"da5cd176-3a42-4638-b1cb-d29450cba864",
		)
	}
	// Every part except the last must meet the store's minimum. A sole
	// part is also the last one, so it is exempt.
	if remainder := fileSize % partSize; partCount > 1 && remainder != 0 && remainder < s.cfg.MinPartSize {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("final part of %d bytes is below the %d byte minimum", remainder, s.cfg.MinPartSize),
			nil,
			"2fe9726d-26ca-4f37-999c-df9f5d3a1376",
		)
	}

	uploadID, err := s.storage.CreateMultipartUpload(ctx, key, fileType)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeStorageError,
			"failed to initiate multipart upload",
			err,
			"670679f7-7d0c-4783-9587-638339032968",
		)
	}

	parts := make([]PartAuthorization, 0, partCount)
	for partNumber := int32(1); int64(partNumber) <= partCount; partNumber++ {
		url, err := s.storage.PresignUploadPart(ctx, key, uploadID, partNumber, ttl)
		if err != nil {
			// The session is unusable without a full set of part URLs.
			// Clean it up so orphaned parts cannot accrue; the client only
			// ever sees the presign failure.
			if abortErr := s.storage.AbortMultipartUpload(ctx, key, uploadID); abortErr != nil {
				s.log.Warn().
					Err(abortErr).
					Str("key", key).
					Str("upload_id", uploadID).
					Msg("abort after part authorization failure also failed")
			}
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeStorageError,
				fmt.Sprintf("failed to authorize part %d", partNumber),
				err,
				"c4007f47-3f01-4f25-8f90-b760f08a89b8",
			)
		}
		parts = append(parts, PartAuthorization{
			PartNumber: partNumber,
			URL:        url,
			ExpiresAt:  expiresAt,
		})
	}

	s.log.Info().
		Str("key", key).
		Str("mode", ModeMultipart).
		Str("upload_id", uploadID).
		Int64("file_size", fileSize).
		Int("parts", len(parts)).
		Msg("upload plan issued")

	return &UploadPlan{
		Mode:      ModeMultipart,
		Key:       key,
		ExpiresAt: expiresAt,
		UploadID:  uploadID,
		PartSize:  partSize,
		Parts:     parts,
	}, nil
}

// Finalize asks the store to assemble the uploaded parts. If the store
// rejects the completion the session is aborted before returning so
// orphaned parts do not keep accruing storage.
func (s *service) Finalize(ctx context.Context, req FinalizeRequest) (*CompletedObject, error) {
	uploadID := strings.TrimSpace(req.UploadID)
	key := strings.TrimSpace(req.Key)

	if uploadID == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"upload_id is required",
			nil,
			"ac31d989-8cc4-4178-a526-0e943550e713",
		)
	}
	if key == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"key is required",
			nil,
			"c41f14e1-8b9d-4554-ad84-ce31048b0c29",
		)
	}
	if err := s.validateParts(ctx, req.Parts); err != nil {
		return nil, err
	}

	completed, err := s.storage.CompleteMultipartUpload(ctx, key, uploadID, req.Parts)
	if err != nil {
		if abortErr := s.storage.AbortMultipartUpload(ctx, key, uploadID); abortErr != nil {
			s.log.Error().
				Err(abortErr).
				Str("key", key).
				Str("upload_id", uploadID).
				Msg("abort after failed completion also failed; session may be orphaned")
			return nil, platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypePartialFailure,
				"failed to complete multipart upload and compensating abort failed",
				err,
				"083255f6-40a0-4ba8-af70-d9fab8b31b98",
				map[string]any{
					"abort_error": abortErr.Error(),
					"upload_id":   uploadID,
					"key":         key,
				},
			)
		}
		s.log.Warn().
			Err(err).
			Str("key", key).
			Str("upload_id", uploadID).
			Msg("completion rejected, session aborted")
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeStorageError,
			"failed to complete multipart upload",
			err,
			"977162e8-440a-48ca-89d9-40601e6f5474",
		)
	}

	s.log.Info().
		Str("key", completed.Key).
		Str("upload_id", uploadID).
		Int("parts", len(req.Parts)).
		Msg("multipart upload completed")
	return completed, nil
}

// Abort cancels an in-flight multipart upload.
func (s *service) Abort(ctx context.Context, req AbortRequest) error {
	uploadID := strings.TrimSpace(req.UploadID)
	key := strings.TrimSpace(req.Key)

	if uploadID == "" {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"upload_id is required",
			nil,
			"a2d71593-89b6-48ce-9d7a-c0b64cb8afaf",
		)
	}
	if key == "" {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"key is required",
			nil,
			"985ad72e-b832-400d-90d1-da602c37c57a",
		)
	}

	if err := s.storage.AbortMultipartUpload(ctx, key, uploadID); err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeStorageError,
			"failed to abort multipart upload",
			err,
			"f62cd4ad-5aa6-4857-ab0f-e90f1eda2d27",
		)
	}

	s.log.Info().Str("key", key).Str("upload_id", uploadID).Msg("multipart upload aborted")
	return nil
}

func (s *service) validateParts(ctx context.Context, parts []CompletedPart) error {
	if len(parts) == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"parts manifest is required",
			nil,
			"f2ec4975-39ed-4714-a50e-1358c9f408e2",
		)
	}

	var prev int32
	for _, part := range parts {
		if part.PartNumber < 1 {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation,
				fmt.Sprintf("part number %d must be positive", part.PartNumber),
				nil,
				"f794f9b8-6c5e-41ca-8e4b-095531189311",
			)
		}
		if part.PartNumber <= prev {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation,
				fmt.Sprintf("part numbers must be strictly ascending, got %d after %d", part.PartNumber, prev),
				nil,
				"1e84690f-1d0e-431c-bb2a-a8c4135f53d3",
			)
		}
		if strings.TrimSpace(part.ETag) == "" {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation,
				fmt.Sprintf("part %d: etag is required", part.PartNumber),
				nil,
				"07ba9f45-d54c-44ae-bc85-0a861a976fec",
			)
		}
		prev = part.PartNumber
	}
	return nil
}

// objectKey derives a globally unique key. The ULID token makes two plans
// for the same file name land on different keys.
func (s *service) objectKey(fileName, fileType string) string {
	key := uploadid.New() + "-" + sanitizeFileName(fileName, fileType)
	if s.cfg.KeyPrefix == "" {
		return key
	}
	return s.cfg.KeyPrefix + "/" + key
}

func sanitizeFileName(name, fileType string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := b.String()
	if strings.Trim(sanitized, "._-") == "" {
		if m := mimetype.Lookup(strings.TrimSpace(fileType)); m != nil && m.Extension() != "" {
			return "file" + m.Extension()
		}
		return "file"
	}
	return sanitized
}

// ceilDiv divides without the (size + partSize - 1) shortcut, which
// overflows for sizes near MaxInt64.
func ceilDiv(size, partSize int64) int64 {
	count := size / partSize
	if size%partSize != 0 {
		count++
	}
	return count
}
