package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"jan-server/services/upload-api/internal/config"
	"jan-server/services/upload-api/internal/domain/upload"
	"jan-server/services/upload-api/internal/infrastructure/metrics"
	"jan-server/services/upload-api/internal/utils/platformerrors"
)

// S3Storage drives the control plane of an S3-compatible store: it mints
// presigned URLs and manages multipart upload sessions. Object bytes go
// straight from the client to the store.
type S3Storage struct {
	bucket    string
	api       S3API
	presigner S3Presigner
	log       zerolog.Logger
}

var _ upload.Storage = (*S3Storage)(nil)

// NewS3Storage builds the adapter from configuration. When a public
// endpoint is configured, presigned URLs are signed against it so clients
// outside the cluster can reach them; control-plane calls keep using the
// internal endpoint.
func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	presignClient := client
	if endpoint := cfg.PresignEndpoint(); endpoint != cfg.S3Endpoint {
		presignClient = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.S3UsePathStyle
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &S3Storage{
		bucket:    cfg.S3Bucket,
		api:       client,
		presigner: s3.NewPresignClient(presignClient),
		log:       logger,
	}, nil
}

// newS3StorageWithClients wires the adapter onto explicit clients. Used by tests.
func newS3StorageWithClients(bucket string, api S3API, presigner S3Presigner, log zerolog.Logger) *S3Storage {
	return &S3Storage{
		bucket:    bucket,
		api:       api,
		presigner: presigner,
		log:       log.With().Str("component", "s3-storage").Logger(),
	}
}

// PresignPut mints a presigned single-shot PUT URL for key.
func (s *S3Storage) PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	start := time.Now()
	out, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	metrics.RecordS3Operation("presign_put", statusLabel(err), time.Since(start).Seconds())
	metrics.RecordPresign(time.Since(start).Seconds())
	if err != nil {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"failed to presign object put",
			err,
			"8b2f3868-6a40-4a0f-9a45-11b28f29c86f",
		)
	}
	return out.URL, nil
}

// CreateMultipartUpload opens a multipart session and returns its upload id.
func (s *S3Storage) CreateMultipartUpload(ctx context.Context, key string, contentType string) (string, error) {
	start := time.Now()
	out, err := s.api.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	metrics.RecordS3Operation("create_multipart_upload", statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"failed to create multipart upload",
			err,
			"4e43131c-dd9c-4a7c-91a5-80176906f02b",
		)
	}
	if out.UploadId == nil || *out.UploadId == "" {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"store returned an empty upload id",
			nil,
			"f05ad1fc-76fb-45c5-8c8f-a7340b8e7f75",
		)
	}
	return *out.UploadId, nil
}

// PresignUploadPart mints a presigned URL scoped to one part of a session.
func (s *S3Storage) PresignUploadPart(ctx context.Context, key string, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	start := time.Now()
	out, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	metrics.RecordS3Operation("presign_upload_part", statusLabel(err), time.Since(start).Seconds())
	metrics.RecordPresign(time.Since(start).Seconds())
	if err != nil {
		return "", platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"failed to presign upload part",
			err,
			"93b76b9e-26a2-45ce-a45b-cf1b871030b5",
			map[string]any{"part_number": partNumber, "upload_id": uploadID},
		)
	}
	return out.URL, nil
}

// CompleteMultipartUpload asks the store to assemble the uploaded parts.
func (s *S3Storage) CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []upload.CompletedPart) (*upload.CompletedObject, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(part.PartNumber),
			ETag:       aws.String(part.ETag),
		})
	}

	start := time.Now()
	out, err := s.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	metrics.RecordS3Operation("complete_multipart_upload", statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		return nil, platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"failed to complete multipart upload",
			err,
			"2ab1c6ec-95ab-4ba2-90cf-b6a3785e2e28",
			map[string]any{"upload_id": uploadID, "parts": len(parts)},
		)
	}

	return &upload.CompletedObject{
		Key:      aws.ToString(out.Key),
		ETag:     aws.ToString(out.ETag),
		Location: aws.ToString(out.Location),
	}, nil
}

// AbortMultipartUpload releases a session and any parts the store holds for it.
func (s *S3Storage) AbortMultipartUpload(ctx context.Context, key string, uploadID string) error {
	start := time.Now()
	_, err := s.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	metrics.RecordS3Operation("abort_multipart_upload", statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		return platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeStorageError,
			"failed to abort multipart upload",
			err,
			"9d5415db-c2eb-4c80-b173-1f079dc56917",
			map[string]any{"upload_id": uploadID},
		)
	}
	return nil
}

// Health checks bucket reachability with a HeadBucket probe.
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
