package requests

import (
	"jan-server/services/upload-api/internal/domain/upload"
)

// PlanUploadRequest asks the service to plan an upload.
type PlanUploadRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileType string `json:"file_type" binding:"required"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// ToDomain converts request to domain model
func (r *PlanUploadRequest) ToDomain() upload.UploadRequest {
	return upload.UploadRequest{
		FileName: r.FileName,
		FileType: r.FileType,
		FileSize: r.FileSize,
	}
}

// CompletedPartRequest is one manifest entry: a part number paired with
// the ETag the store returned when the part was uploaded.
type CompletedPartRequest struct {
	PartNumber int32  `json:"part_number" binding:"required"`
	ETag       string `json:"etag" binding:"required"`
}

// CompleteUploadRequest asks the service to assemble a multipart upload.
type CompleteUploadRequest struct {
	UploadID string                 `json:"upload_id" binding:"required"`
	Key      string                 `json:"key" binding:"required"`
	Parts    []CompletedPartRequest `json:"parts" binding:"required"`
}

// ToDomain converts request to domain model
func (r *CompleteUploadRequest) ToDomain() upload.FinalizeRequest {
	parts := make([]upload.CompletedPart, 0, len(r.Parts))
	for _, part := range r.Parts {
		parts = append(parts, upload.CompletedPart{
			PartNumber: part.PartNumber,
			ETag:       part.ETag,
		})
	}
	return upload.FinalizeRequest{
		UploadID: r.UploadID,
		Key:      r.Key,
		Parts:    parts,
	}
}

// AbortUploadRequest asks the service to cancel a multipart upload.
type AbortUploadRequest struct {
	UploadID string `json:"upload_id" binding:"required"`
	Key      string `json:"key" binding:"required"`
}

// ToDomain converts request to domain model
func (r *AbortUploadRequest) ToDomain() upload.AbortRequest {
	return upload.AbortRequest{
		UploadID: r.UploadID,
		Key:      r.Key,
	}
}
