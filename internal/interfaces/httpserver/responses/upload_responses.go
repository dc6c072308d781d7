package responses

import (
	"time"

	"jan-server/services/upload-api/internal/domain/upload"
)

// PartAuthorizationResponse carries one presigned part URL.
type PartAuthorizationResponse struct {
	PartNumber int32  `json:"part_number"`
	URL        string `json:"url"`
}

// PlanUploadResponse tells the client how to move the bytes. Single-shot
// plans carry upload_url; multipart plans carry upload_id, part_size and
// parts ordered by part number.
type PlanUploadResponse struct {
	Mode      string                      `json:"mode"`
	Key       string                      `json:"key"`
	ExpiresAt time.Time                   `json:"expires_at"`
	ExpiresIn int64                       `json:"expires_in"`
	UploadURL string                      `json:"upload_url,omitempty"`
	UploadID  string                      `json:"upload_id,omitempty"`
	PartSize  int64                       `json:"part_size,omitempty"`
	Parts     []PartAuthorizationResponse `json:"parts,omitempty"`
}

// BuildPlanUploadResponse creates response from a domain plan
func BuildPlanUploadResponse(plan *upload.UploadPlan, ttl time.Duration) *PlanUploadResponse {
	resp := &PlanUploadResponse{
		Mode:      plan.Mode,
		Key:       plan.Key,
		ExpiresAt: plan.ExpiresAt,
		ExpiresIn: int64(ttl.Seconds()),
		UploadURL: plan.UploadURL,
		UploadID:  plan.UploadID,
		PartSize:  plan.PartSize,
	}
	if len(plan.Parts) > 0 {
		resp.Parts = make([]PartAuthorizationResponse, 0, len(plan.Parts))
		for _, part := range plan.Parts {
			resp.Parts = append(resp.Parts, PartAuthorizationResponse{
				PartNumber: part.PartNumber,
				URL:        part.URL,
			})
		}
	}
	return resp
}

// CompleteUploadResponse reports the assembled object.
type CompleteUploadResponse struct {
	Success  bool   `json:"success"`
	Key      string `json:"key"`
	ETag     string `json:"etag"`
	Location string `json:"location,omitempty"`
}

// BuildCompleteUploadResponse creates response from the completed object
func BuildCompleteUploadResponse(obj *upload.CompletedObject) *CompleteUploadResponse {
	return &CompleteUploadResponse{
		Success:  true,
		Key:      obj.Key,
		ETag:     obj.ETag,
		Location: obj.Location,
	}
}

// AbortUploadResponse reports a cancelled multipart upload.
type AbortUploadResponse struct {
	Success bool `json:"success"`
}

// BuildAbortUploadResponse creates abort confirmation response
func BuildAbortUploadResponse() *AbortUploadResponse {
	return &AbortUploadResponse{Success: true}
}
