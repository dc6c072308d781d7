package upload

import "time"

// Plan modes.
const (
	ModeSingle    = "single"
	ModeMultipart = "multipart"
)

// UploadRequest describes the object a client wants to upload.
type UploadRequest struct {
	FileName string
	FileType string
	FileSize *int64 // nil when the client does not know the size up front
}

// PartAuthorization grants the client the right to upload one part.
type PartAuthorization struct {
	PartNumber int32
	URL        string
	ExpiresAt  time.Time
}

// UploadPlan tells the client how to move the bytes. Single plans carry
// UploadURL; multipart plans carry UploadID, PartSize and Parts.
type UploadPlan struct {
	Mode      string
	Key       string
	ExpiresAt time.Time

	UploadURL string

	UploadID string
	PartSize int64
	Parts    []PartAuthorization
}

// CompletedPart pairs a part number with the integrity tag the store
// returned when that part was uploaded.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// FinalizeRequest asks the service to assemble a finished multipart upload.
type FinalizeRequest struct {
	UploadID string
	Key      string
	Parts    []CompletedPart
}

// CompletedObject describes the assembled object in the store.
type CompletedObject struct {
	Key      string
	ETag     string
	Location string
}

// AbortRequest cancels an in-flight multipart upload.
type AbortRequest struct {
	UploadID string
	Key      string
}
