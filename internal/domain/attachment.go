package domain

import "time"

// Attachment is uploaded file metadata. StorageRef is an opaque locator
// into the external object store; the workflow never inspects payloads.
type Attachment struct {
	ID         string
	FileName   string
	FileType   string
	FileSize   int64
	StorageRef string
	UploadedAt time.Time
}
