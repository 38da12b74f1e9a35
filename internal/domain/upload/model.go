package upload

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusStored  Status = "stored"
)

const (
	DefaultContentType    = "application/octet-stream"
	DefaultExpiresSeconds = 900
	MaxExpiresSeconds     = 3600
	DefaultListLimit      = 20
	MaxListLimit          = 100
)

// Upload is stored at clientUploads/{id}.
type Upload struct {
	ID          string    `firestore:"id" json:"id"`
	OwnerUID    string    `firestore:"ownerUid" json:"ownerUid"`
	ObjectPath  string    `firestore:"objectPath" json:"objectPath"`
	FileName    string    `firestore:"fileName" json:"fileName"`
	ContentType string    `firestore:"contentType" json:"contentType"`
	Size        int64     `firestore:"size" json:"size"`
	Status      Status    `firestore:"status" json:"status"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

type SignedURLInput struct {
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType,omitempty"`
	ExpiresSeconds int64  `json:"expiresSeconds,omitempty"`
}

func (in *SignedURLInput) Trim() {
	in.FileName = strings.TrimSpace(in.FileName)
	in.ContentType = strings.TrimSpace(in.ContentType)
}

type SignedURL struct {
	UploadID   string `json:"uploadId"`
	ObjectPath string `json:"objectPath"`
	URL        string `json:"url"`
	Method     string `json:"method"`
	ExpiresAt  int64  `json:"expiresAt"`
}

type StoreInput struct {
	FileName    string
	ContentType string
}
