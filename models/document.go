package models

import "time"

// Verification statuses for organizer documents.
const (
	DocPending  = "pending"
	DocVerified = "verified"
	DocRejected = "rejected"
)

type Document struct {
	ID         int        `json:"id"`
	OwnerID    int        `json:"owner_id"`
	Type       string     `json:"type"` // ktp, npwp, nib
	FileURL    string     `json:"file_url"`
	Status     string     `json:"status"`
	Note       string     `json:"note,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
