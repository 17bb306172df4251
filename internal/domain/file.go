package domain

import "time"

// FileAsset is an object in the group bucket plus its metadata row.
// Path is unique per group: "<group_id>/<file_name>".
type FileAsset struct {
	Path      string    `json:"file_path"`
	Name      string    `json:"file_name"`
	Size      int64     `json:"file_size"`
	MimeType  string    `json:"file_type"`
	PublicURL string    `json:"public_url,omitempty"`
	UploadRef UserID    `json:"uploaded_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
