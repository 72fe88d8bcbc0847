package models

import "time"

// Attachment is file metadata owned by one solicitation. BlobKey points into
// the external blob store; forwarding copies attachment rows onto the child
// while both rows keep referencing the same blob.
type Attachment struct {
	ID             string    `json:"id"`
	SolicitationID string    `json:"solicitation_id"`
	FileName       string    `json:"file_name"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	BlobKey        string    `json:"blob_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// CopyTo returns a new attachment row for the target solicitation pointing at
// the same blob. The new row gets its identity from the caller.
func (a *Attachment) CopyTo(solicitationID string) *Attachment {
	return &Attachment{
		SolicitationID: solicitationID,
		FileName:       a.FileName,
		ContentType:    a.ContentType,
		Size:           a.Size,
		BlobKey:        a.BlobKey,
	}
}
