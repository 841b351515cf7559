package models

import "time"

// MediaTypeDirectory marks folder resources.
const MediaTypeDirectory = "httpd/unix-directory"

// Resource is file or folder metadata. Href is relative to the owning user's root.
type Resource struct {
	Href         string    `json:"href"`
	Name         string    `json:"name"`
	LastModified time.Time `json:"last_modified"`
	MediaType    string    `json:"media_type"`
	ETag         string    `json:"etag"`
}

// IsDirectory returns true for folder resources
func (r *Resource) IsDirectory() bool {
	return r.MediaType == MediaTypeDirectory
}
