package resume

import "errors"

// ErrNotFound is returned when no resume exists with the requested id.
var ErrNotFound = errors.New("resume not found")

// Resume is the stored metadata for one uploaded file.
type Resume struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	FileURL  string `json:"file_url"`
}
