package filesmanager

import (
	"encoding/base64"
)

// Request/Response DTOs

// CreateObjectRequest is the creation schema accepted at the boundary.
// Data carries base64 encoded bytes and is required unless Type is folder.
type CreateObjectRequest struct {
	Name     string    `json:"name"`
	Type     Kind      `json:"type"`
	ParentID ParentRef `json:"parentId"`
	IsPublic bool      `json:"isPublic"`
	Data     string    `json:"data,omitempty"`
}

// Validate checks the request without touching any store
func (r CreateObjectRequest) Validate() error {
	_, err := r.Decode()
	return err
}

// Decode validates the request and returns the decoded content. The
// returned slice is nil for folders.
func (r CreateObjectRequest) Decode() ([]byte, error) {
	if r.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "Missing name"}
	}
	if !r.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "Missing type"}
	}
	if !r.Type.HasContent() {
		return nil, nil
	}
	if r.Data == "" {
		return nil, &ValidationError{Field: "data", Message: "Missing data"}
	}
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, &ValidationError{Field: "data", Message: "Invalid data"}
	}
	return data, nil
}

// ListObjectsRequest selects one page of the caller's objects under a
// parent. ParentID takes the textual form of ParseParentRef; an id that does
// not parse matches nothing.
type ListObjectsRequest struct {
	ParentID string
	Page     int
}

// PageSize is the number of objects returned per ListObjects page
const PageSize = 20
