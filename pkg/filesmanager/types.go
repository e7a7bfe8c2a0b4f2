package filesmanager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind is the domain type for object kinds.
type Kind string

// Object kinds.
const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindImage:
		return true
	}
	return false
}

// HasContent reports whether objects of this kind carry bytes.
func (k Kind) HasContent() bool {
	return k == KindFile || k == KindImage
}

// RootID is the parent of every top-level object.
var RootID = uuid.Nil

// ThumbnailWidths are the derivative widths generated for every image.
var ThumbnailWidths = []int{100, 250, 500}

// IsThumbnailWidth reports whether w is one of ThumbnailWidths.
func IsThumbnailWidth(w int) bool {
	for _, tw := range ThumbnailWidths {
		if tw == w {
			return true
		}
	}
	return false
}

// DerivativeKey returns the content store key of a thumbnail derivative.
func DerivativeKey(contentRef string, width int) string {
	return fmt.Sprintf("%s_%d", contentRef, width)
}

// Object is the metadata record of a folder, file or image.
type Object struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    string    `json:"userId"`
	Name       string    `json:"name"`
	Kind       Kind      `json:"type"`
	ParentID   ParentRef `json:"parentId"`
	IsPublic   bool      `json:"isPublic"`
	ContentRef string    `json:"contentRef,omitempty"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// IsRoot returns true if the object lives at the top level.
func (o *Object) IsRoot() bool {
	return o.ParentID.IsRoot()
}

// ParentRef is a parent object id in which uuid.Nil stands for root. On the
// wire root is the number 0; 0, "0", "" and null all decode to root.
type ParentRef uuid.UUID

// IsRoot reports whether the reference points at root.
func (p ParentRef) IsRoot() bool {
	return uuid.UUID(p) == RootID
}

// UUID returns the referenced id.
func (p ParentRef) UUID() uuid.UUID {
	return uuid.UUID(p)
}

func (p ParentRef) String() string {
	if p.IsRoot() {
		return "0"
	}
	return uuid.UUID(p).String()
}

// ParseParentRef parses the textual form accepted by the HTTP surface.
func ParseParentRef(s string) (ParentRef, error) {
	if s == "" || s == "0" {
		return ParentRef(RootID), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return ParentRef(RootID), err
	}
	return ParentRef(id), nil
}

func (p ParentRef) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(uuid.UUID(p).String())
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ParentRef(RootID)
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil || n != 0 {
			return fmt.Errorf("invalid parentId %s", data)
		}
		*p = ParentRef(RootID)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ref, err := ParseParentRef(s)
	if err != nil {
		return fmt.Errorf("invalid parentId %q: %w", s, err)
	}
	*p = ref
	return nil
}

// Content is the payload returned by ReadContent.
type Content struct {
	ContentType string
	Data        []byte
}

// ThumbnailJob asks the pipeline to derive thumbnails for one image.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// Validate checks that both identifiers are present.
func (j ThumbnailJob) Validate() error {
	if j.FileID == "" {
		return fmt.Errorf("%w: missing fileId", ErrInvalidJob)
	}
	if j.UserID == "" {
		return fmt.Errorf("%w: missing userId", ErrInvalidJob)
	}
	return nil
}

// BlobMeta contains metadata about a blob in a content store
type BlobMeta struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// ListObjectsParams filters a repository listing. Nil pointers do not filter.
type ListObjectsParams struct {
	OwnerID  *string
	ParentID *uuid.UUID
	Kind     *Kind
	Limit    int
	Offset   int
}
