package scan

import (
	"context"
	"errors"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// ErrSkip is returned by a processor that deliberately left an object alone
var ErrSkip = errors.New("skipped")

// ObjectProcessor processes individual objects.
// Return an error to mark the object as failed; scanning continues.
type ObjectProcessor interface {
	Process(ctx context.Context, object *filesmanager.Object) error
}

// ProcessorFunc adapts a function to the ObjectProcessor interface.
type ProcessorFunc func(context.Context, *filesmanager.Object) error

func (f ProcessorFunc) Process(ctx context.Context, object *filesmanager.Object) error {
	return f(ctx, object)
}

// ThumbnailBackfill enqueues a thumbnail job for every image. With Store
// set, images whose derivatives all exist are skipped.
type ThumbnailBackfill struct {
	Queue filesmanager.JobQueue
	Store filesmanager.ContentStore
}

func (p *ThumbnailBackfill) Process(ctx context.Context, object *filesmanager.Object) error {
	if object.Kind != filesmanager.KindImage {
		return ErrSkip
	}

	if p.Store != nil && p.complete(ctx, object) {
		return ErrSkip
	}

	return p.Queue.Enqueue(ctx, filesmanager.ThumbnailJob{
		FileID: object.ID.String(),
		UserID: object.OwnerID,
	})
}

func (p *ThumbnailBackfill) complete(ctx context.Context, object *filesmanager.Object) bool {
	for _, width := range filesmanager.ThumbnailWidths {
		if _, err := p.Store.GetBlobMeta(ctx, filesmanager.DerivativeKey(object.ContentRef, width)); err != nil {
			return false
		}
	}
	return true
}
