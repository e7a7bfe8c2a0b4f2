package filesmanager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/objectkey"
)

// service implements the Service interface
type service struct {
	repository   Repository
	contentStore ContentStore
	backendName  string
	identity     IdentityResolver
	queue        JobQueue
	keys         objectkey.Generator
	logger       *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithContentStore sets the byte store; name is used in errors and logs
func WithContentStore(name string, store ContentStore) Option {
	return func(s *service) {
		s.backendName = name
		s.contentStore = store
	}
}

// WithIdentityResolver sets the token resolver for the service
func WithIdentityResolver(resolver IdentityResolver) Option {
	return func(s *service) {
		s.identity = resolver
	}
}

// WithJobQueue sets the queue receiving thumbnail jobs for new images
func WithJobQueue(queue JobQueue) Option {
	return func(s *service) {
		s.queue = queue
	}
}

// WithKeyGenerator sets the content key generator
func WithKeyGenerator(generator objectkey.Generator) Option {
	return func(s *service) {
		s.keys = generator
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.contentStore == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if s.identity == nil {
		return nil, fmt.Errorf("identity resolver is required")
	}
	if s.queue == nil {
		s.queue = NewNoopJobQueue()
	}
	if s.keys == nil {
		s.keys = objectkey.NewDefaultGenerator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.backendName == "" {
		s.backendName = "default"
	}

	return s, nil
}

// authenticate resolves a required token
func (s *service) authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.identity.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("resolve token: %w", err)
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// caller resolves an optional token. Unknown tokens read as anonymous.
func (s *service) caller(ctx context.Context, token string) (string, error) {
	userID, err := s.authenticate(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		return "", nil
	}
	return userID, err
}

// Ingestion

func (s *service) CreateObject(ctx context.Context, token string, req CreateObjectRequest) (*Object, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	data, err := req.Decode()
	if err != nil {
		return nil, err
	}

	if !req.ParentID.IsRoot() {
		parent, err := s.repository.GetObject(ctx, req.ParentID.UUID())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("lookup parent: %w", err)
		}
		if parent.Kind != KindFolder {
			return nil, ErrParentNotFolder
		}
	}

	now := time.Now().UTC()
	object := &Object{
		ID:        uuid.New(),
		OwnerID:   userID,
		Name:      req.Name,
		Kind:      req.Type,
		ParentID:  req.ParentID,
		IsPublic:  req.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if object.Kind.HasContent() {
		object.ContentRef = s.keys.GenerateKey(&objectkey.KeyMetadata{
			ObjectID: object.ID,
			OwnerID:  userID,
			FileName: req.Name,
		})
		if err := s.contentStore.Upload(ctx, object.ContentRef, bytes.NewReader(data)); err != nil {
			return nil, &StorageError{
				Backend: s.backendName,
				Key:     object.ContentRef,
				Op:      "upload",
				Err:     err,
			}
		}
	}

	if err := s.repository.CreateObject(ctx, object); err != nil {
		if object.ContentRef != "" {
			if derr := s.contentStore.Delete(ctx, object.ContentRef); derr != nil {
				s.logger.Error("failed to remove orphaned blob",
					"key", object.ContentRef, "backend", s.backendName, "error", derr)
			}
		}
		return nil, &ObjectError{
			ObjectID: object.ID,
			Op:       "create",
			Err:      err,
		}
	}

	if object.Kind == KindImage {
		job := ThumbnailJob{FileID: object.ID.String(), UserID: userID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Error("failed to enqueue thumbnail job",
				"file_id", job.FileID, "user_id", job.UserID, "error", err)
		}
	}

	return object, nil
}

// Metadata

func (s *service) GetObject(ctx context.Context, id uuid.UUID, token string) (*Object, error) {
	userID, err := s.caller(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.readableObject(ctx, id, userID)
}

func (s *service) ListObjects(ctx context.Context, token string, req ListObjectsRequest) ([]*Object, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/PageSize {
		return []*Object{}, nil
	}
	parent, err := ParseParentRef(req.ParentID)
	if err != nil {
		return []*Object{}, nil
	}
	parentID := parent.UUID()

	objects, err := s.repository.ListObjects(ctx, ListObjectsParams{
		OwnerID:  &userID,
		ParentID: &parentID,
		Limit:    PageSize,
		Offset:   page * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return objects, nil
}

// readableObject loads an object and applies CanRead. Denial and absence
// return the same error.
func (s *service) readableObject(ctx context.Context, id uuid.UUID, userID string) (*Object, error) {
	object, err := s.repository.GetObject(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &ObjectError{ObjectID: id, Op: "get", Err: err}
	}
	if !CanRead(object, userID) {
		return nil, ErrNotFound
	}
	return object, nil
}

// Visibility

func (s *service) Publish(ctx context.Context, id uuid.UUID, token string) (*Object, error) {
	return s.setVisibility(ctx, id, token, true)
}

func (s *service) Unpublish(ctx context.Context, id uuid.UUID, token string) (*Object, error) {
	return s.setVisibility(ctx, id, token, false)
}

func (s *service) setVisibility(ctx context.Context, id uuid.UUID, token string, isPublic bool) (*Object, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	object, err := s.repository.SetVisibility(ctx, id, userID, isPublic)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		op := "unpublish"
		if isPublic {
			op = "publish"
		}
		return nil, &ObjectError{ObjectID: id, Op: op, Err: err}
	}
	return object, nil
}

// Retrieval

func (s *service) ReadContent(ctx context.Context, id uuid.UUID, token string, size int) (*Content, error) {
	userID, err := s.caller(ctx, token)
	if err != nil {
		return nil, err
	}

	object, err := s.readableObject(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if object.Kind == KindFolder {
		return nil, ErrInvalidOperation
	}

	key := object.ContentRef
	if size != 0 {
		if !IsThumbnailWidth(size) {
			return nil, &ValidationError{Field: "size", Message: "Invalid size"}
		}
		if object.Kind != KindImage {
			return nil, ErrNotFound
		}
		key = DerivativeKey(object.ContentRef, size)
	}

	reader, err := s.contentStore.Download(ctx, key)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Backend: s.backendName, Key: key, Op: "download", Err: err}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &StorageError{Backend: s.backendName, Key: key, Op: "read", Err: err}
	}

	return &Content{
		ContentType: ContentTypeByName(object.Name),
		Data:        data,
	}, nil
}
