package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DefaultCollection is the collection holding file documents
const DefaultCollection = "files"

// fileDocument is the stored shape of an object. Identifiers are kept as
// canonical uuid strings.
type fileDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userId"`
	Name       string    `bson:"name"`
	Type       string    `bson:"type"`
	ParentID   string    `bson:"parentId"`
	IsPublic   bool      `bson:"isPublic"`
	ContentRef string    `bson:"localPath,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func toDocument(object *filesmanager.Object) fileDocument {
	return fileDocument{
		ID:         object.ID.String(),
		UserID:     object.OwnerID,
		Name:       object.Name,
		Type:       string(object.Kind),
		ParentID:   object.ParentID.UUID().String(),
		IsPublic:   object.IsPublic,
		ContentRef: object.ContentRef,
		CreatedAt:  object.CreatedAt.UTC(),
		UpdatedAt:  object.UpdatedAt.UTC(),
	}
}

func (d fileDocument) toObject() (*filesmanager.Object, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", d.ID, err)
	}
	parent, err := uuid.Parse(d.ParentID)
	if err != nil {
		return nil, fmt.Errorf("invalid parent id %q: %w", d.ParentID, err)
	}
	return &filesmanager.Object{
		ID:         id,
		OwnerID:    d.UserID,
		Name:       d.Name,
		Kind:       filesmanager.Kind(d.Type),
		ParentID:   filesmanager.ParentRef(parent),
		IsPublic:   d.IsPublic,
		ContentRef: d.ContentRef,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}, nil
}

// Repository implements filesmanager.Repository on a MongoDB collection
type Repository struct {
	collection *mongo.Collection
}

// New creates a repository over an existing collection
func New(collection *mongo.Collection) *Repository {
	return &Repository{collection: collection}
}

// Connect dials uri and returns a repository over database.files together
// with the client, which the caller must disconnect.
func Connect(ctx context.Context, uri, database string) (*Repository, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return New(client.Database(database).Collection(DefaultCollection)), client, nil
}

// EnsureIndexes creates the listing indexes. It is idempotent.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "parentId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *Repository) handleMongoError(operation string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return filesmanager.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("object already exists")
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateObject(ctx context.Context, object *filesmanager.Object) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(object)); err != nil {
		return r.handleMongoError("create object", err)
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, operation string, filter bson.D) (*filesmanager.Object, error) {
	var doc fileDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, r.handleMongoError(operation, err)
	}
	return doc.toObject()
}

func (r *Repository) GetObject(ctx context.Context, id uuid.UUID) (*filesmanager.Object, error) {
	return r.findOne(ctx, "get object", bson.D{{Key: "_id", Value: id.String()}})
}

func (r *Repository) GetOwnedObject(ctx context.Context, id uuid.UUID, ownerID string) (*filesmanager.Object, error) {
	return r.findOne(ctx, "get owned object", bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "userId", Value: ownerID},
	})
}

func (r *Repository) SetVisibility(ctx context.Context, id uuid.UUID, ownerID string, isPublic bool) (*filesmanager.Object, error) {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "userId", Value: ownerID},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "isPublic", Value: isPublic},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc fileDocument
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, r.handleMongoError("set visibility", err)
	}
	return doc.toObject()
}

func (r *Repository) ListObjects(ctx context.Context, params filesmanager.ListObjectsParams) ([]*filesmanager.Object, error) {
	filter := bson.D{}
	if params.OwnerID != nil {
		filter = append(filter, bson.E{Key: "userId", Value: *params.OwnerID})
	}
	if params.ParentID != nil {
		filter = append(filter, bson.E{Key: "parentId", Value: params.ParentID.String()})
	}
	if params.Kind != nil {
		filter = append(filter, bson.E{Key: "type", Value: string(*params.Kind)})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.handleMongoError("list objects", err)
	}
	defer cursor.Close(ctx)

	objects := []*filesmanager.Object{}
	for cursor.Next(ctx) {
		var doc fileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.handleMongoError("list objects", err)
		}
		object, err := doc.toObject()
		if err != nil {
			return nil, err
		}
		objects = append(objects, object)
	}
	if err := cursor.Err(); err != nil {
		return nil, r.handleMongoError("list objects", err)
	}

	return objects, nil
}

var _ filesmanager.Repository = (*Repository)(nil)
