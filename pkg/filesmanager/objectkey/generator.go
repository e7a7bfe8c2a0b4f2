package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for content key generation strategies.
// Keys must be collision resistant; two calls never return the same key.
type Generator interface {
	// GenerateKey creates a content store key for a new blob
	GenerateKey(metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	ObjectID uuid.UUID
	OwnerID  string
	FileName string
}

// FlatGenerator stores every blob at the top level of the store under a
// random UUID, the layout of the original on-disk folder.
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(metadata *KeyMetadata) string {
	return uuid.New().String()
}

// ShardedGenerator provides Git-style sharded keys so that no directory
// grows unbounded: ab/cd1234ef5678...
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		ShardLength: 2,
	}
}

func (g *ShardedGenerator) GenerateKey(metadata *KeyMetadata) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	shard := g.ShardLength
	if shard <= 0 || shard >= len(id) {
		shard = 2
	}

	return fmt.Sprintf("%s/%s", id[:shard], id[shard:])
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(metadata *KeyMetadata) string {
	return g.GenerateFunc(metadata)
}

// NewDefaultGenerator returns the generator used when none is configured
func NewDefaultGenerator() Generator {
	return NewFlatGenerator()
}
