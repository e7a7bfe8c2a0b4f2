package objectkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFlatGenerator(t *testing.T) {
	gen := NewFlatGenerator()

	key := gen.GenerateKey(nil)
	if _, err := uuid.Parse(key); err != nil {
		t.Fatalf("expected a uuid key, got %q: %v", key, err)
	}
	if strings.Contains(key, "/") {
		t.Errorf("flat key must not contain a separator: %s", key)
	}
}

func TestShardedGenerator(t *testing.T) {
	tests := []struct {
		name        string
		shardLength int
		wantShard   int
	}{
		{name: "default", shardLength: 2, wantShard: 2},
		{name: "three chars", shardLength: 3, wantShard: 3},
		{name: "invalid falls back", shardLength: 0, wantShard: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &ShardedGenerator{ShardLength: tt.shardLength}
			key := gen.GenerateKey(&KeyMetadata{FileName: "a.png"})

			parts := strings.Split(key, "/")
			if len(parts) != 2 {
				t.Fatalf("expected shard/rest, got %s", key)
			}
			if len(parts[0]) != tt.wantShard {
				t.Errorf("expected shard of %d chars, got %q", tt.wantShard, parts[0])
			}
			if len(parts[0])+len(parts[1]) != 32 {
				t.Errorf("expected 32 hex chars in total, got %s", key)
			}
		})
	}
}

func TestGeneratorsAreUnique(t *testing.T) {
	gens := map[string]Generator{
		"flat":    NewFlatGenerator(),
		"sharded": NewShardedGenerator(),
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < 1000; i++ {
				key := gen.GenerateKey(nil)
				if seen[key] {
					t.Fatalf("duplicate key %s", key)
				}
				seen[key] = true
			}
		})
	}
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(m *KeyMetadata) string {
		return "custom/" + m.OwnerID
	})
	if got := gen.GenerateKey(&KeyMetadata{OwnerID: "u1"}); got != "custom/u1" {
		t.Errorf("expected custom/u1, got %s", got)
	}
}
