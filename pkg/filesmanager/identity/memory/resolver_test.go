package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

func TestResolver(t *testing.T) {
	r := New(map[string]string{"t1": "alice"})
	ctx := context.Background()

	userID, err := r.Resolve(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)

	_, err = r.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, filesmanager.ErrUnauthorized)

	r.Add("t2", "bob")
	userID, err = r.Resolve(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "bob", userID)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", input: "", want: map[string]string{}},
		{name: "pairs", input: "a:alice, b:bob", want: map[string]string{"a": "alice", "b": "bob"}},
		{name: "trailing comma", input: "a:alice,", want: map[string]string{"a": "alice"}},
		{name: "missing user", input: "a:", wantErr: true},
		{name: "no separator", input: "alice", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.tokens)
		})
	}
}
