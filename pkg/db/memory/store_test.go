package memory

import (
	"context"
	"testing"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/stretchr/testify/require"
)

func TestApplyAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Apply(ctx, []db.Write{
		{Entity: entities.Tokens, ID: "0xaa", Value: []byte(`{"id":"0xaa"}`)},
		{Entity: entities.Swaps, ID: "0x01-0", Value: []byte(`{"id":"0x01-0"}`), CreateOnly: true},
	}))

	v, ok, err := s.Get(ctx, entities.Tokens, "0xaa")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"0xaa"}`, string(v))

	_, ok, err = s.Get(ctx, entities.Tokens, "0xbb")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 1, s.Len(entities.Swaps))
}

func TestApplyRejectsDuplicateCreateAtomically(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Apply(ctx, []db.Write{
		{Entity: entities.Swaps, ID: "0x01-0", Value: []byte(`1`), CreateOnly: true},
	}))

	err := s.Apply(ctx, []db.Write{
		{Entity: entities.Tokens, ID: "0xaa", Value: []byte(`{}`)},
		{Entity: entities.Swaps, ID: "0x01-0", Value: []byte(`2`), CreateOnly: true},
	})
	require.ErrorIs(t, err, db.ErrAlreadyExists)

	_, ok, err := s.Get(ctx, entities.Tokens, "0xaa")
	require.NoError(t, err)
	require.False(t, ok, "no write of a rejected batch may land")

	v, _, _ := s.Get(ctx, entities.Swaps, "0x01-0")
	require.Equal(t, "1", string(v))
}

func TestApplyUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Apply(ctx, []db.Write{{Entity: entities.Users, ID: "0xu", Value: []byte(`1`)}}))
	require.NoError(t, s.Apply(ctx, []db.Write{{Entity: entities.Users, ID: "0xu", Value: []byte(`2`)}}))

	v, ok, err := s.Get(ctx, entities.Users, "0xu")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(v))
}
