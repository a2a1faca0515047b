package storage

import (
	"errors"
	"testing"

	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecCompressesTerrain(t *testing.T) {
	codec, err := NewCodec(true)
	require.NoError(t, err)
	defer codec.Close()

	// Типичный столб ландшафта: камень снизу, воздух сверху
	snap := emptySnapshot()
	for i := range snap.Blocks {
		if (i/18)%128 < 60 {
			snap.Blocks[i] = block.StoneBlockID
		}
	}
	snap.Data[7] = block.BlockData{Direction: block.SideBack, Level: 3}

	raw, err := codec.Encode(snap)
	require.NoError(t, err)
	assert.Less(t, len(raw), testCells, "сжатый снимок должен быть меньше одного байта на ячейку")

	dst := emptySnapshot()
	require.NoError(t, codec.Decode(raw, dst))
	assert.Equal(t, snap.Blocks, dst.Blocks)
	assert.Equal(t, snap.Data, dst.Data)
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec, err := NewCodec(false)
	require.NoError(t, err)
	defer codec.Close()

	assert.Error(t, codec.Decode([]byte("nope"), emptySnapshot()))

	raw, err := codec.Encode(newTestSnapshot(block.SandBlockID))
	require.NoError(t, err)
	assert.Error(t, codec.Decode(raw[:len(raw)-1], emptySnapshot()), "обрезанный снимок")

	small := &Snapshot{Blocks: make([]block.BlockID, 4), Data: make([]block.BlockData, 4)}
	err = codec.Decode(raw, small)
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	_, err = codec.Encode(&Snapshot{Blocks: make([]block.BlockID, 2)})
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}
