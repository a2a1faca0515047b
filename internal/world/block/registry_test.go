package block_test

import (
	"testing"

	"github.com/annel0/voxel-stream/internal/world/block"
	_ "github.com/annel0/voxel-stream/internal/world/block/implementations"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Каждый ID закрытого набора обязан иметь поведение
func TestRegistryExhaustive(t *testing.T) {
	for id := block.BlockID(0); id < block.BlockCount; id++ {
		behavior, ok := block.Get(id)
		require.True(t, ok, "нет поведения для ID %d", id)
		assert.Equal(t, id, behavior.ID())
		assert.NotEmpty(t, behavior.Name())
	}

	_, ok := block.Get(block.BlockCount)
	assert.False(t, ok, "ID вне набора не должен находиться")
	assert.True(t, block.IsTransparent(block.BlockCount+10), "неизвестный ID считается прозрачным")
}

func TestRegisterOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() {
		block.Register(block.BlockCount, block.MustGet(block.AirBlockID))
	})
}

func TestTransparency(t *testing.T) {
	assert.True(t, block.IsTransparent(block.AirBlockID))
	assert.True(t, block.IsTransparent(block.WaterBlockID))
	assert.True(t, block.IsTransparent(block.WaterSourceBlockID))
	assert.False(t, block.IsTransparent(block.StoneBlockID))
	assert.False(t, block.IsTransparent(block.DirtBlockID))
	assert.False(t, block.IsTransparent(block.GrassBlockID))
}

func TestCubeGeometry(t *testing.T) {
	stone := block.MustGet(block.StoneBlockID)
	origin := mgl32.Vec3{2, 3, 4}

	for _, side := range block.AllSides {
		verts := stone.SideVertices(side, origin)
		require.Len(t, verts, 4, "грань %s", side)
		assert.Len(t, stone.SideUVs(side), 4)
		assert.Equal(t, block.OutsideTriangles, stone.SideTriangles(side))

		// Нормаль первого треугольника совпадает с направлением грани
		normal := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
		off := side.Offset()
		assert.Equal(t, mgl32.Vec3{float32(off.X), float32(off.Y), float32(off.Z)}, normal, "грань %s", side)
	}

	air := block.MustGet(block.AirBlockID)
	assert.Empty(t, air.SideVertices(block.SideUp, origin), "у воздуха нет геометрии")
}

func TestGridAtlasCoversAllTypes(t *testing.T) {
	atlas := block.NewGridAtlas(4)
	seen := make(map[block.AtlasRect]struct{})
	for id := block.BlockID(0); id < block.BlockCount; id++ {
		r := atlas.Rect(id)
		assert.GreaterOrEqual(t, r.U, float32(0))
		assert.LessOrEqual(t, r.U+r.Width, float32(1.0001))
		assert.LessOrEqual(t, r.V+r.Height, float32(1.0001))
		seen[r] = struct{}{}
	}
	assert.Len(t, seen, int(block.BlockCount), "у каждого типа своя ячейка")

	r := atlas.Rect(block.StoneBlockID)
	mapped := r.Map(mgl32.Vec2{1, 1})
	assert.InDelta(t, r.U+r.Width, mapped.X(), 1e-6)
	assert.InDelta(t, r.V+r.Height, mapped.Y(), 1e-6)
}
