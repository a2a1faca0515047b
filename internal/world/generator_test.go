package world

import (
	"context"
	"testing"

	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatNoise даёт ровный рельеф: MinGenHeight + половина HeightScale
var flatNoise = util.NoiseFunc(func(x, y float64) float64 { return 0 })

func TestHeightSamplerDeterministic(t *testing.T) {
	a := NewHeightSampler(util.NewPerlinNoise(42), DefaultHeightParams())
	b := NewHeightSampler(util.NewPerlinNoise(42), DefaultHeightParams())

	for x := -40; x < 40; x += 7 {
		for z := -40; z < 40; z += 5 {
			h := a.Sample(x, z)
			assert.Equal(t, h, a.Sample(x, z), "повторный вызов")
			assert.Equal(t, h, b.Sample(x, z), "тот же сид")
		}
	}
}

func TestHeightSamplerRange(t *testing.T) {
	params := DefaultHeightParams()
	sampler := NewHeightSampler(util.NewPerlinNoise(7), params)

	// micro даёт не больше ±1 блока, macro лежит в [MinGenHeight, MinGenHeight+HeightScale*(SizeY-MinGenHeight)]
	maxMacro := float64(params.MinGenHeight) + params.HeightScale*float64(SizeY-params.MinGenHeight)
	for x := -100; x < 100; x += 3 {
		h := sampler.Sample(x, x*2)
		assert.GreaterOrEqual(t, h, params.MinGenHeight-1)
		assert.LessOrEqual(t, float64(h), maxMacro+2)
	}

	flat := NewHeightSampler(flatNoise, params)
	expected := int(float64(params.MinGenHeight) + 0.5*params.HeightScale*float64(SizeY-params.MinGenHeight) + 0.5)
	assert.Equal(t, expected, flat.Sample(123, -456))
}

func TestGenerationFillRules(t *testing.T) {
	sampler := NewHeightSampler(util.NewPerlinNoise(99), DefaultHeightParams())
	gen := NewRegionGenerator(99, sampler)
	coord := RegionCoord{X: -2, Z: 3}
	store := newTestStore(coord)

	require.NoError(t, gen.Generate(context.Background(), store, coord))

	origin := coord.Origin()
	// Вместе с ореолом
	for x := -1; x <= SizeX; x++ {
		for z := -1; z <= SizeZ; z++ {
			ground := sampler.Sample(origin.X+x, origin.Z+z)
			for y := 0; y < SizeY; y++ {
				got := store.GetBlock(vec.Vec3{X: x, Y: y, Z: z})
				var want block.BlockID
				switch {
				case y < ground-2:
					want = block.StoneBlockID
				case y < ground:
					want = block.DirtBlockID
				case y == ground:
					want = block.GrassBlockID
				default:
					want = block.AirBlockID
				}
				if !assert.Equal(t, want, got, "колонка (%d,%d) y=%d ground=%d", x, z, y, ground) {
					return
				}
			}
		}
	}
}

func TestGenerationTaskSteps(t *testing.T) {
	gen := NewRegionGenerator(1, NewHeightSampler(flatNoise, DefaultHeightParams()))
	coord := RegionCoord{0, 0}
	task := gen.NewTask(newTestStore(coord), coord)

	steps := 0
	for task.Step() {
		steps++
	}
	assert.True(t, task.Done())
	// Последний шаг возвращает false
	assert.Equal(t, haloSizeX*haloSizeZ-1, steps)
	assert.False(t, task.Step())
}

func TestGenerateCancelled(t *testing.T) {
	gen := NewRegionGenerator(1, NewHeightSampler(flatNoise, DefaultHeightParams()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gen.Generate(ctx, newTestStore(RegionCoord{}), RegionCoord{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTreeDecoratorDeterministic(t *testing.T) {
	sampler := NewHeightSampler(flatNoise, DefaultHeightParams())
	gen := NewRegionGenerator(5, sampler)
	gen.Decorator = TreeDecorator{Density: 0.2}

	coord := RegionCoord{X: 1, Z: -1}
	a, b := newTestStore(coord), newTestStore(coord)
	require.NoError(t, gen.Generate(context.Background(), a, coord))
	require.NoError(t, gen.Generate(context.Background(), b, coord))

	logs := 0
	for x := -1; x <= SizeX; x++ {
		for z := -1; z <= SizeZ; z++ {
			for y := 0; y < SizeY; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				id := a.GetBlock(pos)
				require.Equal(t, id, b.GetBlock(pos))
				if id == block.LogBlockID || id == block.LeavesBlockID {
					assert.True(t, InInterior(pos), "дерево вышло в ореол: %v", pos)
				}
				if id == block.LogBlockID {
					logs++
				}
			}
		}
	}
	assert.Greater(t, logs, 0, "при плотности 0.2 должны быть деревья")
}
