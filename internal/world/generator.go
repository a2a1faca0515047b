package world

import (
	"context"
	"math/rand"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// ColumnHeights - высоты поверхности всех колонок региона вместе с ореолом
type ColumnHeights [haloSizeX][haloSizeZ]int

// At возвращает высоту по локальным x, z (от -1 до Size включительно)
func (h *ColumnHeights) At(x, z int) int {
	return h[x+1][z+1]
}

// Decorator размещает объекты после заполнения рельефа. Вызывается под блокировкой записи региона.
type Decorator interface {
	Decorate(store *RegionStore, coord RegionCoord, seed int64, heights *ColumnHeights)
}

// NoOpDecorator ничего не размещает
type NoOpDecorator struct{}

func (NoOpDecorator) Decorate(*RegionStore, RegionCoord, int64, *ColumnHeights) {}

// RegionGenerator заполняет регион по шуму высот
type RegionGenerator struct {
	Seed      int64
	Sampler   *HeightSampler
	Decorator Decorator
	// StepDelay - пауза после каждой колонки, троттлинг генерации
	StepDelay time.Duration
}

// NewRegionGenerator создаёт генератор без декоратора
func NewRegionGenerator(seed int64, sampler *HeightSampler) *RegionGenerator {
	return &RegionGenerator{
		Seed:      seed,
		Sampler:   sampler,
		Decorator: NoOpDecorator{},
	}
}

// GenerationTask - пошаговая генерация одного региона. Один шаг - одна колонка (x, z)
// вместе с колонками ореола. Прерванную задачу нельзя продолжить: частично заполненное
// хранилище нужно выбросить.
type GenerationTask struct {
	gen     *RegionGenerator
	store   *RegionStore
	coord   RegionCoord
	next    int
	heights ColumnHeights
}

// NewTask создаёт задачу генерации
func (g *RegionGenerator) NewTask(store *RegionStore, coord RegionCoord) *GenerationTask {
	return &GenerationTask{gen: g, store: store, coord: coord}
}

// Step заполняет одну колонку. Возвращает true, пока работа не закончена.
func (t *GenerationTask) Step() bool {
	const columns = haloSizeX * haloSizeZ
	if t.next >= columns {
		return false
	}

	ax, az := t.next/haloSizeZ, t.next%haloSizeZ
	t.fillColumn(ax, az)
	t.next++

	if t.next == columns {
		t.store.mu.Lock()
		t.gen.decorator().Decorate(t.store, t.coord, t.gen.Seed, &t.heights)
		t.store.mu.Unlock()
		return false
	}
	return true
}

// Done сообщает, что все колонки заполнены
func (t *GenerationTask) Done() bool {
	return t.next >= haloSizeX*haloSizeZ
}

func (t *GenerationTask) fillColumn(ax, az int) {
	origin := t.coord.Origin()
	worldX := origin.X + ax - 1
	worldZ := origin.Z + az - 1

	ground := t.gen.Sampler.Sample(worldX, worldZ)
	if ground < 1 {
		ground = 1
	}
	if ground > SizeY-1 {
		ground = SizeY - 1
	}
	t.heights[ax][az] = ground

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	base := gridIndex(ax, 0, az)
	for y := 0; y < SizeY; y++ {
		var id block.BlockID
		switch {
		case y < ground-2:
			id = block.StoneBlockID
		case y < ground:
			id = block.DirtBlockID
		case y == ground:
			id = block.GrassBlockID
		default:
			id = block.AirBlockID
		}
		t.store.blocks[base+y] = id
		t.store.data[base+y] = block.BlockData{}
	}
}

func (g *RegionGenerator) decorator() Decorator {
	if g.Decorator == nil {
		return NoOpDecorator{}
	}
	return g.Decorator
}

// Generate выполняет задачу до конца, проверяя ctx между колонками
func (g *RegionGenerator) Generate(ctx context.Context, store *RegionStore, coord RegionCoord) error {
	task := g.NewTask(store, coord)
	for task.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.StepDelay > 0 {
			time.Sleep(g.StepDelay)
		}
	}
	return ctx.Err()
}

// TreeDecorator ставит деревья детерминированно от сида мира и координат региона.
// Кроны целиком лежат во внутренней части, поэтому ореолы соседей не расходятся.
type TreeDecorator struct {
	Density float64 // вероятность дерева на колонку
}

const (
	treeTrunkMin = 4
	treeTrunkMax = 6
	treeRadius   = 2
)

// Decorate размещает стволы и листву
func (d TreeDecorator) Decorate(store *RegionStore, coord RegionCoord, seed int64, heights *ColumnHeights) {
	// Для каждого региона создаем уникальный сид на основе глобального сида и координат
	regionSeed := seed + int64(coord.X*31) + int64(coord.Z*17)
	rng := rand.New(rand.NewSource(regionSeed))

	density := d.Density
	if density <= 0 {
		density = 0.02
	}

	for x := treeRadius; x < SizeX-treeRadius; x++ {
		for z := treeRadius; z < SizeZ-treeRadius; z++ {
			if rng.Float64() >= density {
				continue
			}
			ground := heights.At(x, z)
			trunk := treeTrunkMin + rng.Intn(treeTrunkMax-treeTrunkMin+1)
			if ground+trunk+2 >= SizeY {
				continue
			}
			d.placeTree(store, vec.Vec3{X: x, Y: ground, Z: z}, trunk)
		}
	}
}

func (d TreeDecorator) placeTree(store *RegionStore, ground vec.Vec3, trunk int) {
	if store.getLocked(ground) != block.GrassBlockID {
		return
	}
	// Под стволом трава превращается в землю
	store.setLocked(ground, block.DirtBlockID, block.BlockData{})

	top := ground.Y + trunk
	for y := ground.Y + 1; y <= top; y++ {
		store.setLocked(vec.Vec3{X: ground.X, Y: y, Z: ground.Z}, block.LogBlockID, block.BlockData{Direction: block.SideUp})
	}

	for dy := -1; dy <= 1; dy++ {
		r := treeRadius
		if dy == 1 {
			r = 1
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				pos := vec.Vec3{X: ground.X + dx, Y: top + dy, Z: ground.Z + dz}
				if store.getLocked(pos) == block.AirBlockID {
					store.setLocked(pos, block.LeavesBlockID, block.BlockData{})
				}
			}
		}
	}
	store.setLocked(vec.Vec3{X: ground.X, Y: top + 2, Z: ground.Z}, block.LeavesBlockID, block.BlockData{})
}
