package world

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/annel0/voxel-stream/internal/vec"
)

// Размеры региона в блоках
const (
	SizeX = 16
	SizeY = 128
	SizeZ = 16

	// CellSize - сторона куба RenderCell
	CellSize = 16
	// CellsPerRegion - сетка RenderCell в регионе: 1 × 8 × 1
	CellsPerRegion = SizeY / CellSize

	// Размеры массивов с ореолом по X и Z
	haloSizeX = SizeX + 2
	haloSizeZ = SizeZ + 2
	gridCells = haloSizeX * SizeY * haloSizeZ
)

// RegionCoord - координаты региона в сетке регионов
type RegionCoord struct {
	X, Z int
}

func (c RegionCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Origin возвращает мировую позицию нулевого блока региона
func (c RegionCoord) Origin() vec.Vec3 {
	return vec.Vec3{X: c.X * SizeX, Y: 0, Z: c.Z * SizeZ}
}

// Add сдвигает координаты региона
func (c RegionCoord) Add(dx, dz int) RegionCoord {
	return RegionCoord{X: c.X + dx, Z: c.Z + dz}
}

// ChebyshevDistance - расстояние по максимуму модулей разностей
func (c RegionCoord) ChebyshevDistance(other RegionCoord) int {
	dx := vec.Abs(c.X - other.X)
	dz := vec.Abs(c.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

func (c RegionCoord) storageKey() storage.RegionKey {
	return storage.RegionKey{X: c.X, Z: c.Z}
}

// WorldToRegion возвращает регион, содержащий мировую позицию (деление с округлением вниз)
func WorldToRegion(pos vec.Vec3) RegionCoord {
	return RegionCoord{X: vec.FloorDiv(pos.X, SizeX), Z: vec.FloorDiv(pos.Z, SizeZ)}
}

// WorldToLocal возвращает локальные координаты внутри региона: 0 <= X < SizeX, 0 <= Z < SizeZ.
// Y не меняется.
func WorldToLocal(pos vec.Vec3) vec.Vec3 {
	return vec.Vec3{X: vec.FloorMod(pos.X, SizeX), Y: pos.Y, Z: vec.FloorMod(pos.Z, SizeZ)}
}

// LocalToWorld - обратное преобразование
func LocalToWorld(coord RegionCoord, local vec.Vec3) vec.Vec3 {
	return coord.Origin().Add(local)
}

// RegionAtPosition возвращает регион наблюдателя по вещественным координатам
func RegionAtPosition(x, z float64) RegionCoord {
	return RegionCoord{
		X: vec.FloorDiv(int(math.Floor(x)), SizeX),
		Z: vec.FloorDiv(int(math.Floor(z)), SizeZ),
	}
}

// CellIndexForY возвращает индекс RenderCell по высоте
func CellIndexForY(y int) int {
	return y / CellSize
}

// InInterior проверяет, что локальная позиция внутри региона (без ореола) и по высоте в мире
func InInterior(local vec.Vec3) bool {
	return local.X >= 0 && local.X < SizeX &&
		local.Z >= 0 && local.Z < SizeZ &&
		local.Y >= 0 && local.Y < SizeY
}
