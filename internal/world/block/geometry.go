package block

import "github.com/go-gl/mathgl/mgl32"

// Углы единичного куба для каждой грани, против часовой стрелки при взгляде снаружи.
var cubeSideCorners = [SideCount][4]mgl32.Vec3{
	SideUp:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	SideDown:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	SideFront: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	SideBack:  {{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	SideLeft:  {{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	SideRight: {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
}

// OutsideTriangles - два треугольника грани, видимые снаружи
var OutsideTriangles = []uint32{0, 1, 2, 0, 2, 3}

// InsideTriangles - обратный обход, грань видна изнутри (вода)
var InsideTriangles = []uint32{0, 2, 1, 0, 3, 2}

// CubeSideVertices возвращает 4 вершины грани единичного куба со сдвигом origin
func CubeSideVertices(side Side, origin mgl32.Vec3) []mgl32.Vec3 {
	if side >= SideCount {
		return nil
	}
	corners := cubeSideCorners[side]
	out := make([]mgl32.Vec3, 4)
	for i, c := range corners {
		out[i] = c.Add(origin)
	}
	return out
}

// UnitUVs возвращает UV всей текстуры блока в порядке вершин грани
func UnitUVs() []mgl32.Vec2 {
	return TileUVs(0, 1)
}

// TileUVs возвращает UV горизонтальной полосы [u0, u1] текстуры блока.
// Используется, когда текстура типа содержит несколько плиток (верх/бок/низ).
func TileUVs(u0, u1 float32) []mgl32.Vec2 {
	return []mgl32.Vec2{{u0, 0}, {u0, 1}, {u1, 1}, {u1, 0}}
}
