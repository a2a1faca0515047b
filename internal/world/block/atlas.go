package block

import "github.com/go-gl/mathgl/mgl32"

// AtlasRect - прямоугольник текстуры типа блока в общем атласе (в долях атласа)
type AtlasRect struct {
	U, V          float32
	Width, Height float32
}

// Map переводит UV из единичного квадрата текстуры блока в координаты атласа
func (r AtlasRect) Map(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{r.U + uv.X()*r.Width, r.V + uv.Y()*r.Height}
}

// Atlas предоставляет прямоугольники текстур по типу блока.
// Реализуется упаковщиком текстур на стороне рендера.
type Atlas interface {
	Rect(id BlockID) AtlasRect
}

// GridAtlas раскладывает текстуры типов блоков по равномерной сетке в порядке ID
type GridAtlas struct {
	Columns int
	Rows    int
}

// NewGridAtlas создаёт сетку, вмещающую все типы блоков
func NewGridAtlas(columns int) *GridAtlas {
	if columns <= 0 {
		columns = 4
	}
	rows := (int(BlockCount) + columns - 1) / columns
	return &GridAtlas{Columns: columns, Rows: rows}
}

// Rect возвращает ячейку сетки для типа блока
func (g *GridAtlas) Rect(id BlockID) AtlasRect {
	w := 1 / float32(g.Columns)
	h := 1 / float32(g.Rows)
	col := int(id) % g.Columns
	row := int(id) / g.Columns
	return AtlasRect{U: float32(col) * w, V: float32(row) * h, Width: w, Height: h}
}
