package world

import (
	"math"

	"github.com/annel0/voxel-stream/internal/util"
)

// HeightParams - параметры рельефа
type HeightParams struct {
	MacroScale   float64 // частота крупного рельефа (в регионах)
	MicroScale   float64 // частота мелких неровностей
	HeightScale  float64 // доля высоты над MinGenHeight, занятая рельефом
	MinGenHeight int     // минимальная высота поверхности
	OffsetX      float64 // сдвиг крупного шума
	OffsetZ      float64
}

// DefaultHeightParams возвращает параметры по умолчанию
func DefaultHeightParams() HeightParams {
	return HeightParams{
		MacroScale:   0.5,
		MicroScale:   5,
		HeightScale:  0.7,
		MinGenHeight: 32,
	}
}

// Сдвиги мелкого шума, чтобы он не коррелировал с крупным
var (
	microShiftX = 1000 + math.Cos(1000)
	microShiftZ = 1000 + math.Sin(1000)
)

// HeightSampler (NoiseHeightSampler) вычисляет высоту поверхности по мировым X, Z.
// Чистая функция: одинаковые вход и параметры дают одинаковый результат.
type HeightSampler struct {
	noise  util.NoiseSource
	params HeightParams
}

// NewHeightSampler создаёт сэмплер
func NewHeightSampler(noise util.NoiseSource, params HeightParams) *HeightSampler {
	return &HeightSampler{noise: noise, params: params}
}

// Params возвращает параметры рельефа
func (h *HeightSampler) Params() HeightParams {
	return h.params
}

// Sample возвращает высоту поверхности. Один регион соответствует единице шума.
func (h *HeightSampler) Sample(xWorld, zWorld int) int {
	return h.SampleAt(float64(xWorld)/SizeX, float64(zWorld)/SizeZ)
}

// SampleAt вычисляет высоту в координатах шума (x, z в регионах)
func (h *HeightSampler) SampleAt(x, z float64) int {
	p := h.params

	macro := (util.ClampUnit(h.noise.Noise2D(x*p.MacroScale+p.OffsetX, z*p.MacroScale+p.OffsetZ)) + 1) / 2
	macroHeight := int(math.Round(float64(p.MinGenHeight) + macro*p.HeightScale*float64(SizeY-p.MinGenHeight)))

	micro := util.ClampUnit(h.noise.Noise2D((microShiftX+x)*p.MicroScale, (microShiftZ+z)*p.MicroScale)) / 2
	sign := 1.0
	if micro < 0 {
		sign = -1
	}
	microHeight := int(math.Round(sign * micro * micro * 4))

	return macroHeight + microHeight
}
