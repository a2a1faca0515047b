package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseSource - детерминированный источник двумерного шума со значениями в [-1, 1].
type NoiseSource interface {
	Noise2D(x, y float64) float64
}

// PerlinNoise реализует NoiseSource поверх шума Перлина
type PerlinNoise struct {
	seed  int64
	noise *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *PerlinNoise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &PerlinNoise{
		seed:  seed,
		noise: perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Seed возвращает сид генератора
func (p *PerlinNoise) Seed() int64 {
	return p.seed
}

// Noise2D возвращает значение шума для указанных координат (от -1 до 1)
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	return ClampUnit(p.noise.Noise2D(x, y))
}

// ClampUnit ограничивает значение отрезком [-1, 1].
// Сумма октав Перлина изредка выходит за границы.
func ClampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// NoiseFunc позволяет использовать обычную функцию как NoiseSource
type NoiseFunc func(x, y float64) float64

// Noise2D вызывает саму функцию
func (f NoiseFunc) Noise2D(x, y float64) float64 {
	return f(x, y)
}
