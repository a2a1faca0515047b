package main

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// scriptedObserver ходит по окружности вокруг центра с постоянной скоростью,
// заставляя стриминг постоянно подгружать и выгружать регионы.
type scriptedObserver struct {
	mu     sync.Mutex
	center mgl32.Vec3
	radius float64
	speed  float64 // блоков в секунду
	start  time.Time
	now    func() time.Time
}

func newScriptedObserver(center mgl32.Vec3, radius, speed float64) *scriptedObserver {
	return &scriptedObserver{
		center: center,
		radius: radius,
		speed:  speed,
		start:  time.Now(),
		now:    time.Now,
	}
}

// Recenter переносит центр маршрута (после выбора точки появления)
func (o *scriptedObserver) Recenter(center mgl32.Vec3) {
	o.mu.Lock()
	o.center = center
	o.start = o.now()
	o.mu.Unlock()
}

// Position реализует world.ObserverSource
func (o *scriptedObserver) Position() (float64, float64, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.radius <= 0 || o.speed <= 0 {
		return float64(o.center.X()), float64(o.center.Y()), float64(o.center.Z())
	}
	elapsed := o.now().Sub(o.start).Seconds()
	angle := elapsed * o.speed / o.radius
	// Старт в центре, маршрут - окружность, проходящая через центр
	offset := mgl32.Vec3{
		float32(o.radius * (1 - math.Cos(angle))),
		0,
		float32(o.radius * math.Sin(angle)),
	}
	p := o.center.Add(offset)
	return float64(p.X()), float64(p.Y()), float64(p.Z())
}
