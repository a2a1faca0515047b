package main

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestScriptedObserverPath(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	o := newScriptedObserver(mgl32.Vec3{10, 70, -20}, 100, 50)
	o.now = func() time.Time { return now }
	o.start = base

	x, y, z := o.Position()
	assert.InDelta(t, 10, x, 1e-3)
	assert.InDelta(t, 70, y, 1e-3)
	assert.InDelta(t, -20, z, 1e-3)

	// Полкруга: π·r / speed секунд, наблюдатель на противоположной стороне
	half := math.Pi * 100 / 50 * float64(time.Second)
	now = base.Add(time.Duration(half))
	x, _, z = o.Position()
	assert.InDelta(t, 210, x, 0.05)
	assert.InDelta(t, -20, z, 0.05)
}

func TestScriptedObserverStatic(t *testing.T) {
	o := newScriptedObserver(mgl32.Vec3{1, 2, 3}, 0, 10)
	x, y, z := o.Position()
	assert.Equal(t, []float64{1, 2, 3}, []float64{x, y, z})
}
