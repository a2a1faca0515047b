package vec

import "testing"

func TestFloorDivNegative(t *testing.T) {
	cases := []struct {
		a, b, div, mod int
	}{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
		{33, 16, 2, 1},
	}

	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.div {
			t.Errorf("FloorDiv(%d, %d): ожидалось %d, получено %d", c.a, c.b, c.div, got)
		}
		if got := FloorMod(c.a, c.b); got != c.mod {
			t.Errorf("FloorMod(%d, %d): ожидалось %d, получено %d", c.a, c.b, c.mod, got)
		}
	}
}

func TestFloorDivRoundTrip(t *testing.T) {
	for x := -1000; x <= 1000; x++ {
		region := FloorDiv(x, 16)
		local := FloorMod(x, 16)
		if local < 0 || local >= 16 {
			t.Fatalf("локальная координата вне диапазона для %d: %d", x, local)
		}
		if region*16+local != x {
			t.Fatalf("разложение не совпадает для %d: %d*16+%d", x, region, local)
		}
	}
}

func TestVec3Neighbors(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 3}
	n := v.Neighbors()
	seen := make(map[Vec3]struct{})
	for _, p := range n {
		if p.DistanceTo(v) != 1 {
			t.Errorf("сосед %v не смежен с %v", p, v)
		}
		seen[p] = struct{}{}
	}
	if len(seen) != 6 {
		t.Errorf("ожидалось 6 различных соседей, получено %d", len(seen))
	}
}
