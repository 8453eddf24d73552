package bake

import (
	"testing"

	"github.com/michax/optix-prime-baking/pkg/math"
)

func TestLCG_KnownFirstDraw(t *testing.T) {
	state := uint32(0)
	if got := lcg(&state); got != 0x6ef35f {
		t.Errorf("lcg from zero state = %#x, want 0x6ef35f", got)
	}
	if state != 1013904223 {
		t.Errorf("state after first draw = %d, want 1013904223", state)
	}
}

func TestLCGFloat_Range(t *testing.T) {
	state := tea(7, 7)
	for i := 0; i < 1000; i++ {
		v := lcgFloat(&state)
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d = %v, outside [0,1)", i, v)
		}
	}
}

func TestTriangleOffset_DeterministicAndDistinct(t *testing.T) {
	seen := make(map[math.Vec2]bool)
	for i := uint32(0); i < 64; i++ {
		a := triangleOffset(i)
		b := triangleOffset(i)
		if a != b {
			t.Fatalf("triangleOffset(%d) not deterministic: %v vs %v", i, a, b)
		}
		if a.X < 0 || a.X >= 1 || a.Y < 0 || a.Y >= 1 {
			t.Errorf("triangleOffset(%d) = %v, components outside [0,1)", i, a)
		}
		seen[a] = true
	}
	if len(seen) != 64 {
		t.Errorf("expected 64 distinct offsets, got %d", len(seen))
	}
}
