package math

import (
	"math"
	"testing"
)

func vecNear(a, b Vec3, eps float64) bool {
	return a.Distance(b) <= eps
}

func TestSplitNormal(t *testing.T) {
	n := Vec3{0.3, -0.4, 0.5}.Normalize()
	v := Vec3{1.5, -2, 0.25}

	residual, along := SplitNormal(v, n)
	if math.Abs(residual.Dot(n)) > 1e-12 {
		t.Errorf("residual %v is not orthogonal to %v", residual, n)
	}
	if got := JoinNormal(residual, along, n); !vecNear(got, v, 1e-12) {
		t.Errorf("JoinNormal(SplitNormal(%v)) = %v", v, got)
	}
}

func TestJoinNormal_FollowsNormal(t *testing.T) {
	// A displacement along the source normal reappears along a different
	// destination normal.
	residual, along := SplitNormal(Vec3{0, 0, 2}, Vec3{0, 0, 1})
	if got := JoinNormal(residual, along, Vec3{1, 0, 0}); !vecNear(got, Vec3{2, 0, 0}, 1e-12) {
		t.Errorf("rebuilt %v, want (2,0,0)", got)
	}
}

func TestJoinNormal_ContinuousNearNegativeZ(t *testing.T) {
	// Normals a fraction of a degree apart around -Z with different
	// azimuths must keep a tangential slide pointing the same way.
	tests := []struct {
		name     string
		src, dst Vec3
	}{
		{"x to y", Vec3{0.01, 0, -1}, Vec3{0, 0.01, -1}},
		{"x to -x", Vec3{0.01, 0, -1}, Vec3{-0.01, 0, -1}},
		{"exact", Vec3{0, 0, -1}, Vec3{0, -0.005, -1}},
	}

	slide := Vec3{1, 0, 0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := UnitNormal(tt.src)
			dst, _ := UnitNormal(tt.dst)
			residual, along := SplitNormal(slide, src)
			if got := JoinNormal(residual, along, dst); !vecNear(got, slide, 0.03) {
				t.Errorf("slide rebuilt as %v, want about %v", got, slide)
			}
		})
	}
}

func TestUnitNormal(t *testing.T) {
	tests := []struct {
		name string
		n    Vec3
		ok   bool
	}{
		{"unit", Vec3{0, 0, 1}, true},
		{"scaled", Vec3{0, 3, 4}, true},
		{"zero", Vec3{}, false},
		{"nan", Vec3{X: math.NaN(), Z: 1}, false},
		{"inf", Vec3{Y: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := UnitNormal(tt.n)
			if ok != tt.ok {
				t.Fatalf("UnitNormal(%v) ok = %v, want %v", tt.n, ok, tt.ok)
			}
			if ok && math.Abs(n.Length()-1) > 1e-12 {
				t.Errorf("UnitNormal(%v) = %v is not unit length", tt.n, n)
			}
		})
	}
}
