package math

// SplitNormal decomposes v against the unit normal n into its component
// along n and the world-space residual orthogonal to n.
func SplitNormal(v, n Vec3) (residual Vec3, along float64) {
	along = v.Dot(n)
	return v.Sub(n.Scale(along)), along
}

// JoinNormal rebuilds a vector around the unit normal n from a component
// along n and a residual. The part of the residual parallel to n is dropped
// so the residual always stays in the tangent plane of n.
func JoinNormal(residual Vec3, along float64, n Vec3) Vec3 {
	tangent := residual.Sub(n.Scale(residual.Dot(n)))
	return n.Scale(along).Add(tangent)
}

// UnitNormal normalizes n and reports false for zero or non-finite normals.
func UnitNormal(n Vec3) (Vec3, bool) {
	if !n.IsFinite() {
		return Vec3{}, false
	}
	n = n.Normalize()
	if n == (Vec3{}) || !n.IsFinite() {
		return Vec3{}, false
	}
	return n, true
}
