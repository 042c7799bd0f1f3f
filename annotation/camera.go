package annotation

// Camera holds pinhole intrinsics and optional world-to-camera extrinsics.
type Camera struct {
	depthScale    float64
	k             [9]float64
	r             [9]float64
	t             [3]float64
	hasExtrinsics bool
}

// NewCamera validates the intrinsic matrix.
func NewCamera(depthScale float64, k []float64) (Camera, error) {
	if len(k) != 9 {
		return Camera{}, invalidf("camera intrinsics need 9 values, got %d", len(k))
	}
	if k[0] == 0 || k[4] == 0 {
		return Camera{}, invalidf("camera focal length is zero")
	}
	c := Camera{depthScale: depthScale}
	copy(c.k[:], k)
	return c, nil
}

// WithExtrinsics returns a copy of c carrying a world-to-camera transform.
func (c Camera) WithExtrinsics(r []float64, t []float64) (Camera, error) {
	if len(r) != 9 || len(t) != 3 {
		return Camera{}, invalidf("camera extrinsics need 9+3 values, got %d+%d", len(r), len(t))
	}
	copy(c.r[:], r)
	copy(c.t[:], t)
	c.hasExtrinsics = true
	return c, nil
}

// DepthScale returns the factor converting stored depth to metric depth.
func (c Camera) DepthScale() float64 { return c.depthScale }

// K returns the row-major intrinsic matrix.
func (c Camera) K() [9]float64 { return c.k }

// Extrinsics returns the world-to-camera rotation and translation.
func (c Camera) Extrinsics() (r [9]float64, t [3]float64, ok bool) {
	return c.r, c.t, c.hasExtrinsics
}

// Project maps a 3D point to pixel coordinates. The point is expressed in
// world coordinates when the camera has extrinsics, in camera coordinates
// otherwise. ok is false for points on or behind the image plane.
func (c Camera) Project(p [3]float64) (u, v float64, ok bool) {
	if c.hasExtrinsics {
		p = Pose{r: c.r, t: c.t}.Apply(p)
	}
	if p[2] <= 0 {
		return 0, 0, false
	}
	x, y := p[0]/p[2], p[1]/p[2]
	u = c.k[0]*x + c.k[1]*y + c.k[2]
	v = c.k[4]*y + c.k[5]
	return u, v, true
}
