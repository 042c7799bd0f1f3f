package annotation

import "encoding/json"

// Pose is a rigid transform: a row-major 3x3 rotation and a translation.
//
// No orthonormality check is made; Compose, Inverse and Apply assume a valid
// rotation without verifying it.
type Pose struct {
	r [9]float64
	t [3]float64
}

// NewPose validates the component lengths.
func NewPose(rotation []float64, translation []float64) (Pose, error) {
	if len(rotation) != 9 {
		return Pose{}, invalidf("pose rotation needs 9 values, got %d", len(rotation))
	}
	if len(translation) != 3 {
		return Pose{}, invalidf("pose translation needs 3 values, got %d", len(translation))
	}
	var p Pose
	copy(p.r[:], rotation)
	copy(p.t[:], translation)
	return p, nil
}

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{r: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Rotation returns the row-major rotation matrix.
func (p Pose) Rotation() [9]float64 { return p.r }

// Translation returns the translation vector.
func (p Pose) Translation() [3]float64 { return p.t }

// Apply transforms a point: R*x + t.
func (p Pose) Apply(x [3]float64) [3]float64 {
	return [3]float64{
		p.r[0]*x[0] + p.r[1]*x[1] + p.r[2]*x[2] + p.t[0],
		p.r[3]*x[0] + p.r[4]*x[1] + p.r[5]*x[2] + p.t[1],
		p.r[6]*x[0] + p.r[7]*x[1] + p.r[8]*x[2] + p.t[2],
	}
}

// Compose returns the transform applying o first, then p.
func (p Pose) Compose(o Pose) Pose {
	var out Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.r[i*3+j] = p.r[i*3]*o.r[j] + p.r[i*3+1]*o.r[3+j] + p.r[i*3+2]*o.r[6+j]
		}
	}
	rt := p.Apply(o.t)
	out.t = rt
	return out
}

// Inverse returns (R^T, -R^T t).
func (p Pose) Inverse() Pose {
	var out Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.r[i*3+j] = p.r[j*3+i]
		}
	}
	for i := 0; i < 3; i++ {
		out.t[i] = -(out.r[i*3]*p.t[0] + out.r[i*3+1]*p.t[1] + out.r[i*3+2]*p.t[2])
	}
	return out
}

type poseJSON struct {
	R [9]float64 `json:"cam_R_m2c"`
	T [3]float64 `json:"cam_t_m2c"`
}

// MarshalJSON implements json.Marshaler.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(poseJSON{R: p.r, T: p.t})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var aux poseJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.r, p.t = aux.R, aux.T
	return nil
}
