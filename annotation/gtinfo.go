package annotation

import "fmt"

// GtInfo carries ground-truth visibility statistics for an object.
type GtInfo struct {
	BBoxObj      BBox    `json:"bbox_obj"`
	BBoxVisib    BBox    `json:"bbox_visib"`
	PxCountAll   int64   `json:"px_count_all"`
	PxCountValid int64   `json:"px_count_valid"`
	PxCountVisib int64   `json:"px_count_visib"`
	VisibFract   float32 `json:"visib_fract"`
}

// Validate checks counts and the visible fraction.
func (g GtInfo) Validate() error {
	if g.PxCountAll < 0 || g.PxCountValid < 0 || g.PxCountVisib < 0 {
		return invalidf("gt info pixel counts must be non-negative")
	}
	if !(g.VisibFract >= 0 && g.VisibFract <= 1) {
		return invalidf("gt info visible fraction %v outside [0,1]", g.VisibFract)
	}
	for _, b := range []BBox{g.BBoxObj, g.BBoxVisib} {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("gt info: %w", err)
		}
	}
	return nil
}

// Occluded reports whether less than half the object is visible.
func (g GtInfo) Occluded() bool { return g.VisibFract < 0.5 }
