package annotation

import (
	"fmt"
	"math"
)

// SourceGroundTruth is the provenance of objects read from a primary dataset.
const SourceGroundTruth = "Ground Truth"

// ObjectAnnotation is one detected or labelled object instance.
//
// It is assembled per query from the columns of an objects table and owns
// its field values; Clone returns an independent copy.
type ObjectAnnotation struct {
	ID           string         `json:"id"`
	ItemID       string         `json:"item_id"`
	ViewID       string         `json:"view_id,omitempty"`
	CategoryID   int64          `json:"category_id"`
	CategoryName string         `json:"category_name,omitempty"`
	BBox         BBox           `json:"bbox"`
	Mask         *CompressedRLE `json:"mask,omitempty"`
	Pose         *Pose          `json:"pose,omitempty"`
	GtInfo       *GtInfo        `json:"gt_info,omitempty"`
	Confidence   float32        `json:"confidence"`
	SourceID     string         `json:"source_id"`
}

// Validate checks the embedded values and the confidence score.
func (o ObjectAnnotation) Validate() error {
	if o.ItemID == "" {
		return invalidf("object has no item id")
	}
	if err := o.BBox.Validate(); err != nil {
		return fmt.Errorf("object %q: %w", o.ID, err)
	}
	if math.IsNaN(float64(o.Confidence)) || o.Confidence < 0 || o.Confidence > 1 {
		return invalidf("object %q confidence %v outside [0,1]", o.ID, o.Confidence)
	}
	if o.Mask != nil {
		if err := checkCounts(o.Mask.height, o.Mask.width, o.Mask.counts); err != nil {
			return err
		}
	}
	if o.GtInfo != nil {
		if err := o.GtInfo.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of o.
func (o ObjectAnnotation) Clone() ObjectAnnotation {
	out := o
	if o.Mask != nil {
		m := o.Mask.WithSourceID(o.Mask.sourceID)
		out.Mask = &m
	}
	if o.Pose != nil {
		p := *o.Pose
		out.Pose = &p
	}
	if o.GtInfo != nil {
		g := *o.GtInfo
		out.GtInfo = &g
	}
	return out
}
