package annotation

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a value violates its construction contract.
var ErrInvalidValue = errors.New("invalid value")

// ErrAlreadyNormalized is returned by BBox.Normalize when the box is
// already expressed relative to the image size.
var ErrAlreadyNormalized = fmt.Errorf("%w: bbox already normalized", ErrInvalidValue)

// ErrNotNormalized is returned by BBox.Denormalize for absolute boxes.
var ErrNotNormalized = fmt.Errorf("%w: bbox not normalized", ErrInvalidValue)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

// Kind identifies the concrete type of a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind.
	KindInvalid Kind = iota
	// KindBBox identifies BBox.
	KindBBox
	// KindCompressedRLE identifies CompressedRLE.
	KindCompressedRLE
	// KindPose identifies Pose.
	KindPose
	// KindImage identifies Image.
	KindImage
	// KindDepthImage identifies DepthImage.
	KindDepthImage
	// KindCamera identifies Camera.
	KindCamera
	// KindGtInfo identifies GtInfo.
	KindGtInfo
	// KindEmbedding identifies Embedding.
	KindEmbedding
)

// Kinds lists every storable kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindBBox, KindCompressedRLE, KindPose, KindImage, KindDepthImage, KindCamera, KindGtInfo, KindEmbedding}
}

func (k Kind) String() string {
	switch k {
	case KindBBox:
		return "bbox"
	case KindCompressedRLE:
		return "compressed_rle"
	case KindPose:
		return "pose"
	case KindImage:
		return "image"
	case KindDepthImage:
		return "depth_image"
	case KindCamera:
		return "camera"
	case KindGtInfo:
		return "gt_info"
	case KindEmbedding:
		return "embedding"
	default:
		return "invalid"
	}
}

// Value is implemented by every storable annotation type.
//
// The interface is sealed; the set of implementations is fixed.
type Value interface {
	Kind() Kind
	value()
}

func (BBox) value()          {}
func (CompressedRLE) value() {}
func (Pose) value()          {}
func (Image) value()         {}
func (DepthImage) value()    {}
func (Camera) value()        {}
func (GtInfo) value()        {}
func (Embedding) value()     {}

// Kind implements Value.
func (BBox) Kind() Kind { return KindBBox }

// Kind implements Value.
func (CompressedRLE) Kind() Kind { return KindCompressedRLE }

// Kind implements Value.
func (Pose) Kind() Kind { return KindPose }

// Kind implements Value.
func (Image) Kind() Kind { return KindImage }

// Kind implements Value.
func (DepthImage) Kind() Kind { return KindDepthImage }

// Kind implements Value.
func (Camera) Kind() Kind { return KindCamera }

// Kind implements Value.
func (GtInfo) Kind() Kind { return KindGtInfo }

// Kind implements Value.
func (Embedding) Kind() Kind { return KindEmbedding }
