package codec

import (
	"fmt"
	"slices"

	"github.com/hupe1980/annostore/annotation"
)

// Type tags of the annotation extension types.
const (
	TagBBox          = "annostore.bbox"
	TagCompressedRLE = "annostore.compressed_rle"
	TagPose          = "annostore.pose"
	TagImage         = "annostore.image"
	TagDepthImage    = "annostore.depth_image"
	TagCamera        = "annostore.camera"
	TagGtInfo        = "annostore.gt_info"
	TagEmbedding     = "annostore.embedding"
)

var bboxLayout = Layout{
	{Name: "coords", Type: Float32, Repeat: 4},
	{Name: "format", Type: Uint8},
	{Name: "is_normalized", Type: Uint8},
}

var bboxType = &ExtensionType{
	Tag:    TagBBox,
	Kind:   annotation.KindBBox,
	Layout: bboxLayout,
	encode: func(w *cellWriter, v annotation.Value) {
		writeBBox(w, v.(annotation.BBox))
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		return readBBox(r)
	},
	project: func(v annotation.Value) map[string]any {
		return projectBBox(v.(annotation.BBox))
	},
}

func writeBBox(w *cellWriter, b annotation.BBox) {
	for _, c := range b.Coords() {
		w.float32(c)
	}
	w.u8(uint8(b.Format()))
	w.bool(b.IsNormalized())
}

func readBBox(r *cellReader) (annotation.BBox, error) {
	var c [4]float32
	for i := range c {
		c[i] = r.float32()
	}
	format := annotation.Format(r.u8())
	normalized := r.bool()
	if r.err != nil {
		return annotation.BBox{}, r.err
	}
	if format == 0 {
		// zero box
		if c != [4]float32{} || normalized {
			return annotation.BBox{}, fmt.Errorf("bbox without format")
		}
		return annotation.BBox{}, nil
	}
	return annotation.NewBBox(c[:], format, normalized)
}

func projectBBox(b annotation.BBox) map[string]any {
	c := b.Coords()
	return map[string]any{
		"coords":        []float32{c[0], c[1], c[2], c[3]},
		"format":        b.Format().String(),
		"is_normalized": b.IsNormalized(),
	}
}

var rleType = &ExtensionType{
	Tag:  TagCompressedRLE,
	Kind: annotation.KindCompressedRLE,
	Layout: Layout{
		{Name: "height", Type: Uvarint},
		{Name: "width", Type: Uvarint},
		{Name: "counts", Type: ListUint32},
		{Name: "source_id", Type: OptionalBinary},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		m := v.(annotation.CompressedRLE)
		h, wd := m.Size()
		w.uvarint(uint64(h))
		w.uvarint(uint64(wd))
		counts := m.Counts()
		w.uvarint(uint64(len(counts)))
		for _, c := range counts {
			w.uvarint(uint64(c))
		}
		w.optionalBinary([]byte(m.SourceID()))
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		h, wd := r.uvarint(), r.uvarint()
		n := r.length(1)
		counts := make([]uint32, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			c := r.uvarint()
			if c > uint64(^uint32(0)) {
				r.fail("rle run %d overflows uint32", i)
			}
			counts = append(counts, uint32(c))
		}
		source := r.optionalBinary()
		if r.err != nil {
			return nil, r.err
		}
		if h > 1<<31 || wd > 1<<31 {
			return nil, fmt.Errorf("mask size %dx%d out of range", h, wd)
		}
		return annotation.NewCompressedRLE(int(h), int(wd), counts, string(source))
	},
	project: func(v annotation.Value) map[string]any {
		m := v.(annotation.CompressedRLE)
		h, w := m.Size()
		return map[string]any{
			"size":      []int{h, w},
			"counts":    m.MarshalCOCO(),
			"source_id": m.SourceID(),
		}
	},
}

var poseType = &ExtensionType{
	Tag:  TagPose,
	Kind: annotation.KindPose,
	Layout: Layout{
		{Name: "cam_R_m2c", Type: Float64, Repeat: 9},
		{Name: "cam_t_m2c", Type: Float64, Repeat: 3},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		p := v.(annotation.Pose)
		for _, x := range p.Rotation() {
			w.float64(x)
		}
		for _, x := range p.Translation() {
			w.float64(x)
		}
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		rot, t := make([]float64, 9), make([]float64, 3)
		for i := range rot {
			rot[i] = r.float64()
		}
		for i := range t {
			t[i] = r.float64()
		}
		if r.err != nil {
			return nil, r.err
		}
		return annotation.NewPose(rot, t)
	},
	project: func(v annotation.Value) map[string]any {
		p := v.(annotation.Pose)
		rot, t := p.Rotation(), p.Translation()
		return map[string]any{
			"cam_R_m2c": rot[:],
			"cam_t_m2c": t[:],
		}
	},
}

var imageType = &ExtensionType{
	Tag:  TagImage,
	Kind: annotation.KindImage,
	Layout: Layout{
		{Name: "uri", Type: Binary},
		{Name: "bytes", Type: OptionalBinary},
		{Name: "preview", Type: OptionalBinary},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		img := v.(annotation.Image)
		w.string(img.URI())
		w.optionalBinary(img.Bytes())
		w.optionalBinary(img.Preview())
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		uri := r.string()
		data := r.optionalBinary()
		preview := r.optionalBinary()
		if r.err != nil {
			return nil, r.err
		}
		return annotation.NewImage(uri, data, preview)
	},
	project: func(v annotation.Value) map[string]any {
		img := v.(annotation.Image)
		return map[string]any{
			"uri":     img.URI(),
			"bytes":   img.Bytes(),
			"preview": img.Preview(),
		}
	},
}

var depthType = &ExtensionType{
	Tag:  TagDepthImage,
	Kind: annotation.KindDepthImage,
	Layout: Layout{
		{Name: "uri", Type: Binary},
		{Name: "height", Type: Uvarint},
		{Name: "width", Type: Uvarint},
		{Name: "depth", Type: ListFloat32},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		d := v.(annotation.DepthImage)
		h, wd := d.Shape()
		w.string(d.URI())
		w.uvarint(uint64(h))
		w.uvarint(uint64(wd))
		writeFloat32s(w, d.Depth())
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		uri := r.string()
		h, wd := r.uvarint(), r.uvarint()
		depth := readFloat32s(r)
		if r.err != nil {
			return nil, r.err
		}
		if h > 1<<31 || wd > 1<<31 {
			return nil, fmt.Errorf("depth size %dx%d out of range", h, wd)
		}
		return annotation.NewDepthImage(uri, int(h), int(wd), depth)
	},
	project: func(v annotation.Value) map[string]any {
		d := v.(annotation.DepthImage)
		h, w := d.Shape()
		return map[string]any{
			"uri":   d.URI(),
			"shape": []int{h, w},
			"depth": d.Depth(),
		}
	},
}

var cameraType = &ExtensionType{
	Tag:  TagCamera,
	Kind: annotation.KindCamera,
	Layout: Layout{
		{Name: "depth_scale", Type: Float64},
		{Name: "cam_K", Type: Float64, Repeat: 9},
		{Name: "cam_R_w2c", Type: Float64, Repeat: 9},
		{Name: "cam_t_w2c", Type: Float64, Repeat: 3},
		{Name: "has_extrinsics", Type: Uint8},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		c := v.(annotation.Camera)
		w.float64(c.DepthScale())
		for _, x := range c.K() {
			w.float64(x)
		}
		rot, t, ok := c.Extrinsics()
		for _, x := range rot {
			w.float64(x)
		}
		for _, x := range t {
			w.float64(x)
		}
		w.bool(ok)
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		scale := r.float64()
		k, rot, t := make([]float64, 9), make([]float64, 9), make([]float64, 3)
		for i := range k {
			k[i] = r.float64()
		}
		for i := range rot {
			rot[i] = r.float64()
		}
		for i := range t {
			t[i] = r.float64()
		}
		ext := r.bool()
		if r.err != nil {
			return nil, r.err
		}
		if !ext && (slices.ContainsFunc(rot, nonZero) || slices.ContainsFunc(t, nonZero)) {
			return nil, fmt.Errorf("camera without extrinsics has non-zero R or t")
		}
		c, err := annotation.NewCamera(scale, k)
		if err != nil || !ext {
			return c, err
		}
		return c.WithExtrinsics(rot, t)
	},
	project: func(v annotation.Value) map[string]any {
		c := v.(annotation.Camera)
		k := c.K()
		out := map[string]any{
			"depth_scale": c.DepthScale(),
			"cam_K":       k[:],
		}
		if rot, t, ok := c.Extrinsics(); ok {
			out["cam_R_w2c"] = rot[:]
			out["cam_t_w2c"] = t[:]
		}
		return out
	},
}

func nonZero(v float64) bool { return v != 0 }

var gtInfoType = &ExtensionType{
	Tag:  TagGtInfo,
	Kind: annotation.KindGtInfo,
	Layout: Layout{
		{Name: "bbox_obj.coords", Type: Float32, Repeat: 4},
		{Name: "bbox_obj.format", Type: Uint8},
		{Name: "bbox_obj.is_normalized", Type: Uint8},
		{Name: "bbox_visib.coords", Type: Float32, Repeat: 4},
		{Name: "bbox_visib.format", Type: Uint8},
		{Name: "bbox_visib.is_normalized", Type: Uint8},
		{Name: "px_count_all", Type: Int64},
		{Name: "px_count_valid", Type: Int64},
		{Name: "px_count_visib", Type: Int64},
		{Name: "visib_fract", Type: Float32},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		g := v.(annotation.GtInfo)
		writeBBox(w, g.BBoxObj)
		writeBBox(w, g.BBoxVisib)
		w.int64(g.PxCountAll)
		w.int64(g.PxCountValid)
		w.int64(g.PxCountVisib)
		w.float32(g.VisibFract)
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		var g annotation.GtInfo
		var err error
		if g.BBoxObj, err = readBBox(r); err != nil {
			return nil, err
		}
		if g.BBoxVisib, err = readBBox(r); err != nil {
			return nil, err
		}
		g.PxCountAll = r.int64()
		g.PxCountValid = r.int64()
		g.PxCountVisib = r.int64()
		g.VisibFract = r.float32()
		if r.err != nil {
			return nil, r.err
		}
		if err := g.Validate(); err != nil {
			return nil, err
		}
		return g, nil
	},
	project: func(v annotation.Value) map[string]any {
		g := v.(annotation.GtInfo)
		return map[string]any{
			"bbox_obj":       projectBBox(g.BBoxObj),
			"bbox_visib":     projectBBox(g.BBoxVisib),
			"px_count_all":   g.PxCountAll,
			"px_count_valid": g.PxCountValid,
			"px_count_visib": g.PxCountVisib,
			"visib_fract":    g.VisibFract,
		}
	},
}

var embeddingType = &ExtensionType{
	Tag:  TagEmbedding,
	Kind: annotation.KindEmbedding,
	Layout: Layout{
		{Name: "item_id", Type: Binary},
		{Name: "vector", Type: ListFloat32},
	},
	encode: func(w *cellWriter, v annotation.Value) {
		e := v.(annotation.Embedding)
		w.string(e.ItemID())
		writeFloat32s(w, e.Vector())
	},
	decode: func(r *cellReader) (annotation.Value, error) {
		id := r.string()
		vec := readFloat32s(r)
		if r.err != nil {
			return nil, r.err
		}
		return annotation.NewEmbedding(id, vec)
	},
	project: func(v annotation.Value) map[string]any {
		e := v.(annotation.Embedding)
		return map[string]any{
			"item_id": e.ItemID(),
			"vector":  e.Vector(),
		}
	},
}

func writeFloat32s(w *cellWriter, vs []float32) {
	w.uvarint(uint64(len(vs)))
	for _, v := range vs {
		w.float32(v)
	}
}

func readFloat32s(r *cellReader) []float32 {
	n := r.length(4)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.float32()
	}
	return out
}
