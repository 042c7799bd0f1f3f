package annostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/column"
	"github.com/hupe1980/annostore/dataset"
	"github.com/hupe1980/annostore/table"
	"golang.org/x/sync/errgroup"
)

// LoadItemObjects returns the objects of one item: the ground truth of ds
// followed by the predictions of each inference dataset, in the order
// given. Nothing is deduplicated. An item without objects yields an empty
// slice, not an error.
//
// Inference datasets are scanned concurrently (see WithParallelism); the
// result order does not depend on it.
func LoadItemObjects(ctx context.Context, ds *dataset.Dataset, itemID string, inferences []*dataset.Dataset, opts ...Option) ([]annotation.ObjectAnnotation, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return loadItemObjects(ctx, o, ds, itemID, inferences)
}

func loadItemObjects(ctx context.Context, o options, ds *dataset.Dataset, itemID string, inferences []*dataset.Dataset) ([]annotation.ObjectAnnotation, error) {
	start := time.Now()
	out, err := mergeObjects(ctx, o, ds, itemID, inferences)
	err = translateError("load objects", err)
	o.metrics.RecordLoadObjects(1+len(inferences), len(out), time.Since(start), err)
	o.logger.WithDataset(ds.ID()).WithItem(itemID).LogLoadObjects(ctx, 1+len(inferences), len(out), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeObjects(ctx context.Context, o options, ds *dataset.Dataset, itemID string, inferences []*dataset.Dataset) ([]annotation.ObjectAnnotation, error) {
	out, err := scanObjects(ctx, o, ds, itemID, annotation.SourceGroundTruth)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}

	results := make([][]annotation.ObjectAnnotation, len(inferences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, inf := range inferences {
		g.Go(func() error {
			objs, err := scanObjects(gctx, o, inf, itemID, inf.ID())
			if err != nil {
				return fmt.Errorf("inference dataset %s: %w", inf.ID(), err)
			}
			results[i] = objs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, objs := range results {
		out = append(out, objs...)
	}
	if out == nil {
		out = []annotation.ObjectAnnotation{}
	}
	return out, nil
}

// scanObjects reads the objects of itemID from ds, tagged with source. A
// dataset without an objects table has no objects.
func scanObjects(ctx context.Context, o options, ds *dataset.Dataset, itemID, source string) ([]annotation.ObjectAnnotation, error) {
	if err := o.controller.AcquireScan(ctx); err != nil {
		return nil, err
	}
	defer o.controller.ReleaseScan()

	v, err := ds.Load(ctx, o.tableOptions()...)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if !v.HasTable(ObjectsTable) {
		return nil, nil
	}
	b, err := v.Scan(ctx, ObjectsTable, table.Query{Filter: table.Eq(colItemID, itemID)})
	if err != nil {
		return nil, err
	}
	return decodeObjects(b, source)
}

// SaveItemObjects replaces every stored object of itemID in the primary
// dataset ds with objs. Objects without an ID get one derived from the item,
// their position and their content, so saving the same list twice stores
// the same rows.
//
// The item's partition is taken from the items table, or from its existing
// objects when the items table does not list it. Writers of one partition
// table are serialised by the dataset's table locker; readers are not
// locked and see either the old or the new table file.
func SaveItemObjects(ctx context.Context, ds *dataset.Dataset, itemID string, objs []annotation.ObjectAnnotation, opts ...Option) error {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return saveItemObjects(ctx, o, ds, itemID, objs)
}

func saveItemObjects(ctx context.Context, o options, ds *dataset.Dataset, itemID string, objs []annotation.ObjectAnnotation) error {
	start := time.Now()
	split, saved, removed, err := replaceObjects(ctx, o, ds, itemID, objs)
	err = translateError("save objects", err)
	o.metrics.RecordSave(saved, removed, time.Since(start), err)
	o.logger.WithDataset(ds.ID()).WithItem(itemID).LogSave(ctx, split, saved, removed, err)
	return err
}

func replaceObjects(ctx context.Context, o options, ds *dataset.Dataset, itemID string, objs []annotation.ObjectAnnotation) (string, int, int, error) {
	if ds.Kind() != dataset.Primary {
		return "", 0, 0, fmt.Errorf("%w: %s dataset %s is read-only", ErrInvalidValue, ds.Kind(), ds.ID())
	}
	rows, err := prepareObjects(o.codec, itemID, objs)
	if err != nil {
		return "", 0, 0, err
	}
	batch, err := encodeObjects(rows)
	if err != nil {
		return "", 0, 0, err
	}

	split, err := itemSplit(ctx, o, ds, itemID)
	if err != nil {
		return "", 0, 0, err
	}

	db := ds.Connect(o.tableOptions()...)
	defer db.Close()

	name := table.SplitPartitioning.TableName(split, ObjectsTable)
	for {
		t, err := db.OpenTable(ctx, name)
		if errors.Is(err, table.ErrTableNotFound) {
			if len(rows) == 0 {
				return split, 0, 0, nil
			}
			_, err = db.CreateTable(ctx, name, batch)
			if errors.Is(err, table.ErrTableExists) {
				// created by a concurrent writer
				continue
			}
			return split, len(rows), 0, err
		}
		if err != nil {
			return split, 0, 0, err
		}
		removed, err := t.Replace(ctx, table.Eq(colItemID, itemID), batch)
		if err != nil {
			return split, 0, 0, err
		}
		return split, len(rows), removed, nil
	}
}

var objectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("annostore/objects"))

func prepareObjects(c codec.Codec, itemID string, objs []annotation.ObjectAnnotation) ([]annotation.ObjectAnnotation, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: empty item id", ErrInvalidValue)
	}
	rows := make([]annotation.ObjectAnnotation, len(objs))
	for i, obj := range objs {
		obj = obj.Clone()
		if obj.ItemID == "" {
			obj.ItemID = itemID
		}
		if obj.ItemID != itemID {
			return nil, fmt.Errorf("%w: object %d belongs to item %q, not %q", ErrInvalidValue, i, obj.ItemID, itemID)
		}
		obj.SourceID = ""
		if err := obj.Validate(); err != nil {
			return nil, err
		}
		if obj.ID == "" {
			content, err := c.Marshal(obj)
			if err != nil {
				return nil, fmt.Errorf("derive id of object %d: %w", i, err)
			}
			name := append([]byte(itemID+"/"+strconv.Itoa(i)+"/"), content...)
			obj.ID = uuid.NewSHA1(objectNamespace, name).String()
		}
		rows[i] = obj
	}
	return rows, nil
}

// itemSplit returns the partition holding itemID.
func itemSplit(ctx context.Context, o options, ds *dataset.Dataset, itemID string) (string, error) {
	v, err := ds.Load(ctx, o.tableOptions()...)
	if err != nil {
		return "", err
	}
	defer v.Close()

	lookups := []struct {
		table, col string
	}{
		{ItemsTable, colID},
		{ObjectsTable, colItemID},
	}
	for _, l := range lookups {
		if !v.HasTable(l.table) {
			continue
		}
		b, err := v.Scan(ctx, l.table, table.Query{
			Filter:  table.Eq(l.col, itemID),
			Columns: []string{colSplit},
			Limit:   1,
		})
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			c, _ := b.Column(colSplit)
			return c.StringAt(0)
		}
	}
	return "", fmt.Errorf("%w: %q in dataset %s", ErrItemNotFound, itemID, ds.ID())
}

// encodeObjects lays objects out as the columns of an objects table.
func encodeObjects(objs []annotation.ObjectAnnotation) (*column.Batch, error) {
	n := len(objs)
	var (
		ids, itemIDs, viewIDs, names = make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		categories                   = make([]int64, n)
		confidences                  = make([]float32, n)
		boxes                        = make([]annotation.BBox, n)
		masks                        = make([]*annotation.CompressedRLE, n)
		poses                        = make([]*annotation.Pose, n)
		gtInfos                      = make([]*annotation.GtInfo, n)
	)
	for i, obj := range objs {
		ids[i] = obj.ID
		itemIDs[i] = obj.ItemID
		viewIDs[i] = obj.ViewID
		names[i] = obj.CategoryName
		categories[i] = obj.CategoryID
		confidences[i] = obj.Confidence
		boxes[i] = obj.BBox
		masks[i] = obj.Mask
		poses[i] = obj.Pose
		gtInfos[i] = obj.GtInfo
	}

	bbox, err := column.Of(colBBox, boxes)
	if err != nil {
		return nil, err
	}
	mask, err := column.OfOptional(colMask, masks)
	if err != nil {
		return nil, err
	}
	pose, err := column.OfOptional(colPose, poses)
	if err != nil {
		return nil, err
	}
	gtInfo, err := column.OfOptional(colGtInfo, gtInfos)
	if err != nil {
		return nil, err
	}
	return column.NewBatch(
		column.Strings(colID, ids),
		column.Strings(colItemID, itemIDs),
		column.Strings(colViewID, viewIDs),
		column.Int64s(colCategoryID, categories),
		column.Strings(colCategoryName, names),
		bbox,
		mask,
		pose,
		gtInfo,
		column.Float32s(colConfidence, confidences),
	)
}

// decodeObjects assembles objects from the rows of an objects table. Only
// id and item_id are required; missing columns leave their field zero.
func decodeObjects(b *column.Batch, source string) ([]annotation.ObjectAnnotation, error) {
	n := b.Len()
	if n == 0 {
		return nil, nil
	}
	ids, err := requiredStrings(b, colID)
	if err != nil {
		return nil, err
	}
	itemIDs, err := requiredStrings(b, colItemID)
	if err != nil {
		return nil, err
	}
	viewIDs, err := optionalStrings(b, colViewID)
	if err != nil {
		return nil, err
	}
	names, err := optionalStrings(b, colCategoryName)
	if err != nil {
		return nil, err
	}
	boxes, err := optionalValues[annotation.BBox](b, colBBox)
	if err != nil {
		return nil, err
	}
	masks, err := optionalValues[annotation.CompressedRLE](b, colMask)
	if err != nil {
		return nil, err
	}
	poses, err := optionalValues[annotation.Pose](b, colPose)
	if err != nil {
		return nil, err
	}
	gtInfos, err := optionalValues[annotation.GtInfo](b, colGtInfo)
	if err != nil {
		return nil, err
	}
	categories, hasCategories := b.Column(colCategoryID)
	confidences, hasConfidences := b.Column(colConfidence)

	out := make([]annotation.ObjectAnnotation, n)
	for i := range out {
		obj := annotation.ObjectAnnotation{
			ID:           ids[i],
			ItemID:       itemIDs[i],
			ViewID:       viewIDs[i],
			CategoryName: names[i],
			Mask:         masks[i],
			Pose:         poses[i],
			GtInfo:       gtInfos[i],
			SourceID:     source,
		}
		if boxes[i] != nil {
			obj.BBox = *boxes[i]
		}
		if hasCategories {
			if obj.CategoryID, err = categories.Int64At(i); err != nil {
				return nil, err
			}
		}
		if hasConfidences {
			if obj.Confidence, err = confidences.Float32At(i); err != nil {
				return nil, err
			}
		}
		out[i] = obj
	}
	return out, nil
}

func requiredStrings(b *column.Batch, name string) ([]string, error) {
	c, ok := b.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: objects table has no %q column", ErrCorruptCell, name)
	}
	return c.StringsAll()
}

func optionalStrings(b *column.Batch, name string) ([]string, error) {
	c, ok := b.Column(name)
	if !ok {
		return make([]string, b.Len()), nil
	}
	return c.StringsAll()
}

func optionalValues[T annotation.Value](b *column.Batch, name string) ([]*T, error) {
	c, ok := b.Column(name)
	if !ok {
		return make([]*T, b.Len()), nil
	}
	return column.DecodeOptional[T](c)
}
