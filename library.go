package annostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/dataset"
	"github.com/hupe1980/annostore/table"
)

// Library is a directory of datasets, one sub-directory per dataset id.
//
// It is the surface an HTTP layer builds on. A Library holds no open
// handles and is safe for concurrent use.
type Library struct {
	dataDir string
	opts    options
}

// New opens the library at dataDir. The directory must exist unless the
// library is read from a blob store (see WithBlobStore), in which case
// dataDir only prefixes dataset paths.
func New(dataDir string, opts ...Option) (*Library, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.store == nil {
		fi, err := os.Stat(dataDir)
		if err != nil {
			return nil, fmt.Errorf("dataset library %q: %w", dataDir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("dataset library %q is not a directory", dataDir)
		}
	}
	return &Library{dataDir: dataDir, opts: o}, nil
}

// DataDir returns the library location.
func (l *Library) DataDir() string { return l.dataDir }

// Logger returns the configured logger.
func (l *Library) Logger() *Logger { return l.opts.logger }

// ListDatasets returns the metadata of every dataset, sorted by directory
// name. Directories without a readable db.json are skipped.
func (l *Library) ListDatasets(ctx context.Context) ([]dataset.Info, error) {
	ids, err := l.datasetIDs(ctx)
	if err != nil {
		return nil, translateError("list datasets", err)
	}
	infos := make([]dataset.Info, 0, len(ids))
	for _, id := range ids {
		ds, err := l.LoadDataset(ctx, id)
		if errors.Is(err, ErrDatasetNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, ds.Info())
	}
	return infos, nil
}

func (l *Library) datasetIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if l.opts.store == nil {
		entries, err := os.ReadDir(l.dataDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				ids = append(ids, e.Name())
			}
		}
		return ids, nil
	}

	names, err := l.opts.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	meta := dataset.Primary.MetadataFile()
	for _, n := range names {
		if id, file, ok := strings.Cut(n, "/"); ok && file == meta {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// LoadDataset opens the primary dataset id. An unknown id fails with
// ErrDatasetNotFound; storage failures are *StorageIOError.
func (l *Library) LoadDataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrDatasetNotFound, id)
	}
	path := filepath.Join(l.dataDir, id)
	opts := []dataset.Option{
		dataset.WithCodec(l.opts.codec),
		dataset.WithTableOptions(l.opts.tableOptions()...),
	}
	if l.opts.store != nil {
		opts = append(opts, dataset.WithStore(blobstore.NewPrefixed(l.opts.store, id)))
	}
	ds, err := dataset.Open(ctx, dataset.Primary, path, opts...)
	if err != nil {
		return nil, translateError("load dataset", err)
	}
	return ds, nil
}

// LoadItems returns one page of the items table of ds. Image views are
// resolved against the dataset media directory. A dataset without items,
// or a page past the last item, fails with ErrItemsNotFound.
func (l *Library) LoadItems(ctx context.Context, ds *dataset.Dataset, params Params) (*Page[ItemFeatures], error) {
	start := time.Now()
	params = params.normalize()
	page, err := l.loadItems(ctx, ds, params)
	err = translateError("load items", err)
	total, n := 0, 0
	if page != nil {
		total, n = page.Total, len(page.Items)
	}
	l.opts.metrics.RecordLoadItems(n, time.Since(start), err)
	l.opts.logger.WithDataset(ds.ID()).LogLoadItems(ctx, params.Page, params.Size, total, err)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (l *Library) loadItems(ctx context.Context, ds *dataset.Dataset, params Params) (*Page[ItemFeatures], error) {
	v, err := ds.Load(ctx, l.opts.tableOptions()...)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if !v.HasTable(ItemsTable) {
		return nil, fmt.Errorf("%w: %s has no %s table", ErrItemsNotFound, ds.ID(), ItemsTable)
	}
	total, err := v.CountRows(ctx, ItemsTable)
	if err != nil {
		return nil, err
	}
	if params.offset() >= total {
		return nil, fmt.Errorf("%w: page %d of %d items", ErrItemsNotFound, params.Page, total)
	}
	b, err := v.Scan(ctx, ItemsTable, table.Query{Offset: params.offset(), Limit: params.Size})
	if err != nil {
		return nil, err
	}
	items, err := itemFeatures(b, ds.MediaDir())
	if err != nil {
		return nil, err
	}
	return &Page[ItemFeatures]{Items: items, Total: total, Page: params.Page, Size: params.Size}, nil
}

// LoadDatasetStats reads the statistics of ds, or fails with
// ErrStatsNotFound.
func (l *Library) LoadDatasetStats(ctx context.Context, ds *dataset.Dataset) ([]dataset.Stat, error) {
	stats, err := ds.Stats(ctx)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrStatsNotFound, err)
	}
	if err != nil {
		return nil, translateError("load stats", err)
	}
	return stats, nil
}

// ItemObjects merges the objects of itemID from ds and every inference
// dataset nested in it, in directory name order.
func (l *Library) ItemObjects(ctx context.Context, ds *dataset.Dataset, itemID string) ([]annotation.ObjectAnnotation, error) {
	infs, err := dataset.Inferences(ctx, ds)
	if err != nil {
		return nil, translateError("discover inference datasets", err)
	}
	return loadItemObjects(ctx, l.opts, ds, itemID, infs)
}

// ItemEmbeddings returns the embedding of itemID from the latest embedding
// dataset nested in ds.
func (l *Library) ItemEmbeddings(ctx context.Context, ds *dataset.Dataset, itemID string) ([]byte, error) {
	emb, err := dataset.LatestEmbedding(ctx, ds)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingNotFound, err)
	}
	if err != nil {
		return nil, translateError("discover embedding datasets", err)
	}
	return loadItemEmbeddings(ctx, l.opts, emb, itemID)
}

// SaveItemObjects replaces the objects of itemID in ds. See the package
// level SaveItemObjects.
func (l *Library) SaveItemObjects(ctx context.Context, ds *dataset.Dataset, itemID string, objs []annotation.ObjectAnnotation) error {
	return saveItemObjects(ctx, l.opts, ds, itemID, objs)
}
