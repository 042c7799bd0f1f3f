// Package annostore stores computer-vision annotations in columnar tables and
// merges them into per-item views.
//
// A library is a directory of datasets. Each dataset keeps its metadata in
// db.json and its tables partitioned by split:
//
//	library/
//	  coco/
//	    db.json
//	    split=train/items.ptb
//	    split=train/objects.ptb
//	    db_infer_detr/infer.json
//	    db_infer_detr/split=train/objects.ptb
//	    db_embed_sam/embed.json
//	    db_embed_sam/split=train/embeddings.ptb
//
// # Quick Start
//
//	lib, _ := annostore.New("./library")
//	ds, _ := lib.LoadDataset(ctx, "coco")
//	page, _ := lib.LoadItems(ctx, ds, annostore.Params{Page: 1, Size: 50})
//	objs, _ := lib.ItemObjects(ctx, ds, page.Items[0].ID)
//
// ItemObjects returns the ground truth objects of the item followed by the
// predictions of every db_infer_* dataset, in directory name order.
// SaveItemObjects replaces the ground truth of one item:
//
//	err := lib.SaveItemObjects(ctx, ds, itemID, objs)
//
// # Remote Libraries
//
// Datasets can live in S3 or any S3-compatible store:
//
//	store, _ := s3.NewStoreFromConfig(ctx, "my-bucket", s3.WithPrefix("library/"))
//	lib, _ := annostore.New("s3://my-bucket/library",
//		annostore.WithBlobStore(store),
//		annostore.WithTableCache(table.NewCache(256<<20, nil)),
//	)
//
// Several processes writing to the same library coordinate through a
// lock.Locker such as lock/dynamodb:
//
//	lib, _ := annostore.New(dir, annostore.WithLocker(dynamodb.New(client, "locks")))
//
// # Observability
//
// WithLogger takes a slog based Logger; WithMetricsCollector receives the
// outcome and latency of every operation. BasicMetricsCollector keeps
// in-memory counters:
//
//	mc := &annostore.BasicMetricsCollector{}
//	lib, _ := annostore.New(dir, annostore.WithLogger(annostore.NewJSONLogger(slog.LevelInfo)), annostore.WithMetricsCollector(mc))
//	fmt.Println(mc.GetStats().SaveErrors)
//
// # Errors
//
// Errors are classified by sentinels usable with errors.Is: ErrInvalidValue,
// ErrCorruptCell, ErrDatasetNotFound, ErrEmbeddingNotFound, ErrItemNotFound,
// ErrItemsNotFound, ErrStatsNotFound and ErrStorageIO. Nothing is retried
// internally.
package annostore
