// Package dataset opens annostore datasets.
//
// A dataset is a directory (or a blob store prefix) holding a metadata file
// and split-partitioned tables:
//
//	coco/
//	  db.json
//	  stats.json
//	  media/...
//	  split=train/items.ptb
//	  split=train/objects.ptb
//	  db_infer_yolo/infer.json
//	  db_infer_yolo/split=train/objects.ptb
//	  db_embed_sam/embed.json
//	  db_embed_sam/split=train/embeddings.ptb
//
// The metadata file decides the Kind: db.json for primary datasets,
// infer.json for inference datasets and embed.json for embedding datasets.
// Inference and embedding datasets are nested in their primary dataset
// under the db_infer_ and db_embed_ prefixes.
package dataset
