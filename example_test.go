package annostore_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/annostore"
	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/column"
	"github.com/hupe1980/annostore/table"
)

// exampleLibrary creates a library with one dataset holding two items.
func exampleLibrary() string {
	ctx := context.Background()
	root, err := os.MkdirTemp("", "annostore-example")
	if err != nil {
		log.Fatal(err)
	}
	dir := filepath.Join(root, "coco")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "db.json"), []byte(`{"id": "coco", "name": "COCO"}`), 0o644); err != nil {
		log.Fatal(err)
	}

	lib, err := annostore.New(root)
	if err != nil {
		log.Fatal(err)
	}
	ds, err := lib.LoadDataset(ctx, "coco")
	if err != nil {
		log.Fatal(err)
	}
	db := ds.Connect()
	defer db.Close()

	items, err := column.NewBatch(column.Strings("id", []string{"img-1", "img-2"}))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := db.CreateTable(ctx, table.SplitPartitioning.TableName("train", annostore.ItemsTable), items); err != nil {
		log.Fatal(err)
	}
	return root
}

// Example_saveAndLoadObjects demonstrates replacing and reading the objects
// of one item.
func Example_saveAndLoadObjects() {
	ctx := context.Background()
	root := exampleLibrary()
	defer os.RemoveAll(root)

	lib, _ := annostore.New(root)
	ds, _ := lib.LoadDataset(ctx, "coco")

	person := annotation.ObjectAnnotation{
		ID:           "person-1",
		CategoryID:   1,
		CategoryName: "person",
		BBox:         annotation.FromXYWH([4]float32{0.1, 0.2, 0.3, 0.4}),
		Confidence:   1,
	}
	if err := lib.SaveItemObjects(ctx, ds, "img-1", []annotation.ObjectAnnotation{person}); err != nil {
		log.Fatal(err)
	}

	objs, err := lib.ItemObjects(ctx, ds, "img-1")
	if err != nil {
		log.Fatal(err)
	}
	for _, o := range objs {
		fmt.Println(o.ID, o.CategoryName, o.SourceID, o.BBox.XYXY())
	}
	// Output: person-1 person Ground Truth [0.1 0.2 0.4 0.6]
}

// Example_notFound demonstrates the not-found taxonomy.
func Example_notFound() {
	ctx := context.Background()
	root := exampleLibrary()
	defer os.RemoveAll(root)

	lib, _ := annostore.New(root)
	_, err := lib.LoadDataset(ctx, "unknown")
	fmt.Println(errors.Is(err, annostore.ErrDatasetNotFound))

	ds, _ := lib.LoadDataset(ctx, "coco")
	objs, err := lib.ItemObjects(ctx, ds, "img-404")
	fmt.Println(len(objs), err)

	_, err = lib.ItemEmbeddings(ctx, ds, "img-1")
	fmt.Println(errors.Is(err, annostore.ErrEmbeddingNotFound))
	// Output:
	// true
	// 0 <nil>
	// true
}

// Example_loadItems demonstrates paginating the items of a dataset.
func Example_loadItems() {
	ctx := context.Background()
	root := exampleLibrary()
	defer os.RemoveAll(root)

	lib, _ := annostore.New(root)
	ds, _ := lib.LoadDataset(ctx, "coco")

	page, err := lib.LoadItems(ctx, ds, annostore.Params{Page: 1, Size: 1})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(page.Total, page.Items[0].ID, page.Items[0].Split)
	// Output: 2 img-1 train
}
