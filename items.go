package annostore

import (
	"fmt"

	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/column"
)

// Table names of a dataset.
const (
	ItemsTable      = "items"
	ObjectsTable    = "objects"
	EmbeddingsTable = "embeddings"
)

const (
	colID           = "id"
	colSplit        = "split"
	colItemID       = "item_id"
	colViewID       = "view_id"
	colCategoryID   = "category_id"
	colCategoryName = "category_name"
	colBBox         = "bbox"
	colMask         = "mask"
	colPose         = "pose"
	colGtInfo       = "gt_info"
	colConfidence   = "confidence"
)

// DefaultPageSize is used when Params.Size is not positive.
const DefaultPageSize = 50

// Params selects a page of items. Pages are numbered from 1.
type Params struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func (p Params) normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

func (p Params) offset() int { return (p.Page - 1) * p.Size }

// Page is one page of a paginated result.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// ItemView is one media view of an item, e.g. the left camera image.
type ItemView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// URI is resolved against the media directory of the dataset.
	URI     string `json:"uri"`
	Preview []byte `json:"thumbnail,omitempty"`
}

// ItemFeatures is the row of an item as served to clients.
//
// Features hold every other column through the lossy projection: annotation
// values are plain maps and must not be written back.
type ItemFeatures struct {
	ID       string              `json:"id"`
	Split    string              `json:"split"`
	Views    map[string]ItemView `json:"views"`
	Features map[string]any      `json:"features"`
}

func itemFeatures(b *column.Batch, mediaDir string) ([]ItemFeatures, error) {
	ids, ok := b.Column(colID)
	if !ok {
		return nil, fmt.Errorf("%w: items table has no %q column", ErrCorruptCell, colID)
	}
	out := make([]ItemFeatures, b.Len())
	for i := range out {
		id, err := ids.StringAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = ItemFeatures{ID: id, Views: map[string]ItemView{}, Features: map[string]any{}}
	}

	for _, c := range b.Columns() {
		switch c.Name() {
		case colID:
			continue
		case colSplit:
			for i := range out {
				s, err := c.StringAt(i)
				if err != nil {
					return nil, err
				}
				out[i].Split = s
			}
			continue
		}
		for i := range out {
			v, err := c.AnyAt(i)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			switch c.Tag() {
			case codec.TagImage:
				img := v.(annotation.Image)
				out[i].Views[c.Name()] = ItemView{
					ID:      c.Name(),
					Type:    "image",
					URI:     img.ResolveURI(mediaDir),
					Preview: img.Preview(),
				}
			case codec.TagDepthImage:
				d := v.(annotation.DepthImage)
				out[i].Views[c.Name()] = ItemView{
					ID:   c.Name(),
					Type: "depth_image",
					URI:  d.ResolveURI(mediaDir),
				}
			default:
				out[i].Features[c.Name()] = column.ProjectValue(v)
			}
		}
	}
	return out, nil
}
