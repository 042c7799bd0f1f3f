package dataset

import "slices"

// Category is one label of a dataset.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Info is the content of a dataset metadata file.
type Info struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Version     string     `json:"version,omitempty"`
	NumElements int        `json:"num_elements"`
	Splits      []string   `json:"splits,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	// Model names the model that produced an inference or embedding
	// dataset.
	Model string `json:"model,omitempty"`
	// Preview is the path of the dataset thumbnail, relative to the
	// dataset root.
	Preview string `json:"preview,omitempty"`
}

// Clone returns a deep copy of i.
func (i Info) Clone() Info {
	i.Splits = slices.Clone(i.Splits)
	i.Categories = slices.Clone(i.Categories)
	return i
}

// CategoryName returns the name of category id.
func (i Info) CategoryName(id int64) (string, bool) {
	for _, c := range i.Categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// Stat is one named histogram of stats.json.
type Stat struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Histogram []map[string]any `json:"histogram"`
	Range     []float64        `json:"range,omitempty"`
}
