package model

// Article is an HTML article found in the blog directory
type Article struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	// MTime is the modification time in fractional Unix seconds
	MTime      float64  `json:"mtime"`
	IsAnalyzed bool     `json:"is_analyzed"`
	Patterns   []string `json:"patterns"`
}

// Promotion is generated promotional copy for an article
type Promotion struct {
	Patterns   []string
	Raw        string
	ModelUsed  string
	Structured bool
}

// SearchEntry is one article in the blog's client side search index
type SearchEntry struct {
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Tags          []string `json:"tags"`
	URL           string   `json:"url"`
	SearchContent string   `json:"searchContent"`
}
