package models

// Result is the outcome of fetching and extracting one page. A failed fetch
// is reported through Status and an empty Text, not through an error.
type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Status   int    `json:"status"`
	RenderMS int    `json:"render_ms"`
}
