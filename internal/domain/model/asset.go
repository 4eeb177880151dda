package model

// Asset is an object stored in the asset store.
type Asset struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
