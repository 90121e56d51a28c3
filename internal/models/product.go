package models

// NotAvailable is the sentinel the product feeds use for absent values.
const NotAvailable = "Not Available"

// ProductRecord is one row of tabular product data with a fixed set of
// optional fields. Empty string means the field was absent from the row.
type ProductRecord struct {
	Title       string
	Brand       string
	Price       string
	OrigPrice   string
	Currency    string
	Discount    string
	Description string
	ImageURLs   []string
}

// Scene is a single still image shown for a fixed time window inside the
// assembled slideshow. ImageIndex always addresses a downloaded image.
type Scene struct {
	ImageIndex int
	Start      float64
	End        float64
}

// Duration returns the scene's display time in seconds.
func (s Scene) Duration() float64 {
	return s.End - s.Start
}

// RenderOptions is the immutable per-job rendering configuration.
type RenderOptions struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	FPS           int     `json:"fps"`
	SceneDuration float64 `json:"scene_duration"`
	Voice         string  `json:"voice"`
	ShowSubtitles bool    `json:"show_subtitles"`
	Font          string  `json:"font"`
	FontSize      int     `json:"font_size"`
	Watermark     string  `json:"watermark"`
	OutroText     string  `json:"outro_text"`
	ZoomPan       bool    `json:"zoom_pan"`
}

// DefaultRenderOptions returns the vertical-video defaults used when the
// caller does not override them.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:         1080,
		Height:        1920,
		FPS:           25,
		SceneDuration: 5.0,
		Voice:         "Zephyr",
		ShowSubtitles: true,
		Font:          "Sarabun",
		FontSize:      60,
		ZoomPan:       true,
	}
}
