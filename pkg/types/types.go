package types

// Source types
type Source struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
	IsM3U8  bool   `json:"isM3U8,omitempty"`
	Referer string `json:"referer"`
}

type Subtitle struct {
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Label string `json:"label,omitempty"`
}

type VideoSources struct {
	Sources   []Source   `json:"sources"`
	Subtitles []Subtitle `json:"subtitles"`
}

// First returns the first source, or nil when there are none
func (v *VideoSources) First() *Source {
	if v == nil || len(v.Sources) == 0 {
		return nil
	}
	return &v.Sources[0]
}
