package player

// Track is a playable audio item as the player sees it. The playlist
// owns the tracks; the player treats them as immutable except for
// PlayCount, which it increments on natural playback completion.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Duration   int    `json:"durationSeconds"`
	CoverURL   string `json:"coverUrl,omitempty"`
	Dedication string `json:"dedicationText,omitempty"`
	AudioURL   string `json:"audioUrl,omitempty"`
	Favorite   bool   `json:"isFavorite"`
	PlayCount  int    `json:"playCount"`
}

// playable reports whether the track has an audio source to load.
func (t Track) playable() bool {
	return t.AudioURL != ""
}
