package models

import (
	"regexp"
	"strconv"
	"time"
)

// Project represents a single portfolio entry referencing a YouTube video.
// JSON field names match the serialized list stored under the projects key.
type Project struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Thumbnail  string    `json:"thumbnail"`
	Duration   string    `json:"duration"`
	Views      string    `json:"views"`
	YoutubeURL string    `json:"youtubeUrl"`
	VideoID    string    `json:"videoId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProjectInput carries the caller-supplied fields for a new project. The id
// and timestamps are assigned by the repository; the video fields are derived
// by the handler from the YouTube URL.
type ProjectInput struct {
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Duration   string `json:"duration"`
	Views      string `json:"views"`
	YoutubeURL string `json:"youtubeUrl"`
	VideoID    string `json:"videoId"`
}

// ProjectUpdate is a partial overwrite: nil fields are left untouched.
type ProjectUpdate struct {
	Title      *string `json:"title,omitempty"`
	Thumbnail  *string `json:"thumbnail,omitempty"`
	Duration   *string `json:"duration,omitempty"`
	Views      *string `json:"views,omitempty"`
	YoutubeURL *string `json:"youtubeUrl,omitempty"`
	VideoID    *string `json:"videoId,omitempty"`
}

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// ExtractVideoID pulls the video identifier out of the known YouTube URL
// shapes (watch, short link, embed). Returns the empty string for anything
// else.
func ExtractVideoID(url string) string {
	match := videoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return ""
	}
	return match[1]
}

// ThumbnailURL builds the maxresdefault thumbnail URL for a video id.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

// DefaultProjects returns the seed portfolio shown before any admin edit.
func DefaultProjects() []Project {
	now := time.Now()
	return []Project{
		{
			ID:         "1",
			Title:      "MON HISTOIRE DANS LE MONTAGE VIDEO",
			Thumbnail:  ThumbnailURL("BSwtm2mBYUg"),
			Duration:   "À voir",
			Views:      "Nouveau",
			YoutubeURL: "https://youtu.be/BSwtm2mBYUg",
			VideoID:    "BSwtm2mBYUg",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "2",
			Title:      "GRENADES et POINGS CONTRE FUGU_FPS",
			Thumbnail:  ThumbnailURL("4jkMgut_1hc"),
			Duration:   "À voir",
			Views:      "Nouveau",
			YoutubeURL: "https://youtu.be/4jkMgut_1hc",
			VideoID:    "4jkMgut_1hc",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// NewProjectID derives an id from the wall clock in milliseconds. Collisions
// within the same millisecond are the caller's concern; the repository bumps
// until unique.
func NewProjectID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
