// Package model defines the typed result structs the flow engine populates:
// one shape per media kind, each carrying a raw json.RawMessage capture of
// the untyped extraction alongside its typed fields.
package model

import "encoding/json"

// SearchItem is one row of a search/list flow's result set.
type SearchItem struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Cover  string          `json:"cover,omitempty"`
	Author string          `json:"author,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// ChapterItem is one entry of a Book chapter list.
type ChapterItem struct {
	Title string          `json:"title"`
	URL   string          `json:"url"`
	Index int             `json:"index,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// EpisodeItem is one entry nested under a PlayLine.
type EpisodeItem struct {
	Title string          `json:"title"`
	URL   string          `json:"url"`
	Index int             `json:"index,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// PlayLine groups episodes under a named source (e.g. a mirror or server).
type PlayLine struct {
	Name     string          `json:"name"`
	Episodes []EpisodeItem   `json:"episodes"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// TrackItem is one entry of an Audio track list (flat, unlike PlayLine).
type TrackItem struct {
	Title string          `json:"title"`
	URL   string          `json:"url"`
	Index int             `json:"index,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// BookDetail is the result of a Book detail flow.
type BookDetail struct {
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Cover    string          `json:"cover,omitempty"`
	Intro    string          `json:"intro,omitempty"`
	Chapters []ChapterItem   `json:"chapters,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// BookContent is the result of rendering a single chapter's content.
type BookContent struct {
	ChapterTitle string          `json:"chapterTitle,omitempty"`
	Paragraphs   []string        `json:"paragraphs"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// VideoDetail is the result of a Video detail flow.
type VideoDetail struct {
	Title     string          `json:"title"`
	Cover     string          `json:"cover,omitempty"`
	Intro     string          `json:"intro,omitempty"`
	PlayLines []PlayLine      `json:"playLines,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// VideoPlay is a resolved playable source for one episode.
type VideoPlay struct {
	URL     string          `json:"url"`
	Quality string          `json:"quality,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// AudioDetail is the result of an Audio detail flow.
type AudioDetail struct {
	Title  string          `json:"title"`
	Cover  string          `json:"cover,omitempty"`
	Intro  string          `json:"intro,omitempty"`
	Tracks []TrackItem     `json:"tracks,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// AudioPlay is a resolved playable source for one track.
type AudioPlay struct {
	URL string          `json:"url"`
	Raw json.RawMessage `json:"raw,omitempty"`
}

// MangaDetail is the result of a Manga detail flow.
type MangaDetail struct {
	Title     string          `json:"title"`
	Cover     string          `json:"cover,omitempty"`
	Intro     string          `json:"intro,omitempty"`
	PlayLines []PlayLine      `json:"playLines,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// MangaContent is the resolved page images for one manga chapter/episode.
type MangaContent struct {
	Images []string        `json:"images"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}
