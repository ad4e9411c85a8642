// Package models defines the domain types for tootvault.
package models

// Status is a single archived post as served by a Mastodon-compatible API.
// Timestamps stay as the raw strings the server sent so a status written to
// the archive reads back byte-for-byte.
type Status struct {
	ID               string            `json:"id"`
	CreatedAt        string            `json:"created_at"`
	URL              string            `json:"url"`
	Content          string            `json:"content"`
	Tags             []Tag             `json:"tags"`
	MediaAttachments []MediaAttachment `json:"media_attachments"`
}

// Tag is a hashtag attached to a status.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// MediaAttachment is a media file referenced by a status.
type MediaAttachment struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// HasTag reports whether the status carries a tag with the given name.
// Matching is exact and case-sensitive.
func (s *Status) HasTag(name string) bool {
	for _, t := range s.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// HasMedia reports whether the status has at least one media attachment.
// A status without media is a normal case, never an error.
func (s *Status) HasMedia() bool {
	return len(s.MediaAttachments) > 0
}

// Account is the subset of a server account record the lookup command uses.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}
