package model

import "time"

// EvidenceItem is one external search hit.
// SourceID must equal the registry identifier of the source that produced it;
// it is the join key for result attribution. Immutable once returned.
type EvidenceItem struct {
	SourceID   string            `json:"source_id"`
	Content    string            `json:"content"`
	Author     string            `json:"author,omitempty"`
	URL        string            `json:"url"`
	Timestamp  time.Time         `json:"timestamp,omitempty"`
	Engagement map[string]int    `json:"engagement,omitempty"` // likes, reposts, replies...
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Reference is a citation included in the user-facing response
type Reference struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
	SourceID string `json:"source_id"`
}
