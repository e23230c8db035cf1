package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Where a brief came from.
const (
	SourceFile    = "file"
	SourceHTTP    = "http"
	SourceBrowser = "browser"
)

// Metadata contains metadata about an ingested job posting
type Metadata struct {
	URL       string `json:"url,omitempty"`
	Timestamp string `json:"timestamp"`          // RFC3339 format
	Hash      string `json:"hash"`               // SHA256 hex digest of the cleaned text
	Platform  string `json:"platform,omitempty"` // Detected job board platform
	Source    string `json:"source,omitempty"`
	FromCache bool   `json:"from_cache,omitempty"`
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(content string, url string) *Metadata {
	return &Metadata{
		URL:       url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
