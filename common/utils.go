package common

import (
	"strings"
	"time"
)

// GenerateRunID generates a unique identifier based on the current timestamp.
// The identifier is formatted as a string in the "YYYYMMDDHHMMSS" format.
func GenerateRunID() string {
	return time.Now().Format("20060102150405")
}

// VideoIDFromURL extracts the video ID from a YouTube watch URL. Inputs
// that are already bare IDs pass through unchanged.
func VideoIDFromURL(videoURL string) string {
	id := videoURL
	if idx := strings.Index(id, "v="); idx >= 0 {
		id = id[idx+2:]
	}
	if idx := strings.Index(id, "&"); idx >= 0 {
		id = id[:idx]
	}
	return id
}
