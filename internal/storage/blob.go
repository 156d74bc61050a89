package storage

import (
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrBadKey = errors.New("invalid key")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}

// audio types accepted for recorded answers, by extension
var recordingExts = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/mp4":   ".m4a",
}

// RecordingExt returns the file extension for an audio content type.
func RecordingExt(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := recordingExts[ct]
	return ext, ok
}

// RecordingPrefix is the key prefix under which a user's recordings for one
// section live. It ends in a slash.
func RecordingPrefix(examID, sectionID, userID string) string {
	return path.Join("recordings", safeSegment(examID), safeSegment(sectionID), safeSegment(userID)) + "/"
}

// RecordingKey builds a fresh key for one recording of a user's answer.
func RecordingKey(examID, sectionID, userID, ext string) string {
	return RecordingPrefix(examID, sectionID, userID) + uuid.NewString() + ext
}

// OwnsRecording reports whether key is a single recording directly under the
// user's prefix for the section.
func OwnsRecording(key, examID, sectionID, userID string) bool {
	prefix := RecordingPrefix(examID, sectionID, userID)
	if !strings.HasPrefix(key, prefix) || path.Clean(key) != key {
		return false
	}
	name := strings.TrimPrefix(key, prefix)
	return name != "" && !strings.Contains(name, "/") && safeSegment(name) == name
}

func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '-'
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}
