package waitlist

import (
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/constants"
)

type StorageKind string

const (
	StorageDatabase StorageKind = "database"
	StorageFile     StorageKind = "file"
)

const (
	MessageSignupSucceeded = "Successfully added to waitlist"
	MessageEmailRequired   = "Valid email is required"
	MessageEmailInvalid    = "Please enter a valid email address"
	MessageDuplicateEmail  = "This email is already on the waitlist"
	MessageListFailed      = "Could not retrieve waitlist data"
	MessageUnexpectedError = "An unexpected error occurred: "
)

// SubmitWaitlistRequest is the POST body. Email stays a plain string so that a
// missing, null or empty value all fail the "required" rule.
type SubmitWaitlistRequest struct {
	Email string `json:"email" validate:"required,signup_email"`
}

type SubmitWaitlistResponse struct {
	Message string      `json:"message"`
	ID      string      `json:"id"`
	Storage StorageKind `json:"storage"`
}

// ListedEntry is one element of a list response. Database entries carry email
// and created_at; file entries carry only timestamp.
type ListedEntry struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ListWaitlistResponse struct {
	Count   int           `json:"count"`
	Entries []ListedEntry `json:"entries"`
	Storage StorageKind   `json:"storage"`
}

// FileEntry is one element of the file backend's JSON array.
type FileEntry struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

// ========================================
// Mappers
// ========================================

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.ISOMillisTimestampFormat)
}

func ToDatabaseListedEntry(entry *models.WaitlistEntry) ListedEntry {
	return ListedEntry{
		ID:        strconv.FormatUint(uint64(entry.ID), 10),
		Email:     entry.Email,
		CreatedAt: formatTimestamp(entry.CreatedAt),
	}
}

func ToFileListedEntry(entry FileEntry) ListedEntry {
	return ListedEntry{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
	}
}

func newListResponse(storage StorageKind, entries []ListedEntry) *ListWaitlistResponse {
	if entries == nil {
		entries = []ListedEntry{}
	}
	return &ListWaitlistResponse{
		Count:   len(entries),
		Entries: entries,
		Storage: storage,
	}
}
