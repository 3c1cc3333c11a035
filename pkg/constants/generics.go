package constants

import "time"

// ISOMillisTimestampFormat is RFC 3339 with millisecond precision, the layout
// of file-backend timestamps (e.g. 2024-05-01T09:30:00.000Z).
const ISOMillisTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = time.Minute

	// DefaultSignupRateLimitRequests caps waitlist submissions per client per window.
	DefaultSignupRateLimitRequests = 30
)

// DefaultWaitlistFile is relative to the working directory.
const DefaultWaitlistFile = "data/waitlist.json"
