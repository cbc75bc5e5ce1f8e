package notify

// Policy decides what happens to a failed secondary action (an email after
// a notification write, a fan-out after an ingest, an expiry notification).
type Policy int

const (
	// LogOnly logs the failure and reports the primary action as successful.
	LogOnly Policy = iota
	// Propagate returns the failure to the caller alongside the primary result.
	Propagate
)

func (p Policy) String() string {
	switch p {
	case LogOnly:
		return "log_only"
	case Propagate:
		return "propagate"
	}
	return "unknown"
}
