package store

import "github.com/google/uuid"

// isUUID reports whether id can be compared against a UUID column. Ids
// from requests are checked first so malformed ones read as "not found".
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
