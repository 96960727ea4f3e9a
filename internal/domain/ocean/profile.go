package ocean

import "time"

// ProfileFile identifies one downloadable profile file on an upstream mirror.
// Date is the publication date embedded in the file name.
type ProfileFile struct {
	Name string
	Date time.Time
	URL  string
}
