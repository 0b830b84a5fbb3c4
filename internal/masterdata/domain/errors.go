package masterdata

import "errors"

// Not-found sentinels returned by repositories.
var (
	ErrSiteNotFound    = errors.New("site: not found")
	ErrStationNotFound = errors.New("charging station: not found")
	ErrTagNotFound     = errors.New("tag: not found")
	ErrUserNotFound    = errors.New("user: not found")
)
