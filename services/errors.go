package services

import "errors"

var (
	// ErrUniversityNotFound is returned when a name or id matches no university
	ErrUniversityNotFound = errors.New("university not found")

	// ErrUpstreamUnavailable wraps object storage failures during sync
	ErrUpstreamUnavailable = errors.New("upstream storage unavailable")

	// ErrDataIntegrity is returned when an upsert hits a constraint it cannot resolve
	ErrDataIntegrity = errors.New("frame index integrity violation")

	// ErrLogoUnavailable is returned when a university has neither a logo key nor a logo URL
	ErrLogoUnavailable = errors.New("logo unavailable")
)

// ErrInvalidUpload is returned for an empty or non-image upload
var ErrInvalidUpload = errors.New("invalid image upload")
