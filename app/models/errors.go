package models

import "errors"

var (
	// ErrColorNotInPalette is returned when a profile color is outside the fixed palette.
	ErrColorNotInPalette = errors.New("profile color is not part of the allowed palette")
	// ErrLastProfile is returned when deleting would leave the user without any profile.
	ErrLastProfile = errors.New("cannot delete the last remaining profile")
	// ErrDuplicateProfileName is returned when a profile name is already taken for the user.
	ErrDuplicateProfileName = errors.New("profile name already in use for this user")
	// ErrProfileLimitReached is returned when the plan ceiling forbids another profile.
	ErrProfileLimitReached = errors.New("profile limit for the current plan reached")
)
