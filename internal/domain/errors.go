package domain

import "errors"

var (
	// ErrUserNotFound indicates the profile store has no record for the user.
	ErrUserNotFound = errors.New("user not found")
	// ErrDeviceNotFound indicates the device store has no such device for the user.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrMarketUnavailable indicates the market collaborator could not supply a snapshot.
	ErrMarketUnavailable = errors.New("market data unavailable")
)
