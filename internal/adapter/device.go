package adapter

import "github.com/google/uuid"

// NewDeviceID generates a stable device identifier. Called once on
// first run; the ID is persisted in the config and identifies this
// device's profile on the server.
func NewDeviceID() string {
	return uuid.NewString()
}
