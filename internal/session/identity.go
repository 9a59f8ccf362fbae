package session

import (
	"fmt"
	"strings"
)

// UserID is a fully-qualified user identifier of the form @localpart:domain.
type UserID string

// ParseUserID validates the structural form of a user identifier. Stored
// credentials that fail this check are treated as corrupt, not as a missing
// session.
func ParseUserID(s string) (UserID, error) {
	if !strings.HasPrefix(s, "@") {
		return "", fmt.Errorf("user ID %q must start with '@'", s)
	}
	rest := s[1:]
	local, domain, ok := strings.Cut(rest, ":")
	if !ok || local == "" || domain == "" {
		return "", fmt.Errorf("user ID %q must have the form @localpart:domain", s)
	}
	return UserID(s), nil
}

func (u UserID) String() string { return string(u) }

// Localpart returns the part between '@' and the first ':'.
func (u UserID) Localpart() string {
	rest := strings.TrimPrefix(string(u), "@")
	local, _, _ := strings.Cut(rest, ":")
	return local
}

// Domain returns the server name after the first ':'.
func (u UserID) Domain() string {
	rest := strings.TrimPrefix(string(u), "@")
	_, domain, _ := strings.Cut(rest, ":")
	return domain
}

// DeviceID identifies one client installation for a user.
type DeviceID string

// ParseDeviceID validates a device identifier: non-empty, no whitespace.
func ParseDeviceID(s string) (DeviceID, error) {
	if s == "" {
		return "", fmt.Errorf("device ID must not be empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", fmt.Errorf("device ID %q must not contain whitespace", s)
	}
	return DeviceID(s), nil
}

func (d DeviceID) String() string { return string(d) }
