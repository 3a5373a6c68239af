package services

import "fmt"

// Channels is the fixed global channel set. Channels are always
// present, need no membership and are not stored as rows.
var Channels = []string{"general", "meet", "memes", "teammates"}

// ValidChannel reports whether name is one of the fixed channels.
func ValidChannel(name string) bool {
	for _, c := range Channels {
		if c == name {
			return true
		}
	}
	return false
}

// Locality is a message's addressable scope: a fixed channel or a
// room, mutually exclusive.
type Locality struct {
	Channel string
	RoomID  uint
}

// Validate enforces the exactly-one rule and the channel whitelist.
func (l Locality) Validate() error {
	if l.RoomID != 0 {
		if l.Channel != "" {
			return ErrInvalidLocality
		}
		return nil
	}
	if !ValidChannel(l.Channel) {
		return ErrInvalidLocality
	}
	return nil
}

// IsRoom reports whether the locality is a room.
func (l Locality) IsRoom() bool {
	return l.RoomID != 0
}

// Key is the Redis sequence key for this locality.
func (l Locality) Key() string {
	if l.IsRoom() {
		return fmt.Sprintf("room:%d", l.RoomID)
	}
	return fmt.Sprintf("chan:%s", l.Channel)
}

// dmKey is the sequence key for a DM pair; the pair is unordered so
// both directions share one counter.
func dmKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d:%d", a, b)
}
