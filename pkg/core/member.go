// pkg/core/member.go
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GhostBucketHash is the equipment bucket that holds a character's ghost shell.
const GhostBucketHash uint32 = 4023194814

// Identity is a Bungie name split into its display name and numeric code.
type Identity struct {
	Name string
	Code int
}

// String returns the identity in Name#1234 form.
func (i Identity) String() string {
	if i.Code == 0 {
		return i.Name
	}
	return fmt.Sprintf("%s#%04d", i.Name, i.Code)
}

// ErrInvalidIdentity is returned when a Bungie name is not in Name#1234 form.
var ErrInvalidIdentity = errors.New("invalid bungie name")

// ParseIdentity splits a Bungie name on its last '#'.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, "#")
	if i < 0 {
		return Identity{}, fmt.Errorf("%w: %q has no #code", ErrInvalidIdentity, s)
	}
	name, code := s[:i], s[i+1:]
	if name == "" {
		return Identity{}, fmt.Errorf("%w: %q has an empty name", ErrInvalidIdentity, s)
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 {
		return Identity{}, fmt.Errorf("%w: %q has a non-numeric code", ErrInvalidIdentity, s)
	}
	return Identity{Name: name, Code: n}, nil
}

// CharacterSnapshot is the most recently played character of a member.
type CharacterSnapshot struct {
	CharacterID          string
	EmblemBackgroundPath string
	EmblemPath           string
	LastPlayed           time.Time
}

// GhostItemRef points at the item in the ghost equipment bucket.
type GhostItemRef struct {
	ItemHash       uint32
	ItemInstanceID string
}

// MemberRecord is one resolved fireteam member. Rank is assigned after sorting
// and is 1-based.
type MemberRecord struct {
	DisplayName     string
	DisplayNameCode int
	MembershipID    string
	MembershipType  int
	Character       CharacterSnapshot
	Ghost           *GhostItemRef
	Rank            int
}

// Label is the text rendered onto the member's emblem.
func (m MemberRecord) Label() string {
	return m.DisplayName
}
