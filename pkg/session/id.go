package session

import (
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// idEncodedLen is the length of an ID in its unpadded base64url form.
const idEncodedLen = 22

var idEncoding = base64.RawURLEncoding.Strict()

// ID is an opaque, unguessable session identifier.
// IDs are minted by a Store and are only ever used by callers to look records up.
type ID [16]byte

// NewID returns a fresh random identifier.
// Stores call it from Create and CycleID; applications should not mint IDs themselves.
func NewID() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ID{}, errors.Join(ErrIDGeneration, err)
	}
	return ID(u), nil
}

// ParseID decodes the string form produced by ID.String.
// It validates the encoding only; it says nothing about whether a record exists.
func ParseID(s string) (ID, error) {
	if len(s) != idEncodedLen {
		return ID{}, ErrMalformedID
	}

	var id ID
	n, err := idEncoding.Decode(id[:], []byte(s))
	if err != nil || n != len(id) {
		return ID{}, ErrMalformedID
	}
	return id, nil
}

// String returns the compact transport form of the identifier.
func (id ID) String() string {
	return idEncoding.EncodeToString(id[:])
}

// IsZero reports whether id is the zero value, which no store ever returns.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
