package fight

import "errors"

var (
	// ErrAlreadyFighting rejects joining or starting while bound to an
	// active fight.
	ErrAlreadyFighting = errors.New("character is already in a fight")
	// ErrFightClosed rejects joining a closed or ended fight.
	ErrFightClosed = errors.New("fight is not open for new participants")
	// ErrUnknownSide rejects side labels other than a and b.
	ErrUnknownSide = errors.New("unknown fight side")
)
