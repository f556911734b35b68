package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map
// provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider has no byte form, use Read")

// mapProvider adapts a plain map to the koanf provider interface. koanf
// calls Read for providers without a byte serialization.
//
// Keys may be dotted paths ("server.addr"); Read unflattens them into the
// nested shape koanf merges and unmarshals, so a map value lands on the
// same key a file or env value would.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
