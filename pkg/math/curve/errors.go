package curve

import "fmt"

// decodeError is returned when a byte string does not represent a valid
// scalar or group element. Callers in pkg/pedpop wrap this into the
// exported CodecError of the error taxonomy.
type decodeError struct {
	what   string
	reason string
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("curve: invalid %s encoding: %s", e.what, e.reason)
}
