package correlation

import (
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// ID is a 128-bit correlation identifier.
type ID [16]byte

// Nil is the zero ID. Generators never return it.
var Nil ID

// String returns the 32-character lowercase hex form.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Namespace returns the high 64 bits.
func (id ID) Namespace() uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// Sequence returns the low 64 bits.
func (id ID) Sequence() uint64 {
	return binary.BigEndian.Uint64(id[8:])
}

// Less reports whether id sorts before other (big-endian byte order).
func (id ID) Less(other ID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler so IDs log and encode as hex.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Generator produces correlation IDs. Implementations are safe for
// concurrent use.
type Generator interface {
	Next() ID
}

// Random generates independently random IDs.
type Random struct{}

// NewRandom returns a random ID generator.
func NewRandom() Random {
	return Random{}
}

// Next returns a fresh UUID v4 as an ID.
func (Random) Next() ID {
	return ID(uuid.New())
}

// Serial generates IDs made of a fixed namespace and an incrementing counter.
type Serial struct {
	mu        sync.Mutex
	namespace uint64
	counter   uint64
	last      ID
}

// NewSerial returns a serial generator for the given namespace.
// The first ID issued has sequence 1.
func NewSerial(namespace uint64) *Serial {
	return &Serial{namespace: namespace}
}

// NamespaceFor derives a stable 64-bit namespace from a request family name
// such as "watchdog-reset" or "temperature-poll".
func NamespaceFor(family string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(family)) //nolint:errcheck // hash writes never fail
	return h.Sum64()
}

// Next returns the next ID in the namespace.
func (s *Serial) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	var id ID
	binary.BigEndian.PutUint64(id[:8], s.namespace)
	binary.BigEndian.PutUint64(id[8:], s.counter)
	s.last = id
	return id
}

// Last returns the most recently issued ID, or Nil if none has been issued.
func (s *Serial) Last() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Namespace returns the generator's fixed namespace.
func (s *Serial) Namespace() uint64 {
	return s.namespace
}
