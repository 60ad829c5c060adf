package robinhood

import (
	"errors"
	"fmt"
	"hash/maphash"
)

const (
	prime32 = 0xfffffffb // Just the last 32-bit prime number

	defaultMaxLoadFactor = 0.85
)

var (
	// ErrInvalidConfig is returned by New when a constructor parameter is out of its range.
	ErrInvalidConfig = errors.New("invalid table configuration")

	// ErrAllocation is returned when the table cannot obtain a larger backing array during
	// growth. In this case the table stays fully usable at its old capacity.
	ErrAllocation = errors.New("cannot allocate backing array")
)

// NewDefault creates a new hash table with the default maximum load factor.
func NewDefault(initialCapacity int) (*HashTable, error) {
	return New(defaultMaxLoadFactor, initialCapacity)
}

// New creates a new hash table.
//
// MaxLoadFactor is the fraction of occupied slots that triggers the table growth.
// Must be in range (0, 1).
//
// InitialCapacity is the number of slots the table starts with. Must be positive.
func New(maxLoadFactor float64, initialCapacity int) (*HashTable, error) {
	if maxLoadFactor <= 0 || maxLoadFactor >= 1 {
		return nil, fmt.Errorf("%w: maxLoadFactor must be in range (0, 1)", ErrInvalidConfig)
	}
	if initialCapacity < 1 {
		return nil, fmt.Errorf("%w: initialCapacity must be positive", ErrInvalidConfig)
	}
	return &HashTable{
		Hasher:  defaultHasher(maphash.MakeSeed()),
		maxLoad: maxLoadFactor,
		slots:   make([]*slot, initialCapacity),
	}, nil
}

// HashTable is an implementation of hash table with Robin Hood hashing. The table is a single
// flat slot array probed linearly and circularly, growing once the load factor reaches the
// maximum set on creation.
//
// Every slot keeps its probe sequence length (PSL), that is the distance from the slot the key
// hashes to. On insertion, whenever the incoming key has probed further than the slot's current
// occupant, the two are swapped and the displaced occupant continues probing. This keeps the
// probe distances even across keys and lets lookups of missing keys stop as soon as they meet
// an occupant closer to its home than the lookup has walked.
//
// Removal shifts the entries following the removed one back by one slot instead of leaving
// tombstones, so probe chains stay contiguous and lookup cost is bounded by the longest PSL.
//
// For more information see the [Paper].
//
// [Paper]: https://cs.uwaterloo.ca/research/tr/1986/CS-86-14.pdf
type HashTable struct {
	Hasher func(b []byte) uint32

	maxLoad float64 // Occupied slots fraction that triggers the growth
	inserts int     // Number of occupied slots

	slots []*slot
}

// Set sets a value for a key. If the key already exists, it updates the value in place and
// reports true. Otherwise, it inserts a new key-value pair. Reaching the maximum load factor
// grows the table; a growth failure is returned as ErrAllocation with the table left valid at
// its old capacity.
func (t *HashTable) Set(key []byte, value any) (bool, error) {
	replaced := insert(t, key, value)
	if float64(t.inserts) >= t.maxLoad*float64(len(t.slots)) {
		if err := grow(t); err != nil {
			return replaced, err
		}
	}
	return replaced, nil
}

// Get returns a value for a key. If the key does not exist, it returns nil and false.
func (t *HashTable) Get(key []byte) (any, bool) {
	if idx, ok := lookup(t, key); ok {
		return t.slots[idx].value, true
	}
	return nil, false
}

// Contains reports whether the key exists in the hash table.
func (t *HashTable) Contains(key []byte) bool {
	_, ok := lookup(t, key)
	return ok
}

// Delete removes a key from the hash table, reporting whether the key was present. Entries
// displaced past the removed one are shifted back to keep their probe chains contiguous.
func (t *HashTable) Delete(key []byte) bool {
	return remove(t, key)
}

// Len returns the number of elements in the hash table.
func (t *HashTable) Len() int {
	return t.inserts
}

// Cap returns the current capacity of the hash table.
func (t *HashTable) Cap() int {
	return len(t.slots)
}

func defaultHasher(seed maphash.Seed) func(b []byte) uint32 {
	return func(b []byte) uint32 {
		h := maphash.Bytes(seed, b)
		// fold 64-bit hash to 32-bit
		return uint32(h % prime32)
	}
}
