package robinhood

import (
	"fmt"
	"slices"
)

type slot struct {
	tophash byte
	key     []byte
	value   any
	psl     uint32 // Probe sequence length, distance from the home slot
}

// insert places a key-value pair using Robin Hood displacement. If the key already exists, its
// value is updated in place and true is returned. The walk is total as long as at least one
// slot is free, which the growth policy guarantees.
func insert(t *HashTable, key []byte, value any) bool {
	hsh := t.Hasher(key)
	capacity := uint32(len(t.slots))

	cand := &slot{tophash: tophash(hsh), key: key, value: value}
	idx := hsh % capacity

	// Linear circular probing
	for probes := uint32(0); probes < capacity; probes++ {
		occ := t.slots[idx]
		if occ == nil {
			t.slots[idx] = cand
			t.inserts++
			return false
		}
		// The key match must be checked before displacement, otherwise an update would
		// duplicate the key under a different PSL
		if occ.tophash == cand.tophash && slices.Equal(occ.key, cand.key) {
			occ.value = cand.value
			return true
		}
		if occ.psl < cand.psl {
			// The occupant is closer to its home than the candidate, swap them and
			// keep walking with the displaced occupant
			t.slots[idx], cand = cand, occ
		}
		cand.psl++
		idx = (idx + 1) % capacity
	}

	panic("no free slots")
}

// lookup returns the slot index the key occupies. The walk stops on an empty slot or on an
// occupant closer to its home than the lookup has walked: any entry with the sought key would
// have displaced such an occupant on insertion.
func lookup(t *HashTable, key []byte) (uint32, bool) {
	hsh := t.Hasher(key)
	capacity := uint32(len(t.slots))

	th := tophash(hsh)
	idx := hsh % capacity

	for psl := uint32(0); psl < capacity; psl++ {
		occ := t.slots[idx]
		if occ == nil || occ.psl < psl {
			return 0, false
		}
		if occ.tophash == th && slices.Equal(occ.key, key) {
			return idx, true
		}
		idx = (idx + 1) % capacity
	}

	return 0, false
}

// remove deletes a key and repairs the probe chains behind it by the backward shift: each
// following displaced entry is moved one slot back until an empty slot or an entry sitting at
// its home. No tombstones are left.
func remove(t *HashTable, key []byte) bool {
	idx, ok := lookup(t, key)
	if !ok {
		return false
	}
	capacity := uint32(len(t.slots))

	t.slots[idx] = nil
	t.inserts--

	for {
		next := (idx + 1) % capacity
		occ := t.slots[next]
		if occ == nil || occ.psl == 0 {
			break
		}
		occ.psl--
		t.slots[idx], t.slots[next] = occ, nil
		idx = next
	}

	return true
}

// grow doubles the table capacity, reinserting every entry in slot order. PSLs are not carried
// over, every entry probes from scratch against the new capacity. The new array replaces the
// old one only after all entries are migrated, so a failed growth leaves the table untouched.
func grow(t *HashTable) error {
	newCapacity := len(t.slots) * 2
	if newCapacity <= len(t.slots) {
		return fmt.Errorf("%w: capacity %d cannot be doubled", ErrAllocation, len(t.slots))
	}

	grown := HashTable{
		Hasher:  t.Hasher,
		maxLoad: t.maxLoad,
		slots:   make([]*slot, newCapacity),
	}
	for _, occ := range t.slots {
		if occ != nil {
			insert(&grown, occ.key, occ.value)
		}
	}
	*t = grown

	return nil
}

func tophash(h uint32) byte {
	return byte(h >> 24)
}
