package velocypack

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
)

// sortEntry pairs an attribute name with the relative offset of its key,
// so that sorting a large object parses every key only once.
type sortEntry struct {
	name   []byte
	offset int
}

// findAttrName returns the name bytes of the key starting at base.
func findAttrName(base []byte) ([]byte, error) {
	c := base[0]
	if c >= tagStringShortBase && c <= tagStringShortBase+127 {
		l := int(c - tagStringShortBase)
		return base[1 : 1+l], nil
	}
	if c == tagStringLong {
		l := int(readUintLE(base[1:], 8))
		return base[9 : 9+l], nil
	}
	return nil, errors.Wrap(ErrInvalidSlice, "unimplemented attribute name type")
}

// sortObjectIndexShort sorts the offsets of a small object by the key
// bytes they point at. Ties on a common prefix go to the shorter name.
func (b *Builder) sortObjectIndexShort(objBase []byte, offsets []int) error {
	// validate up front, the comparator cannot fail
	for _, off := range offsets {
		if _, err := findAttrName(objBase[off:]); err != nil {
			return err
		}
	}

	slices.SortFunc(offsets, func(x, y int) int {
		aa := objBase[x:]
		bb := objBase[y:]
		if aa[0] >= tagStringShortBase && aa[0] <= tagStringShortBase+127 &&
			bb[0] >= tagStringShortBase && bb[0] <= tagStringShortBase+127 {
			// the fast path, both names inline
			return bytes.Compare(aa[1:1+int(aa[0]-tagStringShortBase)], bb[1:1+int(bb[0]-tagStringShortBase)])
		}
		ka, _ := findAttrName(aa)
		kb, _ := findAttrName(bb)
		return bytes.Compare(ka, kb)
	})
	return nil
}

// sortObjectIndexLong sorts a large object's offsets via (name, offset)
// entries so each key is parsed once. The scratch vector is reused across
// Close calls.
func (b *Builder) sortObjectIndexLong(objBase []byte, offsets []int) error {
	entries := b.sortScratch[:0]
	for _, off := range offsets {
		name, err := findAttrName(objBase[off:])
		if err != nil {
			return err
		}
		entries = append(entries, sortEntry{name: name, offset: off})
	}

	slices.SortFunc(entries, func(x, y sortEntry) int {
		return bytes.Compare(x.name, y.name)
	})

	for i := range entries {
		offsets[i] = entries[i].offset
	}
	b.sortScratch = entries
	return nil
}
