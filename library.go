// Package libintl implements gettext-style message translation in pure
// Go: load one or more compiled MO catalogues, merge them into a single
// lookup pool, and resolve plain, plural and context-qualified message
// queries against the pool.
package libintl

import (
	"bytes"
	"sort"

	"github.com/olanti-p/go-libintl/mo"
)

const ctxSeparator = "\x04"

// descriptor locates one msgid within the merged index: which
// catalogue holds it and at what entry index.
type descriptor struct {
	key       []byte
	catalogue uint32
	entry     uint32
}

// Library is a merged, queryable view over an ordered list of owned
// catalogues. Construction is not safe for concurrent use, but a built
// Library supports unlimited concurrent reads: Get/GetPlural/GetContext
// /GetContextPlural take no locks and mutate no state.
type Library struct {
	catalogues []*mo.Catalogue
	index      []descriptor
}

// NewLibrary merges catalogues into a single sorted lookup index keyed
// by original (msgid) string. The metadata entry of each catalogue
// (index 0) is excluded. When two catalogues define the same msgid, the
// one earlier in catalogues wins at query time.
func NewLibrary(catalogues []*mo.Catalogue) *Library {
	l := &Library{catalogues: catalogues}

	for ci, cat := range catalogues {
		n := cat.NumStrings()
		for ei := uint32(1); ei < n; ei++ {
			l.index = append(l.index, descriptor{
				key:       cat.NthOrigString(ei),
				catalogue: uint32(ci),
				entry:     ei,
			})
		}
	}

	sort.Slice(l.index, func(i, j int) bool {
		a, b := l.index[i], l.index[j]
		if c := bytes.Compare(a.key, b.key); c != 0 {
			return c < 0
		}
		if a.catalogue != b.catalogue {
			return a.catalogue < b.catalogue
		}
		return a.entry < b.entry
	})

	return l
}

// lookup finds the winning descriptor for key. Because duplicate keys
// are ordered (catalogue ascending, entry ascending) by NewLibrary, the
// leftmost match sort.Search finds is always the first-wins entry.
func (l *Library) lookup(key []byte) (descriptor, bool) {
	i := sort.Search(len(l.index), func(i int) bool {
		return bytes.Compare(l.index[i].key, key) >= 0
	})
	if i < len(l.index) && bytes.Equal(l.index[i].key, key) {
		return l.index[i], true
	}
	return descriptor{}, false
}

// Get translates msgid, returning msgid unchanged on a miss.
func (l *Library) Get(msgid string) string {
	d, ok := l.lookup([]byte(msgid))
	if !ok {
		return msgid
	}
	return string(l.catalogues[d.catalogue].NthTranslation(d.entry))
}

// GetPlural translates msgid/msgidPlural, selecting a plural form of
// the winning catalogue's translation according to n. On a miss it
// returns msgid when n == 1, otherwise msgidPlural.
func (l *Library) GetPlural(msgid, msgidPlural string, n uint64) string {
	d, ok := l.lookup([]byte(msgid))
	if !ok {
		if n == 1 {
			return msgid
		}
		return msgidPlural
	}
	return string(l.catalogues[d.catalogue].NthPluralTranslation(d.entry, n))
}

// GetContext translates msgid disambiguated by ctx. On a miss it
// returns msgid, not the context-qualified key.
func (l *Library) GetContext(ctx, msgid string) string {
	d, ok := l.lookup(contextKey(ctx, msgid))
	if !ok {
		return msgid
	}
	return string(l.catalogues[d.catalogue].NthTranslation(d.entry))
}

// GetContextPlural combines context qualification with plural
// resolution.
func (l *Library) GetContextPlural(ctx, msgid, msgidPlural string, n uint64) string {
	d, ok := l.lookup(contextKey(ctx, msgid))
	if !ok {
		if n == 1 {
			return msgid
		}
		return msgidPlural
	}
	return string(l.catalogues[d.catalogue].NthPluralTranslation(d.entry, n))
}

func contextKey(ctx, msgid string) []byte {
	return []byte(ctx + ctxSeparator + msgid)
}
