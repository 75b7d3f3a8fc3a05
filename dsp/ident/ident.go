// Package ident provides Identifier, the hashed name used as the key for
// every parameter, event and endpoint in a sound graph.
//
// An ID is the 64-bit FNV-1a hash of its source string. Two IDs compare
// equal iff their source strings are equal (hash collisions aside). The
// source string is interned on creation so it can be recovered for logs
// and serialization; the hot path never touches the table.
package ident

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ID is a hashed identifier.
type ID uint64

// Invalid is the zero ID. New never returns it for a non-empty name.
const Invalid ID = 0

var names sync.Map // ID -> string

// New hashes name into an ID and interns the name for String.
func New(name string) ID {
	id := Hash(name)
	if _, ok := names.Load(id); !ok {
		names.Store(id, name)
	}

	return id
}

// Hash returns the FNV-1a hash of name without interning it.
func Hash(name string) ID {
	if name == "" {
		return Invalid
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(name))

	return ID(h.Sum64())
}

// Name returns the interned source string of id.
func (id ID) Name() (string, bool) {
	v, ok := names.Load(id)
	if !ok {
		return "", false
	}

	return v.(string), true
}

// String returns the source string, or the hex hash for IDs that were
// never created through New.
func (id ID) String() string {
	if name, ok := id.Name(); ok {
		return name
	}

	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// Canonical strips the m_In/m_Out/m_ member prefixes from a field name.
// Names without the m_ marker are kept as written, so ports such as
// "InRangeMin" and "OutRangeMin" stay distinct.
func Canonical(member string) string {
	name, ok := strings.CutPrefix(member, "m_")
	if !ok {
		return member
	}

	for _, prefix := range []string{"In", "Out"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}

		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsUpper(r) || rest[0] == '_' {
			return strings.TrimPrefix(rest, "_")
		}
	}

	return name
}
