package acl

import (
	"fmt"
	"strconv"
	"strings"
)

// bitNames lists every defined bit in display order.
var bitNames = []struct {
	bit  Permission
	name string
	code string
}{
	{Read, "Read", "r"},
	{Write, "Write", "w"},
	{Execute, "Execute", "x"},
	{Delete, "Delete", "d"},
	{Permissions, "Permissions", "p"},
}

// Names returns the names of the bits set in p, always in the order
// Read, Write, Execute, Delete, Permissions. Undefined bits are skipped.
func Names(p Permission) []string {
	names := make([]string, 0, len(bitNames))
	for _, b := range bitNames {
		if p&b.bit != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

// FromNames converts a list of bit names ("Read") or single-letter codes
// ("r") to a mask. Matching is case-insensitive and surrounding whitespace
// is ignored. Unknown tokens are skipped so that legacy stored values keep
// decoding.
func FromNames(tokens []string) Permission {
	var p Permission
	for _, tok := range tokens {
		if bit, ok := lookupBit(tok); ok {
			p |= bit
		}
	}
	return p
}

func lookupBit(token string) (Permission, bool) {
	token = strings.TrimSpace(token)
	for _, b := range bitNames {
		if strings.EqualFold(token, b.name) || strings.EqualFold(token, b.code) {
			return b.bit, true
		}
	}
	return 0, false
}

// ParsePermission parses user input into a mask. Accepted forms:
//
//	"Full Control", "full-control", "editor"  preset names
//	"viewer", "member", "owner"               role names, see PresetForRole
//	"Read,Write" or "read|write"              bit names
//	"rwx"                                     letter codes
//	"7", "0x1f"                               numeric masks
//
// Unlike FromNames it is strict: unknown tokens and undefined bits are
// validation errors.
func ParsePermission(s string) (Permission, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty permission string", ErrInvalidPermission)
	}

	if p, ok := presetByName(s); ok {
		return p, nil
	}
	if p := PresetForRole(s); p != 0 {
		return p, nil
	}

	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		p := Permission(n)
		if err := Validate(p); err != nil {
			return 0, err
		}
		return p, nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '+'
	})

	// A single run of letter codes like "rwx".
	if len(fields) == 1 {
		if _, ok := lookupBit(fields[0]); !ok {
			var p Permission
			for _, c := range fields[0] {
				bit, ok := lookupBit(string(c))
				if !ok {
					return 0, fmt.Errorf("%w: unknown permission %q", ErrInvalidPermission, s)
				}
				p |= bit
			}
			return p, nil
		}
	}

	var p Permission
	for _, f := range fields {
		bit, ok := lookupBit(f)
		if !ok {
			return 0, fmt.Errorf("%w: unknown permission %q", ErrInvalidPermission, f)
		}
		p |= bit
	}
	return p, nil
}
