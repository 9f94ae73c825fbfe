package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	tests := []struct {
		name string
		in   Permission
		want []string
	}{
		{"full control", FullControl, []string{"Read", "Write", "Execute", "Delete", "Permissions"}},
		{"read only", ReadOnly, []string{"Read"}},
		{"none", 0, []string{}},
		{"order independent of construction", Permissions | Read, []string{"Read", "Permissions"}},
		{"undefined bits skipped", Delete | 0x80, []string{"Delete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Names(tt.in))
		})
	}
}

func TestFromNames(t *testing.T) {
	assert.Equal(t, Read|Write, FromNames([]string{"Read", "Write"}))
	assert.Equal(t, Contributor, FromNames([]string{"r", "w", "x"}))
	assert.Equal(t, Delete|Permissions, FromNames([]string{" DELETE ", "P"}))
	assert.Equal(t, Read, FromNames([]string{"read", "bogus", ""}))
	assert.Equal(t, Permission(0), FromNames(nil))
}

func TestNamesRoundTrip(t *testing.T) {
	for p := Permission(0); p <= AllPermissions; p++ {
		assert.Equal(t, p, FromNames(Names(p)), "mask %d", p)
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in   string
		want Permission
	}{
		{"Full Control", FullControl},
		{"full-control", FullControl},
		{"read only", ReadOnly},
		{"Editor", Editor},
		{"contributor", Contributor},
		{"viewer", ReadOnly},
		{"Developer", Contributor},
		{"owner", FullControl},
		{"Read,Write", Read | Write},
		{"read | delete", Read | Delete},
		{"read write", Read | Write},
		{"rwx", Contributor},
		{"p", Permissions},
		{"7", Contributor},
		{"0x1f", FullControl},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePermission(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePermissionRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "32", "0x40", "read,bogus", "rwz", "300"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePermission(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPermission)
			assert.True(t, IsValidationError(err))
		})
	}
}
