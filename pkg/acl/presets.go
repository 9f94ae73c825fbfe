package acl

import "strings"

// Preset is a named permission bundle.
type Preset struct {
	Name        string     `json:"name"`
	Permissions Permission `json:"permissions"`
}

// presets in display order, least to most privileged.
var presets = []Preset{
	{Name: "Read Only", Permissions: ReadOnly},
	{Name: "Editor", Permissions: Editor},
	{Name: "Contributor", Permissions: Contributor},
	{Name: "Full Control", Permissions: FullControl},
}

// Presets returns a copy of the known presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetName returns the name of the preset whose mask is exactly p.
// Valid combinations that are not presets (Read|Delete) return false.
func PresetName(p Permission) (string, bool) {
	for _, preset := range presets {
		if preset.Permissions == p {
			return preset.Name, true
		}
	}
	return "", false
}

// presetByName matches "Full Control", "full_control", "FULL-CONTROL" and
// "fullcontrol" alike.
func presetByName(name string) (Permission, bool) {
	key := normalizePresetKey(name)
	for _, preset := range presets {
		if normalizePresetKey(preset.Name) == key {
			return preset.Permissions, true
		}
	}
	return 0, false
}

func normalizePresetKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// PresetForRole maps a workspace role name onto its preset so a role
// assignment can be granted as an ACL entry. Unknown roles map to no
// permissions.
func PresetForRole(role string) Permission {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "viewer", "guest", "reader":
		return ReadOnly
	case "editor":
		return Editor
	case "member", "contributor", "developer":
		return Contributor
	case "admin", "owner", "manager":
		return FullControl
	default:
		return 0
	}
}
