package handlers

import (
	"net/http"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// PresetResponse describes one named permission bundle.
type PresetResponse struct {
	Name        string   `json:"name"`
	Permissions uint8    `json:"permissions"`
	Names       []string `json:"names"`
}

// ListPresets handles GET /api/v1/presets.
func ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := acl.Presets()
	resp := make([]PresetResponse, len(presets))
	for i, p := range presets {
		resp[i] = PresetResponse{
			Name:        p.Name,
			Permissions: uint8(p.Permissions),
			Names:       acl.Names(p.Permissions),
		}
	}
	WriteJSONOK(w, resp)
}
