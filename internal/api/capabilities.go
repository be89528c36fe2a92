package api

import (
	"net/http"

	"media-converter/internal/capability"
)

// CapabilitiesResponse lists the merged capability table of all ready
// conversion units.
type CapabilitiesResponse struct {
	Ready   bool                    `json:"ready"`
	Formats []capability.Descriptor `json:"formats"`
}

// GetCapabilities returns the formats the service can currently read
// and write. The table reflects probe results, so an absent host codec
// shows up here as To=false rather than as a runtime surprise.
func (h *Handlers) GetCapabilities(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, CapabilitiesResponse{
		Ready:   h.registry.Ready(),
		Formats: h.registry.Capabilities(),
	})
}
