package mcp

import "github.com/1broseidon/wallrender/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Status ipc.StatusData `json:"status"`
	// Summary is a one-line human readable description of the renderer.
	Summary string `json:"summary"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct {
	ConnectedOnly bool `json:"connected_only,omitempty" jsonschema:"When true, omit outputs that are not connected"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Requested      []string           `json:"requested"`
	Outputs        []ipc.OutputInfo   `json:"outputs"`
	Viewports      []ipc.ViewportInfo `json:"viewports"`
	Unmatched      []string           `json:"unmatched,omitempty"`
	DiscoveryError string             `json:"discovery_error,omitempty"`
}

// StopRendererInput is the input for the stop_renderer tool.
type StopRendererInput struct{}

// StopRendererOutput is the output for the stop_renderer tool.
type StopRendererOutput struct {
	Stopped bool `json:"stopped"`
}
