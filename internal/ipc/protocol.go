package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandGetOutputs CommandType = "GET_OUTPUTS"
	CommandStop       CommandType = "STOP"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Running           bool    `json:"running"`
	PID               int     `json:"pid"`
	Mode              string  `json:"mode"`
	Target            string  `json:"target"`
	Scene             string  `json:"scene"`
	MaxFPS            int     `json:"max_fps"`
	FramePeriodMillis int64   `json:"frame_period_ms"`
	Viewports         int     `json:"viewports"`
	FramesDrawn       uint64  `json:"frames_drawn"`
	SkippedIterations uint64  `json:"skipped_iterations"`
	Overruns          uint64  `json:"overruns"`
	DrawErrors        uint64  `json:"draw_errors"`
	LastFrameMillis   float64 `json:"last_frame_ms"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
}

// OutputInfo describes one RandR output seen at startup. Geometry fields are
// zero when HasGeometry is false.
type OutputInfo struct {
	Name        string `json:"name"`
	Connected   bool   `json:"connected"`
	HasGeometry bool   `json:"has_geometry"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// ViewportInfo is one resolved drawing region in screen coordinates.
type ViewportInfo struct {
	Output string `json:"output"`
	X0     int    `json:"x0"`
	Y0     int    `json:"y0"`
	X1     int    `json:"x1"`
	Y1     int    `json:"y1"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Requested      []string       `json:"requested"`
	Outputs        []OutputInfo   `json:"outputs"`
	Viewports      []ViewportInfo `json:"viewports"`
	Unmatched      []string       `json:"unmatched,omitempty"`
	DiscoveryError string         `json:"discovery_error,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
