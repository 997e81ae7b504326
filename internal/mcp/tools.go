package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wallrender/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Status:  *status,
		Summary: summarizeStatus(status),
	}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, args ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.client.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}

	out := ListOutputsOutput{
		Requested:      data.Requested,
		Outputs:        make([]ipc.OutputInfo, 0, len(data.Outputs)),
		Viewports:      data.Viewports,
		Unmatched:      data.Unmatched,
		DiscoveryError: data.DiscoveryError,
	}
	if out.Requested == nil {
		out.Requested = []string{}
	}
	if out.Viewports == nil {
		out.Viewports = []ipc.ViewportInfo{}
	}
	for _, o := range data.Outputs {
		if args.ConnectedOnly && !o.Connected {
			continue
		}
		out.Outputs = append(out.Outputs, o)
	}
	return nil, out, nil
}

func (s *Server) handleStopRenderer(_ context.Context, _ *mcpsdk.CallToolRequest, _ StopRendererInput) (*mcpsdk.CallToolResult, StopRendererOutput, error) {
	if err := s.client.Stop(); err != nil {
		return nil, StopRendererOutput{}, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: "Renderer stopping"},
		},
	}, StopRendererOutput{Stopped: true}, nil
}

func summarizeStatus(st *ipc.StatusData) string {
	if !st.Running {
		return "renderer is not running"
	}
	fps := "unpaced"
	if st.MaxFPS > 0 {
		fps = fmt.Sprintf("%d fps", st.MaxFPS)
	}
	return fmt.Sprintf("%s mode on %s target, scene %s, %s, %d viewport(s), %d frames drawn",
		st.Mode, st.Target, st.Scene, fps, st.Viewports, st.FramesDrawn)
}
