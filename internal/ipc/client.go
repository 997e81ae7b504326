package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wallrender/internal/runtimepath"
)

// Client handles IPC communication with a running renderer
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithPath(socketPath)
}

// NewClientWithPath creates a client for the socket at socketPath.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to renderer: %w (is wallrender running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("renderer error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves renderer status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetOutputs retrieves the outputs and viewports resolved at startup
func (c *Client) GetOutputs() (*OutputsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetOutputs})
	if err != nil {
		return nil, err
	}

	var outputs OutputsData
	if err := json.Unmarshal(resp.Data, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse outputs data: %w", err)
	}
	return &outputs, nil
}

// Stop asks the renderer to terminate after the current frame
func (c *Client) Stop() error {
	_, err := c.sendRequest(&Request{Command: CommandStop})
	return err
}

// Ping checks if the renderer is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
