package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wallrender/internal/runtimepath"
)

// StatusProvider supplies the renderer state reported over IPC.
type StatusProvider interface {
	Status() StatusData
	Outputs() OutputsData
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	provider   StatusProvider
	stop       func()

	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server. An empty socketPath selects the
// default runtime socket. stop is called when a client sends STOP.
func NewServer(socketPath string, provider StatusProvider, stop func()) (*Server, error) {
	if provider == nil {
		return nil, errors.New("ipc server requires a status provider")
	}
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	if err := clearStaleSocket(socketPath); err != nil {
		return nil, err
	}

	return &Server{
		socketPath: socketPath,
		provider:   provider,
		stop:       stop,
	}, nil
}

// clearStaleSocket removes a socket left behind by a crashed renderer, and
// refuses to touch one that still answers.
func clearStaleSocket(socketPath string) error {
	if _, err := os.Stat(socketPath); err != nil {
		return nil
	}
	if conn, err := net.DialTimeout("unix", socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another renderer is listening on %s", socketPath)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set socket permissions (user only)
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	log.Printf("IPC server listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			shutting := s.shuttingDown
			s.shutdownMu.Unlock()

			if shutting {
				return
			}
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection processes a single client connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("IPC marshal error: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("IPC write error: %v", err)
	}
}

// handleCommand processes a command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		resp, err := NewOKResponse(s.provider.Status())
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return resp

	case CommandGetOutputs:
		resp, err := NewOKResponse(s.provider.Outputs())
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return resp

	case CommandStop:
		if s.stop == nil {
			return NewErrorResponse("stop not supported")
		}
		log.Printf("Stop requested via IPC")
		s.stop()
		resp, _ := NewOKResponse(nil)
		return resp

	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop stops the IPC server and removes the socket
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return nil
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
		s.wg.Wait()
	}

	if rmErr := os.Remove(s.socketPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
