package testserver

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"github.com/ValentinKolb/keyz/rpc/transport/base"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

var Logger = logger.GetLogger(common.LoggerServer)

const (
	// RespClosed acknowledges a CLOSE command
	RespClosed = "closed"

	sweepInterval = time.Second
)

// Handler answers a single request. If closeConn is true the connection is
// closed after the response was written.
type Handler func(request string) (response string, closeConn bool)

// Server is a keyz server for tests and local development.
// It speaks the framed protocol and keeps all data in memory.
type Server struct {
	handler Handler
	store   *memoryStore

	listener net.Listener
	connsMu  sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a server backed by an in-memory store
func New() *Server {
	s := &Server{
		store:  newMemoryStore(),
		conns:  make(map[net.Conn]struct{}),
		stopCh: make(chan struct{}),
	}
	s.handler = s.Handle
	return s
}

// NewWithHandler creates a server that answers every request with handler
func NewWithHandler(handler Handler) *Server {
	return &Server{
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		stopCh:  make(chan struct{}),
	}
}

// Listen starts accepting connections on endpoint (e.g. 127.0.0.1:0) in the background
func (s *Server) Listen(endpoint string) error {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return fmt.Errorf("failed to create TCP socket: %v", err)
	}
	s.listener = listener

	Logger.Infof("Starting test server on %s", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()

	if s.store != nil {
		s.wg.Add(1)
		go s.sweepLoop()
	}
	return nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the port the server listens on
func (s *Server) Port() uint16 {
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

// Close stops the server and closes all client connections
func (s *Server) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			err = s.listener.Close()
		}

		s.connsMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connsMu.Unlock()

		s.wg.Wait()
	})
	return err
}

// Handle executes a single command against the in-memory store
func (s *Server) Handle(request string) (string, bool) {
	cmd, err := common.ParseCommand(request)
	if err != nil {
		return "error: " + err.Error(), false
	}

	switch cmd.Name {
	case common.CmdSet:
		s.store.Set(cmd.Key, cmd.Value, cmd.ExpireIn)
		return common.RespOk, false
	case common.CmdGet:
		if v, ok := s.store.Get(cmd.Key); ok {
			return v, false
		}
		return common.RespNull, false
	case common.CmdDelete:
		if s.store.Delete(cmd.Key) {
			return cmd.Key, false
		}
		return common.RespNull, false
	case common.CmdExIn:
		if seconds, ok := s.store.ExpiresIn(cmd.Key); ok {
			return strconv.FormatUint(seconds, 10), false
		}
		// the key itself signals that there is no expiration
		return cmd.Key, false
	default: // common.CmdClose
		return RespClosed, true
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		s.connsMu.Lock()
		select {
		case <-s.stopCh:
			s.connsMu.Unlock()
			conn.Close()
			return
		default:
		}
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection answers requests of one connection, one at a time
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
		conn.Close()
	}()

	for {
		req, err := base.ReadFrame(conn, 0)

		// Case EOF: Connection closed by client
		if errors.Is(err, io.EOF) {
			Logger.Infof("Connection closed by client")
			return
		}

		// Case error: log and close connection
		if err != nil {
			Logger.Errorf("Error reading request: %v", err)
			return
		}

		resp, closeConn := s.handler(string(req))
		if err := base.WriteFrame(conn, []byte(resp)); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
			return
		}

		if closeConn {
			return
		}
	}
}

// sweepLoop removes expired keys periodically
func (s *Server) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.store.sweep(); n > 0 {
				Logger.Debugf("Swept %d expired keys", n)
			}
		}
	}
}
