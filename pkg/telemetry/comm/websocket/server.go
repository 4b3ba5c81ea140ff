package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/beacon/pkg/framework"
)

// DefaultPath is where the server accepts websocket connections.
const DefaultPath = "/telemetry"

// clientBacklog is the number of packets queued per client. A client
// falling further behind misses packets.
const clientBacklog = 64

// Server broadcasts every written packet to all connected clients.
type Server struct {
	Addr string
	Path string

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *ReadWriter
	addr string
	ch   chan []byte
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Path: DefaultPath, clients: make(map[*client]struct{})}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// WritePacket implements PacketWriter.
func (s *Server) WritePacket(pkt []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.clients {
		select {
		case c.ch <- pkt:
		default:
			glog.V(2).Infof("%s: packet dropped", c.addr)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("telemetry websocket on %s%s", s.Addr, s.Path)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return ctx.Err()
	}
	return err
}

func (s *Server) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := &client{conn: New(conn), addr: conn.Request().RemoteAddr, ch: make(chan []byte, clientBacklog)}
	s.lock.Lock()
	s.clients[c] = struct{}{}
	s.lock.Unlock()
	glog.V(1).Infof("%s: connected", c.addr)
	defer func() {
		s.lock.Lock()
		delete(s.clients, c)
		s.lock.Unlock()
		glog.V(1).Infof("%s: disconnected", c.addr)
	}()

	closed := make(chan struct{})
	go func() {
		// Clients don't send anything, reading detects the close.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()
	for {
		select {
		case pkt := <-c.ch:
			if err := c.conn.WritePacket(pkt); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
