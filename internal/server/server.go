package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/npezzotti/roomchat/internal/config"
	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/stats"
)

type ChatServer struct {
	log         *log.Logger
	db          database.ChatRepository
	cfg         *config.Config
	stats       stats.StatsProvider
	registry    *Registry
	rooms       *RoomDirectory
	broadcaster *Broadcaster
	nameGen     func() (string, error)

	clients     map[*Client]struct{}
	listeners   map[net.Listener]struct{}
	clientsLock sync.Mutex
	inShutdown  bool
	wg          sync.WaitGroup
}

// NewChatServer builds a server around db and makes sure the default room
// exists before any connection is accepted.
func NewChatServer(logger *log.Logger, db database.ChatRepository, su stats.StatsProvider, cfg *config.Config, opts ...RegistryOption) (*ChatServer, error) {
	for _, name := range []string{
		stats.NumConnections,
		stats.NumActiveClients,
		stats.NumMessages,
		stats.NumRoomsCreated,
		stats.DroppedMessages,
	} {
		su.RegisterMetric(name)
	}

	registry := NewRegistry(opts...)
	cs := &ChatServer{
		log:         logger,
		db:          db,
		cfg:         cfg,
		stats:       su,
		registry:    registry,
		rooms:       NewRoomDirectory(db, cfg.DefaultRoom, logger),
		broadcaster: NewBroadcaster(registry, su, logger),
		nameGen:     generateAnonymousName,
		clients:     make(map[*Client]struct{}),
		listeners:   make(map[net.Listener]struct{}),
	}

	if _, err := cs.rooms.EnsureDefaultRoom(); err != nil {
		return nil, err
	}

	return cs, nil
}

// ListenAndServe listens on the TCP address addr and serves chat sessions
// until Shutdown is called.
func (cs *ChatServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	cs.log.Printf("chat server listening on %s", ln.Addr())

	return cs.Serve(ln)
}

// Serve accepts connections on ln, one worker per connection. It always
// returns a non-nil error; after Shutdown that error is ErrServerClosed.
func (cs *ChatServer) Serve(ln net.Listener) error {
	if !cs.trackListener(ln, true) {
		ln.Close()
		return ErrServerClosed
	}
	defer cs.trackListener(ln, false)

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if cs.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			cs.log.Printf("accept error: %v; retrying in %v", err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		cs.HandleConn(NewTCPConn(conn, cs.cfg.MaxLineLength))
	}
}

// HandleConn starts a worker for conn. Any transport that can present
// itself as a Conn is served the same way as TCP.
func (cs *ChatServer) HandleConn(conn Conn) {
	c := NewClient(conn, cs, cs.log, cs.cfg.SendQueueSize)
	if !cs.addClient(c) {
		conn.Close()
		return
	}

	cs.stats.Incr(stats.NumConnections)
	cs.log.Printf("accepted connection from %s", conn.RemoteAddr())

	go func() {
		defer cs.wg.Done()
		defer cs.removeClient(c)
		c.serve()
	}()
}

// Shutdown stops accepting connections, ends every session and waits for
// the workers to exit or for ctx to be done.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.clientsLock.Lock()
	cs.inShutdown = true
	for ln := range cs.listeners {
		ln.Close()
	}
	clients := make([]*Client, 0, len(cs.clients))
	for c := range cs.clients {
		clients = append(clients, c)
	}
	cs.clientsLock.Unlock()

	for _, c := range clients {
		c.stopClient()
	}

	done := make(chan struct{})
	go func() {
		cs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cs.log.Println("chat server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) addClient(c *Client) bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if cs.inShutdown {
		return false
	}
	cs.clients[c] = struct{}{}
	cs.wg.Add(1)

	return true
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	delete(cs.clients, c)
	cs.clientsLock.Unlock()

	cs.stats.Decr(stats.NumConnections)
}

func (cs *ChatServer) trackListener(ln net.Listener, add bool) bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if add {
		if cs.inShutdown {
			return false
		}
		cs.listeners[ln] = struct{}{}
	} else {
		delete(cs.listeners, ln)
	}

	return true
}

func (cs *ChatServer) shuttingDown() bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	return cs.inShutdown
}
