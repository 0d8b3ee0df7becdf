package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var errInvalidCommand = errors.New("invalid stream command")

// streamClient is one websocket connection animating one session.
type streamClient struct {
	io   sync.Mutex
	conn net.Conn

	id        uint
	sessionID uint
	hub       *Hub

	done      chan struct{}
	closeOnce sync.Once
}

// lockedWriter lets control frame replies share the data frame mutex.
type lockedWriter struct {
	c *streamClient
}

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.c.io.Lock()
	defer lw.c.io.Unlock()
	return lw.c.conn.Write(p)
}

// readCommand blocks until the next data frame. Control frames are answered and
// reported as a nil command.
func (c *streamClient) readCommand(rv *requestValidator) (*streamCommand, error) {
	h, r, err := wsutil.NextReader(c.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(lockedWriter{c}, ws.StateServerSide)(h, r)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cmd := &streamCommand{}
	if err := json.Unmarshal(payload, cmd); err != nil {
		return nil, errInvalidCommand
	}
	if err := rv.Struct(cmd); err != nil {
		return nil, errInvalidCommand
	}
	return cmd, nil
}

// readCommands feeds commands until the connection fails or the client is closed.
func (c *streamClient) readCommands(rv *requestValidator, commands chan<- streamCommand) {
	defer close(commands)
	for {
		cmd, err := c.readCommand(rv)
		if errors.Is(err, errInvalidCommand) {
			if werr := c.writeError(http.StatusBadRequest, `action must be one of "pause", "resume", "restart"`); werr != nil {
				return
			}
			continue
		}
		if err != nil {
			return
		}
		if cmd == nil {
			continue
		}
		select {
		case commands <- *cmd:
		case <-c.done:
			return
		}
	}
}

func (c *streamClient) write(x interface{}) error {
	w := wsutil.NewWriter(c.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	c.io.Lock()
	defer c.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}
	return w.Flush()
}

func (c *streamClient) writeError(status int, message string) error {
	return c.write(envelope{"error": map[string]string{
		"code":    http.StatusText(status),
		"message": message,
	}})
}

func (c *streamClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.io.Lock()
		_ = ws.WriteFrame(c.conn, ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "")))
		c.io.Unlock()
		_ = c.conn.Close()
	})
}

// Hub tracks open stream connections so they can be closed with their session or on shutdown.
type Hub struct {
	mu      sync.RWMutex
	seq     uint
	clients map[uint]*streamClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]*streamClient),
	}
}

func (h *Hub) Register(conn net.Conn, sessionID uint) *streamClient {
	client := &streamClient{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	client.id = h.seq
	h.clients[client.id] = client
	h.seq++
	h.mu.Unlock()

	return client
}

func (h *Hub) Remove(client *streamClient) {
	h.mu.Lock()
	delete(h.clients, client.id)
	h.mu.Unlock()
	client.close()
}

// CloseSession closes every stream watching sessionID.
func (h *Hub) CloseSession(sessionID uint) {
	h.mu.RLock()
	var watching []*streamClient
	for _, c := range h.clients {
		if c.sessionID == sessionID {
			watching = append(watching, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range watching {
		h.Remove(c)
	}
}

func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*streamClient, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Remove(c)
	}
}

func (h *Hub) NumberOfClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
