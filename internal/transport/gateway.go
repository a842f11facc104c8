package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Frame is one JSON message exchanged with a gateway client.
//
//	{"op":"pub","topic":"/model/boat/cmd_vel","twist":{"linear":{"x":1}}}
//	{"op":"sub","topic":"/model/boat/cmd_vel"}
//	{"op":"control","control":"seek","seek":2.5}
//
// Frames sent to clients use op "msg".
type Frame struct {
	Op      string   `json:"op"`
	Topic   string   `json:"topic,omitempty"`
	Twist   *Twist   `json:"twist,omitempty"`
	Control string   `json:"control,omitempty"`
	Seek    *float64 `json:"seek,omitempty"` // seconds of sim time
	Error   string   `json:"error,omitempty"`
}

// ControlFunc receives clock control requests from clients.
type ControlFunc func(op string, seek time.Duration) error

// Gateway bridges WebSocket clients onto a Node: clients publish twists
// into the simulation and may subscribe to command topics.
type Gateway struct {
	node     *Node
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener
	nextID   atomic.Uint64
	control  ControlFunc
	log      *zap.Logger
}

func NewGateway(node *Node, log *zap.Logger) *Gateway {
	return &Gateway{
		node: node,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// OnControl enables "control" frames. Must be called before Listen.
func (g *Gateway) OnControl(fn ControlFunc) { g.control = fn }

// Listen binds addr and serves WebSocket upgrades on /ws in the background.
func (g *Gateway) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", g)
	g.listener = ln
	g.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("gateway stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (g *Gateway) Addr() net.Addr {
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// Shutdown stops accepting clients and closes the listener.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

type client struct {
	id   uint64
	conn *websocket.Conn
	mu   sync.Mutex
	subs []*Subscription
}

func (c *client) write(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(f)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{id: g.nextID.Add(1), conn: conn}
	log := g.log.With(zap.Uint64("client", c.id), zap.String("remote", r.RemoteAddr))
	log.Info("gateway client connected")
	defer func() {
		for _, s := range c.subs {
			s.Unsubscribe()
		}
		conn.Close()
		log.Info("gateway client disconnected")
	}()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			switch {
			case errors.As(err, &syntaxErr):
				_ = c.write(Frame{Op: "error", Error: "malformed frame"})
				continue
			case errors.As(err, &typeErr):
				_ = c.write(Frame{Op: "error", Error: fmt.Sprintf("field %q: cannot use %s", typeErr.Field, typeErr.Value)})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("gateway read failed", zap.Error(err))
			}
			return
		}
		if err := g.handle(c, f); err != nil {
			_ = c.write(Frame{Op: "error", Topic: f.Topic, Error: err.Error()})
		}
	}
}

func (g *Gateway) handle(c *client, f Frame) error {
	switch f.Op {
	case "pub":
		if f.Twist == nil {
			return errors.New("pub frame without twist")
		}
		_, err := g.node.Publish(f.Topic, *f.Twist)
		return err
	case "sub":
		s, err := Subscribe(g.node, f.Topic, func(t Twist, info MessageInfo) {
			if err := c.write(Frame{Op: "msg", Topic: info.Topic, Twist: &t}); err != nil {
				g.log.Debug("gateway write failed", zap.Uint64("client", c.id), zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		c.subs = append(c.subs, s)
		return nil
	case "control":
		if g.control == nil {
			return errors.New("control is not enabled")
		}
		var seek time.Duration
		if f.Seek != nil {
			d, err := SeekDuration(*f.Seek)
			if err != nil {
				return err
			}
			seek = d
		}
		return g.control(f.Control, seek)
	default:
		return fmt.Errorf("unknown op %q", f.Op)
	}
}

// maxSeekSeconds is the largest sim time a time.Duration can hold.
const maxSeekSeconds = float64(math.MaxInt64 / int64(time.Second))

// SeekDuration converts a seek target in seconds into a duration.
func SeekDuration(sec float64) (time.Duration, error) {
	if math.IsNaN(sec) || math.Abs(sec) > maxSeekSeconds {
		return 0, fmt.Errorf("seek %g s is out of range", sec)
	}
	return time.Duration(sec * float64(time.Second)), nil
}
