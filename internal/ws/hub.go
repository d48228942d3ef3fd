// Package ws streams the display to browsers and feeds touch back in.
package ws

import (
	"encoding/json"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-panelport/internal/config"
	diag "github.com/coreman2200/funtimes-panelport/internal/diagnostics"
	"github.com/coreman2200/funtimes-panelport/internal/port"
)

const (
	sendQueue    = 16
	writeTimeout = 200 * time.Millisecond
	diagBacklog  = 32
)

// Toucher accepts injected touch.
type Toucher interface {
	Touch(x, y int)
	Release()
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans flushed regions out to /ws clients, diagnostics out to /diag
// clients, and applies /control messages.
type Hub struct {
	mu          sync.RWMutex
	width       int
	height      int
	clients     map[*client]bool
	diagClients map[*client]bool
	diags       []diag.Diagnostic
	regionID    uint64
	startTime   time.Time

	Touch    Toucher
	Stats    func() port.PortStats
	Snapshot func() *image.RGBA
	// OnDemo switches the running demo. It returns false for unknown names.
	OnDemo func(name string) bool

	ConfigPath string
	Config     *config.Config
	saveMu     sync.Mutex // guards Config and the file at ConfigPath

	upgrader websocket.Upgrader
}

func NewHub(width, height int) *Hub {
	return &Hub{
		width:       width,
		height:      height,
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		startTime:   time.Now(),
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Mux routes /ws, /diag, /control and /health.
func (h *Hub) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

type region struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	RGB  []byte `json:"rgb"`
}

func encodeRegion(id uint64, r image.Rectangle, px *image.RGBA) []byte {
	rgb := make([]byte, 0, r.Dx()*r.Dy()*3)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := px.RGBAAt(x, y)
			rgb = append(rgb, c.R, c.G, c.B)
		}
	}
	b, _ := json.Marshal(region{Type: "region", ID: id, X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy(), RGB: rgb})
	return b
}

// BroadcastRegion queues a flushed region for every frame client. Slow clients
// drop regions instead of stalling the caller.
func (h *Hub) BroadcastRegion(r image.Rectangle, px *image.RGBA) {
	h.mu.Lock()
	h.regionID++
	id := h.regionID
	n := len(h.clients)
	h.mu.Unlock()
	if n == 0 {
		return
	}
	b := encodeRegion(id, r, px)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			log.Debug().Uint64("region", id).Msg("preview client lagging, region dropped")
		}
	}
}

// PushDiag logs d and forwards it to /diag clients. Recent diagnostics are
// replayed to clients that connect later.
func (h *Hub) PushDiag(d diag.Diagnostic) {
	diag.Log(d)
	b, _ := json.Marshal(d)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diags = append(h.diags, d)
	if len(h.diags) > diagBacklog {
		h.diags = h.diags[len(h.diags)-diagBacklog:]
	}
	for c := range h.diagClients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (h *Hub) register(set map[*client]bool, conn *websocket.Conn, first ...[]byte) *client {
	c := &client{conn: conn, send: make(chan []byte, sendQueue+len(first))}
	for _, b := range first {
		c.send <- b
	}
	h.mu.Lock()
	set[c] = true
	h.mu.Unlock()

	go func() {
		for b := range c.send {
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debug().Err(err).Msg("ws write")
				c.conn.Close()
				// keep draining until the reader unregisters us
			}
		}
	}()
	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, c)
			close(c.send)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return c
}

func (h *Hub) topology() []byte {
	b, _ := json.Marshal(map[string]any{"type": "topology", "width": h.width, "height": h.height})
	return b
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	first := [][]byte{h.topology()}
	if h.Snapshot != nil {
		full := h.Snapshot()
		first = append(first, encodeRegion(0, full.Rect, full))
	}
	h.register(h.clients, conn, first...)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.RLock()
	backlog := make([][]byte, 0, len(h.diags))
	for _, d := range h.diags {
		b, _ := json.Marshal(d)
		backlog = append(backlog, b)
	}
	h.mu.RUnlock()
	h.register(h.diagClients, conn, backlog...)
}

// TouchMsg coordinates are in display pixels.
type TouchMsg struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Down bool `json:"down"`
}

// ControlMsg is what /control accepts.
type ControlMsg struct {
	Touch *TouchMsg `json:"touch,omitempty"`
	Demo  string    `json:"demo,omitempty"`
}

func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.applyControl(msg)
	}
}

func (h *Hub) applyControl(msg ControlMsg) {
	if t := msg.Touch; t != nil && h.Touch != nil {
		if t.Down {
			h.Touch.Touch(t.X, t.Y)
		} else {
			h.Touch.Release()
		}
	}
	if msg.Demo != "" && h.OnDemo != nil {
		if !h.OnDemo(msg.Demo) {
			h.PushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "DEMO.UNKNOWN", Summary: "Unknown demo name",
				Evidence: map[string]any{"name": msg.Demo},
			})
			return
		}
		h.saveConfig(msg.Demo)
	}
}

func (h *Hub) saveConfig(demo string) {
	if h.ConfigPath == "" || h.Config == nil {
		return
	}
	h.saveMu.Lock()
	defer h.saveMu.Unlock()
	h.Config.Demo = demo
	if err := config.Save(h.ConfigPath, h.Config); err != nil {
		log.Warn().Err(err).Str("path", h.ConfigPath).Msg("config save failed")
	}
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"uptime_s": time.Since(h.startTime).Seconds(),
		"width":    h.width,
		"height":   h.height,
		"regions":  h.regionID,
		"clients":  len(h.clients),
	}
	h.mu.RUnlock()
	if h.Stats != nil {
		s := h.Stats()
		resp["tick_ms"] = s.Tick
		resp["flushes"] = s.Flushes
		resp["chunks"] = s.Chunks
		resp["pixels"] = s.Pixels
		resp["polls"] = s.Polls
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
