// Package dashboard provides live observability for a training run. It
// serves a JSON snapshot of the run so far and a WebSocket stream that
// pushes each evaluation round to connected observers as it is scored.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fraudpipe/internal/scoring"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Summary is the snapshot served at /summary.
type Summary struct {
	Rounds    int           `json:"rounds"`
	BestEpoch int           `json:"bestEpoch"`
	BestFBeta float64       `json:"bestFBeta"`
	Latest    *scoring.Round `json:"latest,omitempty"`
}

// Dashboard broadcasts evaluation rounds over WebSocket and serves a
// summary of the run. It implements the training loop's RoundPublisher.
type Dashboard struct {
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan scoring.Round
	stop      chan struct{}

	mu        sync.RWMutex
	isRunning bool
	rounds    int
	latest    scoring.Round
	bestEpoch int
	bestFBeta float64
	haveRound bool
}

// New creates a dashboard serving on the given port.
func New(port int) *Dashboard {
	d := &Dashboard{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan scoring.Round, 100),
		stop:      make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/summary", d.handleSummary).Methods("GET")
	r.HandleFunc("/ws", d.handleWebSocket).Methods("GET")

	d.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return d
}

// Start starts the dashboard server and the broadcast worker.
func (d *Dashboard) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go d.broadcaster()

	go func() {
		log.Info().
			Str("address", d.server.Addr).
			Msg("Starting evaluation dashboard")

		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Evaluation dashboard server failed")
		}
	}()

	d.isRunning = true
	return nil
}

// Stop shuts the dashboard down and closes all client connections.
func (d *Dashboard) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isRunning {
		return nil
	}

	close(d.stop)

	d.clientsMu.Lock()
	for client := range d.clients {
		client.Close()
	}
	d.clients = make(map[*websocket.Conn]bool)
	d.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	d.isRunning = false
	return nil
}

// Publish queues a scored round for broadcast. It never blocks the training
// loop: if the channel is full the update is dropped.
func (d *Dashboard) Publish(round scoring.Round) {
	d.mu.Lock()
	d.rounds++
	d.latest = round
	d.haveRound = true
	if round.IsBest {
		d.bestEpoch = round.Epoch
		d.bestFBeta = round.FBeta
	}
	d.mu.Unlock()

	select {
	case d.broadcast <- round:
	default:
		// Channel full, skip this update
	}
}

func (d *Dashboard) broadcaster() {
	for {
		select {
		case round := <-d.broadcast:
			d.broadcastToClients(round)
		case <-d.stop:
			return
		}
	}
}

func (d *Dashboard) broadcastToClients(round scoring.Round) {
	data, err := json.Marshal(round)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal round for broadcast")
		return
	}

	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()

	for client := range d.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(d.clients, client)
		}
	}
}

func (d *Dashboard) handleSummary(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	summary := Summary{
		Rounds:    d.rounds,
		BestEpoch: d.bestEpoch,
		BestFBeta: d.bestFBeta,
	}
	if d.haveRound {
		latest := d.latest
		summary.Latest = &latest
	}
	d.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	d.clientsMu.Lock()
	d.clients[conn] = true
	d.clientsMu.Unlock()

	// Send the latest round so a new observer is not blank until the next
	// epoch completes.
	d.mu.RLock()
	haveRound := d.haveRound
	latest := d.latest
	d.mu.RUnlock()
	if haveRound {
		if data, err := json.Marshal(latest); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}

	log.Debug().Str("remote", r.RemoteAddr).Msg("Dashboard observer connected")
}
