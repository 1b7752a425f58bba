package trainersim

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Server provides the trainer HTTP API: dataset upload, epoch training,
// prediction, and model-state export.
type Server struct {
	server *http.Server

	mu           sync.Mutex
	model        *logistic
	features     [][]float64
	fraud        []float64 // 1 for fraud, 0 for legitimate
	batchSize    int
	learningRate float64
	epochs       int
	rng          *rand.Rand
}

type datasetPayload struct {
	Features [][]float64 `json:"features"`
	Labels   [][]float64 `json:"labels"`
}

type uploadRequest struct {
	Train        datasetPayload `json:"train"`
	Test         datasetPayload `json:"test"`
	BatchSize    int            `json:"batch_size"`
	LearningRate float64        `json:"learning_rate"`
}

type trainEpochRequest struct {
	Epoch int `json:"epoch"`
}

type trainEpochResponse struct {
	Loss float64 `json:"loss"`
}

type predictRequest struct {
	Features [][]float64 `json:"features"`
}

type predictResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// New creates a trainer simulator serving on the given port.
func New(port int) *Server {
	s := &Server{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler, exposed separately so tests can mount it
// on an ephemeral listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dataset", s.handleDataset)
	mux.HandleFunc("/train/epoch", s.handleTrainEpoch)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/model/state", s.handleModelState)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting trainer simulator")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Train.Features) == 0 {
		http.Error(w, "train set cannot be empty", http.StatusBadRequest)
		return
	}
	if len(req.Train.Features) != len(req.Train.Labels) {
		http.Error(w, "features and labels length mismatch", http.StatusBadRequest)
		return
	}

	dim := len(req.Train.Features[0])
	if dim == 0 {
		http.Error(w, "feature rows cannot be empty", http.StatusBadRequest)
		return
	}
	for i, row := range req.Train.Features {
		if len(row) != dim {
			http.Error(w, fmt.Sprintf("feature row %d has %d features, row 0 has %d", i, len(row), dim),
				http.StatusBadRequest)
			return
		}
	}

	fraud := make([]float64, len(req.Train.Labels))
	for i, label := range req.Train.Labels {
		if len(label) != 2 {
			http.Error(w, fmt.Sprintf("label %d is not a two-class one-hot vector", i), http.StatusBadRequest)
			return
		}
		fraud[i] = label[1]
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	learningRate := req.LearningRate
	if learningRate <= 0 {
		learningRate = 0.001
	}

	s.mu.Lock()
	s.features = req.Train.Features
	s.fraud = fraud
	s.batchSize = batchSize
	s.learningRate = learningRate
	s.model = newLogistic(len(req.Train.Features[0]))
	s.epochs = 0
	s.mu.Unlock()

	log.Info().
		Int("train_records", len(req.Train.Features)).
		Int("test_records", len(req.Test.Features)).
		Int("batch_size", batchSize).
		Float64("learning_rate", learningRate).
		Msg("Dataset uploaded")

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleTrainEpoch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req trainEpochRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		http.Error(w, "no dataset uploaded", http.StatusConflict)
		return
	}

	loss := s.model.trainEpoch(s.features, s.fraud, s.batchSize, s.learningRate, s.rng)
	s.epochs++

	log.Debug().Int("epoch", req.Epoch).Float64("loss", loss).Msg("Epoch trained")

	writeJSON(w, trainEpochResponse{Loss: loss})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		http.Error(w, "no dataset uploaded", http.StatusConflict)
		return
	}

	resp := predictResponse{Probabilities: make([][]float64, len(req.Features))}
	for i, features := range req.Features {
		if len(features) != len(s.model.weights) {
			http.Error(w, fmt.Sprintf("record %d has %d features, model expects %d",
				i, len(features), len(s.model.weights)), http.StatusBadRequest)
			return
		}
		p := s.model.prob(features)
		resp.Probabilities[i] = []float64{1 - p, p}
	}

	writeJSON(w, resp)
}

func (s *Server) handleModelState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		http.Error(w, "no model trained", http.StatusConflict)
		return
	}

	state, err := s.model.export(s.epochs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(state)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ready := s.model != nil
	epochs := s.epochs
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"dataset_loaded": ready,
		"epochs_trained": epochs,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
