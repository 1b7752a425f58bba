package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fraudpipe/internal/dataset"

	"github.com/go-resty/resty/v2"
)

// Remote is a Trainer backed by an external training service over HTTP.
// The service owns the network, the optimizer, and the compute context; this
// client only ships datasets in and probability vectors out.
type Remote struct {
	base string
	rest *resty.Client
}

// NewRemote creates a client for the training service at the given base URL.
func NewRemote(base string, timeout time.Duration) *Remote {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &Remote{base: base, rest: r}
}

type datasetPayload struct {
	Features [][]float64 `json:"features"`
	Labels   [][]float64 `json:"labels"`
}

type uploadReq struct {
	Train        datasetPayload `json:"train"`
	Test         datasetPayload `json:"test"`
	BatchSize    int            `json:"batch_size"`
	LearningRate float64        `json:"learning_rate"`
}

type trainEpochReq struct {
	Epoch int `json:"epoch"`
}

type trainEpochResp struct {
	Loss float64 `json:"loss"`
}

type predictReq struct {
	Features [][]float64 `json:"features"`
}

type predictResp struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// Upload ships the augmented train set and the untouched test set to the
// training service, along with the optimizer configuration it needs.
func (r *Remote) Upload(ctx context.Context, train, test dataset.Dataset, batchSize int, learningRate float64) error {
	req := uploadReq{
		Train:        toPayload(train),
		Test:         toPayload(test),
		BatchSize:    batchSize,
		LearningRate: learningRate,
	}

	resp, err := r.rest.R().
		SetContext(ctx).
		SetBody(req).
		Post(r.base + "/dataset")
	if err != nil {
		return fmt.Errorf("trainer upload failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("trainer upload: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// TrainEpoch asks the service to run one training epoch over the uploaded
// train set.
func (r *Remote) TrainEpoch(ctx context.Context, epoch int) error {
	result := &trainEpochResp{}
	resp, err := r.rest.R().
		SetContext(ctx).
		SetBody(trainEpochReq{Epoch: epoch}).
		SetResult(result).
		Post(r.base + "/train/epoch")
	if err != nil {
		return fmt.Errorf("train epoch %d failed: %w", epoch, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("train epoch %d: status %d, body: %s", epoch, resp.StatusCode(), resp.String())
	}
	return nil
}

// Predict returns the model's class-probability vectors for the given
// feature matrix.
func (r *Remote) Predict(ctx context.Context, features [][]float64) ([][]float64, error) {
	result := &predictResp{}
	resp, err := r.rest.R().
		SetContext(ctx).
		SetBody(predictReq{Features: features}).
		SetResult(result).
		Post(r.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("predict failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("predict: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Probabilities) != len(features) {
		return nil, fmt.Errorf("predict: got %d probability vectors for %d records",
			len(result.Probabilities), len(features))
	}
	return result.Probabilities, nil
}

// ExportState fetches the service's current model state as an opaque JSON
// blob, suitable for checkpointing.
func (r *Remote) ExportState(ctx context.Context) (json.RawMessage, error) {
	resp, err := r.rest.R().
		SetContext(ctx).
		Get(r.base + "/model/state")
	if err != nil {
		return nil, fmt.Errorf("export state failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("export state: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	state := make(json.RawMessage, len(resp.Body()))
	copy(state, resp.Body())
	return state, nil
}

func toPayload(ds dataset.Dataset) datasetPayload {
	p := datasetPayload{
		Features: make([][]float64, len(ds)),
		Labels:   make([][]float64, len(ds)),
	}
	for i, rec := range ds {
		p.Features[i] = rec.Features
		p.Labels[i] = rec.Label
	}
	return p
}
