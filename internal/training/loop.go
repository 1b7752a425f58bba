// Package training drives the external model trainer over a bounded epoch
// loop: train an epoch, score predictions on the held-out test set, and
// checkpoint the model whenever the F-beta score strictly improves.
package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fraudpipe/internal/common"
	"fraudpipe/internal/dataset"
	"fraudpipe/internal/decision"
	"fraudpipe/internal/scoring"
	"fraudpipe/internal/storage"

	"github.com/rs/zerolog/log"
)

// Trainer is the external model-training collaborator. The network, the
// optimizer, and the gradient loop live behind this boundary; the pipeline
// only drives epochs and consumes probability vectors.
type Trainer interface {
	TrainEpoch(ctx context.Context, epoch int) error
	Predict(ctx context.Context, features [][]float64) ([][]float64, error)
	ExportState(ctx context.Context) (json.RawMessage, error)
}

// CheckpointStore persists best-model checkpoints and round history.
type CheckpointStore interface {
	SaveCheckpoint(storage.Checkpoint) error
	AppendRound(scoring.Round) error
}

// LogAppender receives one formatted summary line per epoch. Append
// failures are best-effort and never fail the run.
type LogAppender interface {
	Append(line string) error
}

// RoundPublisher receives each scored round for live observers.
type RoundPublisher interface {
	Publish(scoring.Round)
}

// MetricsInterface defines the metrics methods the loop reports to.
type MetricsInterface interface {
	EpochsInc()
	TrainerLatencyObserve(float64)
	TrainerFailuresInc()
	CheckpointsSavedInc()
	LogAppendFailuresInc()
	BestFBetaSet(float64)
}

// Config carries the loop parameters.
type Config struct {
	Epochs    int
	Classes   []string            // label-index order; defaults to dataset.Classes
	Threshold *decision.Threshold // optional confidence override
}

// Collaborators bundles the optional sinks around the loop. Any nil member
// is skipped.
type Collaborators struct {
	Store     CheckpointStore
	TrainLog  LogAppender
	Publisher RoundPublisher
	Metrics   MetricsInterface
}

// Loop runs the training-evaluation state machine: for each epoch, run the
// trainer, score its test-set predictions, and update best-model state.
// Per-epoch scoring failures fail the whole run, since a missing score
// breaks best-model selection.
type Loop struct {
	cfg     Config
	trainer Trainer
	eval    *scoring.Evaluator
	tracker *scoring.BestTracker
	collab  Collaborators
}

// NewLoop creates a loop over the given trainer and evaluator.
func NewLoop(cfg Config, trainer Trainer, eval *scoring.Evaluator, collab Collaborators) (*Loop, error) {
	if cfg.Epochs <= 0 || cfg.Epochs > common.MaxEpochs {
		return nil, fmt.Errorf("%w: epoch count must be in 1..%d, got %d",
			common.ErrInvalidConfiguration, common.MaxEpochs, cfg.Epochs)
	}
	if trainer == nil {
		return nil, fmt.Errorf("%w: trainer is required", common.ErrInvalidConfiguration)
	}
	if eval == nil {
		return nil, fmt.Errorf("%w: evaluator is required", common.ErrInvalidConfiguration)
	}
	if len(cfg.Classes) == 0 {
		cfg.Classes = dataset.Classes
	}
	return &Loop{
		cfg:     cfg,
		trainer: trainer,
		eval:    eval,
		tracker: scoring.NewBestTracker(),
		collab:  collab,
	}, nil
}

// Run executes the configured number of epochs against the held-out test
// set and returns after the final epoch or on the first fatal error.
func (l *Loop) Run(ctx context.Context, test dataset.Dataset) error {
	if len(test) == 0 {
		return fmt.Errorf("%w: empty test set", common.ErrInvalidConfiguration)
	}

	actual := test.Labels()
	features := test.FeatureMatrix()

	log.Info().
		Int("epochs", l.cfg.Epochs).
		Int("test_records", len(test)).
		Msg("Starting training loop")

	for epoch := 1; epoch <= l.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training loop cancelled at epoch %d: %w", epoch, err)
		}

		round, err := l.runEpoch(ctx, epoch, features, actual)
		if err != nil {
			return err
		}

		l.recordRound(round)
	}

	best, _ := l.tracker.Best()
	log.Info().
		Float64("best_f_beta", best).
		Msg("Training loop finished")

	return nil
}

func (l *Loop) runEpoch(ctx context.Context, epoch int, features [][]float64, actual []string) (scoring.Round, error) {
	start := time.Now()
	if err := l.trainer.TrainEpoch(ctx, epoch); err != nil {
		l.trainerFailed()
		return scoring.Round{}, fmt.Errorf("epoch %d: train: %w", epoch, err)
	}

	probs, err := l.trainer.Predict(ctx, features)
	if err != nil {
		l.trainerFailed()
		return scoring.Round{}, fmt.Errorf("epoch %d: predict: %w", epoch, err)
	}
	if l.collab.Metrics != nil {
		l.collab.Metrics.TrainerLatencyObserve(time.Since(start).Seconds())
	}
	if len(probs) != len(actual) {
		// A malformed prediction set is still the trainer's failure.
		l.trainerFailed()
		return scoring.Round{}, fmt.Errorf("epoch %d: trainer returned %d probability vectors for %d test records",
			epoch, len(probs), len(actual))
	}

	predicted := make([]string, len(probs))
	for i, p := range probs {
		var class string
		var err error
		if l.cfg.Threshold != nil {
			class, err = decision.ClassifyWithThreshold(l.cfg.Classes, p, *l.cfg.Threshold)
		} else {
			class, err = decision.Classify(l.cfg.Classes, p)
		}
		if err != nil {
			return scoring.Round{}, fmt.Errorf("epoch %d: record %d: %w", epoch, i, err)
		}
		predicted[i] = class
	}

	round, err := l.eval.Score(epoch, actual, predicted)
	if err != nil {
		return scoring.Round{}, err
	}
	round.IsBest = l.tracker.Observe(round.FBeta)

	if round.IsBest {
		if err := l.checkpoint(ctx, round); err != nil {
			return scoring.Round{}, err
		}
	}

	return round, nil
}

func (l *Loop) trainerFailed() {
	if l.collab.Metrics != nil {
		l.collab.Metrics.TrainerFailuresInc()
	}
}

// checkpoint persists the trainer's current model state. Failures are
// fatal: a best round that cannot be checkpointed voids the whole point of
// best-model selection.
func (l *Loop) checkpoint(ctx context.Context, round scoring.Round) error {
	if l.collab.Metrics != nil {
		l.collab.Metrics.BestFBetaSet(round.FBeta)
	}
	if l.collab.Store == nil {
		return nil
	}

	state, err := l.trainer.ExportState(ctx)
	if err != nil {
		return fmt.Errorf("epoch %d: export model state: %w", round.Epoch, err)
	}
	cp := storage.Checkpoint{
		Epoch:   round.Epoch,
		FBeta:   round.FBeta,
		SavedAt: time.Now(),
		State:   state,
	}
	if err := l.collab.Store.SaveCheckpoint(cp); err != nil {
		return fmt.Errorf("epoch %d: save checkpoint: %w", round.Epoch, err)
	}
	if l.collab.Metrics != nil {
		l.collab.Metrics.CheckpointsSavedInc()
	}

	log.Info().
		Int("epoch", round.Epoch).
		Float64("f_beta", round.FBeta).
		Msg("New best model checkpointed")

	return nil
}

// recordRound fans the scored round out to the history store, the training
// log, and live observers. All of these are best-effort.
func (l *Loop) recordRound(round scoring.Round) {
	if l.collab.Metrics != nil {
		l.collab.Metrics.EpochsInc()
	}

	if l.collab.Store != nil {
		if err := l.collab.Store.AppendRound(round); err != nil {
			log.Warn().Err(err).Int("epoch", round.Epoch).Msg("Failed to record round history")
		}
	}

	if l.collab.TrainLog != nil {
		line := fmt.Sprintf("epoch %d: precision %.4f recall %.4f f%g %.4f best=%t",
			round.Epoch, round.Precision, round.Recall, l.eval.Beta(), round.FBeta, round.IsBest)
		if err := l.collab.TrainLog.Append(line); err != nil {
			log.Warn().Err(err).Msg("Failed to append training log")
			if l.collab.Metrics != nil {
				l.collab.Metrics.LogAppendFailuresInc()
			}
		}
	}

	if l.collab.Publisher != nil {
		l.collab.Publisher.Publish(round)
	}

	log.Info().
		Int("epoch", round.Epoch).
		Float64("precision", round.Precision).
		Float64("recall", round.Recall).
		Float64("f_beta", round.FBeta).
		Bool("is_best", round.IsBest).
		Msg("Epoch scored")
}

// Best returns the best F-beta seen so far.
func (l *Loop) Best() (float64, bool) {
	return l.tracker.Best()
}
