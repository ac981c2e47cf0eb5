package ml

import (
	"math/rand"

	"github.com/rs/zerolog/log"
)

// Sample is one (inputs, targets) training pair.
type Sample struct {
	Inputs  []float64 `json:"inputs"`
	Targets []float64 `json:"targets"`
}

// TrainingConfig drives the epoch loop around NeuralNetwork.Train.
type TrainingConfig struct {
	Epochs       int
	VerboseEvery int // log progress every N epochs, 0 disables
	Shuffle      bool
	Metric       ErrorMetric

	// TargetError stops training early once the epoch error falls
	// below it. Zero disables early stopping.
	TargetError float64
}

// TrainEpochs runs shuffled single-sample gradient descent over the
// dataset for the configured number of epochs and returns the
// per-epoch error history. The engine itself stays loop-agnostic; this
// is the caller-side orchestration used by the CLI and tests.
func TrainEpochs(nn *NeuralNetwork, samples []Sample, cfg TrainingConfig) ([]float64, error) {
	indices := newIndexList(len(samples))
	history := make([]float64, 0, cfg.Epochs)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if cfg.Shuffle {
			shuffleIndices(indices)
		}
		for _, idx := range indices {
			if err := nn.Train(samples[idx].Inputs, samples[idx].Targets); err != nil {
				return history, err
			}
		}

		epochErr, err := DatasetError(nn, samples, cfg.Metric)
		if err != nil {
			return history, err
		}
		history = append(history, epochErr)

		if cfg.VerboseEvery > 0 && (epoch%cfg.VerboseEvery == 0 || epoch == 1) {
			log.Info().Int("epoch", epoch).Float64("error", epochErr).Msg("training")
		}
		if cfg.TargetError > 0 && epochErr < cfg.TargetError {
			log.Info().Int("epoch", epoch).Float64("error", epochErr).Msg("target error reached")
			break
		}
	}
	return history, nil
}

// DatasetError averages CalculateError over every sample.
func DatasetError(nn *NeuralNetwork, samples []Sample, metric ErrorMetric) (float64, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	total := 0.0
	for _, s := range samples {
		out, err := nn.Predict(s.Inputs)
		if err != nil {
			return 0, err
		}
		e, err := CalculateError(out, s.Targets, metric)
		if err != nil {
			return 0, err
		}
		total += e
	}
	return total / float64(len(samples)), nil
}

func newIndexList(size int) []int {
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func shuffleIndices(indices []int) {
	rand.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}
