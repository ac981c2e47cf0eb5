// Package data loads persisted training datasets and carries the
// builtin toy tasks the trainer ships with. A dataset file maps names
// to a network architecture plus (inputs, targets) pairs; the engine
// only ever sees the constructed network and the raw pairs.
package data

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/b0tShaman/neuro-viz/ml"
)

// NetworkSpec is the architecture block of a persisted dataset.
type NetworkSpec struct {
	InputNodes   int         `json:"inputNodes"`
	HiddenLayers []int       `json:"hiddenLayers"`
	OutputNodes  int         `json:"outputNodes"`
	Options      OptionsSpec `json:"options"`
}

// OptionsSpec mirrors the option keys of the persisted format.
type OptionsSpec struct {
	LearningRate float64  `json:"learning_rate"`
	Activations  []string `json:"activationFunctions"`
	TaskType     string   `json:"taskType"`
}

// Dataset pairs an architecture with its training samples.
type Dataset struct {
	Network NetworkSpec `json:"network"`
	Data    []ml.Sample `json:"data"`
}

// Build constructs a randomly initialized network from the dataset's
// architecture block.
func (d Dataset) Build() (*ml.NeuralNetwork, error) {
	return ml.NewNetwork(d.Network.InputNodes, d.Network.HiddenLayers, d.Network.OutputNodes, ml.Options{
		LearningRate: d.Network.Options.LearningRate,
		Activations:  d.Network.Options.Activations,
		Task:         ml.TaskType(d.Network.Options.TaskType),
	})
}

// LoadFile parses a dataset file: a JSON object mapping dataset names
// to Dataset blocks.
func LoadFile(path string) (map[string]Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes the dataset-file format from raw JSON.
func Parse(raw []byte) (map[string]Dataset, error) {
	var out map[string]Dataset
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrInvalidFormat, err)
	}
	for name, ds := range out {
		if ds.Network.InputNodes == 0 {
			return nil, fmt.Errorf("%w: dataset %q missing network.inputNodes", ml.ErrInvalidFormat, name)
		}
		for i, s := range ds.Data {
			if len(s.Inputs) != ds.Network.InputNodes || len(s.Targets) != ds.Network.OutputNodes {
				return nil, fmt.Errorf("%w: dataset %q sample %d has %d inputs and %d targets",
					ml.ErrInvalidFormat, name, i, len(s.Inputs), len(s.Targets))
			}
		}
	}
	return out, nil
}
