package ml

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

type networkJSON struct {
	InputNodes   *int      `json:"inputNodes"`
	HiddenLayers []int     `json:"hiddenLayers"`
	OutputNodes  int       `json:"outputNodes"`
	LearningRate float64   `json:"learningRate"`
	TaskType     TaskType  `json:"taskType"`
	Activations  []string  `json:"activationFunctions"`
	Weights      []*Matrix `json:"weights"`
	Biases       []*Matrix `json:"biases"`
}

// Serialize encodes the full network — architecture, hyperparameters,
// activation names, weights and biases — as JSON.
func (nn *NeuralNetwork) Serialize() ([]byte, error) {
	inputNodes := nn.inputNodes
	names := make([]string, len(nn.activations))
	for i, a := range nn.activations {
		names[i] = a.String()
	}
	return json.Marshal(networkJSON{
		InputNodes:   &inputNodes,
		HiddenLayers: nn.hiddenLayers,
		OutputNodes:  nn.outputNodes,
		LearningRate: nn.learningRate,
		TaskType:     nn.task,
		Activations:  names,
		Weights:      nn.weights,
		Biases:       nn.biases,
	})
}

// Deserialize reconstructs a network from Serialize output.
func Deserialize(data []byte) (*NeuralNetwork, error) {
	var raw networkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw.InputNodes == nil {
		return nil, fmt.Errorf("%w: missing inputNodes", ErrInvalidFormat)
	}

	nn, err := NewNetwork(*raw.InputNodes, raw.HiddenLayers, raw.OutputNodes, Options{
		LearningRate: raw.LearningRate,
		Activations:  raw.Activations,
		Task:         raw.TaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if len(raw.Weights) != len(nn.weights) || len(raw.Biases) != len(nn.biases) {
		return nil, fmt.Errorf("%w: %d weight and %d bias matrices for %d layer transitions",
			ErrInvalidFormat, len(raw.Weights), len(raw.Biases), len(nn.weights))
	}
	for i := range nn.weights {
		if err := checkShape("weights", i, nn.weights[i], raw.Weights[i]); err != nil {
			return nil, err
		}
		if err := checkShape("biases", i, nn.biases[i], raw.Biases[i]); err != nil {
			return nil, err
		}
	}
	nn.weights = raw.Weights
	nn.biases = raw.Biases
	return nn, nil
}

func checkShape(name string, layer int, want, got *Matrix) error {
	if got == nil {
		return fmt.Errorf("%w: layer %d %s missing", ErrInvalidFormat, layer, name)
	}
	if want.rows != got.rows || want.cols != got.cols {
		return fmt.Errorf("%w: layer %d %s is %dx%d, want %dx%d",
			ErrInvalidFormat, layer, name, got.rows, got.cols, want.rows, want.cols)
	}
	return nil
}

// ------- FILE PERSISTENCE ------- //

type networkGob struct {
	InputNodes   int
	HiddenLayers []int
	OutputNodes  int
	LearningRate float64
	TaskType     TaskType
	Activations  []string
	Weights      []*Matrix
	Biases       []*Matrix
}

// SaveToFile persists the network to a gob file.
func (nn *NeuralNetwork) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	names := make([]string, len(nn.activations))
	for i, a := range nn.activations {
		names[i] = a.String()
	}
	log.Info().Str("path", filename).Msg("saving model")
	return gob.NewEncoder(file).Encode(networkGob{
		InputNodes:   nn.inputNodes,
		HiddenLayers: nn.hiddenLayers,
		OutputNodes:  nn.outputNodes,
		LearningRate: nn.learningRate,
		TaskType:     nn.task,
		Activations:  names,
		Weights:      nn.weights,
		Biases:       nn.biases,
	})
}

// LoadFromFile replaces the receiver's weights and biases with the
// persisted ones. The file's architecture is validated against the
// receiver before anything is overwritten, so a mismatched model file
// leaves the network untouched.
func (nn *NeuralNetwork) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var loaded networkGob
	if err := gob.NewDecoder(file).Decode(&loaded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if loaded.InputNodes != nn.inputNodes || loaded.OutputNodes != nn.outputNodes {
		return fmt.Errorf("%w: model file is %d-%v-%d, network is %d-%v-%d",
			ErrStructureMismatch,
			loaded.InputNodes, loaded.HiddenLayers, loaded.OutputNodes,
			nn.inputNodes, nn.hiddenLayers, nn.outputNodes)
	}
	if len(loaded.Weights) != len(nn.weights) || len(loaded.Biases) != len(nn.biases) {
		return fmt.Errorf("%w: model file has %d layer transitions, network has %d",
			ErrStructureMismatch, len(loaded.Weights), len(nn.weights))
	}
	for i := range nn.weights {
		if err := checkShape("weights", i, nn.weights[i], loaded.Weights[i]); err != nil {
			return err
		}
		if err := checkShape("biases", i, nn.biases[i], loaded.Biases[i]); err != nil {
			return err
		}
	}

	// safe to overwrite now
	for i := range nn.weights {
		copy(nn.weights[i].data, loaded.Weights[i].data)
		copy(nn.biases[i].data, loaded.Biases[i].data)
	}
	nn.learningRate = loaded.LearningRate
	if loaded.TaskType != "" {
		nn.task = loaded.TaskType
	}
	for i, name := range loaded.Activations {
		if i < len(nn.activations) {
			nn.activations[i] = ActivationByName(name)
		}
	}
	log.Info().Str("path", filename).Msg("weights loaded")
	return nil
}
