package data

import (
	"sort"

	"github.com/b0tShaman/neuro-viz/ml"
)

// Builtin toy tasks: logic gates, bit encoders/decoders and a 2-bit
// adder. Architectures are sized for the visualizer, tens of nodes at
// most.
var builtins = map[string]Dataset{
	"xor": logicGate(func(a, b int) int { return a ^ b }),
	"xnor": logicGate(func(a, b int) int {
		return 1 - (a ^ b)
	}),
	"and": logicGate(func(a, b int) int { return a & b }),
	"or":  logicGate(func(a, b int) int { return a | b }),
	"adder2": {
		Network: NetworkSpec{
			InputNodes:   4,
			HiddenLayers: []int{12, 8},
			OutputNodes:  3,
			Options: OptionsSpec{
				LearningRate: 0.3,
				Activations:  []string{"tanh", "tanh", "sigmoid"},
				TaskType:     string(ml.TaskClassification),
			},
		},
		Data: adderSamples(),
	},
	"encoder4": {
		Network: NetworkSpec{
			InputNodes:   4,
			HiddenLayers: []int{6},
			OutputNodes:  2,
			Options: OptionsSpec{
				LearningRate: 0.3,
				Activations:  []string{"tanh", "sigmoid"},
				TaskType:     string(ml.TaskClassification),
			},
		},
		Data: encoderSamples(),
	},
	"decoder2": {
		Network: NetworkSpec{
			InputNodes:   2,
			HiddenLayers: []int{6},
			OutputNodes:  4,
			Options: OptionsSpec{
				LearningRate: 0.3,
				Activations:  []string{"tanh", "softmax"},
				TaskType:     string(ml.TaskClassification),
			},
		},
		Data: decoderSamples(),
	},
}

// Builtin returns a named toy dataset.
func Builtin(name string) (Dataset, bool) {
	ds, ok := builtins[name]
	return ds, ok
}

// BuiltinNames returns the toy dataset names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func logicGate(fn func(a, b int) int) Dataset {
	samples := make([]ml.Sample, 0, 4)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			samples = append(samples, ml.Sample{
				Inputs:  []float64{float64(a), float64(b)},
				Targets: []float64{float64(fn(a, b))},
			})
		}
	}
	return Dataset{
		Network: NetworkSpec{
			InputNodes:   2,
			HiddenLayers: []int{4},
			OutputNodes:  1,
			Options: OptionsSpec{
				LearningRate: 0.3,
				Activations:  []string{"tanh", "sigmoid"},
				TaskType:     string(ml.TaskClassification),
			},
		},
		Data: samples,
	}
}

// adderSamples enumerates a+b for all 2-bit operands; the target is
// the 3-bit sum.
func adderSamples() []ml.Sample {
	samples := make([]ml.Sample, 0, 16)
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			sum := a + b
			samples = append(samples, ml.Sample{
				Inputs: []float64{
					float64(a >> 1 & 1), float64(a & 1),
					float64(b >> 1 & 1), float64(b & 1),
				},
				Targets: []float64{
					float64(sum >> 2 & 1), float64(sum >> 1 & 1), float64(sum & 1),
				},
			})
		}
	}
	return samples
}

// encoderSamples maps a one-hot 4-vector to its 2-bit binary index.
func encoderSamples() []ml.Sample {
	samples := make([]ml.Sample, 0, 4)
	for i := 0; i < 4; i++ {
		inputs := make([]float64, 4)
		inputs[i] = 1
		samples = append(samples, ml.Sample{
			Inputs:  inputs,
			Targets: []float64{float64(i >> 1 & 1), float64(i & 1)},
		})
	}
	return samples
}

// decoderSamples is the inverse task: 2-bit index to one-hot 4-vector.
func decoderSamples() []ml.Sample {
	samples := make([]ml.Sample, 0, 4)
	for i := 0; i < 4; i++ {
		targets := make([]float64, 4)
		targets[i] = 1
		samples = append(samples, ml.Sample{
			Inputs:  []float64{float64(i >> 1 & 1), float64(i & 1)},
			Targets: targets,
		})
	}
	return samples
}
