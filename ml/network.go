package ml

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// TaskType selects the output-layer error convention and the default
// output activation.
type TaskType string

const (
	TaskRegression     TaskType = "regression"
	TaskClassification TaskType = "classification"
)

const DefaultLearningRate = 0.01

// Options configures network construction. Zero values pick the
// defaults: learning rate 0.01, regression task, tanh hidden layers
// with an identity (regression) or sigmoid (classification) output.
type Options struct {
	LearningRate float64
	// Activations holds one name per layer transition
	// (len(hidden)+1). A list of any other length is ignored with a
	// warning and the default schedule applies.
	Activations []string
	Task        TaskType
}

// NeuralNetwork is a fully-connected feedforward network trained by
// single-sample gradient descent. Weight matrix i has shape
// (size of layer i+1, size of layer i); bias i is a column vector.
type NeuralNetwork struct {
	inputNodes   int
	hiddenLayers []int
	outputNodes  int

	weights     []*Matrix
	biases      []*Matrix
	activations []Activation

	learningRate float64
	task         TaskType

	// lastInputs is the most recent Predict input, read by the
	// visualization layer to highlight active paths.
	lastInputs []float64
}

// NewNetwork builds a randomly initialized network with the given
// layer sizes. hidden must name at least one hidden layer.
func NewNetwork(inputNodes int, hidden []int, outputNodes int, opts Options) (*NeuralNetwork, error) {
	if inputNodes <= 0 || outputNodes <= 0 || len(hidden) == 0 {
		return nil, fmt.Errorf("%w: layer sizes in=%d hidden=%v out=%d", ErrInvalidDimension, inputNodes, hidden, outputNodes)
	}
	for _, h := range hidden {
		if h <= 0 {
			return nil, fmt.Errorf("%w: hidden layer sizes %v", ErrInvalidDimension, hidden)
		}
	}

	task := opts.Task
	if task == "" {
		task = TaskRegression
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = DefaultLearningRate
	}

	nn := &NeuralNetwork{
		inputNodes:   inputNodes,
		hiddenLayers: append([]int(nil), hidden...),
		outputNodes:  outputNodes,
		learningRate: lr,
		task:         task,
	}

	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, inputNodes)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, outputNodes)

	for i := 1; i < len(sizes); i++ {
		w := newMatrix(sizes[i], sizes[i-1])
		w.Randomize()
		b := newMatrix(sizes[i], 1)
		b.Randomize()
		nn.weights = append(nn.weights, w)
		nn.biases = append(nn.biases, b)
	}

	nn.activations = resolveActivations(opts.Activations, len(hidden), task)
	return nn, nil
}

// resolveActivations maps the requested schedule onto the layer
// transitions, or falls back to the default schedule when the list
// length does not match.
func resolveActivations(names []string, hiddenCount int, task TaskType) []Activation {
	transitions := hiddenCount + 1
	if len(names) == transitions {
		acts := make([]Activation, transitions)
		for i, name := range names {
			acts[i] = ActivationByName(name)
		}
		return acts
	}
	if len(names) != 0 {
		log.Warn().
			Int("want", transitions).
			Int("got", len(names)).
			Msg("activation list length mismatch, using default schedule")
	}
	acts := make([]Activation, transitions)
	for i := 0; i < hiddenCount; i++ {
		acts[i] = ActTanh
	}
	if task == TaskClassification {
		acts[hiddenCount] = ActSigmoid
	} else {
		acts[hiddenCount] = ActIdentity
	}
	return acts
}

// Clone returns an independent deep copy of the network, including all
// weights, biases, activation schedule and hyperparameters.
func (nn *NeuralNetwork) Clone() *NeuralNetwork {
	out := &NeuralNetwork{
		inputNodes:   nn.inputNodes,
		hiddenLayers: append([]int(nil), nn.hiddenLayers...),
		outputNodes:  nn.outputNodes,
		weights:      make([]*Matrix, len(nn.weights)),
		biases:       make([]*Matrix, len(nn.biases)),
		activations:  append([]Activation(nil), nn.activations...),
		learningRate: nn.learningRate,
		task:         nn.task,
	}
	for i := range nn.weights {
		out.weights[i] = nn.weights[i].Copy()
		out.biases[i] = nn.biases[i].Copy()
	}
	if nn.lastInputs != nil {
		out.lastInputs = append([]float64(nil), nn.lastInputs...)
	}
	return out
}

// ------- READ ACCESSORS (for the visualization layer) ------- //

func (nn *NeuralNetwork) InputNodes() int  { return nn.inputNodes }
func (nn *NeuralNetwork) OutputNodes() int { return nn.outputNodes }

func (nn *NeuralNetwork) HiddenLayers() []int {
	return append([]int(nil), nn.hiddenLayers...)
}

// Weights returns the per-transition weight matrices. The slice is a
// copy but the matrices are the live ones; renderers read them in
// place between training steps.
func (nn *NeuralNetwork) Weights() []*Matrix {
	return append([]*Matrix(nil), nn.weights...)
}

func (nn *NeuralNetwork) Biases() []*Matrix {
	return append([]*Matrix(nil), nn.biases...)
}

func (nn *NeuralNetwork) Activations() []Activation {
	return append([]Activation(nil), nn.activations...)
}

func (nn *NeuralNetwork) LearningRate() float64 { return nn.learningRate }
func (nn *NeuralNetwork) Task() TaskType        { return nn.task }

// LastInputs returns the input vector of the most recent Predict call,
// or nil before the first prediction.
func (nn *NeuralNetwork) LastInputs() []float64 {
	return append([]float64(nil), nn.lastInputs...)
}

// ------- INFERENCE ------- //

// feedForward runs the forward pass and returns both the per-layer
// activations (input first, output last) and the pre-activation z
// matrices, one per layer transition.
func (nn *NeuralNetwork) feedForward(input []float64) (acts, zs []*Matrix, err error) {
	if len(input) != nn.inputNodes {
		return nil, nil, fmt.Errorf("%w: input length %d, want %d", ErrShapeMismatch, len(input), nn.inputNodes)
	}

	acts = make([]*Matrix, 0, len(nn.weights)+1)
	zs = make([]*Matrix, 0, len(nn.weights))
	acts = append(acts, FromArray(input))

	for i, w := range nn.weights {
		z, err := MatMul(w, acts[i])
		if err != nil {
			return nil, nil, err
		}
		if err := z.Add(nn.biases[i]); err != nil {
			return nil, nil, err
		}
		zs = append(zs, z)

		var a *Matrix
		if nn.activations[i] == ActSoftmax {
			// softmax must see the whole layer at once
			vec, err := Softmax(z.ToArray())
			if err != nil {
				return nil, nil, err
			}
			a = FromArray(vec)
		} else {
			act := nn.activations[i]
			a = ApplyNew(z, func(v float64, _, _ int) float64 { return act.Forward(v) })
		}
		acts = append(acts, a)
	}
	return acts, zs, nil
}

// FeedForwardAllLayers returns the ordered per-layer activation
// matrices, starting with the input itself as a column matrix and
// ending with the output layer.
func (nn *NeuralNetwork) FeedForwardAllLayers(input []float64) ([]*Matrix, error) {
	acts, _, err := nn.feedForward(input)
	return acts, err
}

// Predict runs the forward pass and returns the flattened output
// layer. It also records the input as LastInputs for the renderer.
func (nn *NeuralNetwork) Predict(input []float64) ([]float64, error) {
	acts, _, err := nn.feedForward(input)
	if err != nil {
		return nil, err
	}
	nn.lastInputs = append(nn.lastInputs[:0], input...)
	return acts[len(acts)-1].ToArray(), nil
}

// ------- TRAINING ------- //

// Train performs one step of online gradient descent on a single
// (input, target) pair, updating weights and biases in place.
//
// The output error keeps the historical per-task sign convention:
// target-output for regression, output-target for classification. The
// sign is absorbed into the update scale so both tasks descend.
func (nn *NeuralNetwork) Train(input, target []float64) error {
	if len(target) != nn.outputNodes {
		return fmt.Errorf("%w: target length %d, want %d", ErrShapeMismatch, len(target), nn.outputNodes)
	}

	acts, zs, err := nn.feedForward(input)
	if err != nil {
		return err
	}

	output := acts[len(acts)-1]
	targetMat := FromArray(target)

	var errMat *Matrix
	step := nn.learningRate
	if nn.task == TaskClassification {
		errMat, err = Subtract(output, targetMat)
		step = -nn.learningRate
	} else {
		errMat, err = Subtract(targetMat, output)
	}
	if err != nil {
		return err
	}

	for l := len(nn.weights) - 1; l >= 0; l-- {
		act := nn.activations[l]
		gradient := ApplyNew(zs[l], func(v float64, _, _ int) float64 { return act.Derivative(v) })
		if err := gradient.MulElem(errMat); err != nil {
			return err
		}
		gradient.Scale(step)

		// error must propagate through the pre-update weights
		var prevErr *Matrix
		if l > 0 {
			prevErr, err = MatMul(Transpose(nn.weights[l]), errMat)
			if err != nil {
				return err
			}
		}

		deltaW, err := MatMul(gradient, Transpose(acts[l]))
		if err != nil {
			return err
		}
		if err := nn.weights[l].Add(deltaW); err != nil {
			return err
		}
		if err := nn.biases[l].Add(gradient); err != nil {
			return err
		}

		errMat = prevErr
	}
	return nil
}

// ErrorMetric selects how CalculateError aggregates per-output
// differences.
type ErrorMetric int

const (
	MeanSquared ErrorMetric = iota
	SumSquared
	MeanAbsolute
	SumAbsolute
)

// CalculateError aggregates the difference between outputs and
// targets. It is a convergence signal for callers; training never
// consumes it.
func CalculateError(outputs, targets []float64, metric ErrorMetric) (float64, error) {
	if len(outputs) != len(targets) {
		return 0, fmt.Errorf("%w: %d outputs vs %d targets", ErrShapeMismatch, len(outputs), len(targets))
	}
	if len(outputs) == 0 {
		return 0, fmt.Errorf("%w: no outputs", ErrEmptyInput)
	}

	sum := 0.0
	for i := range outputs {
		d := outputs[i] - targets[i]
		switch metric {
		case MeanSquared, SumSquared:
			sum += d * d
		case MeanAbsolute, SumAbsolute:
			if d < 0 {
				d = -d
			}
			sum += d
		default:
			return 0, fmt.Errorf("%w: unknown error metric %d", ErrInvalidArgument, metric)
		}
	}
	if metric == MeanSquared || metric == MeanAbsolute {
		return sum / float64(len(outputs)), nil
	}
	return sum, nil
}
