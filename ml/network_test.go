package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetworkInvalidSizes(t *testing.T) {
	_, err := NewNetwork(0, []int{4}, 1, Options{})
	require.ErrorIs(t, err, ErrInvalidDimension)
	_, err = NewNetwork(2, nil, 1, Options{})
	require.ErrorIs(t, err, ErrInvalidDimension)
	_, err = NewNetwork(2, []int{4, 0}, 1, Options{})
	require.ErrorIs(t, err, ErrInvalidDimension)
	_, err = NewNetwork(2, []int{4}, -1, Options{})
	require.ErrorIs(t, err, ErrInvalidDimension)
}

func TestNewNetworkShapes(t *testing.T) {
	nn, err := NewNetwork(3, []int{5, 4}, 2, Options{})
	require.NoError(t, err)

	weights := nn.Weights()
	biases := nn.Biases()
	require.Len(t, weights, 3)
	require.Len(t, biases, 3)

	wantShapes := [][2]int{{5, 3}, {4, 5}, {2, 4}}
	for i, want := range wantShapes {
		assert.Equal(t, want[0], weights[i].Rows(), "weights[%d]", i)
		assert.Equal(t, want[1], weights[i].Cols(), "weights[%d]", i)
		assert.Equal(t, want[0], biases[i].Rows(), "biases[%d]", i)
		assert.Equal(t, 1, biases[i].Cols(), "biases[%d]", i)
	}

	assert.Equal(t, 3, nn.InputNodes())
	assert.Equal(t, []int{5, 4}, nn.HiddenLayers())
	assert.Equal(t, 2, nn.OutputNodes())
	assert.Equal(t, DefaultLearningRate, nn.LearningRate())
	assert.Equal(t, TaskRegression, nn.Task())
}

func TestDefaultActivationSchedule(t *testing.T) {
	reg, err := NewNetwork(2, []int{4, 3}, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Activation{ActTanh, ActTanh, ActIdentity}, reg.Activations())

	clf, err := NewNetwork(2, []int{4, 3}, 1, Options{Task: TaskClassification})
	require.NoError(t, err)
	assert.Equal(t, []Activation{ActTanh, ActTanh, ActSigmoid}, clf.Activations())
}

func TestActivationListResolution(t *testing.T) {
	nn, err := NewNetwork(2, []int{4}, 1, Options{
		Activations: []string{"relu", "softmax"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Activation{ActRelu, ActSoftmax}, nn.Activations())

	// wrong length falls back to the default schedule
	nn, err = NewNetwork(2, []int{4}, 1, Options{
		Activations: []string{"relu", "relu", "relu"},
		Task:        TaskClassification,
	})
	require.NoError(t, err)
	assert.Equal(t, []Activation{ActTanh, ActSigmoid}, nn.Activations())

	// unknown names resolve to identity
	nn, err = NewNetwork(2, []int{4}, 1, Options{
		Activations: []string{"mystery", "sigmoid"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Activation{ActIdentity, ActSigmoid}, nn.Activations())
}

func TestFeedForwardAllLayers(t *testing.T) {
	nn, err := NewNetwork(2, []int{4}, 1, Options{})
	require.NoError(t, err)

	layers, err := nn.FeedForwardAllLayers([]float64{0, 0})
	require.NoError(t, err)
	require.Len(t, layers, 3)

	assert.Equal(t, 2, layers[0].Rows())
	assert.Equal(t, 4, layers[1].Rows())
	assert.Equal(t, 1, layers[2].Rows())
	for _, l := range layers {
		assert.Equal(t, 1, l.Cols())
	}
	assert.Equal(t, []float64{0, 0}, layers[0].ToArray())
}

func TestFeedForwardInputMismatch(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4}, 1, Options{})
	_, err := nn.FeedForwardAllLayers([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = nn.Predict([]float64{1})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPredictRecordsLastInputs(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4}, 1, Options{})
	assert.Empty(t, nn.LastInputs())

	out, err := nn.Predict([]float64{0.25, 0.75})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float64{0.25, 0.75}, nn.LastInputs())
}

func TestSoftmaxOutputLayer(t *testing.T) {
	nn, err := NewNetwork(3, []int{5}, 4, Options{
		Activations: []string{"tanh", "softmax"},
		Task:        TaskClassification,
	})
	require.NoError(t, err)

	out, err := nn.Predict([]float64{1, 0, 1})
	require.NoError(t, err)
	require.Len(t, out, 4)

	sum := 0.0
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTrainTargetMismatch(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4}, 1, Options{})
	require.ErrorIs(t, nn.Train([]float64{0, 1}, []float64{1, 0}), ErrShapeMismatch)
	require.ErrorIs(t, nn.Train([]float64{0, 1, 2}, []float64{1}), ErrShapeMismatch)
}

func TestTrainMovesTowardTarget(t *testing.T) {
	nn, err := NewNetwork(1, []int{3}, 1, Options{LearningRate: 0.1})
	require.NoError(t, err)

	input := []float64{0.5}
	target := []float64{0.8}

	before, err := nn.Predict(input)
	require.NoError(t, err)
	errBefore, _ := CalculateError(before, target, MeanSquared)

	for i := 0; i < 50; i++ {
		require.NoError(t, nn.Train(input, target))
	}

	after, err := nn.Predict(input)
	require.NoError(t, err)
	errAfter, _ := CalculateError(after, target, MeanSquared)

	assert.Less(t, errAfter, errBefore)
}

func TestCloneIsDeep(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4}, 1, Options{LearningRate: 0.2, Task: TaskClassification})
	clone := nn.Clone()

	assert.Equal(t, nn.Weights()[0].ToArray(), clone.Weights()[0].ToArray())
	assert.Equal(t, nn.LearningRate(), clone.LearningRate())
	assert.Equal(t, nn.Task(), clone.Task())
	assert.Equal(t, nn.Activations(), clone.Activations())

	snapshot := clone.Weights()[0].ToArray()
	require.NoError(t, nn.Train([]float64{1, 0}, []float64{1}))
	assert.Equal(t, snapshot, clone.Weights()[0].ToArray(), "training the original must not touch the clone")
}

func TestCalculateError(t *testing.T) {
	outputs := []float64{1, 2}
	targets := []float64{0, 0}

	ms, err := CalculateError(outputs, targets, MeanSquared)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, ms, 1e-12)

	ss, _ := CalculateError(outputs, targets, SumSquared)
	assert.InDelta(t, 5.0, ss, 1e-12)

	ma, _ := CalculateError(outputs, targets, MeanAbsolute)
	assert.InDelta(t, 1.5, ma, 1e-12)

	sa, _ := CalculateError(outputs, targets, SumAbsolute)
	assert.InDelta(t, 3.0, sa, 1e-12)

	_, err = CalculateError([]float64{1}, []float64{1, 2}, MeanSquared)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CalculateError(nil, nil, MeanSquared)
	require.ErrorIs(t, err, ErrEmptyInput)
	_, err = CalculateError(outputs, targets, ErrorMetric(42))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

var xorSamples = []Sample{
	{Inputs: []float64{0, 0}, Targets: []float64{0}},
	{Inputs: []float64{0, 1}, Targets: []float64{1}},
	{Inputs: []float64{1, 0}, Targets: []float64{1}},
	{Inputs: []float64{1, 1}, Targets: []float64{0}},
}

// TestXORConvergence is a bounded-time learnability check: a fresh
// 2-[4,3]-1 classification network must push XOR mean squared error
// below 0.05 within 5000 epochs. Random initialization occasionally
// lands in a bad basin, so a couple of restarts are allowed.
func TestXORConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence check in short mode")
	}

	const attempts = 3
	for attempt := 1; attempt <= attempts; attempt++ {
		nn, err := NewNetwork(2, []int{4, 3}, 1, Options{
			LearningRate: 0.5,
			Activations:  []string{"tanh", "tanh", "sigmoid"},
			Task:         TaskClassification,
		})
		require.NoError(t, err)

		history, err := TrainEpochs(nn, xorSamples, TrainingConfig{
			Epochs:      5000,
			Shuffle:     true,
			Metric:      MeanSquared,
			TargetError: 0.05,
		})
		require.NoError(t, err)
		require.NotEmpty(t, history)

		if history[len(history)-1] < 0.05 {
			return
		}
		t.Logf("attempt %d did not converge (mse %.4f)", attempt, history[len(history)-1])
	}
	t.Fatalf("XOR failed to converge in %d attempts", attempts)
}

func TestTrainEpochsHistoryAndEarlyStop(t *testing.T) {
	nn, err := NewNetwork(2, []int{4}, 1, Options{
		LearningRate: 0.5,
		Activations:  []string{"tanh", "sigmoid"},
		Task:         TaskClassification,
	})
	require.NoError(t, err)

	andSamples := []Sample{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{0}},
		{Inputs: []float64{1, 0}, Targets: []float64{0}},
		{Inputs: []float64{1, 1}, Targets: []float64{1}},
	}

	history, err := TrainEpochs(nn, andSamples, TrainingConfig{
		Epochs:      2000,
		Shuffle:     true,
		Metric:      MeanSquared,
		TargetError: 0.05,
	})
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.LessOrEqual(t, len(history), 2000)
	assert.Less(t, history[len(history)-1], history[0])
}
