package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateRateValidation(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4}, 1, Options{})
	require.ErrorIs(t, nn.Mutate(-0.1), ErrInvalidArgument)
	require.ErrorIs(t, nn.Mutate(1.1), ErrInvalidArgument)
}

func TestMutateZeroIsNoOp(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4, 3}, 1, Options{})
	before := snapshot(nn)

	require.NoError(t, nn.Mutate(0))
	assert.Equal(t, before, snapshot(nn))
}

func TestMutateOneChangesEveryScalar(t *testing.T) {
	nn, _ := NewNetwork(2, []int{4, 3}, 1, Options{})
	before := snapshot(nn)

	require.NoError(t, nn.Mutate(1))
	after := snapshot(nn)

	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
		}
	}
	// randomized init is nonzero almost surely, so every operator
	// produces a visible change
	assert.Equal(t, len(before), changed)
}

func TestCrossoverStructureMismatch(t *testing.T) {
	base, _ := NewNetwork(2, []int{4}, 1, Options{})

	otherInput, _ := NewNetwork(3, []int{4}, 1, Options{})
	_, err := Crossover(base, otherInput)
	require.ErrorIs(t, err, ErrStructureMismatch)

	otherOutput, _ := NewNetwork(2, []int{4}, 2, Options{})
	_, err = Crossover(base, otherOutput)
	require.ErrorIs(t, err, ErrStructureMismatch)

	otherDepth, _ := NewNetwork(2, []int{4, 4}, 1, Options{})
	_, err = Crossover(base, otherDepth)
	require.ErrorIs(t, err, ErrStructureMismatch)

	otherWidth, _ := NewNetwork(2, []int{5}, 1, Options{})
	_, err = Crossover(base, otherWidth)
	require.ErrorIs(t, err, ErrStructureMismatch)
}

func TestCrossoverChildFromParents(t *testing.T) {
	a, _ := NewNetwork(2, []int{6}, 1, Options{LearningRate: 0.1})
	b, _ := NewNetwork(2, []int{6}, 1, Options{LearningRate: 0.9})

	child, err := Crossover(a, b)
	require.NoError(t, err)

	require.Equal(t, a.InputNodes(), child.InputNodes())
	require.Equal(t, a.HiddenLayers(), child.HiddenLayers())
	require.Equal(t, a.OutputNodes(), child.OutputNodes())

	// every scalar comes from exactly one parent
	aw, bw, cw := a.Weights(), b.Weights(), child.Weights()
	for l := range cw {
		ad, bd, cd := aw[l].Data(), bw[l].Data(), cw[l].Data()
		for i := range cd {
			assert.True(t, cd[i] == ad[i] || cd[i] == bd[i],
				"weights[%d][%d] = %v from neither parent", l, i, cd[i])
		}
	}

	// hyperparameters come wholesale from one parent
	lr := child.LearningRate()
	assert.True(t, lr == a.LearningRate() || lr == b.LearningRate())

	// the child owns its matrices
	childSnapshot := snapshot(child)
	require.NoError(t, a.Train([]float64{1, 0}, []float64{1}))
	assert.Equal(t, childSnapshot, snapshot(child))
}

// snapshot flattens all weights and biases into one comparable slice.
func snapshot(nn *NeuralNetwork) []float64 {
	var out []float64
	for i, w := range nn.Weights() {
		out = append(out, w.ToArray()...)
		out = append(out, nn.Biases()[i].ToArray()...)
	}
	return out
}
