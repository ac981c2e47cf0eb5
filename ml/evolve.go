package ml

import (
	"fmt"
	"math/rand"
)

// Evolutionary operators. These act on the same NeuralNetwork value as
// gradient training but never interact with it; a population can be
// mutated and recombined while individual members are still trainable.

// Mutate perturbs every weight and bias scalar with probability rate,
// picking one of five operators per hit: add Gaussian noise (sd 0.1),
// zero, negate, replace with uniform [-1,1], or scale by
// 0.5 + uniform[0,1).
func (nn *NeuralNetwork) Mutate(rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrInvalidArgument, rate)
	}
	for i := range nn.weights {
		nn.weights[i].Apply(mutateValue(rate))
		nn.biases[i].Apply(mutateValue(rate))
	}
	return nil
}

func mutateValue(rate float64) func(v float64, r, c int) float64 {
	return func(v float64, _, _ int) float64 {
		if rand.Float64() >= rate {
			return v
		}
		switch rand.Intn(5) {
		case 0:
			return v + rand.NormFloat64()*0.1
		case 1:
			return 0
		case 2:
			return -v
		case 3:
			return rand.Float64()*2 - 1
		default:
			return v * (0.5 + rand.Float64())
		}
	}
}

// Crossover produces a child whose every weight and bias scalar is
// copied from parentA or parentB with equal probability. Learning
// rate, activation schedule and task type are inherited wholesale from
// one randomly chosen parent.
func Crossover(parentA, parentB *NeuralNetwork) (*NeuralNetwork, error) {
	if parentA.inputNodes != parentB.inputNodes ||
		parentA.outputNodes != parentB.outputNodes ||
		len(parentA.hiddenLayers) != len(parentB.hiddenLayers) {
		return nil, fmt.Errorf("%w: parents %d-%v-%d and %d-%v-%d",
			ErrStructureMismatch,
			parentA.inputNodes, parentA.hiddenLayers, parentA.outputNodes,
			parentB.inputNodes, parentB.hiddenLayers, parentB.outputNodes)
	}
	// per-scalar copying needs identical layer widths, not just count
	for i, h := range parentA.hiddenLayers {
		if h != parentB.hiddenLayers[i] {
			return nil, fmt.Errorf("%w: hidden layers %v vs %v",
				ErrStructureMismatch, parentA.hiddenLayers, parentB.hiddenLayers)
		}
	}

	donor := parentA
	if rand.Float64() < 0.5 {
		donor = parentB
	}
	child := donor.Clone()
	child.lastInputs = nil

	for l := range child.weights {
		pick(child.weights[l], parentA.weights[l], parentB.weights[l])
		pick(child.biases[l], parentA.biases[l], parentB.biases[l])
	}
	return child, nil
}

// pick fills dst elementwise from a or b with probability 0.5 each.
func pick(dst, a, b *Matrix) {
	for i := range dst.data {
		if rand.Float64() < 0.5 {
			dst.data[i] = a.data[i]
		} else {
			dst.data[i] = b.data[i]
		}
	}
}
