package ml

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Activation is a closed set of per-layer nonlinearities. Each value
// carries its forward mapping and the derivative with respect to the
// pre-activation z. Resolution by name happens once, at network
// construction; afterwards the enum travels as plain data.
type Activation int

const (
	ActIdentity Activation = iota
	ActSigmoid
	ActRelu
	ActTanh
	ActSoftmax
)

var activationNames = map[Activation]string{
	ActIdentity: "identity",
	ActSigmoid:  "sigmoid",
	ActRelu:     "relu",
	ActTanh:     "tanh",
	ActSoftmax:  "softmax",
}

var activationsByName = map[string]Activation{
	"identity": ActIdentity,
	"sigmoid":  ActSigmoid,
	"relu":     ActRelu,
	"tanh":     ActTanh,
	"softmax":  ActSoftmax,
}

// ActivationByName resolves a wire name. Unknown names fall back to
// identity with a warning instead of failing, so a stale architecture
// description still yields a usable network.
func ActivationByName(name string) Activation {
	act, ok := activationsByName[name]
	if !ok {
		log.Warn().Str("name", name).Msg("unknown activation function, falling back to identity")
		return ActIdentity
	}
	return act
}

func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activation(%d)", int(a))
}

// Forward applies the scalar activation to z. Softmax is a vector
// function and passes scalars through unchanged; the network applies
// Softmax to the whole layer instead.
func (a Activation) Forward(z float64) float64 {
	switch a {
	case ActSigmoid:
		// exp(709) is the float64 overflow edge
		if z < -709 {
			return 0
		}
		return 1.0 / (1.0 + math.Exp(-z))
	case ActRelu:
		return math.Max(0, z)
	case ActTanh:
		return math.Tanh(z)
	default:
		return z
	}
}

// Derivative evaluates d(forward)/dz at the pre-activation z. The
// softmax derivative is a crude constant-1 approximation, matching the
// documented limitation of the engine's backprop.
func (a Activation) Derivative(z float64) float64 {
	switch a {
	case ActSigmoid:
		s := a.Forward(z)
		return s * (1 - s)
	case ActRelu:
		if z > 0 {
			return 1
		}
		return 0
	case ActTanh:
		t := math.Tanh(z)
		return 1 - t*t
	default:
		// identity and softmax
		return 1
	}
}

// Softmax maps the whole pre-activation vector to a probability
// distribution, subtracting the max for numeric stability. A zero
// exponential sum yields the uniform distribution.
func Softmax(z []float64) ([]float64, error) {
	if len(z) == 0 {
		return nil, fmt.Errorf("%w: softmax of empty vector", ErrEmptyInput)
	}
	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]float64, len(z))
	sum := 0.0
	for i, v := range z {
		e := math.Exp(v - maxVal)
		out[i] = e
		sum += e
	}
	if sum == 0 {
		uniform := 1.0 / float64(len(z))
		for i := range out {
			out[i] = uniform
		}
		return out, nil
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}
