// Package activations provides the pointwise activation functions of dense
// layers.
//
// The set is closed. Every derivative is written in terms of the activation's
// output y = f(x) instead of its input, because backpropagation only keeps the
// cached forward outputs.
package activations

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Kind selects an activation function.
type Kind uint8

const (
	// LeakyReLU is the default: x for x > 0, 0.01x otherwise.
	LeakyReLU Kind = iota
	Sigmoid
	Tanh
	ReLU
	// Softplus is log(1 + e^x), a smooth ReLU.
	Softplus
)

// LeakySlope is the LeakyReLU slope for non-positive inputs.
const LeakySlope = 0.01

type entry struct {
	name       string
	activate   func(x float32) float32
	derivative func(y float32) float32
}

var table = [...]entry{
	LeakyReLU: {"leakyrelu", leakyReLU, leakyReLUDerivative},
	Sigmoid:   {"sigmoid", sigmoid, sigmoidDerivative},
	Tanh:      {"tanh", math32.Tanh, tanhDerivative},
	ReLU:      {"relu", relu, reluDerivative},
	Softplus:  {"softplus", softplus, softplusDerivative},
}

func (k Kind) entry() entry {
	if int(k) >= len(table) {
		panic(fmt.Sprintf("activations: unknown kind %d", k))
	}
	return table[k]
}

// Activate computes f(x).
func (k Kind) Activate(x float32) float32 {
	return k.entry().activate(x)
}

// Derivative computes f'(x) given y = f(x).
func (k Kind) Derivative(y float32) float32 {
	return k.entry().derivative(y)
}

func (k Kind) String() string {
	if int(k) >= len(table) {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return table[k].name
}

// Parse maps a name to a Kind. Unknown names, including the empty string,
// select LeakyReLU. "softmax" is accepted as an alias of Softplus: as a
// pointwise function the name has always meant log(1 + e^x).
func Parse(name string) Kind {
	switch strings.ToLower(name) {
	case "sigmoid":
		return Sigmoid
	case "tanh":
		return Tanh
	case "relu":
		return ReLU
	case "softplus", "softmax":
		return Softplus
	default:
		return LeakyReLU
	}
}

func leakyReLU(x float32) float32 {
	if x > 0 {
		return x
	}
	return LeakySlope * x
}

// The sign of y equals the sign of x.
func leakyReLUDerivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return LeakySlope
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// sigmoid' = sigmoid * (1 - sigmoid)
func sigmoidDerivative(y float32) float32 {
	return y * (1 - y)
}

// tanh' = 1 - tanh²
func tanhDerivative(y float32) float32 {
	return 1 - y*y
}

func relu(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

func reluDerivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return 0
}

func softplus(x float32) float32 {
	return math32.Log1p(math32.Exp(x))
}

// softplus' = sigmoid(x) = 1 - e^-y
func softplusDerivative(y float32) float32 {
	return 1 - math32.Exp(-y)
}
