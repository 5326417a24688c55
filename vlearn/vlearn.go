// Package vlearn re-exports the network building blocks for use outside this
// module.
package vlearn

import (
	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/dataset"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/loss"
	"github.com/vanyle/vlearn/internal/net"
	"github.com/vanyle/vlearn/internal/opt"
	"github.com/vanyle/vlearn/internal/rng"
)

// Re-export common types and functions for easier access
type (
	Network    = net.Network
	Layer      = layer.Layer
	Vector     = linalg.Vector
	Matrix     = linalg.Matrix
	Optimizer  = opt.Optimizer
	Schedule   = opt.Schedule
	Activation = activations.Kind
	Loss       = loss.Kind
	Dataset    = dataset.Dataset
	FitConfig  = net.FitConfig
	History    = net.History
	Callback   = net.Callback
)

// New builds a network from layers. Call Prepare before training.
func New(layers ...Layer) *Network {
	return net.New(layers...)
}

// Vectors
func NewVector(size int) *Vector {
	return linalg.NewVector(size)
}

func VectorOf(values ...float32) *Vector {
	return linalg.VectorOf(values...)
}

// Activations
const (
	LeakyReLU = activations.LeakyReLU
	Sigmoid   = activations.Sigmoid
	Tanh      = activations.Tanh
	ReLU      = activations.ReLU
	Softplus  = activations.Softplus
)

// Losses
const (
	L2           = loss.L2
	CrossEntropy = loss.CrossEntropy
)

// Layers
func Dense(in, out int, act Activation) *layer.Dense {
	return layer.NewDense(in, out, act)
}

func Conv(inputSize, reduction, kernelWidth, kernelHeight int) *layer.Conv {
	return layer.NewConv(inputSize, reduction, kernelWidth, kernelHeight)
}

func BatchNorm(size int) *layer.BatchNorm {
	return layer.NewBatchNorm(size)
}

func SoftMax(size int) *layer.SoftMax {
	return layer.NewSoftMax(size)
}

// Optimizers
func Constant(lr float32) *opt.Constant {
	return opt.NewConstant(lr)
}

func Adam(lr float32) *opt.Adam {
	return opt.NewAdam(lr)
}

func DecayOnIncrease(factor float32) *opt.DecayOnIncrease {
	return opt.NewDecayOnIncrease(factor)
}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func EarlyStopping(patience int, minDelta float32) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func CSVLogger(filename string) *net.CSVLogger {
	return net.NewCSVLogger(filename, false)
}

// Data
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	return dataset.LoadIDX(imagesPath, labelsPath)
}

func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return dataset.LoadCSV(filename, labelCols, hasHeader)
}

// Seed reseeds the generator behind weight initialization and shuffling.
func Seed(seed uint32) {
	rng.Seed(seed)
}
