package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/dataset"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/loss"
	"github.com/vanyle/vlearn/internal/net"
	"github.com/vanyle/vlearn/internal/rng"
)

// Digit recognition on IDX files (MNIST): two strided convolutions shrink
// the image by 4 on each side before two dense layers.
func main() {
	images := flag.String("images", "training_data/train-images.idx3-ubyte", "IDX image file, optionally gzipped")
	labels := flag.String("labels", "training_data/train-labels.idx1-ubyte", "IDX label file, optionally gzipped")
	seed := flag.Uint("seed", rng.DefaultSeed, "random seed")
	epochs := flag.Int("epochs", 100, "number of epochs")
	rate := flag.Float64("rate", 0.001, "learning rate")
	limit := flag.Int("limit", 0, "use at most this many samples; 0 uses all")
	split := flag.Float64("split", 0.9, "fraction of samples used for training")
	softmax := flag.Bool("softmax", false, "end with a SoftMax layer and cross-entropy loss")
	cores := flag.Int("cores", 0, "train with this many goroutines; 0 trains sample by sample")
	csvPath := flag.String("csv", "", "write per-epoch statistics to this CSV file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	rng.Seed(uint32(*seed))

	data, err := dataset.LoadIDX(*images, *labels)
	if err != nil {
		slog.Error("load training data", "err", err)
		os.Exit(1)
	}
	if *limit > 0 && *limit < data.Len() {
		data.Samples, data.Labels = data.Samples[:*limit], data.Labels[:*limit]
	}
	side := 0
	for side*side < len(data.Samples[0]) {
		side++
	}
	slog.Info("training data loaded", "items", data.Len(), "width", side, "height", side)

	data.Shuffle()
	train, test := data.Split(float32(*split))
	trainX, trainY := train.Vectors()
	testX, testY := test.Vectors()

	pixels := side * side
	c1 := layer.NewConv(pixels, 2, 8, 8)
	c1.RandomInit(2, 1)
	c2 := layer.NewConv(pixels/4, 2, 8, 8)
	c2.RandomInit(2, 1)
	d1 := layer.NewDense(pixels/16, 30, activations.LeakyReLU)
	d1.RandomInit(3, 0)
	d2 := layer.NewDense(30, dataset.Classes, activations.LeakyReLU)
	d2.RandomInit(3, 0)

	network := net.New(c1, c2, d1, d2)
	if *softmax {
		network = net.New(c1, c2, d1, d2, layer.NewSoftMax(dataset.Classes))
		network.ErrorFunction = loss.CrossEntropy
	}
	network.CoreCount = *cores
	network.Prepare()
	fmt.Print(network)

	callbacks := []net.Callback{net.Logger{Interval: 1}}
	if *csvPath != "" {
		callbacks = append(callbacks, net.NewCSVLogger(*csvPath, false))
	}

	fmt.Printf("Initial loss: %.6f\n", network.Loss(trainX, trainY))
	h := network.Fit(trainX, trainY, net.FitConfig{
		Epochs:    *epochs,
		Rate:      float32(*rate),
		Parallel:  *cores > 0,
		Callbacks: callbacks,
	})
	fmt.Printf("Final loss: %.6f after %d epochs\n", h.Final(), h.Epochs())
	fmt.Printf("Training accuracy: %.1f%%\n", accuracy(network, trainX, trainY)*100)
	if len(testX) > 0 {
		fmt.Printf("Test accuracy: %.1f%%\n", accuracy(network, testX, testY)*100)
	}
}

func accuracy(n *net.Network, inputs, outputs []*linalg.Vector) float64 {
	if len(inputs) == 0 {
		return 0
	}
	correct := 0
	for i, x := range inputs {
		if dataset.ArgMax(n.Apply(x).Raw()) == dataset.ArgMax(outputs[i].Raw()) {
			correct++
		}
	}
	return float64(correct) / float64(len(inputs))
}
