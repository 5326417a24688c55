package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/dataset"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/net"
	"github.com/vanyle/vlearn/internal/opt"
	"github.com/vanyle/vlearn/internal/rng"
)

// Regression example: learn y = 3x₀ + 5x₁ + 0x₂ with a 3-4-1 leaky network.
func main() {
	seed := flag.Uint("seed", rng.DefaultSeed, "random seed; 0 seeds from the clock")
	epochs := flag.Int("epochs", 2000, "maximum number of epochs")
	rate := flag.Float64("rate", 0.001, "initial learning rate")
	samples := flag.Int("samples", 1000, "number of training samples")
	target := flag.Float64("target", 0.5, "stop once the loss is below this value")
	cores := flag.Int("cores", 0, "train with this many goroutines; 0 trains sample by sample")
	csvPath := flag.String("csv", "", "write per-epoch statistics to this CSV file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *seed == 0 {
		rng.SeedTime()
	} else {
		rng.Seed(uint32(*seed))
	}

	fmt.Println("=== Linear Regression ===")

	l1 := layer.NewDense(3, 4, activations.LeakyReLU)
	l2 := layer.NewDense(4, 1, activations.LeakyReLU)
	l1.RandomInit(5, 0)
	l2.RandomInit(5, 0)
	network := net.New(l1, l2)
	network.CoreCount = *cores

	data := dataset.Linear(*samples, []float32{3, 5, 0}, -10, 10)
	inputs, outputs := data.Vectors()
	network.Prepare()
	fmt.Print(network)

	callbacks := []net.Callback{net.Logger{Interval: 10}}
	if *csvPath != "" {
		callbacks = append(callbacks, net.NewCSVLogger(*csvPath, false))
	}

	start := time.Now()
	fmt.Printf("Initial loss: %.6f\n", network.Loss(inputs, outputs))
	h := network.Fit(inputs, outputs, net.FitConfig{
		Epochs:     *epochs,
		Rate:       float32(*rate),
		TargetLoss: float32(*target),
		Schedule:   opt.NewDecayOnIncrease(0.99),
		Parallel:   *cores > 0,
		Callbacks:  callbacks,
	})
	fmt.Printf("Final loss: %.6f after %d epochs (%v), rate %.6g\n",
		h.Final(), h.Epochs(), time.Since(start).Round(time.Millisecond), h.Rate)

	fmt.Println("Test predictions:")
	for _, x := range [][]float32{{3, 1, 2}, {0, 0, 0}, {-4, 2, 7}} {
		pred := network.Apply(linalg.VectorOf(x...))
		expected := 3*x[0] + 5*x[1]
		fmt.Printf("  x=%v: predicted=%.4f, expected=%.4f\n", x, pred.At(0), expected)
	}

	if !h.Reached {
		os.Exit(1)
	}
}
