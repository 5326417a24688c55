package layer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/vanyle/vlearn/internal/linalg"
)

// BatchNorm replaces each input by its standard score within that same input:
// (x_i - mean(x)) / std(x), std being the population standard deviation.
// There are no running statistics and no learned scale or shift.
//
// A constant input has zero deviation and produces NaN everywhere.
type BatchNorm struct {
	base
	frozen
}

// NewBatchNorm creates a normalization layer over size values.
func NewBatchNorm(size int) *BatchNorm {
	return &BatchNorm{base: base{in: size, out: size}}
}

func (b *BatchNorm) Kind() Kind { return KindBatchNorm }

func (b *BatchNorm) Apply(x *linalg.Vector) *linalg.Vector {
	b.mustInput("BatchNorm.Apply", x)
	mean, std := moments(x)
	r := x.Clone()
	rs := r.Raw()
	for i := range rs {
		rs[i] = (rs[i] - mean) / std
	}
	return r
}

// ApplyGradient divides v by the standard deviation of eval. This treats the
// mean and deviation as constants and is only an approximation of the true
// derivative.
func (b *BatchNorm) ApplyGradient(v, eval, _ *linalg.Vector) *linalg.Vector {
	b.mustOutput("BatchNorm.ApplyGradient", v)
	b.mustInput("BatchNorm.ApplyGradient", eval)
	_, std := moments(eval)
	r := v.Clone()
	r.Div(std)
	return r
}

func (b *BatchNorm) String() string {
	return fmt.Sprintf("BatchNorm %d", b.in)
}

// moments returns the mean and population standard deviation of x.
func moments(x *linalg.Vector) (mean, std float32) {
	xs := x.Raw()
	if len(xs) == 0 {
		return 0, 0
	}
	for _, v := range xs {
		mean += v
	}
	mean /= float32(len(xs))
	var ss float32
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return mean, math32.Sqrt(ss / float32(len(xs)))
}
