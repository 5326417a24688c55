package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanyle/vlearn/internal/rng"
)

func TestLoadCSV(t *testing.T) {
	content := "a,b,label\n1,2,0\n3,4,1\n5,6,0\n"
	filename := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))

	d, err := LoadCSV(filename, []int{2}, true)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []float32{1, 2}, d.Samples[0])
	assert.Equal(t, []float32{1}, d.Labels[1])
}

func TestReadCSVLabelOrder(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("1,2,3,4\n"), []int{3, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, d.Samples[0])
	assert.Equal(t, []float32{4, 1}, d.Labels[0])
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		labelCols []int
		header    bool
	}{
		{"empty", "", []int{0}, false},
		{"header only", "a,b\n", []int{0}, true},
		{"not a number", "1,x\n", []int{0}, false},
		{"ragged", "1,2\n3\n", []int{0}, false},
		{"label out of range", "1,2\n", []int{2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.content), tt.labelCols, tt.header)
			assert.Error(t, err)
		})
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalize(t *testing.T) {
	d := &Dataset{
		Samples: [][]float32{{0, 5, 10}, {5, 5, 20}, {10, 5, 30}},
		Labels:  [][]float32{{0}, {1}, {2}},
	}
	d.Normalize()

	assert.InDeltaSlice(t, []float32{0, 0, 0}, d.Samples[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.5}, d.Samples[1], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0, 1}, d.Samples[2], 1e-6)

	(&Dataset{}).Normalize()
}

func TestSplit(t *testing.T) {
	d := Linear(10, []float32{1}, 0, 1)

	train, test := d.Split(0.8)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())

	train, test = d.Split(0)
	assert.Equal(t, 0, train.Len())
	assert.Equal(t, 10, test.Len())

	train, test = d.Split(1)
	assert.Equal(t, 10, train.Len())
	assert.Equal(t, 0, test.Len())
}

func TestShuffleKeepsPairs(t *testing.T) {
	rng.Seed(7)
	d := Linear(50, []float32{2, -1}, -1, 1)
	d.Shuffle()

	require.Equal(t, 50, d.Len())
	for i, x := range d.Samples {
		assert.InDelta(t, 2*x[0]-x[1], d.Labels[i][0], 1e-6)
	}
}

func TestLinear(t *testing.T) {
	rng.Seed(rng.DefaultSeed)
	d := Linear(100, []float32{3, 5, 0}, -10, 10)

	require.Equal(t, 100, d.Len())
	for i, x := range d.Samples {
		require.Len(t, x, 3)
		for _, v := range x {
			assert.True(t, v >= -10 && v <= 10, "sample %v out of range", x)
		}
		assert.InDelta(t, 3*x[0]+5*x[1], d.Labels[i][0], 1e-4)
	}

	rng.Seed(rng.DefaultSeed)
	assert.Equal(t, d.Samples, Linear(100, []float32{3, 5, 0}, -10, 10).Samples)
}

func TestVectors(t *testing.T) {
	d := &Dataset{
		Samples: [][]float32{{1, 2}},
		Labels:  [][]float32{{3}},
	}
	in, out := d.Vectors()
	require.Len(t, in, 1)
	assert.Equal(t, []float32{1, 2}, in[0].Raw())
	assert.Equal(t, []float32{3}, out[0].Raw())

	in[0].Set(0, 9)
	assert.Equal(t, float32(1), d.Samples[0][0], "vectors copy the rows")
}

func TestOneHotArgMax(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 1}, OneHot(2, 3))
	assert.Equal(t, 2, ArgMax([]float32{0.1, 0.2, 0.7}))
	assert.Equal(t, 0, ArgMax([]float32{1, 1}))
	assert.Equal(t, -1, ArgMax(nil))
}
