package linalg

import (
	"testing"

	"github.com/vanyle/vlearn/internal/rng"
)

func BenchmarkApply(b *testing.B) {
	src := rng.New(1)
	m := randomMatrix(src, 256, 784)
	v := randomVector(src, 784)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Apply(v)
	}
}

func BenchmarkApplyTranspose(b *testing.B) {
	src := rng.New(1)
	m := randomMatrix(src, 256, 784)
	v := randomVector(src, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.ApplyTranspose(v)
	}
}

func BenchmarkCrossNorm(b *testing.B) {
	src := rng.New(1)
	x := randomVector(src, 256)
	y := randomVector(src, 784)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CrossNorm(x, y)
	}
}

func BenchmarkMul(b *testing.B) {
	src := rng.New(1)
	x := randomMatrix(src, 64, 64)
	y := randomMatrix(src, 64, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Mul(x, y)
	}
}
