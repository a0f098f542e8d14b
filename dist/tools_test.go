package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-12

func TestLogAddExp(tst *testing.T) {
	cases := [][2]float64{
		{0, 0},
		{-1, -2},
		{-700, -700},
		{-3.5, 12.1},
	}
	for _, c := range cases {
		got := LogAddExp(c[0], c[1])
		want := math.Log(math.Exp(c[0]) + math.Exp(c[1]))
		if math.Abs(got-want) > smallDiff {
			tst.Errorf("LogAddExp(%v, %v)=%v, expected %v", c[0], c[1], got, want)
		}
	}
}

func TestLogAddExpOverflow(tst *testing.T) {
	// direct exponentiation would overflow here
	got := LogAddExp(1000, 1000)
	want := 1000 + math.Log(2)
	if math.Abs(got-want) > smallDiff {
		tst.Errorf("LogAddExp(1000, 1000)=%v, expected %v", got, want)
	}

	got = LogAddExp(-2000, -2000)
	want = -2000 + math.Log(2)
	if math.Abs(got-want) > smallDiff {
		tst.Errorf("LogAddExp(-2000, -2000)=%v, expected %v", got, want)
	}
}

func TestLogAddExpInf(tst *testing.T) {
	ninf := math.Inf(-1)
	if got := LogAddExp(ninf, ninf); !math.IsInf(got, -1) {
		tst.Error("Expected -Inf, got", got)
	}
	if got := LogAddExp(ninf, -1.5); math.Abs(got+1.5) > smallDiff {
		tst.Error("Expected -1.5, got", got)
	}
	if got := LogAddExp(-1.5, ninf); math.Abs(got+1.5) > smallDiff {
		tst.Error("Expected -1.5, got", got)
	}
}

func TestLogSumExp(tst *testing.T) {
	xs := []float64{-1, -2, -3, -4}
	got := LogSumExp(xs)
	want := LogAddExp(LogAddExp(xs[0], xs[1]), LogAddExp(xs[2], xs[3]))
	if math.Abs(got-want) > smallDiff {
		tst.Errorf("LogSumExp=%v, expected %v", got, want)
	}
}

func TestQuantile(tst *testing.T) {
	xs := []float64{4, 1, 3, 2}
	if got := Quantile(xs, 0); got != 1 {
		tst.Error("Expected 1, got", got)
	}
	if got := Quantile(xs, 1); got != 4 {
		tst.Error("Expected 4, got", got)
	}
	if got := Quantile(xs, 0.5); math.Abs(got-2.5) > smallDiff {
		tst.Error("Expected 2.5, got", got)
	}
	// input is not modified
	if xs[0] != 4 {
		tst.Error("Quantile modified its input")
	}
}

func TestMeanVariance(tst *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	if got := Mean(xs); math.Abs(got-3) > smallDiff {
		tst.Error("Expected 3, got", got)
	}
	if got := Variance(xs); math.Abs(got-2.5) > smallDiff {
		tst.Error("Expected 2.5, got", got)
	}
}

func TestNormalQuantile(tst *testing.T) {
	if got := NormalQuantile(0.5); math.Abs(got) > smallDiff {
		tst.Error("Expected 0, got", got)
	}
	// one sigma
	got := NormalQuantile(0.8413447460685429)
	if math.Abs(got-1) > 1e-9 {
		tst.Error("Expected 1, got", got)
	}
}
