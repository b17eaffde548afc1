package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed Z-value for a confidence level given in
// percent.
func ZVal(confidence float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return dist.Quantile((1 + confidence/100) / 2)
}

// WilsonInterval is the Wilson score interval for wins successes out of
// n trials at the given confidence level in percent.
func WilsonInterval(wins, n int, confidence float64) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := ZVal(confidence)
	p := float64(wins) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	centre := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, centre-half), math.Min(1, centre+half)
}
