// Package stats summarises self-play results: running means of per-turn
// measurements and win rates with confidence intervals.
package stats

import "math"

const Epsilon = 1e-6

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running keeps the mean and variance of a stream of samples with
// Welford's method.
type Running struct {
	n    int
	last float64
	mean float64
	m2   float64
}

func (r *Running) Add(val float64) {
	r.last = val
	r.n++
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
}

func (r *Running) N() int         { return r.n }
func (r *Running) Last() float64  { return r.last }
func (r *Running) Mean() float64  { return r.mean }
func (r *Running) Stdev() float64 { return math.Sqrt(r.Variance()) }

func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

// StandardError is the standard error of the mean.
func (r *Running) StandardError() float64 {
	if r.n == 0 {
		return 0
	}
	return math.Sqrt(r.Variance() / float64(r.n))
}

// Merge folds o into r as if all of o's samples had been added to r.
func (r *Running) Merge(o *Running) {
	if o.n == 0 {
		return
	}
	if r.n == 0 {
		*r = *o
		return
	}
	n := r.n + o.n
	delta := o.mean - r.mean
	r.mean += delta * float64(o.n) / float64(n)
	r.m2 += o.m2 + delta*delta*float64(r.n)*float64(o.n)/float64(n)
	r.n = n
	r.last = o.last
}
