package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Generator produces n labelled points with Gaussian noise of the given
// standard deviation.
type Generator func(rng *rand.Rand, n int, noise float64) []Point

var generators = map[string]Generator{
	"flat":         flat,
	"donut":        donut,
	"wavy":         wavy,
	"spiral":       spiral,
	"donut_circle": donutCircle,
}

// Kinds lists the available generator names.
func Kinds() []string {
	kinds := make([]string, 0, len(generators))
	for k := range generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate builds a synthetic set of the named kind.
func Generate(kind string, rng *rand.Rand, n int, noise float64) (*Set, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q, want one of %v", kind, Kinds())
	}
	if n <= 0 {
		return nil, fmt.Errorf("dataset %q: point count must be positive, got %d", kind, n)
	}
	return New(gen(rng, n, noise)), nil
}

func jitter(rng *rand.Rand, p Point, noise float64) Point {
	p.X += rng.NormFloat64() * noise
	p.Y += rng.NormFloat64() * noise
	return p
}

func label(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// flat splits the square [-1,1]² along x+y=0.
func flat(rng *rand.Rand, n int, noise float64) []Point {
	points := make([]Point, n)
	for i := range points {
		x, y := uniform(rng, -1, 1), uniform(rng, -1, 1)
		points[i] = jitter(rng, Point{X: x, Y: y, Label: label(x+y > 0)}, noise)
	}
	return points
}

// donut rings a unit Gaussian blob with a band of radius 3 to 5.
func donut(rng *rand.Rand, n int, noise float64) []Point {
	half := n / 2
	points := make([]Point, 0, 2*half)
	for range half {
		points = append(points, jitter(rng, Point{X: rng.NormFloat64(), Y: rng.NormFloat64()}, noise))
	}
	for range half {
		r, a := uniform(rng, 3, 5), uniform(rng, 0, 2*math.Pi)
		points = append(points, jitter(rng, Point{X: r * math.Cos(a), Y: r * math.Sin(a), Label: 1}, noise))
	}
	return points
}

// wavy splits [-2.5,2.5]² along a tilted sine.
func wavy(rng *rand.Rand, n int, noise float64) []Point {
	points := make([]Point, n)
	for i := range points {
		x, y := uniform(rng, -2.5, 2.5), uniform(rng, -2.5, 2.5)
		boundary := 0.5*x + 0.7*math.Sin(4*x)
		points[i] = jitter(rng, Point{X: x, Y: y, Label: label(boundary > y)}, noise)
	}
	return points
}

// spiral interleaves two arms of n points each, scaled down by 10.
func spiral(rng *rand.Rand, n int, noise float64) []Point {
	points := make([]Point, 0, 2*n)
	step := 0.0
	if n > 1 {
		step = (5*math.Pi - 1) / float64(n-1)
	}
	for arm, sign := range []float64{1, -1} {
		for i := range n {
			t := 1 + step*float64(i)
			p := jitter(rng, Point{X: sign * t * math.Cos(t), Y: sign * t * math.Sin(t), Label: float64(arm)}, noise)
			p.X /= 10
			p.Y /= 10
			points = append(points, p)
		}
	}
	return points
}

// donutCircle puts a ring at the origin and a disc at (7,3), both labelled 1,
// on a background five times larger that avoids both.
func donutCircle(rng *rand.Rand, n int, noise float64) []Point {
	ring, disc := n/3, n/3
	background := (n - ring - disc) * 5
	points := make([]Point, 0, ring+disc+background)
	for range ring {
		r, a := uniform(rng, 2, 3), uniform(rng, 0, 2*math.Pi)
		points = append(points, Point{X: r * math.Cos(a), Y: r * math.Sin(a), Label: 1})
	}
	for range disc {
		r, a := uniform(rng, 0, 1), uniform(rng, 0, 2*math.Pi)
		points = append(points, Point{X: 7 + r*math.Cos(a), Y: 3 + r*math.Sin(a), Label: 1})
	}
	for added := 0; added < background; {
		x, y := uniform(rng, -5, 12), uniform(rng, -5, 12)
		fromOrigin := math.Hypot(x, y)
		fromDisc := math.Hypot(x-7, y-3)
		if (fromOrigin < 2 || fromOrigin > 3) && fromDisc > 1 {
			points = append(points, Point{X: x, Y: y})
			added++
		}
	}
	for i := range points {
		points[i] = jitter(rng, points[i], noise)
	}
	return points
}
