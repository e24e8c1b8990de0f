package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
)

// DefaultEpsilonFactor is the polygon approximation tolerance as a fraction
// of the contour perimeter.
const DefaultEpsilonFactor = 0.018

// State is the locator's progress through the ranked contours.
type State int

const (
	// StateScanning is the initial state while contours remain.
	StateScanning State = iota

	// StateFound means a contour approximated to four vertices. Terminal.
	StateFound

	// StateNotFound means the ranked list was exhausted. Terminal.
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateFound:
		return "found"
	case StateNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Strategy selects how candidates are accepted.
type Strategy string

const (
	// FirstMatch accepts the first contour that approximates to exactly
	// four vertices. No other check is applied.
	FirstMatch Strategy = "first-match"

	// Plausible also requires a convex polygon, a plate-like aspect ratio
	// and a minimum size relative to the image. It still walks contours in
	// rank order and takes the first candidate passing every check.
	Plausible Strategy = "plausible"
)

// LocatorParams configures Locate.
type LocatorParams struct {
	// EpsilonFactor scales the perimeter into the approximation tolerance.
	// Larger values yield fewer vertices.
	EpsilonFactor float64

	Strategy Strategy

	// Plausible only. Aspect is bounding-box width divided by height.
	MinAspect       float64
	MaxAspect       float64
	MinAreaFraction float64
}

// DefaultLocatorParams returns first-match parameters with the standard
// tolerance and the plausibility bounds used when Strategy is switched.
func DefaultLocatorParams() LocatorParams {
	return LocatorParams{
		EpsilonFactor:   DefaultEpsilonFactor,
		Strategy:        FirstMatch,
		MinAspect:       1.5,
		MaxAspect:       6.0,
		MinAreaFraction: 0.001,
	}
}

// Rejection records why a ranked contour was not accepted.
type Rejection struct {
	Rank     int    `json:"rank"`
	Vertices int    `json:"vertices"`
	Reason   string `json:"reason"`
}

// Location is the outcome of Locate.
type Location struct {
	State State `json:"state"`

	// Rank is the index of the accepted contour in the ranked list, or -1.
	Rank int `json:"rank"`

	// Contour is the accepted contour. Zero value when not found.
	Contour Contour `json:"-"`

	// Polygon is the four-vertex approximation of Contour.
	Polygon []image.Point `json:"polygon,omitempty"`

	// Bounds is the bounding rectangle of Contour, clipped to the image.
	Bounds image.Rectangle `json:"bounds"`

	// Rejected lists every ranked contour inspected before the decision.
	Rejected []Rejection `json:"rejected,omitempty"`
}

// Found reports whether a plate boundary was accepted.
func (l *Location) Found() bool {
	return l.State == StateFound
}

// Crop cuts the plate region out of the source image.
func (l *Location) Crop(src image.Image) (image.Image, error) {
	if !l.Found() {
		return nil, fmt.Errorf("no plate located")
	}
	return imaging.Crop(src, l.Bounds)
}

// Locate walks ranked contours in order and accepts the first whose
// polygon approximation has exactly four vertices.
//
// For each contour the closed perimeter is measured and the contour is
// simplified with Douglas-Peucker at EpsilonFactor × perimeter. Under
// FirstMatch a 4-vertex polygon is accepted immediately with no scoring
// among candidates, so a larger rectangular object (a window, a grille)
// ranked ahead of the plate wins. Plausible adds shape checks but keeps
// the same order.
//
// Parameters:
//   - ranked: Contours sorted by area, largest first.
//   - imageBounds: Bounds of the source image; the plate rectangle is
//     clipped to it.
//   - p: Tolerance and strategy.
//
// Returns a Location in StateFound or StateNotFound.
func Locate(ranked []Contour, imageBounds image.Rectangle, p LocatorParams) *Location {
	if p.EpsilonFactor <= 0 {
		p.EpsilonFactor = DefaultEpsilonFactor
	}

	loc := &Location{State: StateScanning, Rank: -1}

	for i, c := range ranked {
		poly := Approximate(c.Points, p.EpsilonFactor)
		if len(poly) != 4 {
			loc.Rejected = append(loc.Rejected, Rejection{
				Rank:     i,
				Vertices: len(poly),
				Reason:   fmt.Sprintf("%d vertices", len(poly)),
			})
			continue
		}

		bounds := c.BoundingRect().Intersect(imageBounds)
		if bounds.Empty() {
			loc.Rejected = append(loc.Rejected, Rejection{Rank: i, Vertices: 4, Reason: "outside image"})
			continue
		}

		if p.Strategy == Plausible {
			if reason := implausible(c, poly, bounds, imageBounds, p); reason != "" {
				loc.Rejected = append(loc.Rejected, Rejection{Rank: i, Vertices: 4, Reason: reason})
				continue
			}
		}

		loc.State = StateFound
		loc.Rank = i
		loc.Contour = c
		loc.Polygon = poly
		loc.Bounds = bounds
		return loc
	}

	loc.State = StateNotFound
	return loc
}

// Approximate simplifies a closed curve with Douglas-Peucker, using a
// tolerance of factor × perimeter.
func Approximate(points []image.Point, factor float64) []image.Point {
	if len(points) == 0 {
		return nil
	}

	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()

	perimeter := gocv.ArcLength(pv, true)
	approx := gocv.ApproxPolyDP(pv, factor*perimeter, true)
	defer approx.Close()

	return approx.ToPoints()
}

// implausible returns a non-empty reason when a 4-vertex candidate does
// not look like a plate.
func implausible(c Contour, poly []image.Point, bounds, imageBounds image.Rectangle, p LocatorParams) string {
	if !isConvex(poly) {
		return "not convex"
	}

	w, h := bounds.Dx(), bounds.Dy()
	aspect := float64(w) / float64(h)
	if aspect < p.MinAspect || aspect > p.MaxAspect {
		return fmt.Sprintf("aspect %.2f outside [%.2f, %.2f]", aspect, p.MinAspect, p.MaxAspect)
	}

	imageArea := float64(imageBounds.Dx() * imageBounds.Dy())
	if imageArea > 0 && c.Area/imageArea < p.MinAreaFraction {
		return fmt.Sprintf("area fraction %.4f below %.4f", c.Area/imageArea, p.MinAreaFraction)
	}
	return ""
}

// isConvex reports whether a closed polygon turns consistently in one
// direction. Collinear runs are ignored.
func isConvex(poly []image.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}
