package detection

import (
	"image"
	"sort"

	"gocv.io/x/gocv"
)

// DefaultContourLimit is how many of the largest contours the locator inspects.
const DefaultContourLimit = 30

// Contour is a closed boundary curve extracted from an edge map.
type Contour struct {
	// Points is the ordered boundary, compressed to its corner points
	// (horizontal, vertical and diagonal runs keep only their end points).
	Points []image.Point `json:"points"`

	// Area is the enclosed area in square pixels.
	Area float64 `json:"area"`
}

// BoundingRect returns the smallest axis-aligned rectangle containing every
// point of the contour. Max is exclusive.
func (c Contour) BoundingRect() image.Rectangle {
	if len(c.Points) == 0 {
		return image.Rectangle{}
	}
	pv := gocv.NewPointVectorFromPoints(c.Points)
	defer pv.Close()
	return gocv.BoundingRect(pv)
}

// ContourSet holds the contours of one edge map.
type ContourSet struct {
	// All is every extracted contour in extraction order.
	All []Contour `json:"-"`

	// Ranked is All sorted by area, largest first, truncated to the limit
	// given to ExtractContours.
	Ranked []Contour `json:"ranked"`
}

// Points returns the point lists of cs, ready for drawing.
func Points(cs []Contour) [][]image.Point {
	out := make([][]image.Point, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Points)
	}
	return out
}

// ExtractContours finds every closed curve in a binary edge map and ranks
// them by enclosed area.
//
// Contours are retrieved as a flat list: nested curves are reported
// individually and no parent/child relationship is kept. An edge map with
// no edges yields an empty set.
//
// Parameters:
//   - edges: Binary CV_8UC1 edge map (0 or 255). Not modified.
//   - limit: Maximum length of Ranked. Values below 1 use DefaultContourLimit.
func ExtractContours(edges gocv.Mat, limit int) *ContourSet {
	if edges.Empty() {
		return &ContourSet{All: []Contour{}, Ranked: []Contour{}}
	}

	found := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer found.Close()

	all := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		all = append(all, Contour{
			Points: pv.ToPoints(),
			Area:   gocv.ContourArea(pv),
		})
	}

	return &ContourSet{
		All:    all,
		Ranked: Rank(all, limit),
	}
}

// Rank returns a copy of contours sorted by area, largest first, and
// truncated to at most limit entries. Contours with equal area keep their
// original relative order. The input slice is not modified.
func Rank(contours []Contour, limit int) []Contour {
	if limit < 1 {
		limit = DefaultContourLimit
	}

	ranked := make([]Contour, len(contours))
	copy(ranked, contours)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Area > ranked[j].Area
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
