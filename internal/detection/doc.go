// Package detection finds the licence plate boundary in an edge map.
//
// It works in two steps. ExtractContours traces every closed curve in a
// binary edge map and ranks the curves by enclosed area. Locate then walks
// the ranked list and picks the first curve whose polygon approximation
// has four corners.
//
// # Algorithm Overview
//
//  1. Contour extraction: flat list retrieval with chain compression, so a
//     straight run of boundary pixels is stored as its two end points.
//  2. Ranking: stable sort by area, largest first, truncated to the top N
//     (30 by default).
//  3. Approximation: Douglas-Peucker with a tolerance of 1.8% of the
//     closed perimeter.
//  4. Acceptance: the first 4-vertex polygon wins. The plate rectangle is
//     the bounding box of the original contour, not of the polygon.
//
// # Strategies
//
// FirstMatch applies no check beyond the vertex count. Any large
// quadrilateral ranked ahead of the plate is accepted instead of it.
// Plausible rejects candidates that are not convex, whose aspect ratio
// falls outside a plate-like range, or that are too small relative to the
// image. Both strategies keep rank order; neither scores candidates
// against each other.
//
// # Coordinate System
//
// Coordinates follow the image package: origin at the top-left corner, Min
// inclusive, Max exclusive. Plate rectangles are clipped to the source
// image bounds, so a crop never reads outside the image.
package detection
