package pipeline

import (
	"fmt"
	"image/color"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/config"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/detection"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
)

// Params holds the tunables of one pipeline run.
type Params struct {
	Smooth      imaging.SmoothParams
	Edges       imaging.EdgeParams
	TopContours int
	Locator     detection.LocatorParams

	OverlayColor  color.RGBA
	ContourStroke int
	OutlineStroke int
}

// DefaultParams returns the parameters of config.Defaults.
func DefaultParams() Params {
	p, err := ParamsFromConfig(config.Defaults().Pipeline)
	if err != nil {
		// Defaults are constants; a parse failure is a programming error.
		panic(err)
	}
	return p
}

// ParamsFromConfig converts validated configuration into run parameters.
func ParamsFromConfig(c config.Pipeline) (Params, error) {
	overlay, err := imaging.ParseColor(c.OverlayColor)
	if err != nil {
		return Params{}, fmt.Errorf("failed to parse overlay color: %w", err)
	}

	return Params{
		Smooth: imaging.SmoothParams{
			Diameter:   c.SmoothDiameter,
			SigmaColor: c.SmoothSigmaColor,
			SigmaSpace: c.SmoothSigmaSpace,
		},
		Edges: imaging.EdgeParams{
			Low:  c.CannyLow,
			High: c.CannyHigh,
		},
		TopContours: c.TopContours,
		Locator: detection.LocatorParams{
			EpsilonFactor:   c.EpsilonFactor,
			Strategy:        detection.Strategy(c.Strategy),
			MinAspect:       c.MinAspect,
			MaxAspect:       c.MaxAspect,
			MinAreaFraction: c.MinAreaFraction,
		},
		OverlayColor:  overlay,
		ContourStroke: c.ContourStroke,
		OutlineStroke: c.OutlineStroke,
	}, nil
}
