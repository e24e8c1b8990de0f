// Package config resolves the runtime configuration of the plate reader.
//
// Configuration is resolved once at process start, in this order:
//
//  1. Built-in defaults (see Defaults)
//  2. An optional YAML file named by PLATE_CONFIG
//  3. Environment variables (a local .env file is loaded first if present)
//
// The result is validated before it is returned, so callers never see a
// configuration that points at a missing OCR engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when the resolved configuration cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Locator strategies.
const (
	StrategyFirstMatch = "first-match"
	StrategyPlausible  = "plausible"
)

// Config is the complete process configuration.
type Config struct {
	// Addr is the listen address of the upload form.
	Addr string `yaml:"addr"`

	// MaxUploadMB caps the size of a single uploaded image.
	MaxUploadMB int `yaml:"max_upload_mb"`

	// LogLevel enables debug logging when set to "debug".
	LogLevel string `yaml:"log_level"`

	OCR      OCR      `yaml:"ocr"`
	Pipeline Pipeline `yaml:"pipeline"`
}

// OCR configures the Tesseract engine.
type OCR struct {
	// TessdataPath is the directory holding <language>.traineddata.
	// Resolved from OCR_ENGINE_PATH; required.
	TessdataPath string `yaml:"tessdata_path"`

	// Language is a Tesseract language code, "eng" by default.
	Language string `yaml:"language"`

	// PageSegMode is the Tesseract page segmentation mode (3 = automatic).
	PageSegMode int `yaml:"page_seg_mode"`

	// Scale upsamples the plate crop before recognition. 1 leaves it as is.
	Scale float64 `yaml:"scale"`

	// Binarize thresholds the crop to black and white before recognition.
	Binarize bool `yaml:"binarize"`

	// Threshold is the binarisation cut-off (0-255) when Binarize is set.
	Threshold int `yaml:"threshold"`
}

// Pipeline holds the tunables of the detection stages.
type Pipeline struct {
	// Bilateral filter parameters.
	SmoothDiameter   int     `yaml:"smooth_diameter"`
	SmoothSigmaColor float64 `yaml:"smooth_sigma_color"`
	SmoothSigmaSpace float64 `yaml:"smooth_sigma_space"`

	// Canny hysteresis thresholds.
	CannyLow  float64 `yaml:"canny_low"`
	CannyHigh float64 `yaml:"canny_high"`

	// TopContours is how many contours, largest first, the locator inspects.
	TopContours int `yaml:"top_contours"`

	// EpsilonFactor is the polygon approximation tolerance as a fraction
	// of the contour perimeter.
	EpsilonFactor float64 `yaml:"epsilon_factor"`

	// Strategy is StrategyFirstMatch or StrategyPlausible.
	Strategy string `yaml:"strategy"`

	// Plausibility checks, only used by StrategyPlausible.
	MinAspect       float64 `yaml:"min_aspect"`
	MaxAspect       float64 `yaml:"max_aspect"`
	MinAreaFraction float64 `yaml:"min_area_fraction"`

	// Overlay rendering.
	OverlayColor  string `yaml:"overlay_color"`
	ContourStroke int    `yaml:"contour_stroke"`
	OutlineStroke int    `yaml:"outline_stroke"`
}

// Defaults returns the configuration used when nothing is overridden.
// OCR.TessdataPath has no default and must be supplied.
func Defaults() Config {
	return Config{
		Addr:        ":8080",
		MaxUploadMB: 20,
		LogLevel:    "info",
		OCR: OCR{
			Language:    "eng",
			PageSegMode: 3,
			Scale:       1.0,
			Threshold:   128,
		},
		Pipeline: Pipeline{
			SmoothDiameter:   11,
			SmoothSigmaColor: 17,
			SmoothSigmaSpace: 17,
			CannyLow:         30,
			CannyHigh:        200,
			TopContours:      30,
			EpsilonFactor:    0.018,
			Strategy:         StrategyFirstMatch,
			MinAspect:        1.5,
			MaxAspect:        6.0,
			MinAreaFraction:  0.001,
			OverlayColor:     "#00FF00",
			ContourStroke:    2,
			OutlineStroke:    3,
		},
	}
}

// Load resolves the configuration from defaults, the optional YAML file and
// the environment, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()

	if path := os.Getenv("PLATE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto c. Unset variables leave
// the current value untouched.
func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a number", key, v))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	str("PLATE_ADDR", &c.Addr)
	num("PLATE_MAX_UPLOAD_MB", &c.MaxUploadMB)
	str("PLATE_LOG_LEVEL", &c.LogLevel)

	str("OCR_ENGINE_PATH", &c.OCR.TessdataPath)
	str("OCR_LANGUAGE", &c.OCR.Language)
	num("OCR_PAGE_SEG_MODE", &c.OCR.PageSegMode)
	float("OCR_SCALE", &c.OCR.Scale)
	boolean("OCR_BINARIZE", &c.OCR.Binarize)
	num("OCR_THRESHOLD", &c.OCR.Threshold)

	p := &c.Pipeline
	num("PLATE_SMOOTH_DIAMETER", &p.SmoothDiameter)
	float("PLATE_SMOOTH_SIGMA_COLOR", &p.SmoothSigmaColor)
	float("PLATE_SMOOTH_SIGMA_SPACE", &p.SmoothSigmaSpace)
	float("PLATE_CANNY_LOW", &p.CannyLow)
	float("PLATE_CANNY_HIGH", &p.CannyHigh)
	num("PLATE_TOP_CONTOURS", &p.TopContours)
	float("PLATE_EPSILON_FACTOR", &p.EpsilonFactor)
	str("PLATE_STRATEGY", &p.Strategy)
	float("PLATE_MIN_ASPECT", &p.MinAspect)
	float("PLATE_MAX_ASPECT", &p.MaxAspect)
	float("PLATE_MIN_AREA_FRACTION", &p.MinAreaFraction)
	str("PLATE_OVERLAY_COLOR", &p.OverlayColor)
	num("PLATE_OVERLAY_STROKE", &p.ContourStroke)
	num("PLATE_OUTLINE_STROKE", &p.OutlineStroke)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Validate checks value ranges and that the OCR engine data can be found.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Addr == "" {
		add("listen address is empty")
	}
	if c.MaxUploadMB <= 0 {
		add("max upload size must be positive, got %d", c.MaxUploadMB)
	}

	p := c.Pipeline
	if p.SmoothDiameter <= 0 {
		add("smoothing diameter must be positive, got %d", p.SmoothDiameter)
	}
	if p.SmoothSigmaColor <= 0 || p.SmoothSigmaSpace <= 0 {
		add("smoothing sigmas must be positive")
	}
	if p.CannyLow < 0 || p.CannyHigh <= p.CannyLow {
		add("canny thresholds must satisfy 0 <= low < high, got %g/%g", p.CannyLow, p.CannyHigh)
	}
	if p.TopContours <= 0 {
		add("top contour count must be positive, got %d", p.TopContours)
	}
	if p.EpsilonFactor <= 0 || p.EpsilonFactor >= 1 {
		add("epsilon factor must be in (0, 1), got %g", p.EpsilonFactor)
	}
	switch p.Strategy {
	case StrategyFirstMatch, StrategyPlausible:
	default:
		add("unknown locator strategy %q", p.Strategy)
	}
	if p.MinAspect <= 0 || p.MaxAspect < p.MinAspect {
		add("aspect bounds must satisfy 0 < min <= max, got %g/%g", p.MinAspect, p.MaxAspect)
	}
	if p.MinAreaFraction < 0 || p.MinAreaFraction >= 1 {
		add("minimum area fraction must be in [0, 1), got %g", p.MinAreaFraction)
	}
	if p.ContourStroke <= 0 || p.OutlineStroke <= 0 {
		add("overlay strokes must be positive")
	}

	if c.OCR.Scale <= 0 {
		add("OCR scale must be positive, got %g", c.OCR.Scale)
	}
	if c.OCR.Threshold < 0 || c.OCR.Threshold > 255 {
		add("OCR threshold must be in [0, 255], got %d", c.OCR.Threshold)
	}
	if c.OCR.Language == "" {
		add("OCR language is empty")
	}
	if err := checkTessdata(c.OCR.TessdataPath, c.OCR.Language); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// checkTessdata verifies that dir exists and holds a model for every
// language in lang ("eng" or "eng+deu").
func checkTessdata(dir, lang string) error {
	if dir == "" {
		return errors.New("OCR_ENGINE_PATH is not set; point it at the Tesseract tessdata directory")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("OCR engine not found at %s: %v", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("OCR engine path %s is not a directory", dir)
	}
	for _, l := range strings.Split(lang, "+") {
		if l == "" {
			continue
		}
		model := filepath.Join(dir, l+".traineddata")
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("OCR language model %s not found in %s", l, dir)
		}
	}
	return nil
}
