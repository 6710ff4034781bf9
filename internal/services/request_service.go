package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/heatmap"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/utils"
)

// ErrInvalidRequest wraps every parse and validation failure so the HTTP
// layer can answer 400.
var ErrInvalidRequest = errors.New("invalid request")

// NextExpiration may be given as expiration_date to mean the next standard
// monthly expiration.
const NextExpiration = "next"

// Pricing is a parsed request ready for the engine.
type Pricing struct {
	Request    models.PricingRequest
	Model      blackscholes.Model
	OptionType blackscholes.OptionType
}

// ImpliedVol is a parsed implied volatility request.
type ImpliedVol struct {
	Pricing
	MarketPrice float64
	Solver      blackscholes.Solver
}

// CurveQuery is a parsed /api/curve query.
type CurveQuery struct {
	Greek      string
	OptionType blackscholes.OptionType
	Base       blackscholes.Model
	Strikes    []float64
}

// RequestService handles HTTP request parsing
type RequestService struct {
	strict bool
	now    func() time.Time
}

// NewRequestService creates a new request service. When strict is set every
// model is checked with Validate before it is handed back.
func NewRequestService(strict bool) *RequestService {
	return &RequestService{strict: strict, now: time.Now}
}

// WithClock replaces the clock used to convert expiration dates.
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// DecodeJSON decodes the body into v. An empty body leaves v untouched when
// allowEmpty is set.
func (s *RequestService) DecodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return invalid("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return invalid("failed to decode request: %v", err)
	}
	return nil
}

// BuildPricing resolves the option type and time to expiry of req and builds
// the model.
func (s *RequestService) BuildPricing(req models.PricingRequest) (*Pricing, error) {
	optionType := blackscholes.Call
	if strings.TrimSpace(req.OptionType) != "" {
		t, err := blackscholes.ParseOptionType(req.OptionType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		optionType = t
	}
	req.OptionType = optionType.String()

	if req.ExpirationDate != "" {
		now := s.now()
		if strings.EqualFold(req.ExpirationDate, NextExpiration) {
			req.ExpirationDate = utils.NextOptionsExpiration(now)
		}
		years, err := utils.YearsToExpiry(req.ExpirationDate, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		req.TimeToExpiry = years
	}

	m := blackscholes.New(req.SpotPrice, req.StrikePrice, req.TimeToExpiry, req.RiskFreeRate, req.Volatility)
	if s.strict {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	return &Pricing{Request: req, Model: m, OptionType: optionType}, nil
}

// ParsePricingRequest parses an HTTP request into a Pricing
func (s *RequestService) ParsePricingRequest(r *http.Request) (*Pricing, error) {
	var req models.PricingRequest
	if err := s.DecodeJSON(r, &req, false); err != nil {
		return nil, err
	}
	return s.BuildPricing(req)
}

// ParseBatchRequest decodes a batch. Entries are built by the caller so one
// bad entry does not fail the others.
func (s *RequestService) ParseBatchRequest(r *http.Request) (*models.BatchCalculationRequest, error) {
	var req models.BatchCalculationRequest
	if err := s.DecodeJSON(r, &req, false); err != nil {
		return nil, err
	}
	if len(req.Calculations) == 0 {
		return nil, invalid("calculations are required")
	}
	return &req, nil
}

// ParseImpliedVolRequest parses an implied volatility request, filling the
// solver limits from defaults when the request leaves them at zero.
func (s *RequestService) ParseImpliedVolRequest(r *http.Request, defaults config.SolverConfig) (*ImpliedVol, error) {
	var req models.ImpliedVolRequest
	if err := s.DecodeJSON(r, &req, false); err != nil {
		return nil, err
	}

	// volatility is the unknown; any value given is only a placeholder
	if req.Volatility == 0 {
		req.Volatility = blackscholes.InitialVolatilityGuess
	}
	p, err := s.BuildPricing(req.PricingRequest)
	if err != nil {
		return nil, err
	}

	if !(req.MarketPrice > 0) {
		return nil, invalid("market_price must be positive")
	}

	solver := blackscholes.Solver{MaxIterations: req.MaxIterations, Tolerance: req.Tolerance}
	if solver.MaxIterations == 0 {
		solver.MaxIterations = defaults.MaxIterations
	}
	if solver.Tolerance == 0 {
		solver.Tolerance = defaults.Tolerance
	}
	if solver.MaxIterations < 0 || solver.Tolerance < 0 {
		return nil, invalid("max_iterations and tolerance must not be negative")
	}

	return &ImpliedVol{Pricing: *p, MarketPrice: req.MarketPrice, Solver: solver}, nil
}

// ParseHeatmapRequest overlays the request on the configured grid. An empty
// body yields the configured grid.
func (s *RequestService) ParseHeatmapRequest(r *http.Request, defaults config.HeatmapConfig) (heatmap.Params, error) {
	var req models.HeatmapRequest
	if err := s.DecodeJSON(r, &req, true); err != nil {
		return heatmap.Params{}, err
	}

	p := heatmap.Params{
		Spot:       pick(req.Spot, defaults.Spot),
		Time:       pick(req.Time, defaults.Time),
		Rate:       defaults.Rate,
		MinStrike:  pick(req.MinStrike, defaults.MinStrike),
		MaxStrike:  pick(req.MaxStrike, defaults.MaxStrike),
		StrikeStep: pick(req.StrikeStep, defaults.StrikeStep),
		MinVol:     pick(req.MinVol, defaults.MinVol),
		MaxVol:     pick(req.MaxVol, defaults.MaxVol),
		VolStep:    pick(req.VolStep, defaults.VolStep),
	}
	if req.Rate != nil {
		p.Rate = *req.Rate
	}
	return p, nil
}

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

// ParseCurveQuery reads greek, option_type, spot, time, rate and volatility.
// Missing numbers fall back to S=100, T=1, r=0.05, σ=0.2.
func (s *RequestService) ParseCurveQuery(q url.Values) (*CurveQuery, error) {
	greek := strings.ToLower(strings.TrimSpace(q.Get("greek")))
	if greek == "" {
		greek = "delta"
	}
	if _, err := heatmap.Pick(blackscholes.Greeks{}, greek); err != nil {
		return nil, invalid("%v", err)
	}

	optionType := blackscholes.Call
	if v := q.Get("option_type"); v != "" {
		t, err := blackscholes.ParseOptionType(v)
		if err != nil {
			return nil, invalid("%v", err)
		}
		optionType = t
	}

	base := blackscholes.New(
		s.ParseFloat64(q.Get("spot"), 100),
		0,
		s.ParseFloat64(q.Get("time"), 1),
		s.ParseFloat64(q.Get("rate"), 0.05),
		s.ParseFloat64(q.Get("volatility"), 0.2),
	)
	if s.strict {
		// strike varies along the curve; check the rest against a valid one
		if err := base.WithStrikePrice(base.SpotPrice()).Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	return &CurveQuery{
		Greek:      greek,
		OptionType: optionType,
		Base:       base,
		Strikes:    heatmap.DefaultStrikes(),
	}, nil
}

// ParseFloat64 safely parses a float64 with default fallback
func (s *RequestService) ParseFloat64(str string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(str, 64); err == nil {
		return val
	}
	return defaultValue
}
