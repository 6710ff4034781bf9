package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/heatmap"
	"github.com/jwaldner/blackscholes/internal/logger"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/services"
)

// PricingHandler serves the pricing API - DUMB HTTP layer only
type PricingHandler struct {
	config    *config.Config
	requests  *services.RequestService
	formatter models.Formatter
	version   string
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(cfg *config.Config, version string) *PricingHandler {
	return &PricingHandler{
		config:   cfg,
		requests: services.NewRequestService(cfg.Validation.Strict),
		formatter: models.Formatter{
			PricePlaces: cfg.Display.PricePlaces,
			GreekPlaces: cfg.Display.GreekPlaces,
		},
		version: version,
	}
}

// WithRequestService swaps the request parser, mainly to pin its clock.
func (h *PricingHandler) WithRequestService(s *services.RequestService) *PricingHandler {
	h.requests = s
	return h
}

// RegisterRoutes mounts every endpoint on r. Other methods get 405 from mux.
func (h *PricingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/price", h.PriceHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/greeks", h.GreeksHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/calculate", h.CalculateHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/batch", h.BatchHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/implied-volatility", h.ImpliedVolatilityHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/heatmap", h.HeatmapHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/curve", h.CurveHandler).Methods(http.MethodGet, http.MethodOptions)
}

// setCORS sets CORS headers for browser compatibility and reports whether
// the request was a preflight that has been answered.
func setCORS(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error.Printf("JSON encoding failed: %v", err)
		http.Error(w, "JSON encoding failed", http.StatusInternalServerError)
		return
	}

	select {
	case <-r.Context().Done():
		logger.Warn.Printf("Client disconnected before response: %v", r.Context().Err())
		return
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(jsonBytes)))
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		logger.Error.Printf("Failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, heatmap.ErrInvalidAxis):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	}
	logger.Warn.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, r, status, models.ErrorResponse{Error: code, Message: err.Error()})
}

// warnNonFinite logs results that will be serialised as null.
func warnNonFinite(r *http.Request, values map[string]float64) {
	for name, v := range values {
		if !models.Number(v).IsFinite() {
			logger.Warn.Printf("%s produced non-finite %s = %v", r.URL.Path, name, v)
		}
	}
}

// HealthHandler reports that the service is up
func (h *PricingHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "GET") {
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	})
}

// PriceHandler prices one option
func (h *PricingHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	p, err := h.requests.ParsePricingRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	price := p.Model.Price(p.OptionType)
	logger.Info.Printf("price %s S=%g K=%g T=%g r=%g vol=%g -> %g", p.OptionType,
		p.Model.SpotPrice(), p.Model.StrikePrice(), p.Model.TimeToExpiry(), p.Model.RiskFreeRate(), p.Model.StandardDeviation(), price)
	warnNonFinite(r, map[string]float64{"price": price})

	writeJSON(w, r, http.StatusOK, models.PriceResponse{
		OptionType: p.OptionType.String(),
		Price:      models.Number(price),
		D1:         models.Number(p.Model.D1()),
		D2:         models.Number(p.Model.D2()),
		Breakeven:  models.Number(p.Model.Breakeven(p.OptionType)),
	})
}

// GreeksHandler returns the sensitivities of one option
func (h *PricingHandler) GreeksHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	p, err := h.requests.ParsePricingRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g := p.Model.Greeks(p.OptionType)
	logger.Info.Printf("greeks %s S=%g K=%g T=%g -> %+v", p.OptionType,
		p.Model.SpotPrice(), p.Model.StrikePrice(), p.Model.TimeToExpiry(), g)

	writeJSON(w, r, http.StatusOK, models.GreeksResponse{
		OptionType: p.OptionType.String(),
		Greeks:     models.NewGreekValues(g),
	})
}

// CalculateHandler returns call and put values side by side with display
// strings for a "current values" panel.
func (h *PricingHandler) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	p, err := h.requests.ParsePricingRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := h.calculate(p)
	logger.Info.Printf("calculate S=%g K=%g T=%g -> call %s put %s",
		p.Model.SpotPrice(), p.Model.StrikePrice(), p.Model.TimeToExpiry(),
		resp.Display["call_price"].Display, resp.Display["put_price"].Display)

	writeJSON(w, r, http.StatusOK, resp)
}

func (h *PricingHandler) calculate(p *services.Pricing) models.CalculationResponse {
	m := p.Model
	call, put := m.Greeks(blackscholes.Call), m.Greeks(blackscholes.Put)
	callPrice, putPrice := m.Price(blackscholes.Call), m.Price(blackscholes.Put)

	display := models.FormattedResult{
		"d1":              h.formatter.Plain(m.D1(), 4),
		"d2":              h.formatter.Plain(m.D2(), 4),
		"discount_factor": h.formatter.Plain(m.DiscountFactor(), 6),
		"volatility":      h.formatter.Percentage(m.StandardDeviation()),
	}
	callBreakeven, putBreakeven := m.Breakeven(blackscholes.Call), m.Breakeven(blackscholes.Put)

	for side, v := range map[string]struct {
		price     float64
		breakeven float64
		greeks    blackscholes.Greeks
	}{"call": {callPrice, callBreakeven, call}, "put": {putPrice, putBreakeven, put}} {
		display[side+"_price"] = h.formatter.Currency(v.price)
		display[side+"_breakeven"] = h.formatter.Currency(v.breakeven)
		display[side+"_delta"] = h.formatter.Greek(v.greeks.Delta)
		display[side+"_gamma"] = h.formatter.Greek(v.greeks.Gamma)
		display[side+"_theta"] = h.formatter.Greek(v.greeks.Theta)
		display[side+"_vega"] = h.formatter.Greek(v.greeks.Vega)
		display[side+"_rho"] = h.formatter.Greek(v.greeks.Rho)
	}

	return models.CalculationResponse{
		Inputs:         p.Request,
		D1:             models.Number(m.D1()),
		D2:             models.Number(m.D2()),
		DiscountFactor: models.Number(m.DiscountFactor()),
		Call:           models.OptionValues{Price: models.Number(callPrice), Greeks: models.NewGreekValues(call)},
		Put:            models.OptionValues{Price: models.Number(putPrice), Greeks: models.NewGreekValues(put)},
		CallBreakeven:  models.Number(callBreakeven),
		PutBreakeven:   models.Number(putBreakeven),
		Display:        display,
		FieldMetadata:  models.FieldMetadataFor(),
	}
}

// BatchHandler prices many requests in order. A bad entry is reported in
// place and does not fail the batch.
func (h *PricingHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	req, err := h.requests.ParseBatchRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	resp := models.BatchCalculationResponse{
		Results:           make([]models.BatchItem, len(req.Calculations)),
		TotalCalculations: len(req.Calculations),
	}
	for i, calc := range req.Calculations {
		item := models.BatchItem{Index: i}
		p, err := h.requests.BuildPricing(calc)
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
		} else {
			item.OptionType = p.OptionType.String()
			item.Values = &models.OptionValues{
				Price:  models.Number(p.Model.Price(p.OptionType)),
				Greeks: models.NewGreekValues(p.Model.Greeks(p.OptionType)),
			}
		}
		resp.Results[i] = item
	}
	resp.ProcessedIn = float64(time.Since(start).Nanoseconds()) / 1e6

	logger.Info.Printf("batch: %d calculations, %d failed in %.3fms", resp.TotalCalculations, resp.Failed, resp.ProcessedIn)
	writeJSON(w, r, http.StatusOK, resp)
}

// ImpliedVolatilityHandler inverts a market price. Solver failures answer
// 422 with the last volatility tried.
func (h *PricingHandler) ImpliedVolatilityHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	req, err := h.requests.ParseImpliedVolRequest(r, h.config.Solver)
	if err != nil {
		writeError(w, r, err)
		return
	}

	solver := req.Solver
	solver.Trace = func(s blackscholes.Step) {
		logger.Verbose.Printf("iv iter %d: vol=%.6f price=%.6f vega=%.6f diff=%.3e",
			s.Iteration, s.Volatility, s.Price, s.Vega, s.Diff)
	}

	result, err := solver.SolveDetailed(req.Model, req.MarketPrice, req.OptionType)
	if err != nil {
		var serr *blackscholes.SolverError
		if !errors.As(err, &serr) {
			writeError(w, r, err)
			return
		}
		code := "CONVERGENCE_FAILURE"
		if errors.Is(err, blackscholes.ErrVegaTooSmall) {
			code = "VEGA_TOO_SMALL"
		}
		logger.Warn.Printf("implied volatility failed after %d iterations: %v", serr.Iterations, err)
		writeJSON(w, r, http.StatusUnprocessableEntity, models.SolverErrorResponse{
			Error:          code,
			Message:        err.Error(),
			Iterations:     serr.Iterations,
			LastVolatility: models.Number(serr.LastVolatility),
			LastPrice:      models.Number(serr.LastPrice),
		})
		return
	}

	logger.Info.Printf("implied volatility %s market=%g -> %.6f in %d iterations",
		req.OptionType, req.MarketPrice, result.Volatility, result.Iterations)
	writeJSON(w, r, http.StatusOK, models.ImpliedVolResponse{
		OptionType:        req.OptionType.String(),
		ImpliedVolatility: models.Number(result.Volatility),
		Iterations:        result.Iterations,
		MarketPrice:       models.Number(req.MarketPrice),
		Display:           h.formatter.Percentage(result.Volatility).Display,
	})
}

// HeatmapHandler evaluates a strike × volatility grid
func (h *PricingHandler) HeatmapHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "POST") {
		return
	}

	params, err := h.requests.ParseHeatmapRequest(r, h.config.Heatmap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	grid, err := heatmap.Generate(params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info.Printf("heatmap %d×%d generated in %v", len(grid.Volatilities), len(grid.Strikes), time.Since(start))

	writeJSON(w, r, http.StatusOK, models.HeatmapResponse{
		Params:       grid.Params,
		Strikes:      grid.Strikes,
		Volatilities: grid.Volatilities,
		Calls:        models.NewSurfaceValues(grid.Calls),
		Puts:         models.NewSurfaceValues(grid.Puts),
	})
}

// CurveHandler returns one Greek across the default strike range
func (h *PricingHandler) CurveHandler(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r, "GET") {
		return
	}

	q, err := h.requests.ParseCurveQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	points, err := heatmap.Curve(q.Base, q.Greek, q.OptionType, q.Strikes)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err))
		return
	}

	resp := models.CurveResponse{
		Greek:      q.Greek,
		OptionType: q.OptionType.String(),
		Points:     make([]models.CurvePoint, len(points)),
	}
	for i, p := range points {
		resp.Points[i] = models.CurvePoint{X: models.Number(p.X), Y: models.Number(p.Y)}
	}
	logger.Debug.Printf("curve %s %s: %d points", q.Greek, q.OptionType, len(points))
	writeJSON(w, r, http.StatusOK, resp)
}
