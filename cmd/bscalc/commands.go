package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/heatmap"
	"github.com/jwaldner/blackscholes/internal/logger"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/services"
)

// app carries state shared by every subcommand.
type app struct {
	cfg       *config.Config
	formatter models.Formatter
	requests  *services.RequestService

	configFile string
	logLevel   string
	strict     bool
	asJSON     bool
}

type pricingFlags struct {
	spot, strike, time, rate, vol float64
	expiry                        string
	optionType                    string
}

func (f *pricingFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.spot, "spot", 100, "spot price of the underlying")
	cmd.Flags().Float64Var(&f.strike, "strike", 100, "strike price")
	cmd.Flags().Float64Var(&f.time, "time", 1, "time to expiry in years")
	cmd.Flags().StringVar(&f.expiry, "expiry", "", "expiration date YYYY-MM-DD or \"next\"; overrides --time")
	cmd.Flags().Float64Var(&f.rate, "rate", 0.05, "continuously compounded risk-free rate")
	cmd.Flags().Float64Var(&f.vol, "vol", 0.2, "annualised volatility")
	cmd.Flags().StringVar(&f.optionType, "type", "call", "option type (call or put)")
}

func (a *app) pricing(f pricingFlags) (*services.Pricing, error) {
	p, err := a.requests.BuildPricing(models.PricingRequest{
		SpotPrice:      f.spot,
		StrikePrice:    f.strike,
		TimeToExpiry:   f.time,
		ExpirationDate: f.expiry,
		RiskFreeRate:   f.rate,
		Volatility:     f.vol,
		OptionType:     f.optionType,
	})
	if err != nil {
		return nil, err
	}
	if f.expiry != "" {
		logger.Info.Printf("expiration %s is %.6f years away", p.Request.ExpirationDate, p.Request.TimeToExpiry)
	}
	return p, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bscalc",
		Short:         "Black-Scholes European option calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default: $BS_CONFIG_FILE or ./config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (error, warn, info, debug, verbose)")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "reject non-positive or non-finite inputs")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		a.priceCmd(),
		a.greeksCmd(),
		a.ivCmd(),
		a.heatmapCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var err error
	if a.configFile != "" {
		a.cfg, err = config.LoadFromFile(a.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		a.cfg = config.Load()
	}

	level := a.cfg.Logging.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger.InitWithWriter(level, cmd.ErrOrStderr())

	a.strict = a.strict || a.cfg.Validation.Strict
	a.requests = services.NewRequestService(a.strict)
	a.formatter = models.Formatter{PricePlaces: a.cfg.Display.PricePlaces, GreekPlaces: a.cfg.Display.GreekPlaces}
	return nil
}

func (a *app) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printRows(w io.Writer, rows [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func (a *app) priceCmd() *cobra.Command {
	var f pricingFlags
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pricing(f)
			if err != nil {
				return err
			}
			m, t := p.Model, p.OptionType
			price := m.Price(t)
			logger.Debug.Printf("price %s d1=%g d2=%g -> %g", t, m.D1(), m.D2(), price)

			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), models.PriceResponse{
					OptionType: t.String(),
					Price:      models.Number(price),
					D1:         models.Number(m.D1()),
					D2:         models.Number(m.D2()),
					Breakeven:  models.Number(m.Breakeven(t)),
				})
			}
			return a.printRows(cmd.OutOrStdout(), [][2]string{
				{"type", t.String()},
				{"price", a.formatter.Currency(price).Display},
				{"breakeven", a.formatter.Currency(m.Breakeven(t)).Display},
				{"d1", a.formatter.Plain(m.D1(), 4).Display},
				{"d2", a.formatter.Plain(m.D2(), 4).Display},
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) greeksCmd() *cobra.Command {
	var f pricingFlags
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Print delta, gamma, theta, vega and rho",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pricing(f)
			if err != nil {
				return err
			}
			m, t := p.Model, p.OptionType
			g := m.Greeks(t)

			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), models.GreeksResponse{
					OptionType: t.String(),
					Greeks:     models.NewGreekValues(g),
				})
			}
			return a.printRows(cmd.OutOrStdout(), [][2]string{
				{"type", t.String()},
				{"delta", a.formatter.Greek(g.Delta).Display},
				{"gamma", a.formatter.Greek(g.Gamma).Display},
				{"theta", a.formatter.Greek(g.Theta).Display},
				{"vega", a.formatter.Greek(g.Vega).Display},
				{"rho", a.formatter.Greek(g.Rho).Display},
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) ivCmd() *cobra.Command {
	var (
		f           pricingFlags
		marketPrice float64
		maxIter     int
		tol         float64
	)
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve for the implied volatility of a market price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("market-price") {
				return errors.New("--market-price is required")
			}
			p, err := a.pricing(f)
			if err != nil {
				return err
			}
			m, t := p.Model, p.OptionType

			solver := blackscholes.Solver{MaxIterations: maxIter, Tolerance: tol}
			if !cmd.Flags().Changed("max-iter") {
				solver.MaxIterations = a.cfg.Solver.MaxIterations
			}
			if !cmd.Flags().Changed("tol") {
				solver.Tolerance = a.cfg.Solver.Tolerance
			}
			solver.Trace = func(s blackscholes.Step) {
				logger.Verbose.Printf("iter %d: vol=%.6f price=%.6f vega=%.6f diff=%.3e",
					s.Iteration, s.Volatility, s.Price, s.Vega, s.Diff)
			}

			res, err := solver.SolveDetailed(m, marketPrice, t)
			if err != nil {
				var serr *blackscholes.SolverError
				if errors.As(err, &serr) {
					logger.Warn.Printf("last volatility %.6f priced at %.6f", serr.LastVolatility, serr.LastPrice)
				}
				return err
			}

			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), models.ImpliedVolResponse{
					OptionType:        t.String(),
					ImpliedVolatility: models.Number(res.Volatility),
					Iterations:        res.Iterations,
					MarketPrice:       models.Number(marketPrice),
					Display:           a.formatter.Percentage(res.Volatility).Display,
				})
			}
			return a.printRows(cmd.OutOrStdout(), [][2]string{
				{"type", t.String()},
				{"market price", a.formatter.Currency(marketPrice).Display},
				{"implied vol", a.formatter.Percentage(res.Volatility).Display},
				{"iterations", fmt.Sprint(res.Iterations)},
			})
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&marketPrice, "market-price", 0, "observed option price")
	cmd.Flags().IntVar(&maxIter, "max-iter", 100, "maximum Newton iterations (default from config)")
	cmd.Flags().Float64Var(&tol, "tol", 1e-6, "absolute price tolerance (default from config)")
	return cmd
}

func (a *app) heatmapCmd() *cobra.Command {
	var (
		p          heatmap.Params
		optionType string
		field      string
	)
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print a strike × volatility grid of prices or one greek",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := a.heatmapParams(cmd, p)

			t, err := blackscholes.ParseOptionType(optionType)
			if err != nil {
				return err
			}
			grid, err := heatmap.Generate(params)
			if err != nil {
				return err
			}
			surface := grid.Calls
			if t == blackscholes.Put {
				surface = grid.Puts
			}

			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), models.HeatmapResponse{
					Params:       grid.Params,
					Strikes:      grid.Strikes,
					Volatilities: grid.Volatilities,
					Calls:        models.NewSurfaceValues(grid.Calls),
					Puts:         models.NewSurfaceValues(grid.Puts),
				})
			}
			return a.printGrid(cmd.OutOrStdout(), grid, surface, field)
		},
	}
	cmd.Flags().Float64Var(&p.Spot, "spot", 0, "spot price (default from config)")
	cmd.Flags().Float64Var(&p.Time, "time", 0, "time to expiry in years (default from config)")
	cmd.Flags().Float64Var(&p.Rate, "rate", 0, "risk-free rate (default from config)")
	cmd.Flags().Float64Var(&p.MinStrike, "min-strike", 0, "first strike (default from config)")
	cmd.Flags().Float64Var(&p.MaxStrike, "max-strike", 0, "last strike (default from config)")
	cmd.Flags().Float64Var(&p.StrikeStep, "strike-step", 0, "strike step (default from config)")
	cmd.Flags().Float64Var(&p.MinVol, "min-vol", 0, "first volatility (default from config)")
	cmd.Flags().Float64Var(&p.MaxVol, "max-vol", 0, "last volatility (default from config)")
	cmd.Flags().Float64Var(&p.VolStep, "vol-step", 0, "volatility step (default from config)")
	cmd.Flags().StringVar(&optionType, "type", "call", "option type (call or put)")
	cmd.Flags().StringVar(&field, "field", "price", "price or a greek name")
	return cmd
}

// heatmapParams starts from the configured grid and applies the flags the
// user actually set.
func (a *app) heatmapParams(cmd *cobra.Command, p heatmap.Params) heatmap.Params {
	d := a.cfg.Heatmap
	out := heatmap.Params{
		Spot: d.Spot, Time: d.Time, Rate: d.Rate,
		MinStrike: d.MinStrike, MaxStrike: d.MaxStrike, StrikeStep: d.StrikeStep,
		MinVol: d.MinVol, MaxVol: d.MaxVol, VolStep: d.VolStep,
	}
	overrides := map[string]struct {
		dst *float64
		v   float64
	}{
		"spot":        {&out.Spot, p.Spot},
		"time":        {&out.Time, p.Time},
		"rate":        {&out.Rate, p.Rate},
		"min-strike":  {&out.MinStrike, p.MinStrike},
		"max-strike":  {&out.MaxStrike, p.MaxStrike},
		"strike-step": {&out.StrikeStep, p.StrikeStep},
		"min-vol":     {&out.MinVol, p.MinVol},
		"max-vol":     {&out.MaxVol, p.MaxVol},
		"vol-step":    {&out.VolStep, p.VolStep},
	}
	for name, o := range overrides {
		if cmd.Flags().Changed(name) {
			*o.dst = o.v
		}
	}
	return out
}

func (a *app) printGrid(w io.Writer, grid *heatmap.Grid, s heatmap.Surface, field string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "vol \\ strike\t")
	for _, k := range grid.Strikes {
		fmt.Fprintf(tw, "%s\t", models.Round(k, 2))
	}
	fmt.Fprintln(tw)

	for i, vol := range grid.Volatilities {
		fmt.Fprintf(tw, "%s\t", a.formatter.Percentage(vol).Display)
		for j := range grid.Strikes {
			v := s.Prices[i][j]
			places := a.formatter.PricePlaces
			if field != "price" {
				g, err := heatmap.Pick(s.Greeks[i][j], field)
				if err != nil {
					return err
				}
				v, places = g, a.formatter.GreekPlaces
			}
			fmt.Fprintf(tw, "%s\t", models.Round(v, places))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bscalc %s\n", version)
		},
	}
}
