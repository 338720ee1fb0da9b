package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/config"
	"github.com/ledgerworks/taxpilot/pkg/engine"
	"github.com/ledgerworks/taxpilot/pkg/health"
	"github.com/ledgerworks/taxpilot/pkg/router"
	"github.com/ledgerworks/taxpilot/pkg/solver"
)

var policyFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "taxpilot",
		Short: "Routes professional tax and accounting queries to the right language model",
		Long: `Taxpilot classifies a natural-language tax, audit, reporting, or
compliance question, decides whether it needs clarification before being
answered, runs deterministic financial calculations, and walks a
health-ordered chain of LLM providers until one responds.`,
	}

	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "path to routing policy file")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	var (
		tier       string
		chatMode   string
		attachPath string
		offline    bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Run a query through the full decision pipeline",
		Long: `Classifies the query, decides whether clarification is needed first,
runs any matching financial solvers, and invokes providers along the
health-ordered fallback chain.

With --offline the pipeline runs against mock providers, useful for
inspecting routing, clarification, and solver behavior without API keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var adapters map[string]adapter.Adapter
			if offline {
				adapters = offlineAdapters()
			} else {
				adapters, err = createAdapters(cfg)
				if err != nil {
					return err
				}
				if len(adapters) == 0 {
					return fmt.Errorf("no provider API keys configured; set ANTHROPIC_API_KEY and friends, or pass --offline")
				}
			}

			eng := engine.New(adapters,
				engine.WithPolicy(cfg.Policy),
				engine.WithLogger(logger),
				engine.WithTimeout(cfg.ProviderTimeout),
				engine.WithTemperature(cfg.Temperature),
				engine.WithMaxTokens(cfg.MaxTokens),
				engine.WithClassifierCache(cfg.ClassifierCacheSize),
			)

			q := engine.Query{Text: args[0], Tier: tier, ChatMode: chatMode}
			if attachPath != "" {
				att, err := readAttachment(attachPath)
				if err != nil {
					return err
				}
				q.Attachment = att
			}

			res, err := eng.Process(cmd.Context(), q)
			if err != nil {
				return err
			}

			if jsonOut {
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			if res.Provider != "" {
				fmt.Fprintf(os.Stderr, "[%s/%s, %d tokens, %dms]\n",
					res.Provider, res.ModelUsed, res.TokensUsed, res.ProcessingTimeMs)
			}
			fmt.Println(res.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", config.TierProfessional, "subscription tier (free, professional, enterprise)")
	cmd.Flags().StringVar(&chatMode, "mode", "", "chat mode (research, draft, concise)")
	cmd.Flags().StringVar(&attachPath, "attach", "", "path to a document to include with the query")
	cmd.Flags().BoolVar(&offline, "offline", false, "use mock providers instead of real APIs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")

	return cmd
}

func classifyCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "classify [query]",
		Short: "Show how a query is classified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls := classify.New().Classify(args[0], classify.DocumentHint{})

			if jsonOut {
				out, err := json.MarshalIndent(cls, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Domain\t%s\n", cls.Domain)
			if cls.SubDomain != "" {
				fmt.Fprintf(w, "Subdomain\t%s\n", cls.SubDomain)
			}
			fmt.Fprintf(w, "Complexity\t%s\n", cls.Complexity)
			if len(cls.Jurisdictions) > 0 {
				fmt.Fprintf(w, "Jurisdictions\t%s\n", strings.Join(cls.Jurisdictions, ", "))
			}
			fmt.Fprintf(w, "Flags\t%s\n", strings.Join(requirementFlags(cls), ", "))
			fmt.Fprintf(w, "Confidence\t%.2f\n", cls.Confidence)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")

	return cmd
}

func requirementFlags(cls classify.Classification) []string {
	var flags []string
	if cls.RequiresDocumentAnalysis {
		flags = append(flags, "document-analysis")
	}
	if cls.RequiresResearch {
		flags = append(flags, "research")
	}
	if cls.RequiresRealTimeData {
		flags = append(flags, "real-time-data")
	}
	if cls.RequiresDeepReasoning {
		flags = append(flags, "deep-reasoning")
	}
	if len(flags) == 0 {
		return []string{"none"}
	}
	return flags
}

func solveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve [query]",
		Short: "Run the deterministic financial solvers against a query",
		Long: `Extracts numeric parameters from the query and runs every matching
solver (corporate tax, NPV, IRR, depreciation, amortization) without
contacting a provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := solver.Dispatch(args[0])
			if len(results) == 0 {
				fmt.Println("No solver matched the query.")
				return nil
			}
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func routesCmd() *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show the routing policy table",
		Long: `Prints every (domain, complexity) policy cell with its provider, model,
and solver set. With --tier the MODEL column shows the model actually
served under that tier's capability cap.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			r := router.New(cfg.Policy)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DOMAIN\tCOMPLEXITY\tPROVIDER\tMODEL\tSOLVERS")

			for _, info := range r.Routes() {
				model := info.Model
				if tier != "" {
					decision := r.Route(classify.Classification{
						Domain:     classify.Domain(info.Domain),
						Complexity: classify.Complexity(info.Complexity),
						Confidence: 1,
					}, tier)
					model = decision.PrimaryModel
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					info.Domain, info.Complexity, info.Provider, model, strings.Join(info.Solvers, ", "))
			}

			fmt.Fprintln(w)
			fmt.Fprintf(w, "DEFAULT\t-\t%s\t%s\t-\n", cfg.Policy.Default.Provider, cfg.Policy.Default.Model)
			fmt.Fprintf(w, "BASELINES\t-\t%s\t-\t-\n", strings.Join(cfg.Policy.Providers.Baselines, ", "))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "show effective models under this tier's cap")

	return cmd
}

func healthCmd() *cobra.Command {
	var (
		probe   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show provider health",
		Long: `Lists configured providers with their health metrics. With --probe,
sends a one-line prompt to each configured provider first, so the table
reflects a live round trip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}
			if len(adapters) == 0 {
				fmt.Println("No provider API keys configured.")
				return nil
			}

			names := make([]string, 0, len(adapters))
			for name := range adapters {
				names = append(names, name)
			}
			sort.Strings(names)

			monitor := health.NewMonitor()
			monitor.Register(names...)

			if probe {
				for _, name := range names {
					probeProvider(cmd.Context(), monitor, cfg, name, adapters[name], timeout)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tSCORE\tHEALTHY\tFAILURES\tCOOLDOWN")
			for _, m := range monitor.Snapshot() {
				cooldown := "-"
				if monitor.InCooldown(m.Provider) {
					cooldown = time.Until(m.RateLimitUntil).Round(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%d\t%v\t%d\t%s\n",
					m.Provider, m.HealthScore, monitor.IsHealthy(m.Provider), m.ConsecutiveFailures, cooldown)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "send a live test prompt to each provider")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "per-provider probe timeout")

	return cmd
}

func probeProvider(ctx context.Context, monitor *health.Monitor, cfg *config.Config, name string, a adapter.Adapter, timeout time.Duration) {
	model := cfg.Policy.Catalog.CapModelFor(name, config.ClassLight)
	if model == "" {
		if models := a.Models(); len(models) > 0 {
			model = models[0]
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := a.Complete(probeCtx, &adapter.Request{
		Model:     model,
		Messages:  []adapter.Message{{Role: adapter.RoleUser, Content: "Reply with the single word: ok"}},
		MaxTokens: 8,
	})
	if err != nil {
		monitor.RecordFailure(name, err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return
	}
	monitor.RecordSuccess(name)
}

func loadConfig() (*config.Config, error) {
	if policyFile != "" {
		return config.LoadWithPolicyFile(policyFile)
	}
	return config.Load()
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogMode == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	if cfg.ThrottleRPS > 0 {
		for name, a := range adapters {
			adapters[name] = adapter.NewThrottledAdapter(a, rate.Limit(cfg.ThrottleRPS), cfg.ThrottleBurst)
		}
	}

	return adapters, nil
}

// offlineAdapters registers a mock under every provider name so the full
// pipeline, including routing and fallback, runs without API keys.
func offlineAdapters() map[string]adapter.Adapter {
	names := []string{"anthropic", "openai", "google", "deepseek"}
	adapters := make(map[string]adapter.Adapter, len(names))
	for _, name := range names {
		adapters[name] = adapter.NewMockAdapter().WithName(name)
	}
	return adapters
}

func readAttachment(path string) (*adapter.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "text/plain"
	}

	return &adapter.Attachment{
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}
