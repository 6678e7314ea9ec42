// brokerlink is the command-line interface to the broker integration layer:
// platform and provider discovery, account and trade fetching, account
// sync, and historical data queries.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
	"brokerlink/internal/history"
	"brokerlink/internal/platform"
	"brokerlink/internal/provider"
	"brokerlink/internal/store"
	"brokerlink/internal/util"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: brokerlink <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version     Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  platforms   List supported trading platforms\n")
	fmt.Fprintf(os.Stderr, "  providers   List market-data providers\n")
	fmt.Fprintf(os.Stderr, "  symbols     List symbols for a provider\n")
	fmt.Fprintf(os.Stderr, "  history     Fetch historical bars\n")
	fmt.Fprintf(os.Stderr, "  accounts    List accounts on a trading platform\n")
	fmt.Fprintf(os.Stderr, "  trades      List trades for one account\n")
	fmt.Fprintf(os.Stderr, "  sync        Sync one account and persist the snapshot\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("brokerlink %s\n", version)
	case "platforms":
		err = cmdPlatforms()
	case "providers":
		err = cmdProviders(os.Args[2:])
	case "symbols":
		err = cmdSymbols(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "accounts":
		err = cmdAccounts(os.Args[2:])
	case "trades":
		err = cmdTrades(os.Args[2:])
	case "sync":
		err = cmdSync(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when present and falls back to defaults.
func loadConfig() (*config.Config, error) {
	cfgPath := "config/brokerlink.yaml"
	if p := os.Getenv("BROKERLINK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level))
	return cfg, nil
}

func cmdPlatforms() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tFEATURES")
	for _, id := range platform.Supported() {
		a, err := platform.New(string(id))
		if err != nil {
			return err
		}
		var features []string
		if fr, ok := a.(platform.FeatureReporter); ok {
			for _, f := range fr.SupportedFeatures() {
				features = append(features, string(f))
			}
		}
		fmt.Fprintf(w, "%s\t%v\n", id, features)
	}
	return w.Flush()
}

func cmdProviders(args []string) error {
	fs := flag.NewFlagSet("providers", flag.ExitOnError)
	test := fs.Bool("test", false, "check connectivity to each provider")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := history.NewManager(provider.NewRegistry(cfg), nil)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tNAME\tASSETS\tAUTH")
	for _, id := range manager.AvailableProviders() {
		info, err := manager.ProviderInfo(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", info.ID, info.Name, info.Assets, info.RequiresAuth)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if *test {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, id := range manager.AvailableProviders() {
			if err := manager.TestProviderConnection(ctx, id); err != nil {
				fmt.Printf("%-14s FAIL: %v\n", id, err)
			} else {
				fmt.Printf("%-14s OK\n", id)
			}
		}
	}
	return nil
}

func cmdSymbols(args []string) error {
	fs := flag.NewFlagSet("symbols", flag.ExitOnError)
	providerID := fs.String("provider", "", "provider identifier (required)")
	fs.Parse(args)
	if *providerID == "" {
		return errors.New("symbols: -provider is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := history.NewManager(provider.NewRegistry(cfg), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	symbols, err := manager.AvailableSymbols(ctx, *providerID)
	if err != nil {
		return err
	}
	for _, s := range symbols {
		fmt.Println(s)
	}
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	providerID := fs.String("provider", "", "provider identifier (required)")
	symbol := fs.String("symbol", "", "symbol (required)")
	timeframe := fs.String("timeframe", "D1", "bar timeframe (M1..MN1)")
	startStr := fs.String("start", "", "window start, RFC 3339 or YYYY-MM-DD")
	endStr := fs.String("end", "", "window end, RFC 3339 or YYYY-MM-DD")
	save := fs.Bool("save", false, "persist fetched bars to the Parquet store")
	asJSON := fs.Bool("json", false, "emit bars as JSON")
	fs.Parse(args)
	if *providerID == "" || *symbol == "" {
		return errors.New("history: -provider and -symbol are required")
	}

	tf, err := domain.ParseTimeframe(*timeframe)
	if err != nil {
		return err
	}
	start, end, err := parseWindow(*startStr, *endStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := history.NewManager(provider.NewRegistry(cfg), history.NewCache(cfg.Cache.TTL))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	bars, err := manager.GetHistoricalData(ctx, *providerID, *symbol, tf, start, end)
	if err != nil {
		return err
	}

	if *save && len(bars) > 0 {
		bs := store.NewParquetStore(cfg.Storage.DataDir)
		if err := bs.WriteBars(ctx, *providerID, *symbol, tf, bars); err != nil {
			return fmt.Errorf("saving bars: %w", err)
		}
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(bars)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
	for _, b := range bars {
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\t%.5f\t%.0f\n",
			b.Time().Format(time.RFC3339), b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return w.Flush()
}

// connectFlags binds the credential flags shared by the account commands.
func connectFlags(fs *flag.FlagSet) *domain.Credentials {
	creds := &domain.Credentials{}
	fs.StringVar(&creds.Login, "login", "", "platform login")
	fs.StringVar(&creds.Password, "password", "", "platform password")
	fs.StringVar(&creds.InvestorPassword, "investor-password", "", "read-only investor password")
	fs.StringVar(&creds.Server, "broker-server", "", "broker server name")
	fs.StringVar(&creds.Username, "username", "", "platform username")
	fs.StringVar(&creds.APIKey, "api-key", "", "vendor API key")
	fs.StringVar(&creds.APISecret, "api-secret", "", "vendor API secret")
	return creds
}

// connect builds and connects an adapter for the named platform.
func connect(ctx context.Context, cfg *config.Config, platformID string, creds *domain.Credentials) (platform.Adapter, error) {
	adapter, err := platform.NewFactory(cfg).New(platformID)
	if err != nil {
		return nil, err
	}
	creds.Platform = platformID
	if err := adapter.Connect(ctx, *creds); err != nil {
		return nil, err
	}
	return adapter, nil
}

func cmdAccounts(args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	platformID := fs.String("platform", "", "platform identifier (required)")
	creds := connectFlags(fs)
	fs.Parse(args)
	if *platformID == "" {
		return errors.New("accounts: -platform is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	adapter, err := connect(ctx, cfg, *platformID, creds)
	if err != nil {
		return err
	}
	defer adapter.Disconnect(ctx, "")

	accounts, err := adapter.FetchAccounts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tBALANCE\tEQUITY\tCURRENCY")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			a.ID, a.Name, a.Status, a.Balance, a.Equity, a.Currency)
	}
	return w.Flush()
}

func cmdTrades(args []string) error {
	fs := flag.NewFlagSet("trades", flag.ExitOnError)
	platformID := fs.String("platform", "", "platform identifier (required)")
	accountID := fs.String("account", "", "account identifier (required)")
	creds := connectFlags(fs)
	fs.Parse(args)
	if *platformID == "" || *accountID == "" {
		return errors.New("trades: -platform and -account are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	adapter, err := connect(ctx, cfg, *platformID, creds)
	if err != nil {
		return err
	}
	defer adapter.Disconnect(ctx, *accountID)

	trades, err := adapter.FetchTrades(ctx, *accountID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tDIR\tSTATUS\tOPEN\tSIZE\tPROFIT")
	for _, tr := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
			tr.ID, tr.Symbol, tr.Direction, tr.Status,
			tr.OpenDate.Format("2006-01-02 15:04"), tr.Size, tr.Profit)
	}
	return w.Flush()
}

func cmdSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	platformID := fs.String("platform", "", "platform identifier (required)")
	accountID := fs.String("account", "", "account identifier (required)")
	creds := connectFlags(fs)
	fs.Parse(args)
	if *platformID == "" || *accountID == "" {
		return errors.New("sync: -platform and -account are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	adapter, err := connect(ctx, cfg, *platformID, creds)
	if err != nil {
		return err
	}
	defer adapter.Disconnect(ctx, *accountID)

	snap, err := adapter.SyncAccount(ctx, *accountID)
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	defer db.Close()
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	fmt.Printf("synced %s: balance %.2f %s, %d trades (stored in %s)\n",
		snap.Account.ID, snap.Account.Balance, snap.Account.Currency,
		len(snap.Trades), cfg.Storage.SQLitePath)
	return nil
}

// parseWindow resolves the optional start/end strings, defaulting to the
// month ending now.
func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start, end := now.AddDate(0, -1, 0), now
	var err error
	if startStr != "" {
		if start, err = parseStamp(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		if end, err = parseStamp(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func parseStamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", v)
}
