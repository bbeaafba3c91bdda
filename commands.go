package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inmo_dedup/httputil"
	"inmo_dedup/models"
	"inmo_dedup/scheduler"
	"inmo_dedup/scraper"
	"inmo_dedup/services"
	"inmo_dedup/storage"
)

func init() {
	scrapeCmd.Flags().String("site", "", "scrape only this site id")

	dedupCmd.Flags().String("category", "", "only compare listings of this category")
	dedupCmd.Flags().String("site", "", "only compare listings from this site")
	dedupCmd.Flags().Duration("since", 0, "only compare listings scraped within this window")

	matchesCmd.Flags().String("status", models.MatchStatusPending, "match status to list, empty for all")

	reportCmd.Flags().String("field", "price", "value to band: price or area")
	reportCmd.Flags().String("limits", "50000,100000,200000", "ascending comma-separated band limits")
	reportCmd.Flags().String("category", "", "only report listings of this category")

	similarCmd.Flags().Float64("threshold", 0.8, "minimum cosine similarity")
	similarCmd.Flags().Bool("fold-accents", true, "treat accented and plain letters alike")

	rootCmd.AddCommand(scrapeCmd, dedupCmd, matchesCmd, reportCmd, similarCmd, daemonCmd)
}

// -- scrape --

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the configured sites once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orch, err := newOrchestrator(ctx, st)
		if err != nil {
			return err
		}

		if site, _ := cmd.Flags().GetString("site"); site != "" {
			run, err := orch.RunSite(ctx, site)
			if run != nil {
				fmt.Fprintf(os.Stdout, "%s: %d pages, %d found, %d saved, %d errors\n",
					site, run.PagesFetched, run.ListingsFound, run.ListingsSaved, run.ErrorsCount)
			}
			return err
		}
		return orch.RunAll(ctx)
	},
}

func newOrchestrator(ctx context.Context, st storage.Store) (*scraper.Orchestrator, error) {
	archive, err := storage.NewPageArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	clients, err := httputil.NewClients(cfg.Scraper)
	if err != nil {
		return nil, err
	}
	fetcher := scraper.NewFetcher(clients.Scraping, cfg.Scraper.UserAgent)
	listings := services.NewListingService(st, cfg.Format)
	return scraper.NewOrchestrator(cfg, st, archive, fetcher, listings)
}

// -- dedup --

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Find duplicate listings and store them as matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := listingFilter(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := services.NewMatchService(st, newEngine(), cfg.Format, cfg.Dedup.Workers)
		result, err := svc.Run(ctx, filter)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "compared %d pairs: %d duplicates (%d new), %d skipped\n",
			result.Compared, len(result.Matches), result.Inserted, len(result.Errors))
		return nil
	},
}

func listingFilter(cmd *cobra.Command) (storage.ListingFilter, error) {
	var filter storage.ListingFilter
	if c, _ := cmd.Flags().GetString("category"); c != "" {
		category, err := models.ParseCategory(c)
		if err != nil {
			return filter, err
		}
		filter.Category = category
	}
	if f := cmd.Flags().Lookup("site"); f != nil {
		filter.SiteID = f.Value.String()
	}
	if f := cmd.Flags().Lookup("since"); f != nil {
		if since, err := time.ParseDuration(f.Value.String()); err == nil && since > 0 {
			filter.Since = time.Now().Add(-since)
		}
	}
	return filter, nil
}

// -- matches --

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List stored duplicate matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, _ := cmd.Flags().GetString("status")
		matches, err := st.ListMatches(ctx, status)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No matches found.")
			return nil
		}
		formatMatches(os.Stdout, matches)
		return nil
	},
}

func formatMatches(w io.Writer, matches []models.PropertyMatch) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LISTING A\tLISTING B\tCATEGORY\tSTATUS\tREASONS")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ListingA, m.ListingB, m.Category, m.Status, string(m.MatchReasons))
	}
	tw.Flush()
}

// -- report --

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Count stored listings per price or area band",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rawLimits, _ := cmd.Flags().GetString("limits")
		limits, err := parseLimits(rawLimits)
		if err != nil {
			return err
		}
		filter, err := listingFilter(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := services.NewReportService(st, cfg.Format)
		records, err := svc.Load(ctx, filter)
		if err != nil {
			return err
		}

		field, _ := cmd.Flags().GetString("field")
		var report *services.BandReport
		switch field {
		case "price":
			report, err = svc.PriceBands(records, limits)
		case "area":
			report, err = svc.AreaBands(records, limits)
		default:
			return eris.Errorf("report: unknown field %q", field)
		}
		if err != nil {
			return err
		}

		formatReport(os.Stdout, report)
		return nil
	},
}

func parseLimits(s string) ([]float64, error) {
	var limits []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "limits: %q", part)
		}
		limits = append(limits, v)
	}
	return limits, nil
}

func formatReport(w io.Writer, report *services.BandReport) {
	categories := make([]models.Category, 0, len(report.ByCategory))
	for c := range report.ByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "BAND\tTOTAL"
	for _, c := range categories {
		header += "\t" + strings.ToUpper(string(c))
	}
	fmt.Fprintln(tw, header)
	for _, label := range report.Labels {
		line := fmt.Sprintf("%s\t%d", label, report.Counts[label])
		for _, c := range categories {
			line += fmt.Sprintf("\t%d", report.ByCategory[c][label])
		}
		fmt.Fprintln(tw, line)
	}
	fmt.Fprintf(tw, "no value\t%d\n", report.Missing)
	tw.Flush()
}

// -- similar --

var similarCmd = &cobra.Command{
	Use:   "similar <names-a> <names-b>",
	Short: "Pair up similar neighborhood names from two files, one name per line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := readLines(args[0])
		if err != nil {
			return err
		}
		b, err := readLines(args[1])
		if err != nil {
			return err
		}

		threshold, _ := cmd.Flags().GetFloat64("threshold")
		fold, _ := cmd.Flags().GetBool("fold-accents")

		svc := services.NewNeighborhoodService(cfg.StopWords(), fold)
		pairs, err := svc.Similar(a, b, threshold)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tA\tB")
		for _, p := range pairs {
			fmt.Fprintf(tw, "%.3f\t%s\t%s\n", p.Score, p.TextA, p.TextB)
		}
		return tw.Flush()
	},
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, eris.Wrapf(sc.Err(), "read %s", path)
}

// -- daemon --

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scrape and dedup cycles on the configured schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orch, err := newOrchestrator(ctx, st)
		if err != nil {
			return err
		}
		matcher := services.NewMatchService(st, newEngine(), cfg.Format, cfg.Dedup.Workers)

		sched := scheduler.New(cfg.Scheduler, orch, matcher)
		if err := sched.Start(ctx); err != nil {
			return err
		}

		zap.L().Info("daemon running, press Ctrl+C to stop", zap.Strings("sites", orch.SiteIDs()))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		zap.L().Info("shutting down")
		cancel()
		sched.Stop()
		return nil
	},
}
