package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/infra/catalog"
	"lesnouvelles-feed/internal/infra/scraper"
)

// Feed check statuses.
const (
	statusOK      = "OK"
	statusEmpty   = "EMPTY"
	statusTimeout = "TIMEOUT"
	statusError   = "ERROR"
)

type feedFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.FeedItem, error)
}

// feedDiagnostic is the result of reading one catalog feed.
type feedDiagnostic struct {
	Source     string    `json:"source"`
	Kind       string    `json:"kind"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Items      int       `json:"items"`
	Latest     time.Time `json:"latest,omitzero"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

var newFeedFetcher = func() feedFetcher {
	return scraper.NewRSSFetcher(&http.Client{Timeout: 30 * time.Second})
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the source catalog",
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch every catalog feed and report its health",
	Long: `Fetch every RSS and frontpage feed of the catalog and report, per feed,
the number of items, the newest publish date and the fetch time.

Statuses:
  OK       feed parsed with at least one item
  EMPTY    feed parsed without items
  TIMEOUT  no answer within --timeout
  ERROR    HTTP or parse failure`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")

		sources, err := catalog.Load(path)
		if err != nil {
			return err
		}
		diags := checkFeeds(cmd.Context(), newFeedFetcher(), sources, timeout)

		if asJSON {
			if err := printJSON(cmd, diags); err != nil {
				return err
			}
		} else {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tKIND\tSTATUS\tITEMS\tLATEST\tTIME\tURL")
			for _, d := range diags {
				latest := "-"
				if !d.Latest.IsZero() {
					latest = d.Latest.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%dms\t%s\n",
					d.Source, d.Kind, d.Status, d.Items, latest, d.DurationMS, d.URL)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		failing := 0
		for _, d := range diags {
			if d.Status != statusOK {
				failing++
			}
		}
		if failing > 0 {
			return fmt.Errorf("%d of %d feeds unhealthy", failing, len(diags))
		}
		return nil
	},
}

// checkFeeds reads every feed of sources sequentially, in catalog order.
func checkFeeds(ctx context.Context, fetcher feedFetcher, sources []entity.Source, timeout time.Duration) []feedDiagnostic {
	var diags []feedDiagnostic
	for _, src := range sources {
		for _, f := range src.Feeds {
			diags = append(diags, checkFeed(ctx, fetcher, src.Key, "rss:"+f.Category, f.URL, timeout))
		}
		for _, u := range src.Frontpage {
			diags = append(diags, checkFeed(ctx, fetcher, src.Key, "frontpage", u, timeout))
		}
	}
	return diags
}

func checkFeed(ctx context.Context, fetcher feedFetcher, source, kind, url string, timeout time.Duration) feedDiagnostic {
	d := feedDiagnostic{Source: source, Kind: kind, URL: url}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	items, err := fetcher.Fetch(ctx, url)
	d.DurationMS = time.Since(start).Milliseconds()
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (err != nil && ctx.Err() == context.DeadlineExceeded):
		d.Status = statusTimeout
		d.Error = fmt.Sprintf("no answer after %s", timeout)
		return d
	case err != nil:
		d.Status = statusError
		d.Error = err.Error()
		return d
	}

	d.Items = len(items)
	for _, it := range items {
		if it.PublishedAt.After(d.Latest) {
			d.Latest = it.PublishedAt
		}
	}
	if d.Items == 0 {
		d.Status = statusEmpty
		return d
	}
	d.Status = statusOK
	return d
}

func init() {
	file := os.Getenv("SOURCES_FILE")
	if file == "" {
		file = "sources.yaml"
	}
	sourcesCheckCmd.Flags().String("file", file, "catalog file (default $SOURCES_FILE)")
	sourcesCheckCmd.Flags().Duration("timeout", 30*time.Second, "per-feed timeout")
	sourcesCheckCmd.Flags().Bool("json", false, "print the report as JSON")
	sourcesCmd.AddCommand(sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}
