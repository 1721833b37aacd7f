package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/zcta-census/internal/census"
	"github.com/sells-group/zcta-census/internal/export"
	"github.com/sells-group/zcta-census/internal/fetcher"
	"github.com/sells-group/zcta-census/internal/table"
)

var (
	fetchYear     int
	fetchDataset  string
	fetchVars     []string
	fetchUnit     string
	fetchTopic    string
	fetchOut      string
	fetchPG       bool
	fetchDescribe bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Query one Census dataset for every Cook County ZCTA",
	Long: `Builds the query for one dataset, fetches it, and prints or exports the
resulting table. A failed query can be attempted again interactively.

Examples:
  zcta-census fetch --year 2020 --dataset acs/acs5 --vars NAME,B01001_001E --topic population
  zcta-census fetch --year 2020 --dataset acs/acs5 --vars NAME,B19013_001E --topic income --out census.xlsx
  zcta-census fetch --year 2020 --dataset acs/acs5 --vars NAME,B19013_001E --topic income --pg --describe`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		w, err := openWriter(ctx, fetchOut, fetchPG)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close() //nolint:errcheck
		}

		sess := newSession(newGetter())
		t, err := retrieveWithRetry(ctx, sess, fetchRequest(), newStdinPrompter().Confirm)
		if fetchDescribe {
			fmt.Fprintln(cmd.OutOrStdout(), sess.String())
		}
		if err != nil {
			return err
		}

		return emit(ctx, cmd.OutOrStdout(), w, sess.Topic(), t)
	},
}

func init() {
	f := fetchCmd.Flags()
	f.IntVar(&fetchYear, "year", 0, "dataset vintage, e.g. 2020 (required)")
	f.StringVar(&fetchDataset, "dataset", "acs/acs5", "dataset path under the year")
	f.StringSliceVar(&fetchVars, "vars", nil, "comma-separated variables to get (required)")
	f.StringVar(&fetchUnit, "unit", "zip code tabulation area", "geographic unit for the for= clause")
	f.StringVar(&fetchTopic, "topic", "", "label for the dataset used in messages and table names (required)")
	f.StringVar(&fetchOut, "out", "", "export to a .xlsx workbook, a .db SQLite file, or a CSV directory")
	f.BoolVar(&fetchPG, "pg", false, "load the table into Postgres (store.database_url)")
	f.BoolVar(&fetchDescribe, "describe", false, "print the session summary")
	_ = fetchCmd.MarkFlagRequired("year")
	_ = fetchCmd.MarkFlagRequired("vars")
	_ = fetchCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(fetchCmd)
}

func fetchRequest() census.Request {
	return census.Request{
		Year:      fetchYear,
		Dataset:   fetchDataset,
		Variables: fetchVars,
		Unit:      fetchUnit,
		Topic:     fetchTopic,
	}
}

func newGetter() fetcher.Getter {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Census.UserAgent,
		Timeout:   cfg.Census.Timeout(),
	})
}

func newSession(g fetcher.Getter) *census.Session {
	return census.NewSession(g, census.Options{
		BaseURL: cfg.Census.BaseURL,
		APIKey:  cfg.Census.APIKey,
	})
}

// retrieveWithRetry runs the first attempt and, if the API reports a
// failure, asks before handing the session to RetryRetrieval.
func retrieveWithRetry(ctx context.Context, sess *census.Session, req census.Request, confirm census.Confirm) (*table.Table, error) {
	t, err := sess.Retrieve(ctx, req)
	if err == nil || !errors.Is(err, census.ErrRetrieval) {
		return t, err
	}
	return retryAfterFailure(ctx, sess, confirm)
}

func retryAfterFailure(ctx context.Context, sess *census.Session, confirm census.Confirm) (*table.Table, error) {
	again, err := confirm(ctx, sess.Topic())
	if err != nil {
		return nil, eris.Wrap(err, "confirm retry")
	}
	if !again {
		zap.L().Info(fmt.Sprintf("continuing without %s dataset", sess.Topic()), zap.String("topic", sess.Topic()))
		return nil, eris.Wrapf(census.ErrDeclined, "continuing without %s dataset", sess.Topic())
	}
	return sess.RetryRetrieval(ctx, confirm)
}

// emit exports t through w, or prints it to out when there is no writer.
func emit(ctx context.Context, out io.Writer, w export.Writer, topic string, t *table.Table) error {
	if w == nil {
		fmt.Fprintf(out, "# %s\n", topic)
		export.Print(out, t)
		return nil
	}
	return eris.Wrapf(w.Write(ctx, topic, t), "export %s", topic)
}
