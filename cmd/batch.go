package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/zcta-census/internal/census"
	"github.com/sells-group/zcta-census/internal/export"
	"github.com/sells-group/zcta-census/internal/table"
)

var (
	batchOut string
	batchPG  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run every query in a YAML manifest",
	Long: `Runs each query of a manifest in its own session. First attempts run
concurrently; failed queries are then offered for retry one at a time.

Manifest:
  year: 2020
  dataset: acs/acs5
  unit: zip code tabulation area
  queries:
    - topic: population
      variables: [NAME, B01001_001E]
    - topic: income
      year: 2019
      variables: [NAME, B19013_001E]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		m, err := loadManifest(args[0])
		if err != nil {
			return err
		}

		w, err := openWriter(ctx, batchOut, batchPG)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close() //nolint:errcheck
		}

		getter := newGetter()
		results := runBatch(ctx, m.Queries, cfg.Batch.MaxConcurrentQueries,
			func() *census.Session { return newSession(getter) },
			newStdinPrompter().Confirm,
		)

		return finishBatch(ctx, cmd.OutOrStdout(), w, results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOut, "out", "", "export to a .xlsx workbook, a .db SQLite file, or a CSV directory")
	batchCmd.Flags().BoolVar(&batchPG, "pg", false, "load tables into Postgres (store.database_url)")
	rootCmd.AddCommand(batchCmd)
}

// manifest lists the queries of a batch run. Top-level year, dataset and
// unit fill in queries that leave them empty.
type manifest struct {
	Year    int              `yaml:"year"`
	Dataset string           `yaml:"dataset"`
	Unit    string           `yaml:"unit"`
	Queries []census.Request `yaml:"queries"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read manifest %s", path)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (*manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "batch: parse manifest")
	}
	if len(m.Queries) == 0 {
		return nil, eris.New("batch: manifest has no queries")
	}

	topics := make(map[string]int, len(m.Queries))
	for i := range m.Queries {
		q := &m.Queries[i]
		if q.Year == 0 {
			q.Year = m.Year
		}
		if q.Dataset == "" {
			q.Dataset = m.Dataset
		}
		if q.Unit == "" {
			q.Unit = m.Unit
		}
		if q.Topic == "" {
			return nil, eris.Errorf("batch: query %d has no topic", i)
		}
		if j, dup := topics[q.Topic]; dup {
			return nil, eris.Errorf("batch: queries %d and %d share topic %q", j, i, q.Topic)
		}
		topics[q.Topic] = i
		if err := q.Validate(); err != nil {
			return nil, eris.Wrapf(err, "batch: query %q", q.Topic)
		}
	}

	names := make([]string, len(m.Queries))
	for i, q := range m.Queries {
		names[i] = q.Topic
	}
	if err := export.CheckNames(names); err != nil {
		return nil, eris.Wrap(err, "batch: manifest topics")
	}
	return &m, nil
}

// batchResult is the outcome of one manifest query.
type batchResult struct {
	session *census.Session
	table   *table.Table
	err     error
}

// runBatch makes the first attempt of every query concurrently, at most
// concurrency at a time, then offers each API failure for retry in
// manifest order. Each session is used by a single goroutine at a time.
func runBatch(ctx context.Context, queries []census.Request, concurrency int, newSession func() *census.Session, confirm census.Confirm) []batchResult {
	results := make([]batchResult, len(queries))

	zap.L().Info("processing batch",
		zap.Int("queries", len(queries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, q := range queries {
		results[i].session = newSession()
		g.Go(func() error {
			r := &results[i]
			r.table, r.err = r.session.Retrieve(gctx, q)
			if r.err != nil {
				zap.L().Warn("census query failed", zap.String("topic", q.Topic), zap.Error(r.err))
			}
			return nil // one failed query does not stop the others
		})
	}
	_ = g.Wait()

	for i := range results {
		r := &results[i]
		if r.err == nil || !errors.Is(r.err, census.ErrRetrieval) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		r.table, r.err = retryAfterFailure(ctx, r.session, confirm)
	}

	return results
}

// finishBatch exports successful tables, prints every session summary and
// reports queries that failed for reasons other than a declined retry.
func finishBatch(ctx context.Context, out io.Writer, w export.Writer, results []batchResult) error {
	var succeeded, declined, failed int

	for _, r := range results {
		switch {
		case r.err == nil:
			if err := emit(ctx, out, w, r.session.Topic(), r.table); err != nil {
				return err
			}
			succeeded++
		case eris.Is(r.err, census.ErrDeclined):
			declined++
		default:
			failed++
			zap.L().Error("census query abandoned", zap.String("topic", r.session.Topic()), zap.Error(r.err))
		}
	}

	for _, r := range results {
		fmt.Fprintf(out, "\n%s\n", r.session.String())
	}

	zap.L().Info("batch complete",
		zap.Int("succeeded", succeeded),
		zap.Int("declined", declined),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return eris.Errorf("batch: %d of %d queries failed", failed, len(results))
	}
	return nil
}
