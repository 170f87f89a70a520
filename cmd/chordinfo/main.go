// Command chordinfo prints the chord timeline of WAV files.
//
// Usage:
//
//	chordinfo [flags] file.wav ...
//
// Timelines are cached in a SQLite database keyed by file and analysis
// settings when -db (or STEMFX_DB) is set.
//
// Examples:
//
//	chordinfo song.wav
//	chordinfo -json -db ~/.cache/stemfx.db stems/*.wav
//	chordinfo -window 0.5 -hop 0.25 -stable 3 bass.wav
//	chordinfo -missing -db stemfx.db stems/*.wav
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-stemfx/analysis/chord"
	"github.com/cwbudde/algo-stemfx/internal/config"
	"github.com/cwbudde/algo-stemfx/internal/jobs"
	"github.com/cwbudde/algo-stemfx/internal/wavio"
	"github.com/cwbudde/algo-stemfx/store"
)

type fileResult struct {
	Path     string         `json:"path"`
	Duration float64        `json:"duration"`
	Cached   bool           `json:"cached"`
	Timeline chord.Timeline `json:"timeline"`
	Err      string         `json:"error,omitempty"`
}

func main() {
	cfg := config.Load()
	defaults := chord.DefaultOptions()

	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	dbPath := flag.String("db", cfg.DBPath, "SQLite timeline cache (empty: no cache)")
	workers := flag.Int("workers", cfg.Workers, "number of concurrent analyses")
	windowSec := flag.Float64("window", defaults.WindowSeconds, "analysis frame length in seconds")
	hopSec := flag.Float64("hop", defaults.HopSeconds, "distance between frames in seconds")
	confidence := flag.Float64("confidence", defaults.MinimumConfidence, "minimum chord confidence")
	stable := flag.Int("stable", defaults.StableFrameCount, "frames a chord needs to be reported")
	rate := flag.Float64("rate", cfg.TargetSampleRate, "analysis sample rate (0: input rate)")
	missing := flag.Bool("missing", false, "only list files without a cached timeline")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chordinfo [flags] file.wav ...\n\n")
		fmt.Fprintf(os.Stderr, "Prints the chord timeline of WAV files.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  STEMFX_DB, STEMFX_WORKERS, STEMFX_LOG_LEVEL, STEMFX_TARGET_RATE\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := cfg.Logger()

	opts, err := chord.ResolveOptions(
		chord.WithWindowSeconds(*windowSec),
		chord.WithHopSeconds(*hopSec),
		chord.WithMinimumConfidence(*confidence),
		chord.WithStableFrameCount(*stable),
		chord.WithTargetSampleRate(*rate),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := openStore(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *missing {
		if err := printMissing(ctx, os.Stdout, st, paths); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	results, err := analyzeAll(ctx, st, opts, paths, max(1, *workers), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		err = printJSON(os.Stdout, results)
	} else {
		err = printTable(os.Stdout, results)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output: %v\n", err)
		os.Exit(1)
	}

	for _, r := range results {
		if r.Err != "" {
			os.Exit(1)
		}
	}
}

func openStore(ctx context.Context, path string) (store.Store, error) {
	if path == "" {
		return store.NewMemory(), nil
	}

	return store.OpenSQLite(ctx, path)
}

// trackID identifies a file by its absolute path.
func trackID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return path
}

// analyzeAll analyses paths on a worker pool. Per-file failures are reported
// in the result; only pool setup errors are returned.
func analyzeAll(
	ctx context.Context,
	st store.Store,
	opts chord.Options,
	paths []string,
	workers int,
	log logrus.FieldLogger,
) ([]fileResult, error) {
	key := opts.Fingerprint()

	m, err := jobs.New(func() (jobs.Worker[string, fileResult], error) {
		return func(ctx context.Context, path string) (fileResult, error) {
			return analyzeFile(ctx, st, key, opts, path)
		}, nil
	}, min(workers, len(paths)), jobs.WithLogger(log))
	if err != nil {
		return nil, err
	}
	defer m.Close()

	results := make([]fileResult, len(paths))
	done := make(chan struct{})

	for i, p := range paths {
		go func() {
			defer func() { done <- struct{}{} }()

			start := time.Now()

			r, err := m.Run(ctx, p)
			if err != nil {
				r = fileResult{Path: p, Err: err.Error()}
			}

			results[i] = r

			log.WithFields(logrus.Fields{
				"file":     p,
				"cached":   r.Cached,
				"chords":   len(r.Timeline),
				"duration": time.Since(start),
			}).Debug("file analysed")
		}()
	}

	for range paths {
		<-done
	}

	return results, nil
}

func analyzeFile(ctx context.Context, st store.Store, key string, opts chord.Options, path string) (fileResult, error) {
	id := trackID(path)

	a, err := wavio.Read(path)
	if err != nil {
		return fileResult{}, err
	}

	res := fileResult{Path: path, Duration: a.Duration()}

	tl, ok, err := st.Get(ctx, id, key)
	if err != nil {
		return fileResult{}, err
	}

	if ok {
		res.Cached = true
		res.Timeline = tl

		return res, nil
	}

	tl, err = chord.Analyze(ctx, a.Channels, float64(a.SampleRate), chord.WithOptions(opts))
	if err != nil {
		return fileResult{}, err
	}

	if err := st.Put(ctx, id, key, tl); err != nil {
		return fileResult{}, err
	}

	res.Timeline = tl

	return res, nil
}

func printMissing(ctx context.Context, w io.Writer, st store.Store, paths []string) error {
	ids := make([]string, len(paths))
	byID := make(map[string]string, len(paths))

	for i, p := range paths {
		ids[i] = trackID(p)
		byID[ids[i]] = p
	}

	missing, err := st.Missing(ctx, ids)
	if err != nil {
		return err
	}

	for _, id := range missing {
		if _, err := fmt.Fprintln(w, byID[id]); err != nil {
			return err
		}
	}

	return nil
}

func printJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func printTable(w io.Writer, results []fileResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "File\tTime [s]\tChord\tConfidence\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "----\t--------\t-----\t----------\n"); err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != "" {
			if _, err := fmt.Fprintf(tw, "%s\t-\terror: %s\t-\n", r.Path, r.Err); err != nil {
				return err
			}

			continue
		}

		for _, s := range r.Timeline {
			if _, err := fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.2f\n", r.Path, s.Time, s.Chord, s.Confidence); err != nil {
				return err
			}
		}
	}

	return tw.Flush()
}
