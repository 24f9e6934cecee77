package main

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/job"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/pipeline"
)

var (
	runInput    string
	runProgress bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one job request from a file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		raw, err := readJobInput(runInput)
		if err != nil {
			return err
		}

		req, err := job.ParseRequest(raw)
		if err != nil {
			return eris.Wrap(err, "parse job request")
		}

		pipe := pipeline.New(cfg, newRateviewClient())
		if runProgress {
			pipe.WithProgress(progressFunc(cmd.ErrOrStderr()))
		}
		handler := job.NewHandler(pipe)

		start := time.Now()
		out := handler.Handle(cmd.Context(), req.Input)
		logJobOutcome(req.ID, out, time.Since(start))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// readJobInput reads the job envelope from a file, or stdin when path is "-".
func readJobInput(path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, eris.Wrap(err, "read stdin")
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read input file")
	}
	return raw, nil
}

// progressFunc renders a bar over match completions. The bar is created on
// the first callback, once the total is known; callbacks may be concurrent.
func progressFunc(w io.Writer) func(done, total int) {
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	return func(done, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("looking up market rates"),
			)
		})
		_ = bar.Add(1)
	}
}

func logJobOutcome(id string, out any, took time.Duration) {
	if errOut, ok := out.(job.ErrorOutput); ok {
		zap.L().Warn("job failed",
			zap.String("job_id", id),
			zap.String("error", errOut.Error),
			zap.Duration("took", took),
		)
		return
	}
	if result, ok := out.(*model.Result); ok {
		zap.L().Info("job complete",
			zap.String("job_id", id),
			zap.Int("processed_matches", len(result.ProcessedMatches)),
			zap.Duration("took", took),
		)
	}
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "-", "path to the job request JSON (\"-\" for stdin)")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress bar on stderr")
	rootCmd.AddCommand(runCmd)
}
