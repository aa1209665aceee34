package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/generation"
	"github.com/cozy-creator/meme-engine/internal/render"
	"github.com/cozy-creator/meme-engine/internal/services/filestorage"
	"github.com/cozy-creator/meme-engine/internal/worker"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Render every concept file in a directory",
	Long:  "Renders each .json or .txt file in dir as upstream concept output. The file name, without extension and with underscores as spaces, is the description.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustGetConfig()
		workers, _ := cmd.Flags().GetInt("workers")
		background, _ := cmd.Flags().GetString("background")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if workers <= 0 {
			workers = cfg.Workers
		}

		jobs, err := loadJobs(args[0])
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return fmt.Errorf("no .json or .txt files in %s", args[0])
		}

		if background != "" {
			img, err := render.LoadImage(background)
			if err != nil {
				return err
			}
			for i := range jobs {
				jobs[i].Request.Background = img
			}
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		storage, err := filestorage.NewFileStorage(cfg)
		if err != nil {
			return err
		}

		renderer := worker.NewBatchRenderer(engine, storage, workers, logger.GetLogger())
		defer renderer.Stop()
		if !quiet {
			renderer.WithProgress(cmd.ErrOrStderr())
		}

		failed := 0
		results := renderer.Run(jobs)
		out := make([]map[string]any, 0, len(results))
		for _, res := range results {
			entry := map[string]any{"job": res.Job.Name}
			if res.Err != nil {
				failed++
				entry["error"] = res.Err.Error()
			} else {
				entry["result"] = summarize(res.Result, res.Location)
			}
			out = append(out, entry)
		}

		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d job(s) failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().Int("workers", 0, "Concurrent renders, defaults to the configured worker count")
	batchCmd.Flags().String("background", "", "Background image for jobs that match no template")
	batchCmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")
}

func loadJobs(dir string) ([]worker.Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var jobs []worker.Job
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".json" && ext != ".txt") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		jobs = append(jobs, worker.Job{
			Name: entry.Name(),
			Request: generation.Request{
				Description: strings.ReplaceAll(name, "_", " "),
				ConceptText: upstreamText(data),
			},
		})
	}

	return jobs, nil
}
