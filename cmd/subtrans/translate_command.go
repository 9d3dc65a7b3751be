package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"subtrans/internal/language"
	"subtrans/internal/logging"
	"subtrans/internal/services"
	"subtrans/internal/services/gemini"
	"subtrans/internal/stats"
	"subtrans/internal/subtitle"
	"subtrans/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var modeFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "translate <file.srt>",
		Short: "Translate a subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			mode, err := translate.ParseMode(modeFlag)
			if err != nil {
				return fmt.Errorf("invalid --mode: %w", err)
			}

			targetLanguage := strings.TrimSpace(langFlag)
			if targetLanguage == "" && len(cfg.Translation.TargetLanguages) > 0 {
				targetLanguage = cfg.Translation.TargetLanguages[0]
			}

			if mode != translate.ModeMock {
				if err := cfg.RequireGeminiKey(); err != nil {
					return err
				}
			}

			inputPath := args[0]
			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read subtitle: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			capability := translate.NewSwitch(gemini.NewClient(gemini.Config{
				APIKey:         cfg.Gemini.APIKey,
				BaseURL:        cfg.Gemini.BaseURL,
				FastModel:      cfg.Gemini.FastModel,
				NormalModel:    cfg.Gemini.NormalModel,
				TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
			}))

			backoff := translate.DefaultBackoff()
			if cfg.Translation.RetryMaxAttempts > 0 {
				backoff.MaxAttempts = cfg.Translation.RetryMaxAttempts
			}

			pipeline := translate.NewPipeline(translate.PipelineConfig{
				ChunkSize: cfg.Translation.ChunkMaxBlocks,
				Limits: subtitle.Limits{
					MaxBytes:  cfg.Server.MaxUploadBytes,
					MaxBlocks: cfg.Translation.MaxBlocks,
				},
				TargetLanguages:  cfg.Translation.TargetLanguages,
				FailureThreshold: cfg.Translation.FailureThreshold,
			}, capability, translate.NewGate(cfg.Translation.ConcurrencyLimit), backoff, logger)

			requestID := uuid.NewString()
			runCtx := services.WithRequestID(cmd.Context(), requestID)
			runCtx = services.WithFilename(runCtx, filepath.Base(inputPath))

			started := time.Now()
			output, jobStats, runErr := pipeline.Run(runCtx, raw, targetLanguage, mode)
			elapsed := time.Since(started)

			recordStats(cmd, cfg.Paths.StatsDB, stats.Record{
				ID:             requestID,
				Filename:       filepath.Base(inputPath),
				TargetLanguage: targetLanguage,
				Mode:           string(mode),
				TotalBlocks:    jobStats.TotalBlocks,
				TotalChunks:    jobStats.TotalChunks,
				RetryCount:     jobStats.RetryCount,
				FailedChunks:   jobStats.FailedChunks,
				DurationMS:     elapsed.Milliseconds(),
			}, runErr)

			if runErr != nil {
				return fmt.Errorf("translate %s: %w", inputPath, runErr)
			}

			outputPath := strings.TrimSpace(outputFlag)
			if outputPath == "" {
				outputPath = defaultOutputPath(inputPath, targetLanguage)
			}
			if err := os.WriteFile(outputPath, output, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Translated %d blocks in %d chunks to %s (%s)\n",
				jobStats.TotalBlocks, jobStats.TotalChunks, targetLanguage, elapsed.Round(time.Millisecond))
			if jobStats.RetryCount > 0 {
				fmt.Fprintf(out, "Retries: %d\n", jobStats.RetryCount)
			}
			if jobStats.FailedChunks > 0 {
				fmt.Fprintf(out, "Warning: %d chunk(s) kept their original text after exhausting retries\n", jobStats.FailedChunks)
			}
			fmt.Fprintf(out, "Wrote %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Target language (defaults to the first configured language)")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "normal", "Speed mode: mock, fast, or normal")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (defaults to <input>.<lang>.srt)")
	return cmd
}

// recordStats persists the run outcome on a best-effort basis; a broken stats
// database should not fail the translation itself.
func recordStats(cmd *cobra.Command, dbPath string, record stats.Record, runErr error) {
	if runErr != nil {
		record.Status = stats.StatusFailed
		record.ErrorMessage = runErr.Error()
	}
	store, err := stats.Open(dbPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: stats unavailable: %v\n", err)
		return
	}
	defer store.Close()
	if _, err := store.Add(cmd.Context(), record); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to record stats: %v\n", err)
	}
}

func defaultOutputPath(inputPath, targetLanguage string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	suffix := language.ToISO2(targetLanguage)
	if suffix == "" {
		suffix = "translated"
	}
	return base + "." + suffix + ".srt"
}
