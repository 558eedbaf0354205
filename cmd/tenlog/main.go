// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/mdhender/tenlog"
	"github.com/mdhender/tenlog/inspect"
	"github.com/mdhender/tenlog/model"
	"github.com/mdhender/tenlog/pipelines/stages"
	"github.com/mdhender/tenlog/tenhou"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "tenlog",
		Short: "tenhou.net/6 match log utility",
		Long:  `Decode, inspect, and archive three-player tenhou.net/6 match logs`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("tenlog: version %q\n", tenlog.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdConvert())
	cmdRoot.AddCommand(cmdInspect())
	cmdRoot.AddCommand(cmdIngest())
	cmdRoot.AddCommand(cmdWork())
	cmdRoot.AddCommand(cmdStats())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

func cmdConvert() *cobra.Command {
	var filterExpr string
	var inputFile string
	var outputFile string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVarP(&filterExpr, "filter", "f", filterExpr, "keep only rounds matching the expression (e.g. E1,S3.2)")
		cmd.Flags().StringVarP(&inputFile, "input", "i", inputFile, "raw match log to decode")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save decoded log to file")
		if err := cmd.MarkFlagRequired("input"); err != nil {
			return err
		}
		return cmd.MarkFlagRequired("output")
	}
	var cmd = &cobra.Command{
		Use:          "convert --input <raw.json> --output <decoded.json>",
		Short:        "decode a raw match log into typed JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				return err
			}

			decoded, err := tenhou.ParseLog(data)
			if err != nil {
				return err
			}

			if filterExpr != "" {
				filter, err := tenhou.ParseRoundFilter(filterExpr)
				if err != nil {
					return err
				}
				decoded.FilterKyokus(filter.Test)
			}

			out, err := json.MarshalIndent(decoded, "", "  ")
			if err != nil {
				log.Fatalf("json: %v\n", err)
			}
			if err := os.WriteFile(outputFile, out, 0o644); err != nil {
				return err
			}
			log.Printf("%s: wrote %d bytes\n", outputFile, len(out))

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdInspect() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "inspect <match-log-file> [<match-log-file>...]",
		Short:        "show surface facts about raw match logs without decoding",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, input := range args {
				s, err := inspect.File(input)
				if err != nil {
					return err
				}
				log.Printf("%s: ref    %q\n", input, s.Ref)
				log.Printf("%s: rule   %q\n", input, s.Rule)
				log.Printf("%s: rounds %d\n", input, s.Rounds)
				log.Printf("%s: aka    %v\n", input, s.HasAka)
				for seat, name := range s.Names {
					if name == "" {
						continue
					}
					line := fmt.Sprintf("%s: seat %d %q", input, seat, name)
					if seat < len(s.Dan) {
						line += fmt.Sprintf(" %s", s.Dan[seat])
					}
					if seat < len(s.Ratings) {
						line += fmt.Sprintf(" R%.0f", s.Ratings[seat])
					}
					log.Printf("%s\n", line)
				}
			}
			return nil
		},
	}
	return cmd
}

func cmdIngest() *cobra.Command {
	var dataDir string
	var dbPath string
	var createdBy string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataDir, "data", "data", "data directory for ingested files")
		cmd.Flags().StringVar(&dbPath, "db", "tenlog.db", "database file")
		cmd.Flags().StringVar(&createdBy, "created-by", createdBy, "who is ingesting")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "ingest <match-log-file> [<match-log-file>...]",
		Short:        "copy raw match logs into the archive and queue decode jobs",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := model.NewStore(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}
			defer store.Close()

			var files []stages.IngestRequest
			for _, input := range args {
				data, err := os.ReadFile(input)
				if err != nil {
					return err
				}
				files = append(files, stages.IngestRequest{Filename: input, Data: data})
			}

			svc := stages.NewIngestService(store, dataDir)
			batchID, results, err := svc.IngestBatch(ctx, createdBy, files)
			if err != nil {
				return err
			}

			queued := 0
			for n, result := range results {
				if result.Duplicate {
					log.Printf("%s: duplicate of file %d, skipped\n", args[n], result.MatchFileID)
					continue
				}
				queued++
			}
			log.Printf("batch %d: %d files, %d queued\n", batchID, len(results), queued)

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdWork() *cobra.Command {
	var dataDir string
	var dbPath string
	var workerID string
	var maxJobs int
	var resetFailed bool
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataDir, "data", "data", "data directory for ingested files")
		cmd.Flags().StringVar(&dbPath, "db", "tenlog.db", "database file")
		cmd.Flags().StringVar(&workerID, "worker-id", workerID, "worker identifier (default host:pid)")
		cmd.Flags().IntVar(&maxJobs, "max-jobs", 0, "stop after this many jobs (0 means drain the queue)")
		cmd.Flags().BoolVar(&resetFailed, "reset-failed", false, "requeue failed decode jobs before working")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "work",
		Short:        "run queued decode jobs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := model.NewStore(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}
			defer store.Close()

			if resetFailed {
				n, err := store.ResetFailedWork(ctx, model.WorkStageDecode)
				if err != nil {
					return fmt.Errorf("reset failed work: %w", err)
				}
				log.Printf("work: requeued %d failed jobs\n", n)
			}

			svc := stages.NewWorkerService(store, dataDir, workerID)

			processed, failed := 0, 0
			for maxJobs == 0 || processed < maxJobs {
				claimed, err := svc.ProcessJob(ctx, model.WorkStageDecode)
				if !claimed {
					if err != nil {
						return err
					}
					break
				}
				processed++
				if err != nil {
					failed++
					log.Printf("work: job failed: %v\n", err)
				}
			}
			log.Printf("work: %d jobs processed, %d failed\n", processed, failed)

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdStats() *cobra.Command {
	var dbPath string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", "tenlog.db", "database file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "stats",
		Short:        "dump row counts from each table",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := model.NewStore(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}
			defer store.Close()

			stats, err := store.TableStats(ctx)
			if err != nil {
				return fmt.Errorf("get table stats: %w", err)
			}
			tables := make([]string, 0, len(stats))
			for table := range stats {
				tables = append(tables, table)
			}
			sort.Strings(tables)
			for _, table := range tables {
				log.Printf("  %-20s %d rows\n", table, stats[table])
			}

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(tenlog.Version().String())
				return nil
			}
			fmt.Println(tenlog.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
