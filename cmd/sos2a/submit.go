package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/client"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/report"
)

func newSubmitCmd() *cobra.Command {
	var (
		flagConfig string
		flagServer string
		flagDraft  bool
		flagDryRun bool
	)

	cmd := &cobra.Command{
		Use:   "submit <path>",
		Short: "Send assessment files to a running API server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := config.Load(flagConfig, path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if flagServer != "" {
				cfg.Client.BaseURL = flagServer
			}

			subs, err := loadSubmissions(path, false, false)
			if err != nil {
				return err
			}

			c := client.New(cfg.Client)
			ctx := context.Background()
			failed := 0
			for i := range subs {
				sub := &subs[i]
				switch {
				case flagDraft:
					sess, err := c.CreateAssessment(ctx, &sub.Raw)
					if err != nil {
						failed++
						fmt.Fprintf(os.Stderr, "%s: %v\n", sub.SourcePath, err)
						continue
					}
					fmt.Printf("%s\tdraft %s (%s)\n", sub.Raw.ID, sess.ID, sess.Stage)
				case flagDryRun:
					r, err := c.Score(ctx, &sub.Raw)
					if err != nil {
						failed++
						fmt.Fprintf(os.Stderr, "%s: %v\n", sub.SourcePath, err)
						continue
					}
					fmt.Printf("%s\t%s\n", sub.Raw.ID, summary(r))
				default:
					rec, err := c.Submit(ctx, &sub.Raw)
					if err != nil {
						failed++
						fmt.Fprintf(os.Stderr, "%s: %v\n", sub.SourcePath, err)
						continue
					}
					fmt.Printf("%s\treport %s %s\n", sub.Raw.ID, rec.ID, summary(rec.Report))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d submission(s) failed", failed, len(subs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to sos2a.yaml config")
	cmd.Flags().StringVar(&flagServer, "server", "", "API base URL (default from config)")
	cmd.Flags().BoolVar(&flagDraft, "draft", false, "Open a draft assessment instead of generating a report")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Score remotely without storing")
	cmd.MarkFlagsMutuallyExclusive("draft", "dry-run")
	return cmd
}

func summary(r *analysis.Report) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("(%.2f%%, %s, %d recommendation(s))",
		r.OverallScore.Percentage, r.OverallScore.Grade, len(r.PrioritizedRecommendations))
}

func newReportsCmd() *cobra.Command {
	var (
		flagConfig string
		flagServer string
	)
	newClient := func(cmd *cobra.Command) (*client.Client, error) {
		cfg, err := config.Load(flagConfig, "")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if flagServer != "" {
			cfg.Client.BaseURL = flagServer
		}
		return client.New(cfg.Client), nil
	}

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, show or delete stored reports",
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to sos2a.yaml config")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "API base URL (default from config)")

	var flagLimit, flagOffset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			recs, err := c.ListReports(context.Background(), flagLimit, flagOffset)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s\t%s\t%-13s\t%6.2f%%\t%s\t%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02"), r.ReportType, r.Percentage, r.Grade, r.Organization)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum reports to list")
	listCmd.Flags().IntVar(&flagOffset, "offset", 0, "Reports to skip")

	var (
		flagFormat  string
		flagNoPager bool
	)
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			rec, err := c.GetReport(context.Background(), args[0])
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("report %s not found", args[0])
				}
				return err
			}
			batch := &report.Batch{
				Entries:  []report.Entry{{ID: rec.ID, Source: "report " + rec.ID, Report: rec.Report}},
				MinScore: report.DefaultMinScore,
			}
			output, err := formatBatch(batch, flagFormat)
			if err != nil {
				return err
			}
			return writeOutput(output, "", flagFormat, flagNoPager)
		},
	}
	getCmd.Flags().StringVar(&flagFormat, "format", "terminal", "Output format: terminal, json, markdown, yaml")
	getCmd.Flags().BoolVar(&flagNoPager, "no-pager", false, "Disable automatic paging")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.DeleteReport(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted report %s\n", args[0])
			return nil
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the API server and its database are up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.Health(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "ok")
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, deleteCmd, healthCmd)
	return cmd
}
