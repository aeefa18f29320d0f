package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soyeahso/drivedesk/internal/analytics"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		file     string
		question string
		today    string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize ad spend in a CSV export without calling any service",
		Example: `  drivedesk analyze --file spend.csv --question "what did we spend last week?"
  drivedesk analyze --file - --question yesterday --today 2026-03-01 < spend.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			now := time.Now().In(cfg.Location())
			if today != "" {
				day, ok := analytics.ParseDay(today)
				if !ok {
					return fmt.Errorf("--today: cannot parse %q as a date", today)
				}
				now = day.Time
			}

			rows, err := readCSV(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			sum, err := analytics.Summarize(question, rows, now)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with a header row, or - for stdin")
	cmd.Flags().StringVarP(&question, "question", "q", "", "question naming the period (yesterday, last 7 days, last month)")
	cmd.Flags().StringVar(&today, "today", "", "treat this date as today (YYYY-MM-DD)")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("question")

	return cmd
}

func readCSV(path string, stdin io.Reader) ([][]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
