package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mediajenny/the-oracle/src/exporters"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/processors"
	"github.com/spf13/cobra"
)

var (
	reportTransactions []string
	reportLookup       string
	reportFormat       string
	reportOut          string
	reportTop          int
	reportAliases      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a line item report from local files",
	Long: `Runs the reconciliation pipeline over local transaction files and an NXN
lookup file, without a database or server.

Example Usage:
  oracle report --transactions jan.csv --transactions feb.xlsx --lookup nxn.xlsx
  oracle report --transactions tx.csv --lookup nxn.csv --format xlsx --out report.xlsx --top 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			logLevel = "warn"
		}
		logger.InitLogger(logLevel)

		if len(reportTransactions) == 0 {
			return errors.New("at least one --transactions file is required")
		}
		if reportLookup == "" {
			return errors.New("--lookup is required")
		}
		format, err := exporters.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		normalizer, err := parsers.LoadNormalizer(reportAliases)
		if err != nil {
			return err
		}

		report, txCount, err := buildOfflineReport(normalizer, reportTransactions, reportLookup)
		if err != nil {
			return err
		}

		if err := writeReport(cmd.OutOrStdout(), reportOut, format, report); err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		s := report.Summary
		fmt.Fprintf(stderr, "%s transactions, %s line items (%s matched, %s unmatched), revenue %s, NXN spend %s\n",
			humanize.Comma(int64(txCount)),
			humanize.Comma(int64(s.TotalLineItems)),
			humanize.Comma(int64(s.MatchedLineItems)),
			humanize.Comma(int64(s.UnmatchedLineItems)),
			s.TotalRevenue.StringFixed(2),
			s.TotalNxnSpend.StringFixed(2))
		if reportTop > 0 {
			printTopByRevenue(stderr, report.Results, reportTop)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringArrayVar(&reportTransactions, "transactions", nil, "Transaction file (.csv/.xlsx); repeat for several files")
	reportCmd.Flags().StringVar(&reportLookup, "lookup", "", "NXN line item lookup file (.csv/.xlsx)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "json", "Output format: json, csv or xlsx")
	reportCmd.Flags().StringVar(&reportOut, "out", "-", "Output path, - for stdout")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "Also print the top N line items by revenue")
	reportCmd.Flags().StringVar(&reportAliases, "aliases", "", "YAML column alias overrides")
	rootCmd.AddCommand(reportCmd)
}

func buildOfflineReport(normalizer *parsers.Normalizer, transactionPaths []string, lookupPath string) (*models.LineItemReport, int, error) {
	var rows []models.TransactionRow
	for _, path := range transactionPaths {
		table, err := parseLocalFile(path, parsers.FileKindTransaction)
		if err != nil {
			return nil, 0, err
		}
		fileRows, err := normalizer.TransactionTable(table, filepath.Base(path))
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, fileRows...)
	}

	table, err := parseLocalFile(lookupPath, parsers.FileKindNxnLookup)
	if err != nil {
		return nil, 0, err
	}
	lookup, err := normalizer.LookupTable(table)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", lookupPath, err)
	}

	report := processors.NewReportProcessor(logger.L).Process(rows, lookup)
	return &report, len(rows), nil
}

func parseLocalFile(path string, kind parsers.FileKind) (*models.RawTable, error) {
	parser, err := parsers.GetParser(path, kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func writeReport(stdout io.Writer, path string, format exporters.Format, report *models.LineItemReport) error {
	if path == "" || path == "-" {
		return exporters.Write(stdout, format, report)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporters.Write(f, format, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printTopByRevenue(w io.Writer, items []models.EnrichedLineItem, topN int) {
	rankings := processors.RankLineItems(items, processors.LineItemFilter{}, topN)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tLINEITEMID\tNAME\tREVENUE\tROAS")
	for _, item := range rankings.ByRevenue {
		roas := ""
		if item.ROAS != nil {
			roas = item.ROAS.StringFixed(2)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.Rank, item.LineItemID, item.LineItemName,
			item.TotalTransactionAmount.StringFixed(2), roas)
	}
	tw.Flush()
}
