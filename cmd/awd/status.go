package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dspace-tools/wiley-deposits/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status [dois...]",
	Short: "Show the ledger status of tracked DOIs",
	Long: `Status prints each tracked DOI with its processing status, attempt
count, and last-modified time. With DOI arguments it shows only those; by
default it shows the whole ledger.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := buildConfig()

	led, err := ledger.Open(cfg.Ledger.DBPath)
	if err != nil {
		return err
	}
	defer led.Close()

	var records []ledger.Record
	if len(args) > 0 {
		for _, doi := range args {
			rec, err := led.Get(ctx, doi)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", doi, err)
			}
			records = append(records, rec)
		}
	} else {
		records, err = led.List(ctx)
		if err != nil {
			return err
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOI\tSTATUS\tATTEMPTS\tLAST MODIFIED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", rec.DOI, rec.Status, rec.Attempts, rec.LastModified)
	}
	return w.Flush()
}
