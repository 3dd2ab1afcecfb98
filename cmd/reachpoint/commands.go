package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/reachpoint/internal/report"
	"github.com/ignite/reachpoint/internal/segmentation"
	"github.com/ignite/reachpoint/internal/service/campaign"
)

var (
	exportKind   string
	exportStdout bool
	listJSON     bool
	callsStdout  bool
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Inspect campaigns",
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns with their calling totals",
	Args:  cobra.NoArgs,
	RunE:  runCampaignsList,
}

var exportCmd = &cobra.Command{
	Use:   "export <campaign-id>",
	Short: "Render a campaign export and deliver it",
	Long: `Render one CSV export of a campaign.

Kinds: full, not-called, survey, outcomes, notes.

By default the file is delivered to the configured export destination
(local directory or S3) and its location is printed. With --stdout the CSV
is written to standard output instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Work with the single-call log",
}

var callsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the single-call log as JSON",
	Args:  cobra.NoArgs,
	RunE:  runCallsExport,
}

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect the contact dataset",
}

var datasetFieldsCmd = &cobra.Command{
	Use:   "fields [field]",
	Short: "List dataset fields, or the distinct values of one field",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDatasetFields,
}

func init() {
	campaignsListCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
	campaignsCmd.AddCommand(campaignsListCmd)

	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", string(report.KindFull), "Export kind")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write the CSV to stdout instead of delivering it")

	callsExportCmd.Flags().BoolVar(&callsStdout, "stdout", false, "Write the JSON to stdout instead of delivering it")
	callsCmd.AddCommand(callsExportCmd)

	datasetCmd.AddCommand(datasetFieldsCmd)
}

type campaignLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Contacts  int    `json:"contacts"`
	Made      int    `json:"made"`
	Answered  int    `json:"answered"`
	Missed    int    `json:"missed"`
	Reminders string `json:"reminders"`
}

func runCampaignsList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.Campaigns.List(ctx)
	if err != nil {
		return err
	}
	lines := make([]campaignLine, 0, len(list))
	for _, c := range list {
		p, err := a.Progress.Snapshot(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("campaign %s: %w", c.ID, err)
		}
		lines = append(lines, campaignLine{
			ID:        c.ID,
			Name:      c.Name,
			CreatedAt: time.UnixMilli(c.CreatedAt).UTC().Format("2006-01-02"),
			Contacts:  len(c.StudentIDs),
			Made:      p.Totals.Made,
			Answered:  p.Totals.Answered,
			Missed:    p.Totals.Missed,
			Reminders: campaign.RemindersLabel(c),
		})
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tCONTACTS\tMADE\tANSWERED\tMISSED")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n", l.ID, l.Name, l.CreatedAt, l.Contacts, l.Made, l.Answered, l.Missed)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(exportKind)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if exportStdout {
		f, err := a.Reports.Export(ctx, args[0], kind)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(f.Body)
		return err
	}
	location, err := a.Reports.Deliver(ctx, a.Sink, args[0], kind)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}

func runCallsExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	body, err := a.Calls.ExportJSON(ctx)
	if err != nil {
		return err
	}
	if callsStdout {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
		return err
	}
	name := "single-calls-" + time.Now().UTC().Format("20060102-150405") + ".json"
	location, err := a.Sink.Deliver(ctx, name, "application/json", []byte(body))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}

func runDatasetFields(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.Data.Rows(ctx)
	if err != nil {
		return err
	}
	var items []string
	if len(args) == 1 {
		items = segmentation.Values(rows, args[0])
	} else {
		items = segmentation.Fields(rows)
	}
	if len(items) == 0 {
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(items, "\n"))
	return err
}
