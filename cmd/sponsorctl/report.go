package main

import (
	"fmt"

	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/services/reportgen"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var reportWidth int

var reportCmd = &cobra.Command{
	Use:   "report [campaignID]",
	Short: "Render a campaign performance report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc := &reportgen.DefaultReportService{
			Campaigns: campaignRepo.NewMongoCampaignRepo(),
			Sponsors:  sponsorRepo.NewMongoSponsorRepo(),
			Creators:  creatorRepo.NewMongoCreatorRepo(),
		}
		doc, err := svc.RenderCampaign(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		out, err := renderMarkdown(doc, reportWidth)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportWidth, "width", 100, "word wrap width")
}

// renderMarkdown styles doc for a terminal, falling back to the raw text.
func renderMarkdown(doc string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return doc, nil
	}
	return renderer.Render(doc)
}
