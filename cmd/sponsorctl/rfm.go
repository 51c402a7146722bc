package main

import (
	"fmt"

	campaignRepo "sponsorly/database/repository/campaign"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/services/sponsor"

	"github.com/spf13/cobra"
)

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Recompute RFM segments for every sponsor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc := &sponsor.DefaultSponsorService{
			Repo:      sponsorRepo.NewMongoSponsorRepo(),
			Campaigns: campaignRepo.NewMongoCampaignRepo(),
		}
		changed, err := svc.RefreshAllRFM(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "RFM refreshed, %d sponsors changed segment\n", changed)
		return nil
	},
}
