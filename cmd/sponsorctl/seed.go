package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"sponsorly/database"
	auditRepo "sponsorly/database/repository/audit"
	billingRepo "sponsorly/database/repository/billing"
	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	marketRepo "sponsorly/database/repository/marketplace"
	orgRepo "sponsorly/database/repository/organization"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/services/sponsor"
	"sponsorly/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var seedOpts struct {
	sponsors   int
	creators   int
	password   string
	adminEmail string
	randSeed   int64
	reset      bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a mock dataset of accounts, campaigns and reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if seedOpts.reset {
			if err := resetCollections(ctx); err != nil {
				return err
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedOpts.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		data := buildDataset(rand.New(rand.NewSource(seedOpts.randSeed)), time.Now().UTC(), seedSize{
			Sponsors:   seedOpts.sponsors,
			Creators:   seedOpts.creators,
			AdminEmail: seedOpts.adminEmail,
		}, string(hash))

		if err := loadDataset(ctx, data); err != nil {
			return err
		}

		rfm := &sponsor.DefaultSponsorService{
			Repo:      sponsorRepo.NewMongoSponsorRepo(),
			Campaigns: campaignRepo.NewMongoCampaignRepo(),
		}
		if _, err := rfm.RefreshAllRFM(ctx); err != nil {
			return fmt.Errorf("failed to score seeded sponsors: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"seeded %d users, %d organizations, %d campaigns, %d reports and %d credit packages\n",
			len(data.Users), len(data.Organizations), len(data.Campaigns), len(data.Reports), len(data.Packages))
		fmt.Fprintf(cmd.OutOrStdout(), "every account signs in with password %q\n", seedOpts.password)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.sponsors, "sponsors", 8, "number of sponsor accounts")
	f.IntVar(&seedOpts.creators, "creators", 24, "number of creator accounts")
	f.StringVar(&seedOpts.password, "password", "sponsorly-demo", "password for every seeded account")
	f.StringVar(&seedOpts.adminEmail, "admin-email", "admin@sponsorly.dev", "email of the seeded admin")
	f.Int64Var(&seedOpts.randSeed, "rand-seed", 42, "random seed; equal seeds give equal datasets")
	f.BoolVar(&seedOpts.reset, "reset", false, "clear seeded collections first")
}

var seededCollections = []string{
	"users", "organizations", "sponsors", "creators", "campaigns",
	"data_reports", "report_purchases", "credit_packages", "audit_logs",
}

func resetCollections(ctx context.Context) error {
	db := database.DB()
	for _, name := range seededCollections {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	utils.GetLogger().Info("cleared seeded collections", zap.Strings("collections", seededCollections))
	return nil
}

type seedSize struct {
	Sponsors   int
	Creators   int
	AdminEmail string
}

type dataset struct {
	Users         []*models.User
	Organizations []*models.Organization
	Sponsors      []*models.Sponsor
	Creators      []*models.Creator
	Campaigns     []*models.Campaign
	Reports       []*models.DataReport
	Packages      []*models.CreditPackage
	AuditLogs     []*models.AuditLog
}

var (
	brandNames = []string{
		"Acme Foods", "Northwind Outdoors", "Lumen Skincare", "Pixel Forge Games",
		"Cedar & Co", "Brightside Fitness", "Orbit Audio", "Harvest Coffee",
		"Kite Travel", "Nimbus Cloud", "Marlow Fashion", "Tidewater Pets",
	}
	industries = []string{"food", "outdoors", "beauty", "gaming", "home", "fitness", "tech", "travel", "fashion", "pets"}
	niches     = []string{"food", "fitness", "gaming", "beauty", "tech", "travel", "fashion", "lifestyle", "outdoors", "pets", "finance", "parenting"}
	regions    = []string{"US", "UK", "DE", "BR", "IN", "KE", "AU", "CA"}
	platforms  = []string{"youtube", "instagram", "tiktok", "twitch"}
	firstNames = []string{"Ana", "Bo", "Chidi", "Dana", "Eli", "Femi", "Gia", "Hugo", "Ines", "Jun", "Kai", "Lena", "Milo", "Nia", "Omar", "Priya"}
	lastNames  = []string{"Reyes", "Okafor", "Lindqvist", "Mwangi", "Tanaka", "Silva", "Kowalski", "Haddad", "Nguyen", "Brennan"}
	reportCats = []string{"audience", "benchmark", "industry", "pricing"}
)

// buildDataset generates a consistent dataset. Campaigns only reference
// generated sponsors and creators, and organizations count their members.
func buildDataset(rng *rand.Rand, now time.Time, size seedSize, passwordHash string) dataset {
	var d dataset
	newUser := func(name, email string, role models.Role) *models.User {
		u := &models.User{
			ID:           uuid.New().String(),
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
			Status:       models.UserStatusActive,
			PlanID:       "free",
			Settings:     models.DefaultUserSettings(),
		}
		d.Users = append(d.Users, u)
		return u
	}

	admin := newUser("Platform Admin", strings.ToLower(size.AdminEmail), models.RoleAdmin)

	agency := &models.Organization{
		ID: uuid.New().String(), Name: "Signal Talent Agency", Type: models.OrgTypeAgency,
		Industry: "marketing", Status: models.OrgStatusActive, OwnerID: admin.ID,
	}
	collective := &models.Organization{
		ID: uuid.New().String(), Name: "Open Studio Collective", Type: models.OrgTypeCreatorCollective,
		Status: models.OrgStatusActive,
	}
	d.Organizations = append(d.Organizations, agency, collective)

	sponsorOrgs := make(map[string]string, size.Sponsors)
	for i := 0; i < size.Sponsors; i++ {
		brand := brandNames[i%len(brandNames)]
		if i >= len(brandNames) {
			brand = fmt.Sprintf("%s %d", brand, i/len(brandNames)+1)
		}
		industry := industries[i%len(industries)]
		org := &models.Organization{
			ID: uuid.New().String(), Name: brand, Type: models.OrgTypeBrand,
			Industry: industry, Website: "https://" + slugify(brand) + ".example", Status: models.OrgStatusActive,
		}
		u := newUser(personName(rng), fmt.Sprintf("sponsor%d@%s.example", i+1, slugify(brand)), models.RoleSponsor)
		u.OrganizationID, u.OrganizationName = org.ID, org.Name
		u.Credits = 50 + rng.Intn(20)*10
		org.OwnerID = u.ID
		org.MemberCount = 1
		d.Organizations = append(d.Organizations, org)

		budgetMin := float64(500 + rng.Intn(20)*250)
		sp := &models.Sponsor{
			ID:            uuid.New().String(),
			UserID:        u.ID,
			Name:          brand,
			Industry:      industry,
			Website:       org.Website,
			Description:   fmt.Sprintf("%s partners with creators in %s.", brand, industry),
			BudgetMin:     budgetMin,
			BudgetMax:     budgetMin * float64(2+rng.Intn(4)),
			TargetNiches:  pick(rng, niches, 1+rng.Intn(3)),
			TargetRegions: pick(rng, regions, 1+rng.Intn(3)),
			Rating:        round1(3.5 + rng.Float64()*1.5),
			Verified:      rng.Intn(3) > 0,
		}
		sponsorOrgs[sp.ID] = org.ID
		d.Sponsors = append(d.Sponsors, sp)
	}

	for i := 0; i < size.Creators; i++ {
		name := personName(rng)
		handle := fmt.Sprintf("%s%d", slugify(strings.Fields(name)[0]), i+1)
		u := newUser(name, fmt.Sprintf("%s@creators.example", handle), models.RoleCreator)
		if i%4 == 0 {
			u.OrganizationID, u.OrganizationName = collective.ID, collective.Name
			collective.MemberCount++
		}

		c := &models.Creator{
			ID:                 uuid.New().String(),
			UserID:             u.ID,
			Handle:             handle,
			DisplayName:        name,
			Bio:                fmt.Sprintf("%s makes videos about %s.", name, niches[i%len(niches)]),
			Niches:             append([]string{niches[i%len(niches)]}, pick(rng, niches, rng.Intn(2))...),
			Region:             regions[rng.Intn(len(regions))],
			Rating:             round1(3 + rng.Float64()*2),
			CompletedCampaigns: rng.Intn(40),
			AvgROI:             round1(rng.Float64() * 250),
			Verified:           rng.Intn(2) == 0,
			Audience: models.AudienceProfile{
				AgeRanges:  map[string]float64{"18-24": 0.4, "25-34": 0.35, "35-44": 0.25},
				Genders:    map[string]float64{"female": 0.5, "male": 0.5},
				TopRegions: pick(rng, regions, 2),
			},
			Assets: []models.MediaAsset{},
		}
		c.Niches = dedupe(c.Niches)
		for _, p := range pick(rng, platforms, 1+rng.Intn(3)) {
			followers := int64(math.Pow(10, 3+rng.Float64()*3))
			c.Platforms = append(c.Platforms, models.PlatformStats{
				Platform:       p,
				Handle:         "@" + handle,
				Followers:      followers,
				EngagementRate: round1(1 + rng.Float64()*9),
				AvgViews:       followers / int64(2+rng.Intn(8)),
			})
		}
		c.RatePerPost = math.Round(float64(c.Platforms[0].Followers) / 100)
		c.RefreshStats()
		d.Creators = append(d.Creators, c)
	}

	statuses := []models.CampaignStatus{models.CampaignActive, models.CampaignCompleted, models.CampaignPaused, models.CampaignDraft}
	for _, sp := range d.Sponsors {
		for n := 0; n < 1+rng.Intn(3) && len(d.Creators) > 0; n++ {
			start := now.AddDate(0, 0, -rng.Intn(300))
			status := statuses[rng.Intn(len(statuses))]
			budget := sp.BudgetMin + rng.Float64()*(sp.BudgetMax-sp.BudgetMin)
			spend := 0.0
			if status != models.CampaignDraft {
				spend = math.Round(budget * (0.3 + rng.Float64()*0.7))
			}
			impressions := int64(10000 + rng.Intn(500000))
			clicks := impressions / int64(20+rng.Intn(80))
			c := &models.Campaign{
				ID:             uuid.New().String(),
				Name:           fmt.Sprintf("%s %s push", sp.Name, []string{"Spring", "Summer", "Launch", "Holiday"}[n%4]),
				SponsorID:      sp.ID,
				CreatorIDs:     creatorIDs(pickCreators(rng, d.Creators, 1+rng.Intn(3))),
				OrganizationID: sponsorOrgs[sp.ID],
				Status:         status,
				Budget:         math.Round(budget),
				Spend:          spend,
				Revenue:        math.Round(spend * (0.5 + rng.Float64()*2.5)),
				StartDate:      start,
				EndDate:        start.AddDate(0, 0, 30+rng.Intn(60)),
				Objectives: []models.Objective{
					{Name: "impressions", Target: float64(impressions), Achieved: float64(impressions) * (0.5 + rng.Float64()*0.7), Weight: 2},
					{Name: "clicks", Target: float64(clicks), Achieved: float64(clicks) * (0.4 + rng.Float64()*0.8), Weight: 1},
				},
				Metrics: models.CampaignMetrics{
					Impressions: impressions,
					Clicks:      clicks,
					Conversions: clicks / int64(5+rng.Intn(20)),
					Engagements: impressions / int64(10+rng.Intn(30)),
				},
			}
			d.Campaigns = append(d.Campaigns, c)
		}
	}

	for i := 0; i < 6 && len(d.Sponsors) > 0; i++ {
		seller := d.Sponsors[i%len(d.Sponsors)]
		cat := reportCats[i%len(reportCats)]
		d.Reports = append(d.Reports, &models.DataReport{
			ID:           uuid.New().String(),
			Title:        fmt.Sprintf("%s %s report %d", titleCase(seller.Industry), cat, now.Year()),
			Description:  fmt.Sprintf("Aggregated %s data from %s campaigns.", cat, seller.Industry),
			Category:     cat,
			SellerID:     seller.UserID,
			SellerName:   seller.Name,
			PriceCredits: 10 * (1 + rng.Intn(10)),
			TrustScore:   round1(60 + rng.Float64()*40),
			Rating:       round1(3.5 + rng.Float64()*1.5),
			ReviewCount:  rng.Intn(80),
			Downloads:    rng.Intn(400),
			Tags:         []string{seller.Industry, cat},
			Status:       models.ReportPublished,
			PublishedAt:  now.AddDate(0, 0, -rng.Intn(120)),
		})
	}

	d.Packages = []*models.CreditPackage{
		{ID: "credits-100", Name: "Starter credits", Credits: 100, PriceCents: 1900, Currency: "usd", SortOrder: 1},
		{ID: "credits-500", Name: "Growth credits", Credits: 500, BonusCredits: 50, PriceCents: 7900, Currency: "usd", Popular: true, SortOrder: 2},
		{ID: "credits-2000", Name: "Agency credits", Credits: 2000, BonusCredits: 400, PriceCents: 24900, Currency: "usd", SortOrder: 3},
	}

	for _, u := range d.Users[1:] {
		d.AuditLogs = append(d.AuditLogs, &models.AuditLog{
			ID:           uuid.New().String(),
			ActorID:      admin.ID,
			ActorEmail:   admin.Email,
			ActorRole:    models.RoleAdmin,
			Action:       "user.create",
			ResourceType: "user",
			ResourceID:   u.ID,
			Metadata:     map[string]any{"source": "seed", "role": string(u.Role)},
			Severity:     models.SeverityInfo,
			CreatedAt:    now,
		})
	}
	return d
}

func loadDataset(ctx context.Context, d dataset) error {
	users := userRepo.NewMongoUserRepo()
	for _, u := range d.Users {
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	orgs := orgRepo.NewMongoOrganizationRepo()
	for _, o := range d.Organizations {
		if err := orgs.Create(ctx, o); err != nil {
			return fmt.Errorf("seed organization %s: %w", o.Name, err)
		}
	}
	sponsors := sponsorRepo.NewMongoSponsorRepo()
	for _, s := range d.Sponsors {
		if err := sponsors.Create(ctx, s); err != nil {
			return fmt.Errorf("seed sponsor %s: %w", s.Name, err)
		}
	}
	creators := creatorRepo.NewMongoCreatorRepo()
	for _, c := range d.Creators {
		if err := creators.Create(ctx, c); err != nil {
			return fmt.Errorf("seed creator %s: %w", c.Handle, err)
		}
	}
	campaigns := campaignRepo.NewMongoCampaignRepo()
	for _, c := range d.Campaigns {
		if err := campaigns.Create(ctx, c); err != nil {
			return fmt.Errorf("seed campaign %s: %w", c.Name, err)
		}
	}
	market := marketRepo.NewMongoMarketplaceRepo()
	for _, r := range d.Reports {
		if err := market.CreateReport(ctx, r); err != nil {
			return fmt.Errorf("seed report %s: %w", r.Title, err)
		}
	}
	ledger := billingRepo.NewMongoBillingRepo()
	for _, p := range d.Packages {
		if err := ledger.UpsertPackage(ctx, p); err != nil {
			return fmt.Errorf("seed package %s: %w", p.ID, err)
		}
	}
	audit := auditRepo.NewMongoAuditRepo()
	for _, a := range d.AuditLogs {
		if err := audit.Insert(ctx, a); err != nil {
			return fmt.Errorf("seed audit entry: %w", err)
		}
	}
	return nil
}

func personName(rng *rand.Rand) string {
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}

// pick returns n distinct values from pool.
func pick(rng *rand.Rand, pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

func pickCreators(rng *rand.Rand, pool []*models.Creator, n int) []*models.Creator {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]*models.Creator, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

func creatorIDs(creators []*models.Creator) []string {
	ids := make([]string, len(creators))
	for i, c := range creators {
		ids[i] = c.ID
	}
	return ids
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
