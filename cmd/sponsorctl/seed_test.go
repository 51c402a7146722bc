package main

import (
	"math/rand"
	"testing"
	"time"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T, seed int64) dataset {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return buildDataset(rand.New(rand.NewSource(seed)), now, seedSize{
		Sponsors:   14,
		Creators:   20,
		AdminEmail: "Admin@Sponsorly.dev",
	}, "hash")
}

func TestBuildDatasetAccounts(t *testing.T) {
	d := testDataset(t, 1)

	require.Len(t, d.Users, 1+14+20)
	assert.Equal(t, models.RoleAdmin, d.Users[0].Role)
	assert.Equal(t, "admin@sponsorly.dev", d.Users[0].Email)

	emails := map[string]bool{}
	for _, u := range d.Users {
		assert.False(t, emails[u.Email], "duplicate email %s", u.Email)
		emails[u.Email] = true
		assert.Equal(t, "hash", u.PasswordHash)
		assert.Equal(t, models.UserStatusActive, u.Status)
	}

	userIDs := map[string]models.Role{}
	for _, u := range d.Users {
		userIDs[u.ID] = u.Role
	}
	for _, s := range d.Sponsors {
		assert.Equal(t, models.RoleSponsor, userIDs[s.UserID])
		assert.GreaterOrEqual(t, s.BudgetMax, s.BudgetMin)
	}
	for _, c := range d.Creators {
		assert.Equal(t, models.RoleCreator, userIDs[c.UserID])
		assert.NotEmpty(t, c.Platforms)
		assert.Positive(t, c.TotalFollowers)
	}
}

func TestBuildDatasetReferences(t *testing.T) {
	d := testDataset(t, 2)

	sponsors := map[string]bool{}
	for _, s := range d.Sponsors {
		sponsors[s.ID] = true
	}
	creators := map[string]bool{}
	for _, c := range d.Creators {
		creators[c.ID] = true
	}
	orgs := map[string]*models.Organization{}
	names := map[string]bool{}
	for _, o := range d.Organizations {
		orgs[o.ID] = o
		assert.False(t, names[o.Name], "duplicate organization %s", o.Name)
		names[o.Name] = true
	}

	require.NotEmpty(t, d.Campaigns)
	for _, c := range d.Campaigns {
		assert.True(t, sponsors[c.SponsorID])
		assert.NotEmpty(t, c.CreatorIDs)
		for _, id := range c.CreatorIDs {
			assert.True(t, creators[id])
		}
		assert.Contains(t, orgs, c.OrganizationID)
		assert.True(t, c.EndDate.After(c.StartDate))
		if c.Status == models.CampaignDraft {
			assert.Zero(t, c.Spend)
		}
	}

	members := map[string]int{}
	for _, u := range d.Users {
		if u.OrganizationID != "" {
			members[u.OrganizationID]++
		}
	}
	for id, o := range orgs {
		assert.Equal(t, members[id], o.MemberCount, o.Name)
	}
}

func TestBuildDatasetCatalog(t *testing.T) {
	d := testDataset(t, 3)

	assert.Len(t, d.Reports, 6)
	for _, r := range d.Reports {
		assert.Equal(t, models.ReportPublished, r.Status)
		assert.Positive(t, r.PriceCredits)
	}
	require.Len(t, d.Packages, 3)
	assert.Equal(t, 550, d.Packages[1].TotalCredits())
	assert.Len(t, d.AuditLogs, len(d.Users)-1)
	for _, a := range d.AuditLogs {
		assert.Equal(t, d.Users[0].ID, a.ActorID)
		assert.Equal(t, "user.create", a.Action)
	}
}

func TestBuildDatasetDeterministic(t *testing.T) {
	a, b := testDataset(t, 7), testDataset(t, 7)
	require.Len(t, b.Campaigns, len(a.Campaigns))
	for i := range a.Campaigns {
		assert.Equal(t, a.Campaigns[i].Budget, b.Campaigns[i].Budget)
		assert.Equal(t, a.Campaigns[i].Name, b.Campaigns[i].Name)
	}
}

func TestPickDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	got := pick(rng, []string{"a", "b", "c"}, 5)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, pick(rng, []string{"a"}, 0))
}

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"seed", "report", "rfm"})
	assert.Error(t, reportCmd.Args(reportCmd, nil))
}
