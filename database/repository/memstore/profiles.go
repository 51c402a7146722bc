package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Organizations is an in-memory orgRepo.OrganizationRepository.
type Organizations struct {
	mu   sync.Mutex
	byID map[string]*models.Organization
}

// NewOrganizations returns a store seeded with orgs.
func NewOrganizations(orgs ...models.Organization) *Organizations {
	s := &Organizations{byID: map[string]*models.Organization{}}
	for i := range orgs {
		o := orgs[i]
		o.NameCI = strings.ToLower(o.Name)
		s.byID[o.ID] = &o
	}
	return s
}

func (s *Organizations) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org.NameCI = strings.ToLower(strings.TrimSpace(org.Name))
	for _, o := range s.byID {
		if o.NameCI == org.NameCI {
			return fmt.Errorf("organization %q: %w", org.Name, utils.ErrConflict)
		}
	}
	now := time.Now()
	org.CreatedAt, org.UpdatedAt = now, now
	cp := *org
	s.byID[org.ID] = &cp
	return nil
}

func (s *Organizations) GetByID(_ context.Context, id string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, notFound("organization", id)
	}
	cp := *o
	return &cp, nil
}

func (s *Organizations) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return notFound("organization", id)
	}
	if name, ok := fields["name"].(string); ok {
		nameCI := strings.ToLower(strings.TrimSpace(name))
		for oid, other := range s.byID {
			if oid != id && other.NameCI == nameCI {
				return fmt.Errorf("organization name: %w", utils.ErrConflict)
			}
		}
		fields["nameCi"] = nameCI
	}
	fields["updatedAt"] = time.Now()
	return applySet(o, fields)
}

func (s *Organizations) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return notFound("organization", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *Organizations) List(_ context.Context, q models.OrganizationQuery) ([]models.Organization, int64, error) {
	s.mu.Lock()
	var out []models.Organization
	for _, o := range s.byID {
		if strings.TrimSpace(q.Q) != "" && !containsFold(o.Name, q.Q) && !containsFold(o.Industry, q.Q) {
			continue
		}
		if q.Type != "" && o.Type != q.Type {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		out = append(out, *o)
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Organization) bool {
		if a.NameCI != b.NameCI {
			return a.NameCI < b.NameCI
		}
		return a.ID < b.ID
	})
	return paginate(out, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(out)), nil
}

func (s *Organizations) IncrementMembers(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.byID[id]; ok && o.MemberCount+delta >= 0 {
		o.MemberCount += delta
	}
	return nil
}

func (s *Organizations) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

// Sponsors is an in-memory sponsorRepo.SponsorRepository.
type Sponsors struct {
	mu   sync.Mutex
	byID map[string]*models.Sponsor
}

// NewSponsors returns a store seeded with sponsors.
func NewSponsors(sponsors ...models.Sponsor) *Sponsors {
	s := &Sponsors{byID: map[string]*models.Sponsor{}}
	for i := range sponsors {
		sp := sponsors[i]
		s.byID[sp.ID] = &sp
	}
	return s
}

func (s *Sponsors) Create(_ context.Context, sponsor *models.Sponsor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.byID {
		if sp.UserID == sponsor.UserID {
			return fmt.Errorf("sponsor for user %s: %w", sponsor.UserID, utils.ErrConflict)
		}
	}
	now := time.Now()
	sponsor.CreatedAt, sponsor.UpdatedAt = now, now
	cp := *sponsor
	s.byID[sponsor.ID] = &cp
	return nil
}

func (s *Sponsors) GetByID(_ context.Context, id string) (*models.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return nil, notFound("sponsor", id)
	}
	cp := *sp
	return &cp, nil
}

func (s *Sponsors) GetByUserID(_ context.Context, userID string) (*models.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.byID {
		if sp.UserID == userID {
			cp := *sp
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("sponsor: %w", utils.ErrNotFound)
}

func (s *Sponsors) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return notFound("sponsor", id)
	}
	fields["updatedAt"] = time.Now()
	return applySet(sp, fields)
}

func (s *Sponsors) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sp := range s.byID {
		if sp.UserID == userID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *Sponsors) List(_ context.Context, q models.SponsorQuery) ([]models.Sponsor, int64, error) {
	s.mu.Lock()
	var out []models.Sponsor
	for _, sp := range s.byID {
		if strings.TrimSpace(q.Q) != "" && !containsFold(sp.Name, q.Q) && !containsFold(sp.Industry, q.Q) {
			continue
		}
		if q.Industry != "" && !strings.EqualFold(sp.Industry, q.Industry) {
			continue
		}
		if q.Segment != "" && sp.RFM.Segment != q.Segment {
			continue
		}
		if q.Niche != "" && !anyContainsFold(sp.TargetNiches, q.Niche) {
			continue
		}
		if q.MinBudget > 0 && sp.BudgetMax < q.MinBudget {
			continue
		}
		if q.Verified != nil && sp.Verified != *q.Verified {
			continue
		}
		out = append(out, *sp)
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Sponsor) bool {
		switch q.Sort {
		case "spend":
			if a.TotalSpend != b.TotalSpend {
				return a.TotalSpend > b.TotalSpend
			}
		case "recent":
			if !a.LastCampaignAt.Equal(b.LastCampaignAt) {
				return a.LastCampaignAt.After(b.LastCampaignAt)
			}
		case "name":
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		}
		return a.ID < b.ID
	})
	return paginate(out, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(out)), nil
}

func (s *Sponsors) ListAll(_ context.Context) ([]models.Sponsor, error) {
	s.mu.Lock()
	out := make([]models.Sponsor, 0, len(s.byID))
	for _, sp := range s.byID {
		out = append(out, *sp)
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Sponsor) bool { return a.ID < b.ID })
	return out, nil
}

// Creators is an in-memory creatorRepo.CreatorRepository.
type Creators struct {
	mu   sync.Mutex
	byID map[string]*models.Creator
}

// NewCreators returns a store seeded with creators. Derived stats are refreshed.
func NewCreators(creators ...models.Creator) *Creators {
	s := &Creators{byID: map[string]*models.Creator{}}
	for i := range creators {
		c := creators[i]
		c.RefreshStats()
		s.byID[c.ID] = &c
	}
	return s
}

func (s *Creators) Create(_ context.Context, creator *models.Creator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Handle == creator.Handle || c.UserID == creator.UserID {
			return fmt.Errorf("creator handle %q: %w", creator.Handle, utils.ErrConflict)
		}
	}
	now := time.Now()
	creator.CreatedAt, creator.UpdatedAt = now, now
	creator.RefreshStats()
	cp := *creator
	s.byID[creator.ID] = &cp
	return nil
}

func (s *Creators) GetByID(_ context.Context, id string) (*models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, notFound("creator", id)
	}
	cp := *c
	return &cp, nil
}

func (s *Creators) GetByUserID(_ context.Context, userID string) (*models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("creator: %w", utils.ErrNotFound)
}

func (s *Creators) GetByIDs(_ context.Context, ids []string) ([]models.Creator, error) {
	s.mu.Lock()
	out := []models.Creator{}
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			out = append(out, *c)
		}
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Creator) bool { return a.ID < b.ID })
	return out, nil
}

func (s *Creators) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return notFound("creator", id)
	}
	fields["updatedAt"] = time.Now()
	return applySet(c, fields)
}

func (s *Creators) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.byID {
		if c.UserID == userID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *Creators) matches(c *models.Creator, q models.CreatorQuery) bool {
	if strings.TrimSpace(q.Q) != "" && !containsFold(c.DisplayName, q.Q) && !containsFold(c.Handle, q.Q) && !anyContainsFold(c.Niches, q.Q) {
		return false
	}
	if q.Niche != "" && !anyEqualFold(c.Niches, q.Niche) {
		return false
	}
	if q.Platform != "" {
		found := false
		for _, p := range c.Platforms {
			if strings.EqualFold(p.Platform, q.Platform) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if q.Region != "" && !strings.EqualFold(c.Region, q.Region) {
		return false
	}
	if q.MinFollowers > 0 && c.TotalFollowers < q.MinFollowers {
		return false
	}
	if q.MinEngagement > 0 && c.EngagementRate < q.MinEngagement {
		return false
	}
	if q.Verified != nil && c.Verified != *q.Verified {
		return false
	}
	return true
}

func (s *Creators) List(ctx context.Context, q models.CreatorQuery) ([]models.Creator, int64, error) {
	out, _ := s.ListMatching(ctx, q)
	sortStable(out, func(a, b models.Creator) bool {
		switch q.Sort {
		case "engagement":
			if a.EngagementRate != b.EngagementRate {
				return a.EngagementRate > b.EngagementRate
			}
		case "rating":
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case "rate":
			if a.RatePerPost != b.RatePerPost {
				return a.RatePerPost < b.RatePerPost
			}
		default:
			if a.TotalFollowers != b.TotalFollowers {
				return a.TotalFollowers > b.TotalFollowers
			}
		}
		return a.ID < b.ID
	})
	return paginate(out, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(out)), nil
}

func (s *Creators) ListMatching(_ context.Context, q models.CreatorQuery) ([]models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Creator{}
	for _, c := range s.byID {
		if s.matches(c, q) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Creators) AddAsset(_ context.Context, creatorID string, asset models.MediaAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[creatorID]
	if !ok {
		return notFound("creator", creatorID)
	}
	c.Assets = append(c.Assets, asset)
	return nil
}

func (s *Creators) RemoveAsset(_ context.Context, creatorID, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[creatorID]
	if !ok {
		return notFound("creator", creatorID)
	}
	for i, a := range c.Assets {
		if a.ID == assetID {
			c.Assets = append(c.Assets[:i], c.Assets[i+1:]...)
			return nil
		}
	}
	return notFound("asset", assetID)
}
