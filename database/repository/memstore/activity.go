package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	campaignRepo "sponsorly/database/repository/campaign"
	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Campaigns is an in-memory campaignRepo.CampaignRepository.
type Campaigns struct {
	mu   sync.Mutex
	byID map[string]*models.Campaign
}

// NewCampaigns returns a store seeded with campaigns.
func NewCampaigns(campaigns ...models.Campaign) *Campaigns {
	s := &Campaigns{byID: map[string]*models.Campaign{}}
	for i := range campaigns {
		c := campaigns[i]
		s.byID[c.ID] = &c
	}
	return s
}

func (s *Campaigns) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.CreatorIDs == nil {
		c.CreatorIDs = []string{}
	}
	cp := *c
	s.byID[c.ID] = &cp
	return nil
}

func (s *Campaigns) GetByID(_ context.Context, id string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, notFound("campaign", id)
	}
	cp := *c
	return &cp, nil
}

func (s *Campaigns) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return notFound("campaign", id)
	}
	fields["updatedAt"] = time.Now()
	return applySet(c, fields)
}

func (s *Campaigns) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return notFound("campaign", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *Campaigns) ListAll(_ context.Context, q models.CampaignQuery) ([]models.Campaign, error) {
	s.mu.Lock()
	out := []models.Campaign{}
	for _, c := range s.byID {
		if strings.TrimSpace(q.Q) != "" && !containsFold(c.Name, q.Q) {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.SponsorID != "" && c.SponsorID != q.SponsorID {
			continue
		}
		if q.CreatorID != "" && !slices.Contains(c.CreatorIDs, q.CreatorID) {
			continue
		}
		out = append(out, *c)
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Campaign) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Campaigns) List(ctx context.Context, q models.CampaignQuery) ([]models.Campaign, int64, error) {
	all, _ := s.ListAll(ctx, q)
	return paginate(all, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(all)), nil
}

func (s *Campaigns) Count(ctx context.Context, q models.CampaignQuery) (int64, error) {
	all, _ := s.ListAll(ctx, q)
	return int64(len(all)), nil
}

func (s *Campaigns) SponsorStats(ctx context.Context, sponsorID string) (campaignRepo.SponsorStats, error) {
	all, _ := s.ListAll(ctx, models.CampaignQuery{SponsorID: sponsorID})
	var stats campaignRepo.SponsorStats
	for _, c := range all {
		if c.Status == models.CampaignDraft {
			continue
		}
		stats.CampaignCount++
		stats.TotalSpend += c.Spend
		if c.StartDate.After(stats.LastCampaignAt) {
			stats.LastCampaignAt = c.StartDate
		}
	}
	return stats, nil
}

// AuditLogs is an in-memory auditRepo.AuditRepository.
type AuditLogs struct {
	mu      sync.Mutex
	Entries []models.AuditLog
}

func (s *AuditLogs) Insert(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, *entry)
	return nil
}

func (s *AuditLogs) newestFirst() []models.AuditLog {
	out := make([]models.AuditLog, len(s.Entries))
	copy(out, s.Entries)
	sortStable(out, func(a, b models.AuditLog) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *AuditLogs) List(_ context.Context, q models.AuditQuery) ([]models.AuditLog, int64, error) {
	s.mu.Lock()
	all := s.newestFirst()
	s.mu.Unlock()
	var out []models.AuditLog
	for _, e := range all {
		if q.ActorID != "" && e.ActorID != q.ActorID {
			continue
		}
		if q.Action != "" && !strings.HasPrefix(e.Action, q.Action) {
			continue
		}
		if q.ResourceType != "" && e.ResourceType != q.ResourceType {
			continue
		}
		if q.Severity != "" && e.Severity != q.Severity {
			continue
		}
		if !q.From.IsZero() && e.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && e.CreatedAt.After(q.To) {
			continue
		}
		if strings.TrimSpace(q.Q) != "" && !containsFold(e.ActorEmail, q.Q) && !containsFold(e.Action, q.Q) {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(out)), nil
}

func (s *AuditLogs) Latest(_ context.Context, n int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.newestFirst()
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// Messages is an in-memory messageRepo.MessageRepository.
type Messages struct {
	mu   sync.Mutex
	msgs []*models.Message
}

func (s *Messages) Insert(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.msgs = append(s.msgs, &cp)
	return nil
}

func (s *Messages) list(match func(*models.Message) bool, page models.Page) ([]models.Message, int64, error) {
	s.mu.Lock()
	var out []models.Message
	for _, m := range s.msgs {
		if match(m) {
			out = append(out, *m)
		}
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.Message) bool { return a.CreatedAt.After(b.CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

func (s *Messages) Inbox(_ context.Context, userID string, page models.Page) ([]models.Message, int64, error) {
	return s.list(func(m *models.Message) bool { return m.ToUserID == userID }, page)
}

func (s *Messages) Sent(_ context.Context, userID string, page models.Page) ([]models.Message, int64, error) {
	return s.list(func(m *models.Message) bool { return m.FromUserID == userID }, page)
}

func (s *Messages) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.msgs {
		if m.ID == id && m.ToUserID == userID {
			m.Read = true
			return nil
		}
	}
	return notFound("message", id)
}

func (s *Messages) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.msgs {
		if m.ToUserID == userID && !m.Read {
			n++
		}
	}
	return n, nil
}

// PerformanceReports is an in-memory reportRepo.PerformanceReportRepository.
type PerformanceReports struct {
	mu   sync.Mutex
	byID map[string]*models.PerformanceReport
}

// NewPerformanceReports returns an empty store.
func NewPerformanceReports() *PerformanceReports {
	return &PerformanceReports{byID: map[string]*models.PerformanceReport{}}
}

func (s *PerformanceReports) Create(_ context.Context, r *models.PerformanceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *PerformanceReports) GetByID(_ context.Context, id string) (*models.PerformanceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, notFound("performance report", id)
	}
	cp := *r
	return &cp, nil
}

func (s *PerformanceReports) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return notFound("performance report", id)
	}
	return applySet(r, fields)
}

func (s *PerformanceReports) ListForCampaign(_ context.Context, campaignID string) ([]models.PerformanceReport, error) {
	s.mu.Lock()
	out := []models.PerformanceReport{}
	for _, r := range s.byID {
		if r.CampaignID == campaignID {
			out = append(out, *r)
		}
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.PerformanceReport) bool { return a.CreatedAt.After(b.CreatedAt) })
	return out, nil
}

// Decisions is an in-memory matchRepo.DecisionRepository.
type Decisions struct {
	mu    sync.Mutex
	items map[string]models.MatchDecision
}

// NewDecisions returns an empty store.
func NewDecisions() *Decisions {
	return &Decisions{items: map[string]models.MatchDecision{}}
}

func (s *Decisions) Upsert(_ context.Context, d *models.MatchDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.UpdatedAt = time.Now()
	s.items[fmt.Sprintf("%s|%s|%s", d.Side, d.SponsorID, d.CreatorID)] = *d
	return nil
}

func (s *Decisions) ForSide(_ context.Context, side models.Role, ownerID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, d := range s.items {
		if d.Side != side {
			continue
		}
		switch {
		case side == models.RoleCreator && d.CreatorID == ownerID:
			out[d.SponsorID] = d.Status
		case side != models.RoleCreator && d.SponsorID == ownerID:
			out[d.CreatorID] = d.Status
		}
	}
	return out, nil
}

// Get returns a recorded decision; it exists for assertions.
func (s *Decisions) Get(side models.Role, sponsorID, creatorID string) (models.MatchDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[fmt.Sprintf("%s|%s|%s", side, sponsorID, creatorID)]
	return d, ok
}

