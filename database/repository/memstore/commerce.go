package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Marketplace is an in-memory marketRepo.MarketplaceRepository.
type Marketplace struct {
	mu        sync.Mutex
	reports   map[string]*models.DataReport
	purchases []models.ReportPurchase
}

// NewMarketplace returns a store seeded with reports.
func NewMarketplace(reports ...models.DataReport) *Marketplace {
	s := &Marketplace{reports: map[string]*models.DataReport{}}
	for i := range reports {
		r := reports[i]
		s.reports[r.ID] = &r
	}
	return s
}

func (s *Marketplace) CreateReport(_ context.Context, r *models.DataReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Tags == nil {
		r.Tags = []string{}
	}
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s *Marketplace) GetReport(_ context.Context, id string) (*models.DataReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, notFound("report", id)
	}
	cp := *r
	return &cp, nil
}

func (s *Marketplace) UpdateReport(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return notFound("report", id)
	}
	fields["updatedAt"] = time.Now()
	return applySet(r, fields)
}

func (s *Marketplace) ListReports(_ context.Context, q models.ReportQuery) ([]models.DataReport, int64, error) {
	s.mu.Lock()
	var out []models.DataReport
	for _, r := range s.reports {
		if r.Status != models.ReportPublished {
			continue
		}
		if term := strings.TrimSpace(q.Q); term != "" &&
			!containsFold(r.Title, term) && !containsFold(r.Description, term) && !anyContainsFold(r.Tags, term) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(r.Category, q.Category) {
			continue
		}
		if q.MinTrust > 0 && r.TrustScore < q.MinTrust {
			continue
		}
		if q.MaxPrice > 0 && r.PriceCredits > q.MaxPrice {
			continue
		}
		cp := *r
		cp.FileID = ""
		out = append(out, cp)
	}
	s.mu.Unlock()

	sortStable(out, func(a, b models.DataReport) bool { return a.ID < b.ID })
	switch q.Sort {
	case models.ReportSortPriceAsc:
		sortStable(out, func(a, b models.DataReport) bool { return a.PriceCredits < b.PriceCredits })
	case models.ReportSortPriceDesc:
		sortStable(out, func(a, b models.DataReport) bool { return a.PriceCredits > b.PriceCredits })
	case models.ReportSortRating:
		sortStable(out, func(a, b models.DataReport) bool { return a.Rating > b.Rating })
	case models.ReportSortNewest:
		sortStable(out, func(a, b models.DataReport) bool { return a.PublishedAt.After(b.PublishedAt) })
	case models.ReportSortPopular:
		sortStable(out, func(a, b models.DataReport) bool { return a.Downloads > b.Downloads })
	default:
		sortStable(out, func(a, b models.DataReport) bool { return a.TrustScore > b.TrustScore })
	}
	return paginate(out, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(out)), nil
}

func (s *Marketplace) IncrementDownloads(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return notFound("report", id)
	}
	r.Downloads++
	return nil
}

func (s *Marketplace) GetPurchase(_ context.Context, buyerID, reportID string) (*models.ReportPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.BuyerID == buyerID && p.ReportID == reportID {
			cp := p
			return &cp, nil
		}
	}
	return nil, notFound("purchase", reportID)
}

func (s *Marketplace) InsertPurchase(_ context.Context, purchase *models.ReportPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.BuyerID == purchase.BuyerID && p.ReportID == purchase.ReportID {
			return utils.ErrConflict
		}
	}
	s.purchases = append(s.purchases, *purchase)
	return nil
}

func (s *Marketplace) ListPurchases(_ context.Context, buyerID string) ([]models.ReportPurchase, error) {
	s.mu.Lock()
	out := []models.ReportPurchase{}
	for _, p := range s.purchases {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.ReportPurchase) bool { return a.CreatedAt.After(b.CreatedAt) })
	return out, nil
}

func (s *Marketplace) CountPurchases(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.purchases)), nil
}

// Billing is an in-memory billingRepo.BillingRepository.
type Billing struct {
	mu            sync.Mutex
	subscriptions map[string]models.Subscription
	packages      map[string]models.CreditPackage
	ledger        []models.CreditTransaction
}

// NewBilling returns a store seeded with credit packages.
func NewBilling(packages ...models.CreditPackage) *Billing {
	s := &Billing{
		subscriptions: map[string]models.Subscription{},
		packages:      map[string]models.CreditPackage{},
	}
	for _, p := range packages {
		s.packages[p.ID] = p
	}
	return s
}

func (s *Billing) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.subscriptions[sub.StripeSubscriptionID]; ok {
		sub.ID, sub.CreatedAt = existing.ID, existing.CreatedAt
	} else if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	s.subscriptions[sub.StripeSubscriptionID] = *sub
	return nil
}

func (s *Billing) GetSubscriptionByUser(_ context.Context, userID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID != userID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			cp := sub
			latest = &cp
		}
	}
	if latest == nil {
		return nil, notFound("subscription for user", userID)
	}
	return latest, nil
}

func (s *Billing) GetSubscriptionByStripeID(_ context.Context, id string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, notFound("subscription", id)
	}
	return &sub, nil
}

func (s *Billing) ListPackages(_ context.Context) ([]models.CreditPackage, error) {
	s.mu.Lock()
	out := make([]models.CreditPackage, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, p)
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.CreditPackage) bool {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Billing) GetPackage(_ context.Context, id string) (*models.CreditPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, notFound("credit package", id)
	}
	return &p, nil
}

func (s *Billing) UpsertPackage(_ context.Context, pkg *models.CreditPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[pkg.ID] = *pkg
	return nil
}

func (s *Billing) InsertTransaction(_ context.Context, tx *models.CreditTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ledger {
		if existing.Ref == tx.Ref {
			return utils.ErrConflict
		}
	}
	s.ledger = append(s.ledger, *tx)
	return nil
}

func (s *Billing) DeleteTransaction(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.ledger {
		if tx.Ref == ref {
			s.ledger = append(s.ledger[:i], s.ledger[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Billing) ListTransactions(_ context.Context, userID string, page models.Page) ([]models.CreditTransaction, int64, error) {
	s.mu.Lock()
	var out []models.CreditTransaction
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()
	sortStable(out, func(a, b models.CreditTransaction) bool { return a.CreatedAt.After(b.CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

func (s *Billing) CreditsSold(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, tx := range s.ledger {
		if tx.Reason == models.CreditReasonPurchase {
			total += int64(tx.Delta)
		}
	}
	return total, nil
}
