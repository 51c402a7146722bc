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

// Users is an in-memory userRepo.UserRepository.
type Users struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	order []string
}

// NewUsers returns an empty user store seeded with users.
func NewUsers(users ...models.User) *Users {
	s := &Users{byID: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		s.byID[u.ID] = &u
		s.order = append(s.order, u.ID)
	}
	return s
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s: %w", user.Email, utils.ErrConflict)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.byID[user.ID] = &cp
	s.order = append(s.order, user.ID)
	return nil
}

func (s *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, notFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetByIDWithProjection(ctx context.Context, id string, _ bson.M) (*models.User, error) {
	return s.GetByID(ctx, id)
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findOne(func(u *models.User) bool { return u.Email == strings.ToLower(strings.TrimSpace(email)) })
}

func (s *Users) GetByStripeCustomer(_ context.Context, customerID string) (*models.User, error) {
	return s.findOne(func(u *models.User) bool { return customerID != "" && u.StripeCustomerID == customerID })
}

func (s *Users) findOne(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if u, ok := s.byID[id]; ok && match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", utils.ErrNotFound)
}

func (s *Users) Update(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return notFound("user", id)
	}
	fields["updatedAt"] = time.Now()
	return applySet(u, fields)
}

func (s *Users) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return notFound("user", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *Users) Search(_ context.Context, q models.UserQuery) ([]models.User, int64, error) {
	s.mu.Lock()
	var matched []models.User
	for _, id := range s.order {
		u, ok := s.byID[id]
		if !ok {
			continue
		}
		if strings.TrimSpace(q.Q) != "" &&
			!containsFold(u.Name, q.Q) && !containsFold(u.Email, q.Q) && !containsFold(u.OrganizationName, q.Q) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Status != "" && u.Status != q.Status {
			continue
		}
		matched = append(matched, *u)
	}
	s.mu.Unlock()

	sortStable(matched, func(a, b models.User) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return paginate(matched, models.Page{Page: q.Page, PageSize: q.PageSize}), int64(len(matched)), nil
}

func (s *Users) CountByRole(_ context.Context) (map[models.Role]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[models.Role]int64{}
	for _, u := range s.byID {
		out[u.Role]++
	}
	return out, nil
}

func (s *Users) CountByStatus(_ context.Context, status models.UserStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.byID {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Users) AdjustCredits(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return 0, notFound("user", id)
	}
	if u.Credits+delta < 0 {
		return 0, utils.ErrInsufficientCredits
	}
	u.Credits += delta
	return u.Credits, nil
}

func (s *Users) SetOrganization(ctx context.Context, userID, orgID, orgName string) error {
	return s.Update(ctx, userID, bson.M{"organizationId": orgID, "organizationName": orgName})
}

func (s *Users) RenameOrganization(_ context.Context, orgID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.byID {
		if u.OrganizationID == orgID {
			u.OrganizationName = name
			n++
		}
	}
	return n, nil
}

func (s *Users) ListDigestRecipients(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range s.order {
		u, ok := s.byID[id]
		if ok && u.Status == models.UserStatusActive && u.Settings.WeeklyDigest && u.Role != models.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}
