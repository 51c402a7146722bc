package creator

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/models"
	"sponsorly/services/storage"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Discover sort keys.
const (
	SortRelevance  = "relevance"
	SortFollowers  = "followers"
	SortEngagement = "engagement"
	SortRating     = "rating"
	SortRate       = "rate"
)

// MaxAssetSize caps media-kit uploads.
const MaxAssetSize = 25 << 20

var assetKinds = map[string]bool{"image": true, "video": true, "document": true}

// Ranker scores creators for a sponsor, best first.
type Ranker interface {
	Rank(ctx context.Context, sponsor models.Sponsor, creators []models.Creator) []models.MatchScore
}

// CreatorService serves creator profiles, discovery and media kits.
type CreatorService interface {
	Discover(ctx context.Context, callerID string, callerRole models.Role, query models.CreatorQuery) (*models.ListResponse, error)
	GetProfile(ctx context.Context, id string) (*models.Creator, error)
	GetByUser(ctx context.Context, userID string) (*models.Creator, error)
	GetMediaKit(ctx context.Context, id string) (*models.MediaKit, error)
	UpdateMine(ctx context.Context, userID string, patch models.CreatorUpdate) (*models.Creator, error)
	UploadAsset(ctx context.Context, userID, kind, title, filename string, r io.Reader) (*models.MediaAsset, error)
	RemoveAsset(ctx context.Context, userID, assetID string) error
}

// DefaultCreatorService implements CreatorService.
type DefaultCreatorService struct {
	Repo      creatorRepo.CreatorRepository
	Sponsors  sponsorRepo.SponsorRepository
	Campaigns campaignRepo.CampaignRepository
	Ranker    Ranker
	Storage   storage.StorageService
}

// Discover lists creators for the sponsor discover page. Sponsors get
// relevance ranking by default.
func (s *DefaultCreatorService) Discover(ctx context.Context, callerID string, callerRole models.Role, query models.CreatorQuery) (*models.ListResponse, error) {
	switch query.Sort {
	case "":
		if callerRole == models.RoleSponsor {
			query.Sort = SortRelevance
		} else {
			query.Sort = SortFollowers
		}
	case SortRelevance, SortFollowers, SortEngagement, SortRating, SortRate:
	default:
		return nil, utils.NewValidationError("sort", "sort must be one of relevance, followers, engagement, rating or rate")
	}
	if query.MinFollowers < 0 || query.MinEngagement < 0 {
		return nil, utils.NewValidationError("minFollowers", "minimums cannot be negative")
	}
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	if query.Sort == SortRelevance {
		sponsor, err := s.Sponsors.GetByUserID(ctx, callerID)
		if err != nil {
			// Relevance needs a sponsor profile; everyone else gets followers.
			utils.GetLogger().Debug("relevance sort without sponsor profile", zap.String("userID", callerID))
			query.Sort = SortFollowers
		} else {
			return s.discoverByRelevance(ctx, *sponsor, query, page)
		}
	}

	creators, total, err := s.Repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	cards := make([]models.CreatorCard, len(creators))
	for i, c := range creators {
		cards[i] = card(c, nil)
	}
	return &models.ListResponse{Items: cards, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *DefaultCreatorService) discoverByRelevance(ctx context.Context, sponsor models.Sponsor, query models.CreatorQuery, page models.Page) (*models.ListResponse, error) {
	creators, err := s.Repo.ListMatching(ctx, query)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Creator, len(creators))
	for _, c := range creators {
		byID[c.ID] = c
	}
	scores := s.Ranker.Rank(ctx, sponsor, creators)

	total := int64(len(scores))
	start := min(page.Skip(), total)
	end := min(start+int64(page.PageSize), total)
	cards := make([]models.CreatorCard, 0, end-start)
	for _, score := range scores[start:end] {
		cards = append(cards, card(byID[score.CreatorID], &score))
	}
	return &models.ListResponse{Items: cards, Total: int64(len(scores)), Page: page.Page, PageSize: page.PageSize}, nil
}

func card(c models.Creator, score *models.MatchScore) models.CreatorCard {
	return models.CreatorCard{Creator: c, TopPlatformName: c.TopPlatform(), Match: score}
}

func (s *DefaultCreatorService) GetProfile(ctx context.Context, id string) (*models.Creator, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultCreatorService) GetByUser(ctx context.Context, userID string) (*models.Creator, error) {
	return s.Repo.GetByUserID(ctx, userID)
}

// GetMediaKit assembles the public media kit with completed campaign results.
func (s *DefaultCreatorService) GetMediaKit(ctx context.Context, id string) (*models.MediaKit, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.Campaigns.ListAll(ctx, models.CampaignQuery{CreatorID: id, Status: models.CampaignCompleted})
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	kit := &models.MediaKit{
		Creator:        *c,
		TotalFollowers: c.TotalFollowers,
		EngagementRate: c.EngagementRate,
		TopPlatform:    c.TopPlatform(),
		PastCampaigns:  make([]models.CampaignView, 0, len(campaigns)),
		Assets:         c.Assets,
		ContactEnabled: c.UserID != "",
		GeneratedAt:    time.Now(),
	}
	if kit.Assets == nil {
		kit.Assets = []models.MediaAsset{}
	}
	var roiSum, rooSum float64
	for _, cp := range campaigns {
		view := cp.View()
		kit.PastCampaigns = append(kit.PastCampaigns, view)
		roiSum += view.ROIPercent
		rooSum += view.ROOPercent
	}
	if n := float64(len(campaigns)); n > 0 {
		kit.AvgROI = round2(roiSum / n)
		kit.AvgROO = round2(rooSum / n)
	}
	return kit, nil
}

// UpdateMine applies a patch to the caller's creator profile. Platform
// changes refresh the follower and engagement totals.
func (s *DefaultCreatorService) UpdateMine(ctx context.Context, userID string, patch models.CreatorUpdate) (*models.Creator, error) {
	current, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, utils.NewValidationError("displayName", "please enter a display name")
		}
		fields["displayName"] = name
	}
	if patch.Bio != nil {
		bio := strings.TrimSpace(*patch.Bio)
		if len([]rune(bio)) > 1000 {
			return nil, utils.NewValidationError("bio", "bio must be at most 1000 characters")
		}
		fields["bio"] = bio
	}
	if patch.AvatarURL != nil {
		fields["avatarUrl"] = strings.TrimSpace(*patch.AvatarURL)
	}
	if patch.Niches != nil {
		fields["niches"] = cleanList(*patch.Niches)
	}
	if patch.Region != nil {
		fields["region"] = strings.TrimSpace(*patch.Region)
	}
	if patch.RatePerPost != nil {
		if *patch.RatePerPost < 0 {
			return nil, utils.NewValidationError("ratePerPost", "rate cannot be negative")
		}
		fields["ratePerPost"] = *patch.RatePerPost
	}
	if patch.Platforms != nil {
		platforms := *patch.Platforms
		for _, p := range platforms {
			if strings.TrimSpace(p.Platform) == "" {
				return nil, utils.NewValidationError("platforms", "every platform needs a name")
			}
			if p.Followers < 0 || p.EngagementRate < 0 || p.EngagementRate > 1 {
				return nil, utils.NewValidationError("platforms", "followers must be positive and engagement between 0 and 1")
			}
		}
		current.Platforms = platforms
		current.RefreshStats()
		fields["platforms"] = platforms
		fields["totalFollowers"] = current.TotalFollowers
		fields["engagementRate"] = current.EngagementRate
	}
	if patch.Audience != nil {
		fields["audience"] = *patch.Audience
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := s.Repo.Update(ctx, current.ID, fields); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, current.ID)
}

// UploadAsset stores a media-kit file and appends it to the profile.
func (s *DefaultCreatorService) UploadAsset(ctx context.Context, userID, kind, title, filename string, r io.Reader) (*models.MediaAsset, error) {
	if !assetKinds[kind] {
		return nil, utils.NewValidationError("kind", "kind must be image, video or document")
	}
	c, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	obj, err := s.Storage.Upload(ctx, io.LimitReader(r, MaxAssetSize), "media-kits/"+c.ID, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store asset: %w", err)
	}
	asset := models.MediaAsset{
		ID:         uuid.New().String(),
		Kind:       kind,
		Title:      strings.TrimSpace(title),
		URL:        obj.URL,
		StorageID:  obj.ID,
		UploadedAt: time.Now(),
	}
	if err := s.Repo.AddAsset(ctx, c.ID, asset); err != nil {
		if delErr := s.Storage.Delete(ctx, obj.ID); delErr != nil {
			utils.GetLogger().Warn("failed to clean up orphaned asset", zap.String("storageID", obj.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return &asset, nil
}

// RemoveAsset deletes a media-kit file from storage and from the profile.
func (s *DefaultCreatorService) RemoveAsset(ctx context.Context, userID, assetID string) error {
	c, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	var asset *models.MediaAsset
	for i := range c.Assets {
		if c.Assets[i].ID == assetID {
			asset = &c.Assets[i]
			break
		}
	}
	if asset == nil {
		return fmt.Errorf("asset %s: %w", assetID, utils.ErrNotFound)
	}
	if err := s.Repo.RemoveAsset(ctx, c.ID, assetID); err != nil {
		return err
	}
	if asset.StorageID != "" {
		if err := s.Storage.Delete(ctx, asset.StorageID); err != nil {
			utils.GetLogger().Warn("failed to delete stored asset", zap.String("storageID", asset.StorageID), zap.Error(err))
		}
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
