package services

import (
	"log"
	"strings"
	"time"

	"spark/internal/models"
	"spark/internal/repositories"
	"spark/pkg/rabbitmq"
)

// ReplaceStrategy controls how link/shop updates treat existing click
// counters.
type ReplaceStrategy string

const (
	// ReplaceStrategyFull replaces the sequence wholesale; counters come
	// from the payload or start at zero. Matches the original API behavior,
	// which silently wipes counters on every edit.
	ReplaceStrategyFull ReplaceStrategy = "full"
	// ReplaceStrategyMerge keeps the stored counter for every item whose id
	// matches an existing one; items with no match get a fresh id and a zero
	// counter. Default.
	ReplaceStrategyMerge ReplaceStrategy = "merge"
)

// ProfileService handles reads and mutations of a user's page, click
// tracking and analytics aggregation.
type ProfileService struct {
	userRepo repositories.UserRepository
	mqClient *rabbitmq.Client // nil disables click event publishing
	strategy ReplaceStrategy
}

// NewProfileService creates a new ProfileService.
func NewProfileService(userRepo repositories.UserRepository, mqClient *rabbitmq.Client, strategy ReplaceStrategy) *ProfileService {
	if strategy != ReplaceStrategyFull {
		strategy = ReplaceStrategyMerge
	}
	return &ProfileService{
		userRepo: userRepo,
		mqClient: mqClient,
		strategy: strategy,
	}
}

// BasicProfileInput is the payload for the basic profile update.
type BasicProfileInput struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Bio          string `json:"bio"`
	ProfilePhoto string `json:"profilePhoto"`
	Username     string `json:"username" validate:"required,min=3,max=20"`
	Category     string `json:"category" validate:"required"`
}

// ItemInput is one link or shop entry in an update payload. ClickCount is a
// pointer so an omitted counter can be told apart from an explicit zero.
type ItemInput struct {
	ID         string `json:"id"`
	Title      string `json:"title" validate:"required"`
	URL        string `json:"url" validate:"required"`
	Enabled    bool   `json:"enabled"`
	ClickCount *int64 `json:"clickCount" validate:"omitempty,gte=0"`
}

// Get returns the password-free user document with ordered links and shops.
func (s *ProfileService) Get(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateBasic overwrites the owner-editable profile fields.
func (s *ProfileService) UpdateBasic(userID string, input BasicProfileInput) (*models.User, error) {
	user, err := s.userRepo.UpdateBasic(userID, repositories.BasicProfile{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Bio:          strings.TrimSpace(input.Bio),
		ProfilePhoto: strings.TrimSpace(input.ProfilePhoto),
		Username:     strings.TrimSpace(input.Username),
		Category:     strings.TrimSpace(input.Category),
	})
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateLinks replaces the user's link sequence according to the configured
// replace strategy.
func (s *ProfileService) UpdateLinks(userID string, items []ItemInput) (*models.User, error) {
	stored, err := s.storedCounts(userID, models.ItemTypeLink)
	if err != nil {
		return nil, err
	}

	links := make([]models.LinkItem, 0, len(items))
	for _, item := range items {
		id, count := s.resolveItem(item, stored)
		links = append(links, models.LinkItem{
			ID:         id,
			Title:      strings.TrimSpace(item.Title),
			URL:        strings.TrimSpace(item.URL),
			Enabled:    item.Enabled,
			ClickCount: count,
		})
	}

	user, err := s.userRepo.ReplaceLinks(userID, links)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateShops replaces the user's shop sequence according to the configured
// replace strategy.
func (s *ProfileService) UpdateShops(userID string, items []ItemInput) (*models.User, error) {
	stored, err := s.storedCounts(userID, models.ItemTypeShop)
	if err != nil {
		return nil, err
	}

	shops := make([]models.ShopItem, 0, len(items))
	for _, item := range items {
		id, count := s.resolveItem(item, stored)
		shops = append(shops, models.ShopItem{
			ID:         id,
			Title:      strings.TrimSpace(item.Title),
			URL:        strings.TrimSpace(item.URL),
			Enabled:    item.Enabled,
			ClickCount: count,
		})
	}

	user, err := s.userRepo.ReplaceShops(userID, shops)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateAppearance overwrites the banner color and the full appearance
// record.
func (s *ProfileService) UpdateAppearance(userID, bannerColor string, settings models.AppearanceSettings) (*models.User, error) {
	user, err := s.userRepo.UpdateAppearance(userID, strings.TrimSpace(bannerColor), settings)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// TrackClick increments one item's counter. An unknown item id is a
// successful no-op: clicks arrive from arbitrary visitors and a stale page
// must not surface errors to them.
func (s *ProfileService) TrackClick(itemType models.ItemType, itemID string) error {
	found, err := s.userRepo.IncrementClickCount(itemType, itemID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if s.mqClient != nil {
		event := rabbitmq.ClickEvent{
			ItemID:     itemID,
			ItemType:   string(itemType),
			OccurredAt: time.Now(),
		}
		if err := s.mqClient.PublishClickEvent(event); err != nil {
			log.Printf("Warning: failed to publish click event for %s %s: %v", itemType, itemID, err)
		}
	}
	return nil
}

// Analytics returns per-item click counts plus link and shop totals.
func (s *ProfileService) Analytics(userID string) (*models.Analytics, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	analytics := &models.Analytics{
		Links: make([]models.ItemAnalytics, 0, len(user.Links)),
		Shops: make([]models.ItemAnalytics, 0, len(user.Shops)),
	}
	for _, link := range user.Links {
		analytics.Links = append(analytics.Links, models.ItemAnalytics{
			ID:         link.ID,
			Title:      link.Title,
			URL:        link.URL,
			ClickCount: link.ClickCount,
		})
		analytics.TotalLinkClicks += link.ClickCount
	}
	for _, shop := range user.Shops {
		analytics.Shops = append(analytics.Shops, models.ItemAnalytics{
			ID:         shop.ID,
			Title:      shop.Title,
			URL:        shop.URL,
			ClickCount: shop.ClickCount,
		})
		analytics.TotalShopClicks += shop.ClickCount
	}
	return analytics, nil
}

// storedCounts returns the current counters keyed by item id when the merge
// strategy needs them, or nil under full replace.
func (s *ProfileService) storedCounts(userID string, itemType models.ItemType) (map[string]int64, error) {
	if s.strategy != ReplaceStrategyMerge {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	switch itemType {
	case models.ItemTypeLink:
		for _, link := range user.Links {
			counts[link.ID] = link.ClickCount
		}
	case models.ItemTypeShop:
		for _, shop := range user.Shops {
			counts[shop.ID] = shop.ClickCount
		}
	}
	return counts, nil
}

// resolveItem decides an incoming item's id and counter. Under merge, a
// matching id keeps its stored counter and any unmatched item starts fresh;
// under full replace the payload counter wins, defaulting to zero.
func (s *ProfileService) resolveItem(item ItemInput, stored map[string]int64) (string, int64) {
	if s.strategy == ReplaceStrategyMerge {
		if count, ok := stored[item.ID]; ok {
			return item.ID, count
		}
		return "", 0
	}
	var count int64
	if item.ClickCount != nil {
		count = *item.ClickCount
	}
	return item.ID, count
}
