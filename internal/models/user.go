package models

import "time"

// Defaults applied to new users when the signup payload omits them.
const (
	DefaultProfilePhoto = "https://example.com/default-profile-photo.png"
	DefaultBannerColor  = "#000000"
)

// ItemType distinguishes the two kinds of clickable items on a page.
type ItemType string

const (
	ItemTypeLink ItemType = "link"
	ItemTypeShop ItemType = "shop"
)

// AppearanceSettings controls how a user's public page is rendered.
type AppearanceSettings struct {
	Layout      string `json:"layout" gorm:"type:varchar(20)" validate:"required,oneof=Stack Grid List"`
	ButtonStyle string `json:"buttonStyle" gorm:"type:varchar(20)" validate:"required,oneof=Fill Outline Text"`
	Font        string `json:"font" gorm:"type:varchar(20)" validate:"required,oneof='DM Sans' 'Roboto' 'Open Sans'"`
	Theme       string `json:"theme" gorm:"type:varchar(20)" validate:"required,oneof='Air Snow' 'Dark Mode' 'Light Mode'"`
}

// DefaultAppearance returns the appearance settings every new page starts with.
func DefaultAppearance() AppearanceSettings {
	return AppearanceSettings{
		Layout:      "Stack",
		ButtonStyle: "Fill",
		Font:        "DM Sans",
		Theme:       "Air Snow",
	}
}

// LinkItem is a single link on a user's page. Its ID is stable across profile
// updates so click counters can keep addressing it.
type LinkItem struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"-" gorm:"index;type:varchar(36)"`
	Title      string `json:"title" validate:"required"`
	URL        string `json:"url" validate:"required"`
	Enabled    bool   `json:"enabled"`
	ClickCount int64  `json:"clickCount" validate:"gte=0"`
	Position   int    `json:"-"`
}

// ShopItem is a shop entry on a user's page, same shape as LinkItem but
// counted separately in analytics.
type ShopItem struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"-" gorm:"index;type:varchar(36)"`
	Title      string `json:"title" validate:"required"`
	URL        string `json:"url" validate:"required"`
	Enabled    bool   `json:"enabled"`
	ClickCount int64  `json:"clickCount" validate:"gte=0"`
	Position   int    `json:"-"`
}

// User is the central entity: account credentials plus the page they own.
type User struct {
	ID           string             `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FirstName    string             `json:"firstName" gorm:"type:varchar(100)" validate:"required"`
	LastName     string             `json:"lastName" gorm:"type:varchar(100)" validate:"required"`
	Email        string             `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Username     string             `json:"username" gorm:"uniqueIndex;type:varchar(20)" validate:"required,min=3,max=20"`
	Password     string             `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"` // bcrypt hash, never serialized
	Category     string             `json:"category" gorm:"type:varchar(100)" validate:"required"`
	ProfilePhoto string             `json:"profilePhoto" gorm:"type:varchar(512)"`
	Bio          string             `json:"bio"`
	BannerColor  string             `json:"bannerColor" gorm:"type:varchar(20)"`
	Appearance   AppearanceSettings `json:"appearanceSettings" gorm:"embedded;embeddedPrefix:appearance_"`
	Links        []LinkItem         `json:"links" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Shops        []ShopItem         `json:"shops" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ItemAnalytics is the per-item slice of the analytics response.
type ItemAnalytics struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	ClickCount int64  `json:"clickCount"`
}

// Analytics aggregates click counts across a user's links and shops.
type Analytics struct {
	Links           []ItemAnalytics `json:"links"`
	Shops           []ItemAnalytics `json:"shops"`
	TotalLinkClicks int64           `json:"totalLinkClicks"`
	TotalShopClicks int64           `json:"totalShopClicks"`
}
