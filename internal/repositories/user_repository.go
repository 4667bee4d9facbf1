package repositories

import (
	"errors"

	"spark/internal/models"
)

// Storage-level errors. Services and handlers match these with errors.Is
// instead of parsing message text.
var (
	// ErrNotFound means the referenced user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateKey means the email or username is already taken. The
	// database unique index is the authoritative arbiter under concurrent
	// writes; pre-checks in services are advisory only.
	ErrDuplicateKey = errors.New("email or username already exists")
)

// BasicProfile is the subset of user fields a profile owner may overwrite
// through the basic update. Password and id are deliberately not part of it.
type BasicProfile struct {
	FirstName    string
	LastName     string
	Bio          string
	ProfilePhoto string
	Username     string
	Category     string
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByEmailOrUsername(email, username string) (*models.User, error)
	UpdateBasic(id string, profile BasicProfile) (*models.User, error)
	ReplaceLinks(id string, links []models.LinkItem) (*models.User, error)
	ReplaceShops(id string, shops []models.ShopItem) (*models.User, error)
	UpdateAppearance(id, bannerColor string, settings models.AppearanceSettings) (*models.User, error)
	// IncrementClickCount atomically bumps one item's counter by 1 and
	// reports whether the item exists.
	IncrementClickCount(itemType models.ItemType, itemID string) (bool, error)
}
