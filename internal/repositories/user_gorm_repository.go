package repositories

import (
	"errors"
	"fmt"

	"spark/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
// It expects the DB to be opened with TranslateError so unique index
// violations surface as gorm.ErrDuplicatedKey.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// orderedPreload loads links and shops in their page order.
func orderedPreload(db *gorm.DB) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}
	return db.Preload("Links", byPosition).Preload("Shops", byPosition)
}

// assignItemIdentity gives every link/shop a stable id and its slice position.
func assignItemIdentity(userID string, links []models.LinkItem, shops []models.ShopItem) {
	for i := range links {
		if links[i].ID == "" {
			links[i].ID = uuid.New().String()
		}
		links[i].UserID = userID
		links[i].Position = i
	}
	for i := range shops {
		if shops[i].ID == "" {
			shops[i].ID = uuid.New().String()
		}
		shops[i].UserID = userID
		shops[i].Position = i
	}
}

// Create inserts a new user together with their links and shops.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	assignItemIdentity(user.ID, user.Links, user.Shops)
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user and their ordered links/shops by ID.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := orderedPreload(r.db).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := orderedPreload(r.db).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByEmailOrUsername returns any user holding either identifier. Used as
// the advisory uniqueness pre-check during signup.
func (r *GORMUserRepository) GetByEmailOrUsername(email, username string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ? OR username = ?", email, username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by email or username: %w", err)
	}
	return &user, nil
}

// UpdateBasic overwrites the owner-editable profile fields in one write and
// returns the updated user.
func (r *GORMUserRepository) UpdateBasic(id string, profile BasicProfile) (*models.User, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		updates := map[string]interface{}{
			"first_name":    profile.FirstName,
			"last_name":     profile.LastName,
			"bio":           profile.Bio,
			"profile_photo": profile.ProfilePhoto,
			"username":      profile.Username,
			"category":      profile.Category,
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateKey
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile for user %s: %w", id, err)
	}
	return r.GetByID(id)
}

// ReplaceLinks swaps the user's link sequence for the provided one in a
// single transaction.
func (r *GORMUserRepository) ReplaceLinks(id string, links []models.LinkItem) (*models.User, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, id); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.LinkItem{}).Error; err != nil {
			return err
		}
		assignItemIdentity(id, links, nil)
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace links for user %s: %w", id, err)
	}
	return r.GetByID(id)
}

// ReplaceShops swaps the user's shop sequence for the provided one in a
// single transaction.
func (r *GORMUserRepository) ReplaceShops(id string, shops []models.ShopItem) (*models.User, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, id); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ShopItem{}).Error; err != nil {
			return err
		}
		assignItemIdentity(id, nil, shops)
		if len(shops) == 0 {
			return nil
		}
		return tx.Create(&shops).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace shops for user %s: %w", id, err)
	}
	return r.GetByID(id)
}

// UpdateAppearance overwrites the banner color and the full appearance record.
func (r *GORMUserRepository) UpdateAppearance(id, bannerColor string, settings models.AppearanceSettings) (*models.User, error) {
	updates := map[string]interface{}{
		"banner_color":            bannerColor,
		"appearance_layout":       settings.Layout,
		"appearance_button_style": settings.ButtonStyle,
		"appearance_font":         settings.Font,
		"appearance_theme":        settings.Theme,
	}
	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update appearance for user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(id)
}

// IncrementClickCount bumps a single item's counter by 1 as one atomic UPDATE
// at the database, so concurrent visitor clicks never lose increments.
func (r *GORMUserRepository) IncrementClickCount(itemType models.ItemType, itemID string) (bool, error) {
	var target interface{}
	switch itemType {
	case models.ItemTypeLink:
		target = &models.LinkItem{}
	case models.ItemTypeShop:
		target = &models.ShopItem{}
	default:
		return false, fmt.Errorf("unknown item type %q", itemType)
	}
	result := r.db.Model(target).Where("id = ?", itemID).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if result.Error != nil {
		return false, fmt.Errorf("failed to increment click count for %s %s: %w", itemType, itemID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func requireUser(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
