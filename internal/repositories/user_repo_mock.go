package repositories

import (
	"sync"

	"spark/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// It enforces the same uniqueness and not-found semantics as the GORM
// implementation so services can be tested without a database.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, rejecting duplicate emails or usernames.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrDuplicateKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	assignItemIdentity(user.ID, user.Links, user.Shops)
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByID returns a user by their ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user = cloneUser(user)
	return &user, nil
}

// GetByEmail returns a user by their email address.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetByEmailOrUsername returns any user holding either identifier.
func (r *MockUserRepository) GetByEmailOrUsername(email, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email || user.Username == username {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateBasic overwrites the owner-editable profile fields.
func (r *MockUserRepository) UpdateBasic(id string, profile BasicProfile) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Username == profile.Username {
			return nil, ErrDuplicateKey
		}
	}
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.Bio = profile.Bio
	user.ProfilePhoto = profile.ProfilePhoto
	user.Username = profile.Username
	user.Category = profile.Category
	r.users[id] = user
	user = cloneUser(user)
	return &user, nil
}

// ReplaceLinks swaps the user's link sequence.
func (r *MockUserRepository) ReplaceLinks(id string, links []models.LinkItem) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	assignItemIdentity(id, links, nil)
	user.Links = append([]models.LinkItem(nil), links...)
	r.users[id] = user
	user = cloneUser(user)
	return &user, nil
}

// ReplaceShops swaps the user's shop sequence.
func (r *MockUserRepository) ReplaceShops(id string, shops []models.ShopItem) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	assignItemIdentity(id, nil, shops)
	user.Shops = append([]models.ShopItem(nil), shops...)
	r.users[id] = user
	user = cloneUser(user)
	return &user, nil
}

// UpdateAppearance overwrites the banner color and appearance settings.
func (r *MockUserRepository) UpdateAppearance(id, bannerColor string, settings models.AppearanceSettings) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.BannerColor = bannerColor
	user.Appearance = settings
	r.users[id] = user
	user = cloneUser(user)
	return &user, nil
}

// IncrementClickCount bumps a single item's counter under the write lock.
func (r *MockUserRepository) IncrementClickCount(itemType models.ItemType, itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		switch itemType {
		case models.ItemTypeLink:
			for i := range user.Links {
				if user.Links[i].ID == itemID {
					user.Links[i].ClickCount++
					r.users[id] = user
					return true, nil
				}
			}
		case models.ItemTypeShop:
			for i := range user.Shops {
				if user.Shops[i].ID == itemID {
					user.Shops[i].ClickCount++
					r.users[id] = user
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// cloneUser copies the user and its item slices so callers cannot mutate the
// stored state through returned pointers.
func cloneUser(user models.User) models.User {
	user.Links = append([]models.LinkItem(nil), user.Links...)
	user.Shops = append([]models.ShopItem(nil), user.Shops...)
	return user
}
