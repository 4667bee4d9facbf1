package handlers

import (
	"errors"
	"log"

	"spark/internal/models"
	"spark/internal/repositories"
	"spark/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for profile reads, mutations, click
// tracking and analytics.
type ProfileHandler struct {
	profileService *services.ProfileService
	validate       *validator.Validate
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the owner-only profile routes; the router must be
// wrapped by the auth middleware.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profile")
	profileRoutes.Get("/", h.HandleGetProfile)
	profileRoutes.Put("/basic", h.HandleUpdateBasic)
	profileRoutes.Put("/links", h.HandleUpdateLinks)
	profileRoutes.Put("/shops", h.HandleUpdateShops)
	profileRoutes.Put("/appearance", h.HandleUpdateAppearance)
	profileRoutes.Get("/analytics", h.HandleGetAnalytics)
}

// RegisterPublicRoutes registers the visitor-facing routes. Click tracking
// is unauthenticated: items are addressed by their globally unique ids.
func (h *ProfileHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/profile/track-click", h.HandleTrackClick)
}

// HandleGetProfile returns the full password-free user document.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.profileService.Get(authenticatedUserID(c))
	if err != nil {
		return h.respondProfileError(c, "get profile", err)
	}
	return c.JSON(user)
}

// HandleUpdateBasic overwrites the basic profile fields.
func (h *ProfileHandler) HandleUpdateBasic(c *fiber.Ctx) error {
	var input services.BasicProfileInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing basic profile request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, input); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	user, err := h.profileService.UpdateBasic(authenticatedUserID(c), input)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Username is already taken",
			})
		}
		return h.respondProfileError(c, "update basic profile", err)
	}
	return c.JSON(user)
}

// UpdateLinksRequest represents the request body for the links update.
type UpdateLinksRequest struct {
	Links []services.ItemInput `json:"links" validate:"dive"`
}

// HandleUpdateLinks replaces the user's link sequence.
func (h *ProfileHandler) HandleUpdateLinks(c *fiber.Ctx) error {
	var req UpdateLinksRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing links request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	user, err := h.profileService.UpdateLinks(authenticatedUserID(c), req.Links)
	if err != nil {
		return h.respondProfileError(c, "update links", err)
	}
	return c.JSON(user)
}

// UpdateShopsRequest represents the request body for the shops update.
type UpdateShopsRequest struct {
	Shops []services.ItemInput `json:"shops" validate:"dive"`
}

// HandleUpdateShops replaces the user's shop sequence.
func (h *ProfileHandler) HandleUpdateShops(c *fiber.Ctx) error {
	var req UpdateShopsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing shops request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	user, err := h.profileService.UpdateShops(authenticatedUserID(c), req.Shops)
	if err != nil {
		return h.respondProfileError(c, "update shops", err)
	}
	return c.JSON(user)
}

// UpdateAppearanceRequest represents the request body for the appearance
// update. The settings record is validated in full; partial records fail.
type UpdateAppearanceRequest struct {
	BannerColor        string                    `json:"bannerColor" validate:"required"`
	AppearanceSettings models.AppearanceSettings `json:"appearanceSettings" validate:"required"`
}

// HandleUpdateAppearance overwrites the banner color and appearance record.
func (h *ProfileHandler) HandleUpdateAppearance(c *fiber.Ctx) error {
	var req UpdateAppearanceRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing appearance request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	user, err := h.profileService.UpdateAppearance(authenticatedUserID(c), req.BannerColor, req.AppearanceSettings)
	if err != nil {
		return h.respondProfileError(c, "update appearance", err)
	}
	return c.JSON(user)
}

// TrackClickRequest represents the request body for click tracking.
type TrackClickRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	ItemType string `json:"itemType" validate:"required,oneof=link shop"`
}

// HandleTrackClick increments an item's click counter. Unknown ids succeed
// without effect; visitors never see tracking errors for stale pages.
func (h *ProfileHandler) HandleTrackClick(c *fiber.Ctx) error {
	var req TrackClickRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing track-click request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	if err := h.profileService.TrackClick(models.ItemType(req.ItemType), req.ItemID); err != nil {
		log.Printf("Error tracking click for %s %s: %v", req.ItemType, req.ItemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not track click",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleGetAnalytics returns per-item click counts and totals.
func (h *ProfileHandler) HandleGetAnalytics(c *fiber.Ctx) error {
	analytics, err := h.profileService.Analytics(authenticatedUserID(c))
	if err != nil {
		return h.respondProfileError(c, "get analytics", err)
	}
	return c.JSON(analytics)
}

// respondProfileError maps service errors to HTTP statuses. Infrastructure
// detail goes to the server log only.
func (h *ProfileHandler) respondProfileError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
		})
	}
	log.Printf("Error in %s: %v", action, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}
