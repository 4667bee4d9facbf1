package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"spark/internal/repositories"
	"spark/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/signup", h.HandleSignup)
	router.Post("/login", h.HandleLogin)
	router.Post("/refresh-token", h.HandleRefreshToken)
}

// RegisterProtectedRoutes registers the routes that require an access token.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Get("/me", h.HandleMe)
	router.Post("/logout", h.HandleLogout)
}

// HandleSignup handles new account creation.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var input services.SignupInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing signup request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, input); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	result, err := h.authService.Signup(input)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": duplicateKeyMessage(err),
			})
		}
		log.Printf("Error signing up user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates a user and issues tokens.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid credentials",
			})
		}
		log.Printf("Error during login: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not log in",
		})
	}

	return c.JSON(result)
}

// RefreshTokenRequest represents the request body for the token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// HandleRefreshToken mints a new access token from a valid refresh token.
func (h *AuthHandler) HandleRefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing refresh request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if resp := validationResponse(h.validate, req); resp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	token, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) || errors.Is(err, services.ErrTokenInvalid) {
			log.Printf("Refresh token rejected: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired refresh token",
			})
		}
		log.Printf("Error refreshing token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not refresh token",
		})
	}

	return c.JSON(fiber.Map{"token": token})
}

// HandleMe returns the authenticated user's own record.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(authenticatedUserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The token outlived the account.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		log.Printf("Error loading current user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load user",
		})
	}
	return c.JSON(user)
}

// HandleLogout acknowledges a logout. Tokens are stateless, so there is
// nothing to invalidate server-side; clients discard their tokens.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// authenticatedUserID reads the user id placed in the context by the auth
// middleware.
func authenticatedUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// validationResponse validates the payload and builds the per-field error
// map, or returns nil when the payload is valid.
func validationResponse(validate *validator.Validate, payload interface{}) fiber.Map {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fiber.Map{"message": "Validation failed"}
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	}
}

// duplicateKeyMessage turns a duplicate-key error into the client-facing
// conflict message, naming the clashing field when the pre-check caught it.
func duplicateKeyMessage(err error) string {
	switch {
	case strings.Contains(err.Error(), "email is already registered"):
		return "Email is already registered"
	case strings.Contains(err.Error(), "username is already taken"):
		return "Username is already taken"
	default:
		// Race path: the unique index fired without the pre-check, so the
		// clashing field is unknown.
		return "Email or Username already exists"
	}
}
