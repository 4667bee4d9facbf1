package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"spark/internal/handlers"
	"spark/internal/middleware"
	"spark/internal/models"
	"spark/internal/repositories"
	"spark/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app over an in-memory SQLite database with the
// same wiring as main.
func setupApp(t *testing.T, strategy services.ReplaceStrategy) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.LinkItem{}, &models.ShopItem{}))

	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, "test_access_secret", "test_refresh_secret")
	profileService := services.NewProfileService(userRepo, nil, strategy)

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)

	app := fiber.New()
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	profileHandler.RegisterPublicRoutes(api)

	protected := api.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	profileHandler.RegisterRoutes(protected)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func signupBody(email, username string) map[string]interface{} {
	return map[string]interface{}{
		"firstName": "Alice",
		"lastName":  "Doe",
		"email":     email,
		"password":  "secret1",
		"username":  username,
		"category":  "Business",
	}
}

func TestSignupLoginAndMe(t *testing.T) {
	app := setupApp(t, services.ReplaceStrategyMerge)

	// Signup issues both tokens and a password-free user.
	resp, body := doJSON(t, app, http.MethodPost, "/api/signup", "", signupBody("a@x.com", "alice"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]interface{})
	userID := user["id"].(string)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")
	assert.Equal(t, models.DefaultProfilePhoto, user["profilePhoto"])
	assert.Equal(t, "#000000", user["bannerColor"])
	appearance := user["appearanceSettings"].(map[string]interface{})
	assert.Equal(t, "Stack", appearance["layout"])
	assert.Equal(t, "Air Snow", appearance["theme"])

	// Reusing the email conflicts.
	resp, body = doJSON(t, app, http.MethodPost, "/api/signup", "", signupBody("a@x.com", "alice2"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "Email")

	// Reusing the username conflicts.
	resp, body = doJSON(t, app, http.MethodPost, "/api/signup", "", signupBody("b@x.com", "alice"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "Username")

	// Login returns the same user id.
	resp, body = doJSON(t, app, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email": "a@x.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["token"].(string)
	refreshToken := body["refreshToken"].(string)
	assert.Equal(t, userID, body["user"].(map[string]interface{})["id"])

	// Wrong password and unknown email answer identically.
	resp, wrongPw := doJSON(t, app, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, noUser := doJSON(t, app, http.MethodPost, "/api/login", "", map[string]interface{}{
		"email": "nobody@x.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPw["message"], noUser["message"])

	// /me resolves the token's subject.
	resp, body = doJSON(t, app, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, body["id"])
	assert.NotContains(t, body, "password")

	// The refresh token mints an access token that works on /me.
	resp, body = doJSON(t, app, http.MethodPost, "/api/refresh-token", "", map[string]interface{}{
		"refreshToken": refreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	newToken := body["token"].(string)
	resp, body = doJSON(t, app, http.MethodGet, "/api/me", newToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, body["id"])

	// The access token is not a valid refresh token.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/refresh-token", "", map[string]interface{}{
		"refreshToken": token,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout is a stateless ack.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	app := setupApp(t, services.ReplaceStrategyMerge)

	body := signupBody("a@x.com", "al") // username below 3 chars
	resp, decoded := doJSON(t, app, http.MethodPost, "/api/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs := decoded["errors"].(map[string]interface{})
	assert.Contains(t, errs, "Username")

	body = signupBody("not-an-email", "alice")
	resp, decoded = doJSON(t, app, http.MethodPost, "/api/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs = decoded["errors"].(map[string]interface{})
	assert.Contains(t, errs, "Email")
}

func TestProfileEndpoints(t *testing.T) {
	app := setupApp(t, services.ReplaceStrategyMerge)

	_, body := doJSON(t, app, http.MethodPost, "/api/signup", "", signupBody("a@x.com", "alice"))
	token := body["token"].(string)

	// Profile read.
	resp, body := doJSON(t, app, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	// A too-short username is rejected and the document stays unchanged.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/profile/basic", token, map[string]interface{}{
		"firstName": "Alicia", "lastName": "Doe", "username": "al", "category": "Creator",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, body = doJSON(t, app, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	// Valid basic update.
	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/basic", token, map[string]interface{}{
		"firstName": "Alicia", "lastName": "Doe", "bio": "hi there",
		"username": "alicia", "category": "Creator",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alicia", body["username"])
	assert.Equal(t, "hi there", body["bio"])

	// Links update.
	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/links", token, map[string]interface{}{
		"links": []map[string]interface{}{
			{"title": "Blog", "url": "https://blog.example.com", "enabled": true},
			{"title": "Videos", "url": "https://videos.example.com"},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	links := body["links"].([]interface{})
	require.Len(t, links, 2)
	blogID := links[0].(map[string]interface{})["id"].(string)
	assert.Equal(t, float64(0), links[0].(map[string]interface{})["clickCount"])

	// A link without a title is rejected.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/profile/links", token, map[string]interface{}{
		"links": []map[string]interface{}{{"url": "https://blog.example.com"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Shops update.
	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/shops", token, map[string]interface{}{
		"shops": []map[string]interface{}{
			{"title": "Store", "url": "https://store.example.com", "enabled": true},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	shops := body["shops"].([]interface{})
	require.Len(t, shops, 1)
	storeID := shops[0].(map[string]interface{})["id"].(string)

	// Click tracking is public: no Authorization header.
	resp, body = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": blogID, "itemType": "link",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	resp, _ = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": blogID, "itemType": "link",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": storeID, "itemType": "shop",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown target: success with no effect.
	resp, body = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": "no-such-item", "itemType": "link",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Bad item type fails validation.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": blogID, "itemType": "banner",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Editing links keeps the clicked counter under the merge strategy.
	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/links", token, map[string]interface{}{
		"links": []map[string]interface{}{
			{"id": blogID, "title": "My Blog", "url": "https://blog.example.com", "enabled": true},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	links = body["links"].([]interface{})
	require.Len(t, links, 1)
	assert.Equal(t, float64(2), links[0].(map[string]interface{})["clickCount"])

	// Analytics totals equal the per-item sums.
	resp, body = doJSON(t, app, http.MethodGet, "/api/profile/analytics", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["totalLinkClicks"])
	assert.Equal(t, float64(1), body["totalShopClicks"])
	analyticsLinks := body["links"].([]interface{})
	require.Len(t, analyticsLinks, 1)
	assert.Equal(t, "My Blog", analyticsLinks[0].(map[string]interface{})["title"])

	// Appearance update rejects a value outside the enum.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/profile/appearance", token, map[string]interface{}{
		"bannerColor": "#FF0000",
		"appearanceSettings": map[string]interface{}{
			"layout": "Diagonal", "buttonStyle": "Fill", "font": "Roboto", "theme": "Dark Mode",
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/appearance", token, map[string]interface{}{
		"bannerColor": "#FF0000",
		"appearanceSettings": map[string]interface{}{
			"layout": "Grid", "buttonStyle": "Outline", "font": "Roboto", "theme": "Dark Mode",
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "#FF0000", body["bannerColor"])
	appearance := body["appearanceSettings"].(map[string]interface{})
	assert.Equal(t, "Grid", appearance["layout"])
	assert.Equal(t, "Dark Mode", appearance["theme"])
}

func TestProtectedEndpointsWithoutToken(t *testing.T) {
	app := setupApp(t, services.ReplaceStrategyMerge)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/logout"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPut, "/api/profile/basic"},
		{http.MethodPut, "/api/profile/links"},
		{http.MethodPut, "/api/profile/shops"},
		{http.MethodPut, "/api/profile/appearance"},
		{http.MethodGet, "/api/profile/analytics"},
	} {
		resp, _ := doJSON(t, app, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}

	// A garbage token is also rejected.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFullReplaceStrategy(t *testing.T) {
	app := setupApp(t, services.ReplaceStrategyFull)

	_, body := doJSON(t, app, http.MethodPost, "/api/signup", "", signupBody("a@x.com", "alice"))
	token := body["token"].(string)

	resp, body := doJSON(t, app, http.MethodPut, "/api/profile/links", token, map[string]interface{}{
		"links": []map[string]interface{}{
			{"title": "Blog", "url": "https://blog.example.com"},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	blogID := body["links"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/profile/track-click", "", map[string]interface{}{
		"itemId": blogID, "itemType": "link",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Under full replace an edit that omits clickCount resets the counter,
	// matching the original API.
	resp, body = doJSON(t, app, http.MethodPut, "/api/profile/links", token, map[string]interface{}{
		"links": []map[string]interface{}{
			{"id": blogID, "title": "My Blog", "url": "https://blog.example.com"},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	link := body["links"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(0), link["clickCount"])
	assert.Equal(t, blogID, link["id"])
}
