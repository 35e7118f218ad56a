package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/storefront/internal/broker"
	"github.com/Baaaki/storefront/internal/config"
	"github.com/Baaaki/storefront/internal/handler"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:          "test",
		JWTSecret:            "handler-test-secret",
		JWTExpiry:            time.Hour,
		PasswordPepper:       "test-pepper",
		SaltRounds:           bcrypt.MinCost,
		CORSAllowedOrigins:   []string{"*"},
		RateLimitMaxRequests: 10000,
		RateLimitWindow:      time.Minute,
		RateLimitBlockTime:   time.Minute,
	}
}

// StorefrontSuite drives the full router against SQLite and miniredis.
type StorefrontSuite struct {
	suite.Suite
	td     *testutil.TestDatabase
	tr     *testutil.TestRedis
	redis  *redis.Client
	cfg    *config.Config
	router *gin.Engine
}

func TestStorefrontSuite(t *testing.T) {
	suite.Run(t, new(StorefrontSuite))
}

func (s *StorefrontSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *StorefrontSuite) SetupTest() {
	s.td = testutil.SetupTestDatabase(s.T())
	s.tr = testutil.SetupTestRedis(s.T())

	client, err := broker.NewRedisClient(context.Background(), s.tr.URL)
	s.Require().NoError(err)
	s.redis = client
	s.T().Cleanup(func() { _ = client.Close() })

	s.cfg = testConfig()
	s.router = handler.NewRouter(handler.Deps{Config: s.cfg, DB: s.td.DB, Redis: s.redis})
}

func (s *StorefrontSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *StorefrontSuite) signup(firstname, lastname, username string) models.Auth {
	w := s.do(http.MethodPost, "/auth/signup", map[string]string{
		"firstname": firstname,
		"lastname":  lastname,
		"username":  username,
		"password":  testutil.DefaultPassword,
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var auth models.Auth
	testutil.DecodeJSON(s.T(), w, &auth)
	return auth
}

func (s *StorefrontSuite) TestSignupSigninScenario() {
	w := s.do(http.MethodPost, "/auth/signup", map[string]string{
		"firstname": "Ann",
		"lastname":  "Lee",
		"username":  "ann_99",
		"password":  "secretpw",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), "password")

	var signup models.Auth
	testutil.DecodeJSON(s.T(), w, &signup)
	s.Equal("ann_99", signup.User.Username)
	s.NotEmpty(signup.Token.Body)
	s.Equal("1h0m0s", signup.Token.ExpiresIn)

	w = s.do(http.MethodPost, "/auth/signin", map[string]string{"username": "ann_99", "password": "secretpw"}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var signin models.Auth
	testutil.DecodeJSON(s.T(), w, &signin)
	s.Equal(signup.User.ID, signin.User.ID)

	w = s.do(http.MethodGet, "/users", nil, signin.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)
	var users []models.User
	testutil.DecodeJSON(s.T(), w, &users)
	s.Require().Len(users, 1)
	s.Equal("Ann", users[0].Firstname)
	s.NotContains(w.Body.String(), "password")

	w = s.do(http.MethodPost, "/auth/signin", map[string]string{"username": "ann_99", "password": "wrongpassword"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *StorefrontSuite) TestSignupErrors() {
	s.signup("Bob", "Ray", "bob")

	testCases := []struct {
		name       string
		body       any
		wantStatus int
		wantBody   string
	}{
		{"duplicate_case_insensitive", map[string]string{"firstname": "Bob", "lastname": "Ray", "username": "BOB", "password": "secretpw"}, http.StatusConflict, "Username already exists."},
		{"missing_fields", map[string]string{"lastname": "Ray", "username": "zed", "password": "secretpw"}, http.StatusBadRequest, "firstname is a required field"},
		{"short_password", map[string]string{"firstname": "Zed", "lastname": "Ray", "username": "zed", "password": "short"}, http.StatusBadRequest, "password must be at least 8 characters"},
		{"bad_username", map[string]string{"firstname": "Zed", "lastname": "Ray", "username": "zed!", "password": "secretpw"}, http.StatusBadRequest, "You can only enter letters, numbers or underscores."},
		{"unknown_key", map[string]string{"firstname": "Zed", "lastname": "Ray", "username": "zed", "password": "secretpw", "role": "admin"}, http.StatusBadRequest, "this field has unspecified keys: role"},
		{"wrong_type", `{"firstname": 1}`, http.StatusBadRequest, "firstname must be a `string` type"},
		{"malformed", `{"firstname":`, http.StatusBadRequest, "request body must be valid JSON"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w := s.do(http.MethodPost, "/auth/signup", tc.body, "")
			s.Equal(tc.wantStatus, w.Code)
			s.Equal(tc.wantBody, w.Body.String())
		})
	}
}

func (s *StorefrontSuite) TestAuthRequiredAndInvalidToken() {
	w := s.do(http.MethodGet, "/users", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("You have to signin to complete this action.", w.Body.String())

	w = s.do(http.MethodGet, "/users", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid token.", w.Body.String())

	w = s.do(http.MethodGet, "/products", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code, "a bad token is rejected even on open routes")
}

func (s *StorefrontSuite) TestUnknownRoute() {
	w := s.do(http.MethodGet, "/nope", nil, "")

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(`Can't find "/nope".`, w.Body.String())
}

func (s *StorefrontSuite) TestUserCRUD() {
	ann := s.signup("Ann", "Lee", "ann_99")
	token := ann.Token.Body

	w := s.do(http.MethodPost, "/users", map[string]string{
		"firstname": "Bob", "lastname": "Ray", "username": "bob", "password": "secretpw",
	}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var bob models.User
	testutil.DecodeJSON(s.T(), w, &bob)

	w = s.do(http.MethodGet, fmt.Sprintf("/users/%d", bob.ID), nil, token)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/users/%d", bob.ID), map[string]string{"firstname": "Robert"}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.User
	testutil.DecodeJSON(s.T(), w, &updated)
	s.Equal("Robert", updated.Firstname)
	s.Equal("Ray", updated.Lastname)
	s.Equal("bob", updated.Username)

	w = s.do(http.MethodPut, fmt.Sprintf("/users/%d", bob.ID), map[string]string{}, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("No fields provided to update.", w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/users/%d", bob.ID), map[string]string{"id": "9"}, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("this field has unspecified keys: id", w.Body.String())

	w = s.do(http.MethodGet, "/users/abc", nil, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("id must be a `number` type", w.Body.String())

	w = s.do(http.MethodDelete, fmt.Sprintf("/users/%d", bob.ID), nil, token)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ok":true}`, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/users/%d", bob.ID), nil, token)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(fmt.Sprintf("Can't find user with id %d.", bob.ID), w.Body.String())
}

func (s *StorefrontSuite) TestProductRoutes() {
	ann := s.signup("Ann", "Lee", "ann_99")

	w := s.do(http.MethodPost, "/products", map[string]any{"name": "Lamp", "price": 10, "category": "home"}, "")
	s.Equal(http.StatusUnauthorized, w.Code, "creating a product requires signin")

	w = s.do(http.MethodPost, "/products", map[string]any{"name": "Lamp", "price": "ten", "category": "home"}, ann.Token.Body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("price must be a `number` type", w.Body.String())

	w = s.do(http.MethodPost, "/products", map[string]any{"name": "Lamp", "price": 0, "category": "home"}, ann.Token.Body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("price must be a positive number", w.Body.String())

	w = s.do(http.MethodPost, "/products", map[string]any{"name": "Lamp", "price": 10, "category": "home"}, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var lamp models.Product
	testutil.DecodeJSON(s.T(), w, &lamp)

	testutil.InsertProduct(s.T(), s.td.DB, "Pen", 1, "office")

	w = s.do(http.MethodGet, "/products", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var all []models.Product
	testutil.DecodeJSON(s.T(), w, &all)
	s.Len(all, 2)

	w = s.do(http.MethodGet, "/products/category/home", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var home []models.Product
	testutil.DecodeJSON(s.T(), w, &home)
	s.Require().Len(home, 1)
	s.Equal(lamp.ID, home[0].ID)

	w = s.do(http.MethodPut, fmt.Sprintf("/products/%d", lamp.ID), map[string]any{"price": 12.5}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.Product
	testutil.DecodeJSON(s.T(), w, &updated)
	s.Equal(12.5, updated.Price)
	s.Equal("Lamp", updated.Name)

	w = s.do(http.MethodGet, "/products/top-five", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())

	w = s.do(http.MethodGet, "/products/999", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	pen := all[1]
	w = s.do(http.MethodDelete, fmt.Sprintf("/products/%d", pen.ID), nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ok":true}`, w.Body.String())
}

func (s *StorefrontSuite) TestOrderLifecycle() {
	ann := s.signup("Ann", "Lee", "ann_99")
	bob := s.signup("Bob", "Ray", "bob")
	lamp := testutil.InsertProduct(s.T(), s.td.DB, "Lamp", 10, "home")
	pen := testutil.InsertProduct(s.T(), s.td.DB, "Pen", 1.5, "office")

	w := s.do(http.MethodPost, "/orders", map[string]any{
		"products": []map[string]any{{"id": lamp.ID}, {"id": pen.ID, "quantity": 3}},
		"state":    "active",
	}, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var order models.PopulatedOrder
	testutil.DecodeJSON(s.T(), w, &order)
	s.Equal(ann.User.ID, order.UserID)
	s.Equal("ann_99", order.UUsername)
	s.Require().Len(order.Products, 2)
	s.Equal(1, order.Products[0].Quantity)
	s.Equal(3, order.Products[1].Quantity)

	w = s.do(http.MethodPost, "/orders", map[string]any{
		"products": []map[string]any{{"id": lamp.ID, "quantity": 2}},
		"state":    "complete",
	}, bob.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/orders", map[string]any{
		"products": []map[string]any{{"id": lamp.ID, "quantity": -2}},
		"state":    "active",
	}, ann.Token.Body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("products[0].quantity must be greater than or equal to 1", w.Body.String())

	w = s.do(http.MethodPost, "/orders", map[string]any{
		"products": []map[string]any{{"id": lamp.ID, "quantity": 1}, {"id": lamp.ID, "quantity": "two"}},
		"state":    "active",
	}, ann.Token.Body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("products[1].quantity must be a `number` type", w.Body.String())

	w = s.do(http.MethodPost, "/orders", map[string]any{
		"products": []map[string]any{{"id": lamp.ID}},
		"state":    "shipped",
	}, ann.Token.Body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("state must be one of the following values: active, complete", w.Body.String())

	w = s.do(http.MethodPost, "/orders", map[string]any{"products": []any{}, "state": "active"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/orders", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var all []models.PopulatedOrder
	testutil.DecodeJSON(s.T(), w, &all)
	s.Len(all, 2)

	w = s.do(http.MethodGet, "/orders/mine", nil, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine []models.PopulatedOrder
	testutil.DecodeJSON(s.T(), w, &mine)
	s.Require().Len(mine, 1)
	s.Equal(order.ID, mine[0].ID)

	w = s.do(http.MethodGet, "/orders/mine/complete", nil, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), map[string]string{"state": "complete"}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/orders/mine/complete", nil, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)
	var complete []models.PopulatedOrder
	testutil.DecodeJSON(s.T(), w, &complete)
	s.Require().Len(complete, 1)
	s.Equal(models.OrderStateComplete, complete[0].State)

	w = s.do(http.MethodGet, "/products/top-five", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var top []models.ProductWithQuantity
	testutil.DecodeJSON(s.T(), w, &top)
	s.Require().Len(top, 2)
	s.Equal(lamp.ID, top[0].ID)
	s.Equal(3, top[0].Quantity)

	w = s.do(http.MethodDelete, fmt.Sprintf("/orders/%d", order.ID), nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ok":true}`, w.Body.String())

	var lines int64
	s.Require().NoError(s.td.DB.Model(&models.OrderLine{}).Where("order_id = ?", order.ID).Count(&lines).Error)
	s.Zero(lines)

	w = s.do(http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(fmt.Sprintf("Can't find order with id %d.", order.ID), w.Body.String())
}

func (s *StorefrontSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/healthz", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok","database":"ok","redis":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "storefront_http_requests_total")
}

func (s *StorefrontSuite) TestSecurityAndRequestIDHeaders() {
	w := s.do(http.MethodGet, "/products", nil, "")

	s.Equal("nosniff", w.Header().Get("X-Content-Type-Options"))
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *StorefrontSuite) TestRateLimit() {
	s.cfg.RateLimitMaxRequests = 2
	router := handler.NewRouter(handler.Deps{Config: s.cfg, DB: s.td.DB, Redis: s.redis})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	s.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func (s *StorefrontSuite) TestOrderStream() {
	ann := s.signup("Ann", "Lee", "ann_99")
	bob := s.signup("Bob", "Ray", "bob")
	lamp := testutil.InsertProduct(s.T(), s.td.DB, "Lamp", 10, "home")

	server := httptest.NewServer(s.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/orders/live"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().Error(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+ann.Token.Body)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	s.Require().NoError(err)
	defer conn.Close()

	body := map[string]any{"products": []map[string]any{{"id": lamp.ID}}, "state": "active"}

	// Bob's order must not reach Ann's stream.
	w := s.do(http.MethodPost, "/orders", body, bob.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/orders", body, ann.Token.Body)
	s.Require().Equal(http.StatusOK, w.Code)
	var created models.PopulatedOrder
	testutil.DecodeJSON(s.T(), w, &created)

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	var event broker.OrderEvent
	s.Require().NoError(conn.ReadJSON(&event))

	s.Equal(broker.EventOrderCreated, event.Type)
	s.Equal(created.ID, event.OrderID)
	s.Equal(ann.User.ID, event.UserID)
	s.Require().NotNil(event.Order)
	s.Equal("ann_99", event.Order.UUsername)

	w = s.do(http.MethodDelete, fmt.Sprintf("/orders/%d", created.ID), nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&event))
	s.Equal(broker.EventOrderDeleted, event.Type)
	s.Nil(event.Order)
}

func TestRouter_WithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	td := testutil.SetupTestDatabase(t)
	router := handler.NewRouter(handler.Deps{Config: testConfig(), DB: td.DB})

	// Without the stream route, "live" falls through to /orders/:id.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/live", nil))
	if w.Code != http.StatusBadRequest || w.Body.String() != "id must be a `number` type" {
		t.Fatalf("expected /orders/live to hit the id route without redis, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "redis") {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}
