package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/config"
	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/identity"
)

type fakeProducer struct {
	mu     sync.Mutex
	topics []string
	events []map[string]any
}

func (f *fakeProducer) PublishEvent(_ context.Context, topic, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	f.topics = append(f.topics, topic)
	f.events = append(f.events, decoded)
	return nil
}

func (f *fakeProducer) lastOnTopic(topic string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.topics) - 1; i >= 0; i-- {
		if f.topics[i] == topic {
			return f.events[i]
		}
	}
	return nil
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	GW       *gateway.Store
	Catalog  *catalog.Service
	Auth     *identity.Service
	Producer *fakeProducer
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	gw := gateway.New(db)
	prod := &fakeProducer{}
	svc := &catalog.Service{Gateway: gw, Producer: prod}
	auth := identity.NewService(db, gw, prod, nil, []byte("test_secret"))

	e := echo.New()
	Register(e, &Deps{
		Products: &ProductHandler{Catalog: svc},
		Cart:     &CartHandler{},
		Checkout: &CheckoutHandler{Gateway: gw, Producer: prod},
		Account:  &AuthHandler{Auth: auth},
		Admin:    &AdminHandler{Catalog: svc},
		Auth:     auth,
		Sessions: NewSessions(),
	})

	return &testEnv{T: t, E: e, DB: db, GW: gw, Catalog: svc, Auth: auth, Producer: prod}
}

// client keeps cookies across requests, standing in for one browser
// session.
type client struct {
	env     *testEnv
	cookies []*http.Cookie
}

func (env *testEnv) newClient() *client {
	return &client{env: env}
}

func (c *client) do(method, path string, payload any) *httptest.ResponseRecorder {
	c.env.T.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.env.T, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.env.E.ServeHTTP(rec, req)
	c.storeCookies(rec.Result().Cookies())
	return rec
}

func (c *client) storeCookies(set []*http.Cookie) {
	for _, ck := range set {
		replaced := false
		for i, existing := range c.cookies {
			if existing.Name == ck.Name {
				c.cookies[i] = ck
				replaced = true
			}
		}
		if !replaced {
			c.cookies = append(c.cookies, ck)
		}
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (env *testEnv) seedProduct(t *testing.T, name, category, size, gender string, price int64, available bool) catalog.Product {
	t.Helper()
	p, err := env.Catalog.Create(context.Background(), catalog.CreateProductRequest{
		Name:        name,
		Price:       price,
		Size:        size,
		Description: "well kept, barely worn",
		Images:      []string{"https://img.example/" + name + ".jpg"},
		Available:   available,
		Category:    category,
		Gender:      gender,
		Color:       "blue",
		Condition:   "good",
	})
	require.NoError(t, err)
	return p
}

func (env *testEnv) registerUser(t *testing.T, cl *client, email string) map[string]any {
	t.Helper()
	rec := cl.do(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "password",
		"display_name": "Test User",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)
}
