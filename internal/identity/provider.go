package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Provider is a closed set of sign-in methods.
type Provider string

const (
	ProviderPassword  Provider = "password"
	ProviderGoogle    Provider = "google"
	ProviderFacebook  Provider = "facebook"
	ProviderInstagram Provider = "instagram"
)

// ErrProviderNotSupported rejects delegated providers without a working
// integration (instagram) and unknown provider names.
var ErrProviderNotSupported = errors.New("sign-in provider not supported")

func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderFacebook:
		return ProviderFacebook, nil
	case ProviderInstagram:
		return ProviderInstagram, ErrProviderNotSupported
	default:
		return "", ErrProviderNotSupported
	}
}

// Profile is the uniform identity shape every provider resolves to.
type Profile struct {
	ID          string
	Email       string
	DisplayName string
}

// ProviderVerifier exchanges a provider access token for the holder's
// profile.
type ProviderVerifier interface {
	Verify(ctx context.Context, p Provider, accessToken string) (*Profile, error)
}

// HTTPVerifier calls each provider's userinfo endpoint with the bearer
// token and normalizes the response.
type HTTPVerifier struct {
	endpoints  map[Provider]string
	httpClient *http.Client
}

func NewHTTPVerifier(googleURL, facebookURL string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoints: map[Provider]string{
			ProviderGoogle:   googleURL,
			ProviderFacebook: facebookURL,
		},
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, p Provider, accessToken string) (*Profile, error) {
	endpoint, ok := v.endpoints[p]
	if !ok || endpoint == "" {
		return nil, ErrProviderNotSupported
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo failed with status: %d", p, resp.StatusCode)
	}

	var body struct {
		Sub   string `json:"sub"`
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	id := body.Sub
	if id == "" {
		id = body.ID
	}
	if id == "" {
		return nil, fmt.Errorf("%s userinfo response missing subject", p)
	}
	return &Profile{ID: id, Email: body.Email, DisplayName: body.Name}, nil
}
