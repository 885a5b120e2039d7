package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Profile is the provider-agnostic slice of an OAuth2 userinfo response the
// rest of the app cares about. Each provider returns a differently-shaped
// JSON document; extractProfile flattens them all into this.
type Profile struct {
	Provider   string // "google", "naver", "kakao"
	ProviderID string // the provider's stable user identifier
	Email      string // may be empty if the user hid it
	Nickname   string // display name as reported by the provider
}

// Provider wraps golang.org/x/oauth2 for one social-login provider's
// Authorization Code flow:
//
//  1. We redirect the user to the provider's authorization endpoint.
//  2. The user approves; the provider redirects back with a short-lived code.
//  3. We exchange the code for an access token (server-to-server, so the
//     client secret and the token never touch the browser).
//  4. We call the provider's userinfo endpoint and map the response.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
}

// Naver and Kakao are not bundled in x/oauth2's endpoint catalogue the way
// Google is, so their endpoints are spelled out here.
var (
	naverEndpoint = oauth2.Endpoint{
		AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
		TokenURL: "https://nid.naver.com/oauth2.0/token",
	}
	kakaoEndpoint = oauth2.Endpoint{
		AuthURL:  "https://kauth.kakao.com/oauth/authorize",
		TokenURL: "https://kauth.kakao.com/oauth/token",
	}
)

// NewGoogleProvider creates the Google OAuth2 provider.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
	}
}

// NewNaverProvider creates the Naver OAuth2 provider.
func NewNaverProvider(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: "naver",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     naverEndpoint,
		},
		userInfoURL: "https://openapi.naver.com/v1/nid/me",
	}
}

// NewKakaoProvider creates the Kakao OAuth2 provider.
func NewKakaoProvider(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: "kakao",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile_nickname", "account_email"},
			Endpoint:     kakaoEndpoint,
		},
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
	}
}

// Name returns the provider identifier ("google", "naver", "kakao").
func (p *Provider) Name() string { return p.name }

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback handler verifies the provider echoed it back. That check is what
// stops CSRF attacks from completing an OAuth flow for someone else's
// account.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for the user's
// profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging %s OAuth code: %w", p.name, err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling %s userinfo API: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: %s userinfo API returned status %d", p.name, resp.StatusCode)
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("auth: decoding %s userinfo response: %w", p.name, err)
	}

	profile, err := extractProfile(p.name, attrs)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// extractProfile maps a provider's userinfo document to a Profile.
//
// RESPONSE SHAPES:
//
//	google: { "sub": "...", "email": "...", "name": "..." }
//	naver:  { "response": { "id": "...", "email": "...", "nickname": "..." } }
//	kakao:  { "id": 123, "kakao_account": { "email": "...",
//	          "profile": { "nickname": "..." } } }
func extractProfile(provider string, attrs map[string]any) (*Profile, error) {
	p := &Profile{Provider: provider}

	switch provider {
	case "google":
		p.ProviderID, _ = attrs["sub"].(string)
		p.Email, _ = attrs["email"].(string)
		p.Nickname, _ = attrs["name"].(string)

	case "naver":
		response, _ := attrs["response"].(map[string]any)
		if response == nil {
			return nil, fmt.Errorf("auth: naver userinfo response missing 'response' object")
		}
		p.ProviderID, _ = response["id"].(string)
		p.Email, _ = response["email"].(string)
		p.Nickname, _ = response["nickname"].(string)

	case "kakao":
		// Kakao's id is numeric in JSON, which decodes as float64.
		if id, ok := attrs["id"].(float64); ok {
			p.ProviderID = fmt.Sprintf("%.0f", id)
		}
		if account, ok := attrs["kakao_account"].(map[string]any); ok {
			p.Email, _ = account["email"].(string)
			if profile, ok := account["profile"].(map[string]any); ok {
				p.Nickname, _ = profile["nickname"].(string)
			}
		}

	default:
		return nil, fmt.Errorf("auth: unsupported OAuth2 provider %q", provider)
	}

	if p.ProviderID == "" {
		return nil, fmt.Errorf("auth: %s userinfo response has no user identifier", provider)
	}
	return p, nil
}
