package llm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const (
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	GoogleTokenURI     = "https://oauth2.googleapis.com/token"
	JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = time.Hour
	// cached tokens are not handed out when they expire within this window
	expiryMargin = time.Minute
)

// TokenSource yields a bearer token for the model provider.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ServiceAccountKey is the subset of a Google service account key file in use.
type ServiceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// ParseServiceAccountKey decodes a service account JSON key.
func ParseServiceAccountKey(data []byte) (ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return key, errors.Wrap(err, "parse service account key")
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return key, errors.New("service account key needs client_email and private_key")
	}
	if key.TokenURI == "" {
		key.TokenURI = GoogleTokenURI
	}
	return key, nil
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.StandardClaims
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ServiceAccountTokenSource signs a JWT assertion with the service account key
// and exchanges it at the token endpoint. Without Cache every call performs a
// fresh exchange.
type ServiceAccountTokenSource struct {
	HTTPClient *http.Client
	Cache      bool
	Now        func() time.Time

	key    ServiceAccountKey
	signer *rsa.PrivateKey

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewServiceAccountTokenSource(key ServiceAccountKey, cache bool) (*ServiceAccountTokenSource, error) {
	signer, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, errors.Wrap(err, "parse service account private key")
	}
	if key.TokenURI == "" {
		key.TokenURI = GoogleTokenURI
	}
	return &ServiceAccountTokenSource{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Cache:      cache,
		Now:        time.Now,
		key:        key,
		signer:     signer,
	}, nil
}

// Assertion builds the signed RS256 assertion sent to the token endpoint.
func (s *ServiceAccountTokenSource) Assertion() (string, error) {
	now := s.Now()
	claims := assertionClaims{
		Scope: CloudPlatformScope,
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.key.ClientEmail,
			Audience:  s.key.TokenURI,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(assertionLifetime).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.signer)
}

func (s *ServiceAccountTokenSource) Token(ctx context.Context) (string, error) {
	if s.Cache {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.token != "" && s.Now().Add(expiryMargin).Before(s.expiry) {
			return s.token, nil
		}
	}

	token, expiresIn, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}
	if s.Cache {
		if expiresIn <= 0 {
			expiresIn = int64(assertionLifetime / time.Second)
		}
		s.token = token
		s.expiry = s.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return token, nil
}

func (s *ServiceAccountTokenSource) exchange(ctx context.Context) (string, int64, error) {
	assertion, err := s.Assertion()
	if err != nil {
		return "", 0, errors.Wrapf(ErrCredential, "sign assertion: %v", err)
	}

	form := url.Values{
		"grant_type": {JWTBearerGrantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.key.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, errors.Wrapf(ErrCredential, "build token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", 0, errors.Wrapf(ErrCredential, "token request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, errors.Wrapf(ErrCredential, "read token response: %v", err)
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", 0, errors.Wrapf(ErrCredential, "failed to get access token (status %d): %s", resp.StatusCode, truncate(string(body), 300))
	}
	return tr.AccessToken, tr.ExpiresIn, nil
}
