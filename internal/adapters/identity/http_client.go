package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

var ErrUnauthenticated = errors.New("identity: bearer token rejected")

// HTTPClient resolves a bearer token through the identity service's
// "who am I" endpoint.
type HTTPClient struct {
	baseURL    string
	mePath     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, mePath string, timeout time.Duration) *HTTPClient {
	if mePath == "" {
		mePath = "/v1/me"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		mePath:     "/" + strings.TrimLeft(mePath, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type meResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// meEnvelope accepts either a bare body or the mesh {"data": ...} envelope.
type meEnvelope struct {
	meResponse
	Data *meResponse `json:"data"`
}

func (c *HTTPClient) WhoAmI(ctx context.Context, bearerToken string) (ports.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.mePath, nil)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ports.Identity{}, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return ports.Identity{}, fmt.Errorf("identity request: unexpected status %d", resp.StatusCode)
	}

	var body meEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return ports.Identity{}, fmt.Errorf("decode identity response: %w", err)
	}
	me := body.meResponse
	if body.Data != nil {
		me = *body.Data
	}
	userID := me.UserID
	if userID == "" {
		userID = me.ID
	}
	if userID == "" {
		return ports.Identity{}, errors.New("identity response has no user id")
	}
	return ports.Identity{UserID: userID, Email: me.Email, FullName: me.FullName}, nil
}
