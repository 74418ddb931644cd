package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/giantswarm/microerror"
)

var challengeRe = regexp.MustCompile(`(?i)service="([^"]+)",\s*scope="([^"]+)"`)
var realmRe = regexp.MustCompile(`(?i)realm="([^"]*)"`)

// Challenge is the bearer-token challenge a registry sends with a 401.
type Challenge struct {
	Realm   string
	Service string
	Scope   string
}

func (c Challenge) key() string {
	return c.Service + " " + c.Scope
}

// dockerAuth is returned by the token endpoint.
type dockerAuth struct {
	Token string `json:"token"`
}

// ChallengeFrom extracts the bearer challenge from a rejected response. It
// only returns true for a 401 whose WWW-Authenticate header is a Bearer
// challenge carrying a quoted service and scope; anything else is treated as
// no challenge at all.
func ChallengeFrom(resp *http.Response) (Challenge, bool) {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return Challenge{}, false
	}

	return ParseChallenge(resp.Header.Get("WWW-Authenticate"))
}

// ParseChallenge parses a WWW-Authenticate header value.
func ParseChallenge(header string) (Challenge, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return Challenge{}, false
	}

	captures := challengeRe.FindStringSubmatch(header)
	if captures == nil {
		return Challenge{}, false
	}

	c := Challenge{
		Service: captures[1],
		Scope:   captures[2],
	}

	if realm := realmRe.FindStringSubmatch(header); realm != nil {
		c.Realm = realm[1]
	}

	return c, true
}

func (s *Service) tokenURL(c Challenge) string {
	v := url.Values{}
	v.Set("service", c.Service)
	v.Set("scope", c.Scope)

	return fmt.Sprintf("%s/v2/token?%s", s.registryURL, v.Encode())
}

// exchange swaps a challenge for a bearer token at the registry's token
// endpoint.
func (s *Service) exchange(ctx context.Context, c Challenge) (token string, err error) {
	var auth dockerAuth

	tokenURL := s.tokenURL(c)
	log.Debugf("Getting auth token from %s", tokenURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", microerror.Maskf(tokenEndpointUnreachableError, "failed to build token request: %v", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", microerror.Maskf(tokenEndpointUnreachableError, "error getting auth token from %s: %v", tokenURL, err)
	}

	defer resp.Body.Close()
	requestsTotal.WithLabelValues(endpointToken, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return "", microerror.Maskf(tokenEndpointUnreachableError, "error getting auth token %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", microerror.Maskf(tokenEndpointUnreachableError, "error reading auth token: %v", err)
	}

	err = json.Unmarshal(body, &auth)
	if err != nil {
		return "", microerror.Maskf(malformedTokenResponseError, "error unmarshalling auth token for %s: %v", c.Scope, err)
	}

	if auth.Token == "" {
		return "", microerror.Maskf(malformedTokenResponseError, "no token in response for %s", c.Scope)
	}

	log.Debug("Got new auth token")
	return auth.Token, nil
}
