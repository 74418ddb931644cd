package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/giantswarm/microerror"
	logging "github.com/op/go-logging"
)

const (
	constCatalogLimit = 10000
	constTimeout      = 300 * time.Second

	manifestV2MediaType = "application/vnd.docker.distribution.manifest.v2+json"
)

var log = logging.MustGetLogger("rsregistry")

// Config for a registry Service.
type Config struct {
	// RegistryURL is the base URL of the registry, without the /v2 suffix.
	RegistryURL string
	// CatalogLimit is the page size requested from the catalog endpoint.
	CatalogLimit int
	// IgnoreInvalidCert turns off TLS certificate validation.
	IgnoreInvalidCert bool
	// Timeout bounds every request to the registry.
	Timeout time.Duration
	// TokenTTL is how long bearer tokens are reused. Zero disables reuse.
	TokenTTL time.Duration
}

// Service talks to a Docker Registry HTTP API V2.
type Service struct {
	client       *http.Client
	registryURL  string
	catalogLimit int
	tokens       *tokenCache
}

// Repositories reports whether a repository is part of the known catalog.
type Repositories interface {
	Contains(name string) bool
}

// NewService is a real registry service.
func NewService(c Config) *Service {
	if c.CatalogLimit <= 0 {
		c.CatalogLimit = constCatalogLimit
	}
	if c.Timeout <= 0 {
		c.Timeout = constTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.IgnoreInvalidCert {
		log.Infof("TLS certificate validation is disabled for %s", c.RegistryURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}

	return &Service{
		client: &http.Client{
			Transport: transport,
			Timeout:   c.Timeout,
		},
		registryURL:  strings.TrimSuffix(c.RegistryURL, "/"),
		catalogLimit: c.CatalogLimit,
		tokens:       newTokenCache(c.TokenTTL),
	}
}

// NewMockService is for testing
func NewMockService(transport *http.Transport, rurl string) *Service {
	return &Service{
		client: &http.Client{
			Transport: transport,
		},
		registryURL:  rurl,
		catalogLimit: constCatalogLimit,
		tokens:       newTokenCache(0),
	}
}

// TagList is the list of tags for one repository, newest-looking first.
type TagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// ImageMetadata is extracted from the most recent history entry of a
// manifest.
type ImageMetadata struct {
	Path          string            `json:"path"`
	Tag           string            `json:"tag"`
	Architecture  string            `json:"architecture"`
	OS            string            `json:"os"`
	Created       string            `json:"created"`
	DockerVersion string            `json:"docker_version"`
	Labels        map[string]string `json:"labels"`
	ManifestSize  string            `json:"manifest_size"`
}

type catalogResponse struct {
	Repositories []string `json:"repositories"`
}

type registryConfig struct {
	Labels map[string]string `json:"Labels"`
}

// V1Compatibility is the image config embedded in each manifest history entry.
type V1Compatibility struct {
	Architecture  string          `json:"architecture"`
	Config        *registryConfig `json:"config"`
	Created       string          `json:"created"`
	DockerVersion string          `json:"docker_version"`
	OS            string          `json:"os"`
}

type registryHistory struct {
	V1Compatibility *string `json:"v1Compatibility"`
}

// Manifest is the subset of a schema 1 manifest that we read.
type Manifest struct {
	Name    string            `json:"name"`
	History []registryHistory `json:"history"`
}

// FetchCatalog gets the full list of repository names.
func (s *Service) FetchCatalog(ctx context.Context) (repositories []string, err error) {
	var cr catalogResponse

	catalogURL := fmt.Sprintf("%s/v2/_catalog?n=%d", s.registryURL, s.catalogLimit)
	log.Debugf("Getting catalog at URL %s", catalogURL)

	resp, err := s.get(ctx, endpointCatalog, catalogURL, nil)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	defer resp.Body.Close()

	err = checkStatus(resp)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, microerror.Maskf(transportError, "error reading catalog: %v", err)
	}

	err = json.Unmarshal(body, &cr)
	if err != nil {
		return nil, microerror.Maskf(malformedResponseError, "error unmarshalling catalog: %v", err)
	}

	log.Debugf("Got %d repositories in %sB of catalog", len(cr.Repositories), bytefmt.ByteSize(uint64(len(body))))

	if cr.Repositories == nil {
		cr.Repositories = []string{}
	}

	return cr.Repositories, nil
}

// FetchTags gets the tags for the repository at path, sorted by descending
// string value. Paths that are not in known are answered with an empty list
// without asking the registry, as is a repository the registry doesn't have.
func (s *Service) FetchTags(ctx context.Context, known Repositories, path string) (tags TagList, err error) {
	var tagList TagList

	repo := strings.TrimSuffix(path, "/")
	tags = TagList{Name: repo, Tags: []string{}}

	if known == nil || !known.Contains(repo) {
		log.Debugf("%s is not a known repository", repo)
		return tags, nil
	}

	tagsURL := fmt.Sprintf("%s/v2/%s/tags/list", s.registryURL, repo)
	log.Debugf("Getting tags at URL %s", tagsURL)

	header := http.Header{}
	header.Set("Accept", manifestV2MediaType)

	resp, err := s.get(ctx, endpointTags, tagsURL, header)
	if err != nil {
		return tags, microerror.Mask(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Debugf("No tags found for %s", repo)
		return tags, nil
	}

	err = checkStatus(resp)
	if err != nil {
		return tags, microerror.Mask(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tags, microerror.Maskf(transportError, "error reading tags: %v", err)
	}

	err = json.Unmarshal(body, &tagList)
	if err != nil {
		return tags, microerror.Maskf(malformedResponseError, "error unmarshalling tags for %s: %v", repo, err)
	}

	if tagList.Tags != nil {
		tags.Tags = tagList.Tags
	}
	SortTags(tags.Tags)

	return tags, nil
}

// SortTags sorts tags by their raw string value, descending. This is not a
// semantic version ordering: "v1.10" sorts below "v1.2".
func SortTags(tags []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(tags)))
}

// FetchManifest gets the metadata for one tagged image.
func (s *Service) FetchManifest(ctx context.Context, path string, tag string) (image ImageMetadata, err error) {
	var m Manifest
	var v1c V1Compatibility

	path = strings.Trim(path, "/")
	manifestURL := fmt.Sprintf("%s/v2/%s/manifests/%s", s.registryURL, path, tag)
	log.Debugf("Getting manifest at URL %s", manifestURL)

	resp, err := s.get(ctx, endpointManifest, manifestURL, nil)
	if err != nil {
		return image, microerror.Mask(err)
	}

	defer resp.Body.Close()

	err = checkStatus(resp)
	if err != nil {
		return image, microerror.Mask(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return image, microerror.Maskf(transportError, "error reading manifest: %v", err)
	}

	err = json.Unmarshal(body, &m)
	if err != nil {
		return image, microerror.Maskf(malformedResponseError, "error unmarshalling manifest for %s:%s: %v", path, tag, err)
	}

	// The first entry in the history is the most recent one
	if len(m.History) == 0 || m.History[0].V1Compatibility == nil {
		return image, microerror.Maskf(malformedManifestError, "no v1Compatibility in history for %s:%s", path, tag)
	}

	err = json.Unmarshal([]byte(*m.History[0].V1Compatibility), &v1c)
	if err != nil {
		return image, microerror.Maskf(malformedManifestError, "error unmarshalling history for %s:%s: %v", path, tag, err)
	}

	image = ImageMetadata{
		Path:          path,
		Tag:           tag,
		Architecture:  v1c.Architecture,
		OS:            v1c.OS,
		Created:       v1c.Created,
		DockerVersion: v1c.DockerVersion,
		Labels:        map[string]string{},
		ManifestSize:  bytefmt.ByteSize(uint64(len(body))),
	}

	if v1c.Config != nil {
		for k, v := range v1c.Config.Labels {
			image.Labels[k] = v
		}
	}

	return image, nil
}

// get sends an unauthenticated GET and, if the registry answers with a bearer
// challenge, exchanges it for a token and sends the request once more. The
// caller must close the response body.
func (s *Service) get(ctx context.Context, endpoint string, reqURL string, header http.Header) (resp *http.Response, err error) {
	resp, err = s.do(ctx, endpoint, reqURL, header, "")
	if err != nil {
		return nil, microerror.Mask(err)
	}

	challenge, ok := ChallengeFrom(resp)
	if !ok {
		return resp, nil
	}

	log.Debug("Unauthorized on first attempt")
	drain(resp)

	token, err := s.tokens.get(ctx, challenge, s.exchange)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	resp, err = s.do(ctx, endpoint, reqURL, header, token)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		s.tokens.forget(challenge)
		return nil, microerror.Maskf(unauthorizedError, "%s still unauthorized after token exchange for %s", reqURL, challenge.Scope)
	}

	return resp, nil
}

func (s *Service) do(ctx context.Context, endpoint string, reqURL string, header http.Header, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, microerror.Maskf(transportError, "failed to build API GET request: %v", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, microerror.Maskf(transportError, "error sending request to %s: %v", reqURL, err)
	}

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return microerror.Maskf(notFoundError, "%s not found", resp.Request.URL.Path)
	case resp.StatusCode == http.StatusUnauthorized:
		return microerror.Maskf(unauthorizedError, "req failed: %d %s", resp.StatusCode, resp.Status)
	default:
		return microerror.Maskf(unexpectedStatusError, "req failed: %d %s", resp.StatusCode, resp.Status)
	}
}

// drain discards the rest of a body we are not going to use so the connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}
