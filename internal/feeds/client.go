package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public CVE feed consumed for enrichment.
const DefaultBaseURL = "http://cve.circl.lu/api/cve"

// Client fetches enrichment data for a CVE identifier.
//
// Fetch returns the raw feed document on success and (nil, nil) when the
// feed has no data for the ID. A missing feed entry is not an error:
// findings are reported with or without enrichment.
type Client interface {
	Fetch(ctx context.Context, cveID string) (json.RawMessage, error)
}

// HTTPClient is the production Client. It issues one blocking GET per CVE
// against <baseURL>/<cveID> and treats anything other than HTTP 200 —
// including transport failures — as "no enrichment available".
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewHTTPClient returns an HTTPClient for baseURL. Pass an empty string to
// use DefaultBaseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logrus.WithField("component", "feeds"),
	}
}

// Fetch implements Client. The only error it returns is a failure to build
// the request; every remote-side failure degrades to (nil, nil).
func (c *HTTPClient) Fetch(ctx context.Context, cveID string) (json.RawMessage, error) {
	url := c.baseURL + "/" + cveID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request for %s: %w", cveID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithField("cve", cveID).WithError(err).Debug("feed fetch failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{"cve": cveID, "status": resp.StatusCode}).
			Debug("feed returned no data")
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.WithField("cve", cveID).WithError(err).Debug("feed body read failed")
		return nil, nil
	}
	return json.RawMessage(body), nil
}
