package observability

import (
	"net/http"
	"net/url"
	"time"

	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

// NewHTTPClient returns a client whose requests are traced and which
// propagates trace headers to the given base URLs' hosts.
func NewHTTPClient(timeout time.Duration, propagateTo ...string) *http.Client {
	client := &http.Client{
		Transport: sentryhttpclient.NewSentryRoundTripper(
			http.DefaultTransport,
			sentryhttpclient.WithTracePropagationTargets(propagationHosts(propagateTo)),
		),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

func propagationHosts(baseURLs []string) []string {
	hosts := make([]string, 0, len(baseURLs))
	for _, raw := range baseURLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			continue
		}
		hosts = append(hosts, parsed.Host)
	}
	return hosts
}
