package sinkhole

import (
	"bufio"
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPLoader reads blocklist rules from a server via HTTP(S).
type HTTPLoader struct {
	url    string
	client *http.Client
}

var _ BlocklistLoader = &HTTPLoader{}

const httpLoaderTimeout = 5 * time.Minute

// NewHTTPLoader returns a loader that downloads rules from the given URL.
func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		url:    url,
		client: &http.Client{Timeout: httpLoaderTimeout},
	}
}

func (l *HTTPLoader) Load() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), httpLoaderTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", l.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building blocklist request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "loading blocklist from %s", l.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("got unexpected status code %d from %s", resp.StatusCode, l.url)
	}

	var rules []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		rules = append(rules, scanner.Text())
	}
	return rules, errors.Wrap(scanner.Err(), "reading blocklist body")
}

func (l *HTTPLoader) String() string {
	return l.url
}
