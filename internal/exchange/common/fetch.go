package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Placeholder substituted with the requested symbol in a venue's path
// template.
const Placeholder = "{CURRENCY}"

// BuildURL expands a venue's fixed URL template for one symbol.
func BuildURL(scheme, host, pathTemplate, symbol string) string {
	return fmt.Sprintf("%s://%s%s", scheme, host, strings.ReplaceAll(pathTemplate, Placeholder, symbol))
}

// Get performs the single outbound request of an adapter invocation and
// returns the response body, classifying transport-level failures into the
// adapter taxonomy. Parsing the body is the venue-specific part left to the
// caller.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(err, "request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err, "read body")
	}
	return body, nil
}

func classify(err error, op string) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
