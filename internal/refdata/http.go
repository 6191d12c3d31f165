package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"oceancurate/pkg/domain"
)

var _ domain.ReferenceResolver = (*HTTPResolver)(nil)

// HTTPResolver queries the live reference service over HTTP. Transport
// failures surface as connectivity-error statuses, never as Go errors: the
// validator treats them as normal (if severe) diagnostic outcomes.
type HTTPResolver struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPResolver constructs a resolver rooted at baseURL. A nil client uses
// a 10 second timeout default.
func NewHTTPResolver(baseURL string, client *http.Client) (*HTTPResolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("refdata: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("refdata: base url %q must be absolute", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPResolver{base: base, client: client}, nil
}

// lookupPayload is the reference service response body.
type lookupPayload struct {
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Lookup resolves GET {base}/tables/{table}/{code}?column={column}.
func (r *HTTPResolver) Lookup(ctx context.Context, table, code, column string) (string, string, domain.LookupStatus) {
	if table == "" || code == "" {
		return "", "table and code are required", domain.LookupInvalidCall
	}
	if column == "" {
		column = domain.RefColumnName
	}
	endpoint := r.base.JoinPath("tables", table, code)
	q := endpoint.Query()
	q.Set("column", column)
	endpoint.RawQuery = q.Encode()
	return r.fetch(ctx, endpoint.String())
}

// LookupPlatformAttribute resolves
// GET {base}/platforms/{id}/attributes/{attribute}?asof={date}.
func (r *HTTPResolver) LookupPlatformAttribute(ctx context.Context, platformID, attribute string, asOf time.Time) (string, string, domain.LookupStatus) {
	if platformID == "" || attribute == "" {
		return "", "platform and attribute are required", domain.LookupInvalidCall
	}
	endpoint := r.base.JoinPath("platforms", platformID, "attributes", attribute)
	if !asOf.IsZero() {
		q := endpoint.Query()
		q.Set("asof", asOf.UTC().Format(domain.DateLayout))
		endpoint.RawQuery = q.Encode()
	}
	return r.fetch(ctx, endpoint.String())
}

func (r *HTTPResolver) fetch(ctx context.Context, endpoint string) (string, string, domain.LookupStatus) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err.Error(), domain.LookupInvalidCall
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Sprintf("reference service unreachable: %v", err), domain.LookupConnectivityError
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload lookupPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", fmt.Sprintf("malformed reference response: %v", err), domain.LookupConnectivityError
		}
		msg := payload.Message
		if msg == "" {
			msg = "ok"
		}
		return payload.Value, msg, domain.LookupSuccess
	case http.StatusNotFound:
		return "", "no matching reference entry", domain.LookupNoMatch
	case http.StatusBadRequest:
		return "", "invalid reference call", domain.LookupInvalidCall
	default:
		return "", fmt.Sprintf("reference service returned %d", resp.StatusCode), domain.LookupConnectivityError
	}
}
