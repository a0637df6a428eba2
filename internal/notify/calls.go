package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pg19/portal-auth/internal/domain"
)

// AsteriskCallDetector queries the PBX call-log API for an inbound call from
// the subscriber's number. Transport failures come back wrapped in
// domain.ErrUnavailable so callers can tell "no call yet" from "the PBX
// integration is down".
type AsteriskCallDetector struct {
	baseURL      string
	token        string
	verifyNumber string
	httpClient   *http.Client
}

var _ domain.CallDetector = (*AsteriskCallDetector)(nil)

func NewAsteriskCallDetector(baseURL, token, verifyNumber string) *AsteriskCallDetector {
	return &AsteriskCallDetector{
		baseURL:      baseURL,
		token:        token,
		verifyNumber: verifyNumber,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

type cdrResponse struct {
	Calls []struct {
		Source string `json:"src"`
		Start  int64  `json:"start"`
	} `json:"calls"`
}

func (d *AsteriskCallDetector) HasIncomingCall(ctx context.Context, phone string, since time.Time) (bool, error) {
	if d.baseURL == "" {
		return false, fmt.Errorf("%w: call log API not configured", domain.ErrUnavailable)
	}

	query := url.Values{}
	query.Set("dst", d.verifyNumber)
	query.Set("src", phone)
	query.Set("from", strconv.FormatInt(since.Unix(), 10))

	reqURL := fmt.Sprintf("%s/cdr?%s", d.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("%w: call log API returned %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var result cdrResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	for _, call := range result.Calls {
		if call.Start >= since.Unix() {
			return true, nil
		}
	}
	return false, nil
}
