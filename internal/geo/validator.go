// Package geo implements delivery.AddressValidator against the external
// delivery-zone service. Geocoding and distance computation happen remotely;
// this client only transports the question and the verdict.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro-orders/internal/domain/delivery"
)

var _ delivery.AddressValidator = (*Client)(nil)

// Client calls the delivery-zone HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ValidateAddress checks whether (address, zip) is inside the serviceable
// delivery area.
func (c *Client) ValidateAddress(ctx context.Context, address, zip string) (delivery.Result, error) {
	return c.validate(ctx, url.Values{"address": {address}, "zip": {zip}})
}

// ValidateZipCode checks whether the zip code alone is serviceable.
func (c *Client) ValidateZipCode(ctx context.Context, zip string) (delivery.Result, error) {
	return c.validate(ctx, url.Values{"zip": {zip}})
}

func (c *Client) validate(ctx context.Context, params url.Values) (delivery.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/validate?"+params.Encode(), http.NoBody)
	if err != nil {
		return delivery.Result{}, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return delivery.Result{}, errors.Wrap(err, "call zone service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return delivery.Result{}, errors.Errorf("zone service returned %d", resp.StatusCode)
	}

	var res delivery.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return delivery.Result{}, errors.Wrap(err, "decode zone response")
	}
	return res, nil
}

// Permissive is an AddressValidator that accepts every address. Used when no
// zone service is configured, e.g. in local development.
type Permissive struct{}

func (Permissive) ValidateAddress(context.Context, string, string) (delivery.Result, error) {
	return delivery.Result{Valid: true}, nil
}

func (Permissive) ValidateZipCode(context.Context, string) (delivery.Result, error) {
	return delivery.Result{Valid: true}, nil
}
