// Package viacep is the PostalLookup adapter over the public ViaCEP
// API. Results are hints only; the registration pipeline re-validates
// every field regardless of origin.
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/validate"
)

const defaultBaseURL = "https://viacep.com.br/ws"

// Client calls the ViaCEP JSON endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client. An empty baseURL selects the public endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type response struct {
	Logradouro  string `json:"logradouro"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Complemento string `json:"complemento"`
	Erro        bool   `json:"erro"`
}

// Lookup resolves a postal code to an address hint.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*provider.PostalHint, error) {
	digits := validate.Digits(postalCode)
	if len(digits) != 8 {
		return nil, provider.ErrNotFound
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep: unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Erro {
		return nil, provider.ErrNotFound
	}

	return &provider.PostalHint{
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
		Complement:   body.Complemento,
	}, nil
}
