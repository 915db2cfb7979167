// Package polygon fetches options contracts from the Polygon.io v3 API.
package polygon

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName identifies Polygon records and logs.
const ProviderName = "polygon"

const (
	pageLimit = 250
	maxPages  = 4
)

type contractsResponse struct {
	Status  string      `json:"status"`
	Results []reference `json:"results"`
	NextURL string      `json:"next_url"`
}

type reference struct {
	Ticker           string  `json:"ticker"`
	UnderlyingTicker string  `json:"underlying_ticker"`
	ExpirationDate   string  `json:"expiration_date"`
	StrikePrice      float64 `json:"strike_price"`
	ContractType     string  `json:"contract_type"`
}

type snapshotResponse struct {
	Status  string     `json:"status"`
	Results []snapshot `json:"results"`
	NextURL string     `json:"next_url"`
}

type snapshot struct {
	Details struct {
		Ticker         string  `json:"ticker"`
		ContractType   string  `json:"contract_type"`
		ExpirationDate string  `json:"expiration_date"`
		StrikePrice    float64 `json:"strike_price"`
	} `json:"details"`
	Greeks *struct {
		Delta float64 `json:"delta"`
		Gamma float64 `json:"gamma"`
		Theta float64 `json:"theta"`
		Vega  float64 `json:"vega"`
	} `json:"greeks"`
	ImpliedVolatility *float64 `json:"implied_volatility"`
	OpenInterest      *int64   `json:"open_interest"`
	UnderlyingAsset   struct {
		Ticker string `json:"ticker"`
	} `json:"underlying_asset"`
}

// Client is a Polygon options provider.
type Client struct {
	executor *httpclient.Executor
	apiKey   string
	logger   arbor.ILogger
}

var _ interfaces.OptionsProvider = (*Client)(nil)

// NewClient creates a client issuing requests through executor.
func NewClient(executor *httpclient.Executor, apiKey string, logger arbor.ILogger) *Client {
	return &Client{
		executor: executor,
		apiKey:   apiKey,
		logger:   logger,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchContracts returns unexpired contracts for underlying. The snapshot
// endpoint is tried first for greeks, implied volatility and open interest;
// plans without snapshot access fall back to the reference listing.
func (c *Client) FetchContracts(ctx context.Context, underlying string, asOf time.Time) ([]models.OptionsContract, error) {
	code := common.ParseTicker(underlying).Code

	contracts, err := c.fetchSnapshot(ctx, code, asOf)
	if err == nil {
		return contracts, nil
	}

	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || (statusErr.StatusCode != http.StatusForbidden && statusErr.StatusCode != http.StatusNotFound) {
		return nil, err
	}

	c.logger.Debug().
		Str("underlying", code).
		Int("status", statusErr.StatusCode).
		Msg("Options snapshot unavailable, using reference contracts")

	return c.fetchReference(ctx, code, asOf)
}

func (c *Client) fetchSnapshot(ctx context.Context, underlying string, asOf time.Time) ([]models.OptionsContract, error) {
	req := httpclient.Request{
		Path: "/v3/snapshot/options/" + underlying,
		Query: map[string]string{
			"expiration_date.gte": asOf.Format(models.DateLayout),
			"limit":               strconv.Itoa(pageLimit),
		},
	}

	var contracts []models.OptionsContract
	for page := 0; page < maxPages; page++ {
		var resp snapshotResponse
		if err := c.get(ctx, req, &resp); err != nil {
			return nil, err
		}

		for _, s := range resp.Results {
			contract, ok := toContract(underlying, s.Details.Ticker, s.Details.ExpirationDate, s.Details.StrikePrice, s.Details.ContractType)
			if !ok {
				continue
			}
			contract.OpenInterest = s.OpenInterest
			contract.ImpliedVolatility = s.ImpliedVolatility
			if s.Greeks != nil {
				contract.Greeks = &models.Greeks{
					Delta: s.Greeks.Delta,
					Gamma: s.Greeks.Gamma,
					Theta: s.Greeks.Theta,
					Vega:  s.Greeks.Vega,
				}
			}
			contracts = append(contracts, contract)
		}

		next, ok := nextRequest(resp.NextURL)
		if !ok {
			break
		}
		req = next
	}
	return contracts, nil
}

func (c *Client) fetchReference(ctx context.Context, underlying string, asOf time.Time) ([]models.OptionsContract, error) {
	req := httpclient.Request{
		Path: "/v3/reference/options/contracts",
		Query: map[string]string{
			"underlying_ticker":   underlying,
			"expiration_date.gte": asOf.Format(models.DateLayout),
			"expired":             "false",
			"limit":               strconv.Itoa(pageLimit),
		},
	}

	var contracts []models.OptionsContract
	for page := 0; page < maxPages; page++ {
		var resp contractsResponse
		if err := c.get(ctx, req, &resp); err != nil {
			return nil, err
		}

		for _, r := range resp.Results {
			if contract, ok := toContract(underlying, r.Ticker, r.ExpirationDate, r.StrikePrice, r.ContractType); ok {
				contracts = append(contracts, contract)
			}
		}

		next, ok := nextRequest(resp.NextURL)
		if !ok {
			break
		}
		req = next
	}
	return contracts, nil
}

func (c *Client) get(ctx context.Context, req httpclient.Request, v interface{}) error {
	req.Query["apiKey"] = c.apiKey
	return c.executor.GetJSON(ctx, req, v)
}

// nextRequest converts Polygon's absolute next_url into a relative request.
func nextRequest(next string) (httpclient.Request, bool) {
	if next == "" {
		return httpclient.Request{}, false
	}
	u, err := url.Parse(next)
	if err != nil || u.Path == "" {
		return httpclient.Request{}, false
	}

	query := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return httpclient.Request{Path: u.Path, Query: query}, true
}

func toContract(underlying, ticker, expiration string, strike float64, kind string) (models.OptionsContract, bool) {
	expiry, err := time.Parse(models.DateLayout, expiration)
	if err != nil || ticker == "" || strike <= 0 {
		return models.OptionsContract{}, false
	}

	var contractType models.ContractType
	switch strings.ToLower(kind) {
	case "call":
		contractType = models.ContractCall
	case "put":
		contractType = models.ContractPut
	default:
		return models.OptionsContract{}, false
	}

	return models.OptionsContract{
		Ticker:     ticker,
		Underlying: underlying,
		Expiration: expiry,
		Strike:     strike,
		Type:       contractType,
	}, true
}
