package avatax

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cartloom/taxbridge/alerts"
	httpclient "github.com/cartloom/taxbridge/client/http"
	"github.com/cartloom/taxbridge/config"
	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/api/responses"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	taxServicePath     = "/1.0/tax/"
	addressServicePath = "/1.0/address/"
)

// pingCoordinates is the fixed probe location for health checks.
var pingCoordinates = &business.Coordinates{Latitude: "40.714623", Longitude: "-74.006605"}

// Client talks to the external tax service. It is the only component in the
// library allowed to catch broad errors: apart from address-validation
// failures, nothing that goes wrong here is surfaced to callers.
type Client struct {
	cfg        *config.Config
	httpClient *httpclient.HTTPClient
	notifier   alerts.Notifier
	log        *zap.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithNotifier sets the operational alert target.
func WithNotifier(n alerts.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to attach a
// metrics collector.
func WithHTTPClient(hc *httpclient.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a tax service client from the injected configuration.
func NewClient(cfg *config.Config, options ...Option) *Client {
	client := &Client{
		cfg:      cfg,
		notifier: alerts.NoopNotifier{},
		log:      logger.Log,
	}
	for _, option := range options {
		option(client)
	}

	if client.httpClient == nil {
		client.httpClient = httpclient.NewHTTPClient(
			httpclient.WithBaseURL(cfg.Endpoint),
			httpclient.WithReadTimeout(cfg.ReadTimeout),
			httpclient.WithConnectTimeout(cfg.OpenTimeout),
		)
	}
	return client
}

// GetTax executes the create/adjust-transaction call and classifies the
// outcome. The returned error is non-nil only for address-validation
// failures; every other failure is folded into the result.
func (c *Client) GetTax(ctx context.Context, req *requests.CreateTransactionRequest) (*GetTaxResult, error) {
	docCode := req.DocCode()
	c.logCall("get_tax", docCode, req)

	body, rawBody, err := c.post(ctx, taxServicePath+"get", req)
	if err != nil {
		if httpclient.IsTimeout(err) {
			message := fmt.Sprintf("[%s] Total Tax 0.0 calculated for Order: %s. Error: %v.",
				c.cfg.Stage, docCode, err)
			c.notifier.Alert(ctx, message)
			c.log.Error("tax service timeout, falling back to zero tax",
				zap.String("doc_code", docCode),
				zap.Error(err))
			return &GetTaxResult{Failure: &Failure{Kind: FailureTransient, RawBody: rawBody, Err: err}}, nil
		}
		if rawBody == "" {
			c.log.Error("tax service request failed",
				zap.String("doc_code", docCode),
				zap.Error(err))
			return &GetTaxResult{Failure: &Failure{Kind: FailureGeneric, Err: err}}, nil
		}
		// Error statuses still carry a parseable body; fall through and
		// classify from the parsed response.
		body = []byte(rawBody)
	}

	var response responses.GetTaxResponse
	if err := json.Unmarshal(body, &response); err != nil {
		c.log.Error("failed to parse tax service response",
			zap.String("doc_code", docCode),
			zap.String("body", string(body)),
			zap.Error(err))
		return &GetTaxResult{Failure: &Failure{Kind: FailureGeneric, RawBody: string(body), Err: err}}, nil
	}

	c.log.Debug("tax service response",
		zap.String("doc_code", docCode),
		zap.String("result_code", response.ResultCode),
		zap.String("body", string(body)))

	if !response.Success() {
		c.log.Info("tax service error",
			zap.String("doc_code", docCode),
			zap.String("body", string(body)))

		if c.cfg.AddressValidationEnabled && isAddressFailure(response.Messages) {
			return nil, &AddressValidationError{Messages: response.Messages}
		}
		return &GetTaxResult{Failure: &Failure{Kind: FailureGeneric, RawBody: string(body)}}, nil
	}

	return &GetTaxResult{Response: &response}, nil
}

// CancelTax voids a previously committed document. It is a no-op returning
// nil when tax calculation is disabled, and never propagates errors.
func (c *Client) CancelTax(ctx context.Context, req *requests.CancelTaxRequest) *CancelResult {
	if !c.cfg.TaxCalculationEnabled {
		return nil
	}
	c.logCall("cancel_tax", req.DocCode, req)

	body, rawBody, err := c.post(ctx, taxServicePath+"cancel", req)
	if err != nil && rawBody == "" {
		c.log.Error("cancel tax request failed",
			zap.String("doc_code", req.DocCode),
			zap.Error(err))
		return &CancelResult{Failure: &Failure{Kind: FailureGeneric, Err: err}}
	}
	if err != nil {
		body = []byte(rawBody)
	}

	var response responses.CancelTaxResponse
	if err := json.Unmarshal(body, &response); err != nil || response.CancelTaxResult == nil {
		c.log.Error("failed to parse cancel tax response",
			zap.String("doc_code", req.DocCode),
			zap.String("body", string(body)),
			zap.Error(err))
		return &CancelResult{Failure: &Failure{Kind: FailureGeneric, RawBody: string(body), Err: err}}
	}

	c.log.Debug("cancel tax response",
		zap.String("doc_code", req.DocCode),
		zap.String("result_code", response.CancelTaxResult.ResultCode))

	return &CancelResult{Result: response.CancelTaxResult}
}

// EstimateTax fetches a lightweight single-jurisdiction estimate for the
// given coordinates. Returns nil when tax calculation is disabled or no
// coordinates are provided.
func (c *Client) EstimateTax(ctx context.Context, coords *business.Coordinates, saleAmount decimal.Decimal) (*responses.EstimateTaxResult, error) {
	if !c.cfg.TaxCalculationEnabled {
		return nil, nil
	}
	if coords == nil {
		return nil, nil
	}
	c.logCall("estimate_tax", coords.Latitude+","+coords.Longitude, nil)

	path := fmt.Sprintf("%s%s,%s/get", taxServicePath, coords.Latitude, coords.Longitude)
	resp, err := c.httpClient.Get(ctx, path,
		httpclient.WithBasicAuth(c.cfg.Account, c.cfg.LicenseKey),
		httpclient.WithQueryParam("saleamount", saleAmount.String()))
	if err != nil {
		return nil, fmt.Errorf("estimate tax request failed: %w", err)
	}

	var result responses.EstimateTaxResult
	if err := c.httpClient.ProcessJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse estimate tax response: %w", err)
	}
	return &result, nil
}

// Ping probes the estimate endpoint to verify connectivity and credentials.
func (c *Client) Ping(ctx context.Context) (*responses.EstimateTaxResult, error) {
	c.log.Info("ping call")
	return c.EstimateTax(ctx, pingCoordinates, decimal.Zero)
}

// ValidateAddress checks the given address against the validation endpoint.
// Returns nil when address validation is disabled or the country is not
// enabled. When the service's canonical address disagrees with the
// submitted city and region, the result is rewritten into an error carrying
// a suggestion message.
func (c *Client) ValidateAddress(ctx context.Context, addr *business.Address) (*responses.AddressValidationResult, error) {
	if addr == nil {
		return nil, nil
	}
	if !c.cfg.AddressValidationEnabled || !c.cfg.CountryEnabled(addr.Country) {
		c.log.Debug("address validation disabled", zap.String("country", addr.Country))
		return nil, nil
	}
	c.logCall("validate_address", addr.PostalCode, addr)

	resp, err := c.httpClient.Get(ctx, addressServicePath+"validate",
		httpclient.WithBasicAuth(c.cfg.Account, c.cfg.LicenseKey),
		httpclient.WithQueryParam("Line1", addr.Line1),
		httpclient.WithQueryParam("Line2", addr.Line2),
		httpclient.WithQueryParam("City", addr.City),
		httpclient.WithQueryParam("Region", addr.Region),
		httpclient.WithQueryParam("Country", addr.Country),
		httpclient.WithQueryParam("PostalCode", addr.PostalCode))
	if err != nil {
		return nil, fmt.Errorf("address validation request failed: %w", err)
	}

	var result responses.AddressValidationResult
	if err := c.httpClient.ProcessJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse address validation response: %w", err)
	}

	if result.Address != nil && result.Address.City != addr.City && result.Address.Region != addr.Region {
		suggested := result.Address
		result.ResultCode = responses.ResultError
		result.Messages = []responses.ResponseMessage{{
			Summary: fmt.Sprintf("Did you mean %s, %s, %s, %s?",
				suggested.Line1, suggested.City, suggested.Region, suggested.PostalCode),
		}}
	}
	return &result, nil
}

// post executes a JSON POST with credentials and returns the response body.
// On an HTTP error status the raw body is returned alongside the error so
// the caller can classify the parsed failure.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, string, error) {
	resp, err := c.httpClient.Post(ctx, path, payload,
		httpclient.WithBasicAuth(c.cfg.Account, c.cfg.LicenseKey))
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, httpErr.Body, err
		}
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, "", nil
}

// logCall logs every outbound call with its payload before interpretation.
func (c *Client) logCall(method, reference string, payload interface{}) {
	c.log.Info(method+" call", zap.String("reference", reference))
	if payload != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			c.log.Debug(method+" payload",
				zap.String("reference", reference),
				zap.String("payload", string(encoded)))
		}
	}
}
