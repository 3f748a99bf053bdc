package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cartloom/taxbridge/types/business"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// DefaultReadTimeout bounds how long a tax service call may block while
	// reading the response.
	DefaultReadTimeout = 10 * time.Second

	// DefaultOpenTimeout bounds connection establishment to the tax service.
	DefaultOpenTimeout = 5 * time.Second
)

// Config carries every setting the tax integration reads. It is built once
// by the host application and injected into the client and services; nothing
// in this library reads ambient global state.
type Config struct {
	// Endpoint is the tax service base URL, e.g. https://avatax.example.com
	Endpoint   string
	Account    string
	LicenseKey string

	CompanyCode string

	ReadTimeout time.Duration
	OpenTimeout time.Duration

	// TaxCalculationEnabled short-circuits every commit path to a zero-tax
	// result when false.
	TaxCalculationEnabled bool

	// DocumentCommitEnabled additionally gates the irreversible commit-final
	// operation.
	DocumentCommitEnabled bool

	// AddressValidationEnabled switches non-success responses with a known
	// address-quality message into a raised AddressValidationError.
	AddressValidationEnabled bool

	// AddressValidationCountries lists country names eligible for address
	// validation.
	AddressValidationCountries []string

	// CancelEligible gates the automatic void on order cancellation.
	CancelEligible bool

	// OriginAddress is the merchant origin as structured JSON with keys
	// Address1, Address2, City, Region, Zip5 and Country.
	OriginAddress string

	// Stage names the running environment in alert messages.
	Stage string

	// AlertWebhookURL receives operational alerts (timeouts falling back to
	// zero tax). Empty disables alerting.
	AlertWebhookURL string
	AlertChannel    string
}

// Default returns a Config with the documented timeout defaults and all
// feature toggles enabled.
func Default() *Config {
	return &Config{
		ReadTimeout:           DefaultReadTimeout,
		OpenTimeout:           DefaultOpenTimeout,
		TaxCalculationEnabled: true,
		DocumentCommitEnabled: true,
		CancelEligible:        true,
		Stage:                 "development",
	}
}

// FromEnv loads configuration from the environment, reading a .env file
// first when present.
func FromEnv() (*Config, error) {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := Default()
	cfg.Endpoint = os.Getenv("AVATAX_ENDPOINT")
	cfg.Account = os.Getenv("AVATAX_ACCOUNT")
	cfg.LicenseKey = os.Getenv("AVATAX_LICENSE_KEY")
	cfg.CompanyCode = os.Getenv("AVATAX_COMPANY_CODE")
	cfg.OriginAddress = os.Getenv("AVATAX_ORIGIN")

	if v := os.Getenv("AVATAX_READ_TIMEOUT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid AVATAX_READ_TIMEOUT")
		}
		cfg.ReadTimeout = time.Duration(secs * float64(time.Second))
	}
	if v := os.Getenv("AVATAX_OPEN_TIMEOUT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid AVATAX_OPEN_TIMEOUT")
		}
		cfg.OpenTimeout = time.Duration(secs * float64(time.Second))
	}

	cfg.TaxCalculationEnabled = envBool("AVATAX_TAX_CALCULATION", true)
	cfg.DocumentCommitEnabled = envBool("AVATAX_DOCUMENT_COMMIT", true)
	cfg.AddressValidationEnabled = envBool("AVATAX_ADDRESS_VALIDATION", false)
	cfg.CancelEligible = envBool("AVATAX_CANCEL_ELIGIBLE", true)

	if v := os.Getenv("AVATAX_ADDRESS_VALIDATION_COUNTRIES"); v != "" {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.AddressValidationCountries = append(cfg.AddressValidationCountries, c)
			}
		}
	}

	if v := os.Getenv("TAXBRIDGE_ENV"); v != "" {
		cfg.Stage = v
	}
	cfg.AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	cfg.AlertChannel = os.Getenv("ALERT_CHANNEL")

	if cfg.Endpoint == "" {
		return nil, errors.New("AVATAX_ENDPOINT is required")
	}
	return cfg, nil
}

// Origin parses the configured origin address JSON.
func (c *Config) Origin() (*business.Address, error) {
	if c.OriginAddress == "" {
		return nil, errors.New("origin address is not configured")
	}

	var raw struct {
		Address1 string `json:"Address1"`
		Address2 string `json:"Address2"`
		City     string `json:"City"`
		Region   string `json:"Region"`
		Zip5     string `json:"Zip5"`
		Country  string `json:"Country"`
	}
	if err := json.Unmarshal([]byte(c.OriginAddress), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse origin address")
	}

	return &business.Address{
		Line1:      raw.Address1,
		Line2:      raw.Address2,
		City:       raw.City,
		Region:     raw.Region,
		PostalCode: raw.Zip5,
		Country:    raw.Country,
	}, nil
}

// CountryEnabled reports whether address validation covers the given
// country name.
func (c *Config) CountryEnabled(country string) bool {
	for _, name := range c.AddressValidationCountries {
		if strings.EqualFold(name, country) {
			return true
		}
	}
	return false
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
