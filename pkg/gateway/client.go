package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/pkg/config"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
)

var (
	errSigningKeyRequired = errors.New("gateway signing key is required")
	errAPIKeyRequired     = errors.New("gateway api key is required")
	errBaseURLRequired    = errors.New("gateway base url is required")
)

var signingMethod = jwt.SigningMethodHS256

// Client issues signed requests to the payment gateway's collect-request
// API. A non-2xx response or transport failure means the gateway-side state
// is unknown; callers must treat it as "not confirmed".
type Client struct {
	httpClient *http.Client
	baseURL    string
	signingKey []byte
	apiKey     string
	logger     *logger.Logger
}

// NewClient validates the credentials and builds the gateway wrapper. The
// request timeout is fixed at construction; a timeout surfaces as a gateway
// error like any other transport failure.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errSigningKeyRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		signingKey: []byte(cfg.SigningKey),
		apiKey:     cfg.APIKey,
		logger:     logg,
	}

	if logg != nil {
		logg.Info(ctx, "gateway client initialized")
	}
	return c, nil
}

// CreateCollectParams carries the fields the gateway requires to open a
// collect request.
type CreateCollectParams struct {
	SchoolID    string
	Amount      decimal.Decimal
	CallbackURL string
}

// CollectRequestResult is the gateway's confirmation of a collect request.
type CollectRequestResult struct {
	CollectRequestID string `json:"collect_request_id"`
	// The gateway returns this field with a capitalized key.
	CollectRequestURL string `json:"Collect_request_url"`
}

// CreateCollectRequest signs and posts a new collect request.
func (c *Client) CreateCollectRequest(ctx context.Context, params CreateCollectParams) (*CollectRequestResult, error) {
	sign, err := c.signPayload(jwt.MapClaims{
		"school_id":    params.SchoolID,
		"amount":       params.Amount.String(),
		"callback_url": params.CallbackURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign collect request")
	}

	body := map[string]any{
		"school_id":    params.SchoolID,
		"amount":       params.Amount.String(),
		"callback_url": params.CallbackURL,
		"sign":         sign,
	}

	c.log(ctx, "request", "create_collect_request", map[string]any{
		"school_id": params.SchoolID,
		"amount":    params.Amount.String(),
	})

	var result CollectRequestResult
	if err := c.post(ctx, "/create-collect-request", body, &result); err != nil {
		c.log(ctx, "error", "create_collect_request", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_collect_request", map[string]any{
		"collect_request_id": result.CollectRequestID,
	})
	return &result, nil
}

// CheckStatus probes the gateway for the current state of a collect request.
// The payload is returned as-is; the caller decides what to surface.
func (c *Client) CheckStatus(ctx context.Context, collectRequestID, schoolID string) (map[string]any, error) {
	sign, err := c.signPayload(jwt.MapClaims{
		"school_id":          schoolID,
		"collect_request_id": collectRequestID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign status check")
	}

	query := url.Values{}
	query.Set("school_id", schoolID)
	query.Set("sign", sign)
	path := fmt.Sprintf("/collect-request/%s?%s", url.PathEscape(collectRequestID), query.Encode())

	c.log(ctx, "request", "check_status", map[string]any{
		"collect_request_id": collectRequestID,
		"school_id":          schoolID,
	})

	var payload map[string]any
	if err := c.get(ctx, path, &payload); err != nil {
		c.log(ctx, "error", "check_status", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "check_status", map[string]any{
		"collect_request_id": collectRequestID,
	})
	return payload, nil
}

// signPayload is the single signing routine for all gateway calls.
func (c *Client) signPayload(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", err)
	}
	return signed, nil
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gatewayError(resp.StatusCode, raw)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway response")
	}
	return nil
}

func gatewayError(status int, raw []byte) error {
	message := "payment gateway error"
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		message = fmt.Sprintf("payment gateway error: %s", payload.Message)
	}
	return pkgerrors.New(pkgerrors.CodeGateway, message).
		WithDetails(map[string]any{"upstream_status": status})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}
