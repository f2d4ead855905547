package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"dejair/internal/shared/apperrors"
	"dejair/internal/shared/config"
	"dejair/pkg/logger"
)

const (
	oauthPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	transactionType = "CustomerPayBillOnline"

	// Daraja returns this errorCode on a query for a push that has not
	// completed yet.
	codeStillProcessing = "500.001.1001"
)

// terminalResultCodes are the gateway result codes that mean the push is
// dead: cancelled by user, STK timeout, insufficient funds, wrong PIN.
// Anything else non-zero is treated as transient.
var terminalResultCodes = map[string]bool{
	"1":    true, // insufficient balance
	"1032": true, // request cancelled by user
	"1037": true, // timeout, user unreachable
	"2001": true, // wrong PIN / initiator error
}

// Client isolates the Daraja wire format behind an initiate/verify
// contract so the orchestrator never sees gateway result codes.
type Client interface {
	Initiate(ctx context.Context, amount int64, phoneNumber string) (*InitiateResult, error)
	Verify(ctx context.Context, checkoutRequestID string) (*VerifyResult, error)
}

type darajaClient struct {
	cfg        config.MpesaConfig
	httpClient *http.Client
	log        *logger.Logger

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.MpesaConfig) Client {
	return &darajaClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		log: logger.GetDefault(),
	}
}

// FormatPhone normalizes a payer phone number to the 254XXXXXXXXX form the
// gateway requires. Non-digits are stripped first.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	p := digits.String()

	if strings.HasPrefix(p, "254") {
		return p
	}
	if strings.HasPrefix(p, "0") {
		return "254" + p[1:]
	}
	return "254" + p
}

func (d *darajaClient) Initiate(ctx context.Context, amount int64, phoneNumber string) (*InitiateResult, error) {
	token, err := d.accessToken(ctx)
	if err != nil {
		return nil, apperrors.GatewayInitiation(err, "failed to obtain gateway access token")
	}

	password, timestamp := d.password(time.Now())
	formattedPhone := FormatPhone(phoneNumber)

	payload := stkPushRequest{
		BusinessShortCode: d.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            amount,
		PartyA:            formattedPhone,
		PartyB:            d.cfg.ShortCode,
		PhoneNumber:       formattedPhone,
		CallBackURL:       d.cfg.CallbackURL,
		AccountReference:  d.cfg.AccountRef,
		TransactionDesc:   d.cfg.TransactionDesc,
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.InitiateRetries; attempt++ {
		var resp stkPushResponse
		status, err := d.postJSON(ctx, stkPushPath, token, payload, &resp)
		if err != nil {
			lastErr = err
			d.log.Warn("stk push attempt failed",
				"attempt", attempt, "max_attempts", d.cfg.InitiateRetries, "error", err)
			if attempt < d.cfg.InitiateRetries {
				if err := sleepCtx(ctx, d.cfg.InitiateRetryDelay*time.Duration(attempt)); err != nil {
					return nil, apperrors.GatewayInitiation(err, "payment initiation cancelled")
				}
			}
			continue
		}

		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("gateway returned HTTP %d", status)
			if attempt < d.cfg.InitiateRetries {
				if err := sleepCtx(ctx, d.cfg.InitiateRetryDelay*time.Duration(attempt)); err != nil {
					return nil, apperrors.GatewayInitiation(err, "payment initiation cancelled")
				}
			}
			continue
		}

		// A well-formed response with a non-zero code is a hard rejection,
		// not a transport problem. No retry.
		if resp.ResponseCode != "0" {
			return nil, apperrors.GatewayInitiation(nil, "gateway rejected initiation: %s", resp.ResponseDescription)
		}

		return &InitiateResult{
			MerchantRequestID: resp.MerchantRequestID,
			CheckoutRequestID: resp.CheckoutRequestID,
		}, nil
	}

	return nil, apperrors.GatewayInitiation(lastErr, "payment initiation failed after %d attempts", d.cfg.InitiateRetries)
}

func (d *darajaClient) Verify(ctx context.Context, checkoutRequestID string) (*VerifyResult, error) {
	token, err := d.accessToken(ctx)
	if err != nil {
		return &VerifyResult{Outcome: OutcomeError, ResultDesc: err.Error()}, nil
	}

	password, timestamp := d.password(time.Now())
	payload := stkQueryRequest{
		BusinessShortCode: d.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	req, err := d.newRequest(ctx, stkQueryPath, token, payload)
	if err != nil {
		return nil, err
	}

	httpResp, err := d.httpClient.Do(req)
	if err != nil {
		return &VerifyResult{Outcome: OutcomeError, ResultDesc: err.Error()}, nil
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &VerifyResult{Outcome: OutcomeError, ResultDesc: err.Error()}, nil
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Daraja answers a query for an in-flight push with an error body
		// rather than a result code.
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.ErrorCode == codeStillProcessing {
			return &VerifyResult{Outcome: OutcomePending, ResultCode: errResp.ErrorCode, ResultDesc: errResp.ErrorMessage}, nil
		}
		return &VerifyResult{
			Outcome:    OutcomeError,
			ResultDesc: fmt.Sprintf("gateway returned HTTP %d: %s", httpResp.StatusCode, string(body)),
		}, nil
	}

	var resp stkQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &VerifyResult{Outcome: OutcomeError, ResultDesc: fmt.Sprintf("malformed gateway response: %v", err)}, nil
	}

	return mapResultCode(resp.ResultCode, resp.ResultDesc), nil
}

// mapResultCode is the only place gateway result codes are interpreted.
func mapResultCode(code, desc string) *VerifyResult {
	result := &VerifyResult{ResultCode: code, ResultDesc: desc}
	switch {
	case code == "0":
		result.Outcome = OutcomeSuccess
	case terminalResultCodes[code]:
		result.Outcome = OutcomeFailed
	case code == "1001", code == codeStillProcessing:
		result.Outcome = OutcomePending
	default:
		result.Outcome = OutcomeError
	}
	return result
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cache is empty or near expiry.
func (d *darajaClient) accessToken(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cachedToken != "" && time.Now().Before(d.tokenExpiry) {
		return d.cachedToken, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(d.cfg.ConsumerKey + ":" + d.cfg.ConsumerSecret))

	var lastErr error
	for attempt := 1; attempt <= d.cfg.InitiateRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+oauthPath, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Basic "+auth)

		httpResp, err := d.httpClient.Do(req)
		if err == nil && httpResp.StatusCode == http.StatusOK {
			var tok tokenResponse
			decodeErr := json.NewDecoder(httpResp.Body).Decode(&tok)
			httpResp.Body.Close()
			if decodeErr == nil && tok.AccessToken != "" {
				d.cachedToken = tok.AccessToken
				// Daraja tokens last an hour; refresh early.
				d.tokenExpiry = time.Now().Add(55 * time.Minute)
				return d.cachedToken, nil
			}
			lastErr = fmt.Errorf("malformed token response: %v", decodeErr)
		} else {
			if err != nil {
				lastErr = err
			} else {
				httpResp.Body.Close()
				lastErr = fmt.Errorf("token endpoint returned HTTP %d", httpResp.StatusCode)
			}
		}

		if attempt < d.cfg.InitiateRetries {
			if err := sleepCtx(ctx, d.cfg.InitiateRetryDelay*time.Duration(attempt)); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("failed to get access token after %d attempts: %w", d.cfg.InitiateRetries, lastErr)
}

// password derives the STK push password: base64(shortcode + passkey + timestamp).
func (d *darajaClient) password(now time.Time) (string, string) {
	timestamp := now.Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(d.cfg.ShortCode + d.cfg.Passkey + timestamp))
	return password, timestamp
}

func (d *darajaClient) newRequest(ctx context.Context, path, token string, payload interface{}) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (d *darajaClient) postJSON(ctx context.Context, path, token string, payload, dest interface{}) (int, error) {
	req, err := d.newRequest(ctx, path, token, payload)
	if err != nil {
		return 0, err
	}

	httpResp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		if err := json.NewDecoder(httpResp.Body).Decode(dest); err != nil {
			return httpResp.StatusCode, fmt.Errorf("malformed gateway response: %w", err)
		}
	}
	return httpResp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
