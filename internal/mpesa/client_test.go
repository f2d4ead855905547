package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dejair/internal/shared/apperrors"
	"dejair/internal/shared/config"
)

func testConfig(baseURL string) config.MpesaConfig {
	return config.MpesaConfig{
		BaseURL:            baseURL,
		ConsumerKey:        "consumer-key",
		ConsumerSecret:     "consumer-secret",
		ShortCode:          "174379",
		Passkey:            "test-passkey",
		CallbackURL:        "https://api.dejair.co.ke/api/v1/payments/callback",
		AccountRef:         "DejAir",
		TransactionDesc:    "Helicopter charter",
		RequestTimeout:     5 * time.Second,
		InitiateRetries:    3,
		InitiateRetryDelay: time.Millisecond,
	}
}

func serveToken(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("consumer-key:consumer-secret"))
		if got := r.Header.Get("Authorization"); got != want {
			t.Errorf("token auth header = %q, want %q", got, want)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "test-token",
			"expires_in":   "3599",
		})
	})
}

func TestInitiateSendsDarajaPayload(t *testing.T) {
	var captured stkPushRequest

	mux := http.NewServeMux()
	serveToken(t, mux)
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("push auth header = %q, want Bearer test-token", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode push payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":      "0",
			"MerchantRequestID": "merchant-1",
			"CheckoutRequestID": "ws_CO_1",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Initiate(context.Background(), 8500, "0712345678")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.MerchantRequestID != "merchant-1" || result.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("result = %+v, want merchant-1/ws_CO_1", result)
	}

	if captured.BusinessShortCode != "174379" {
		t.Errorf("BusinessShortCode = %s, want 174379", captured.BusinessShortCode)
	}
	if captured.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("TransactionType = %s, want CustomerPayBillOnline", captured.TransactionType)
	}
	if captured.Amount != 8500 {
		t.Errorf("Amount = %d, want 8500", captured.Amount)
	}
	if captured.PartyA != "254712345678" || captured.PhoneNumber != "254712345678" {
		t.Errorf("PartyA/PhoneNumber = %s/%s, want normalized 254712345678", captured.PartyA, captured.PhoneNumber)
	}
	if captured.PartyB != "174379" {
		t.Errorf("PartyB = %s, want the short code", captured.PartyB)
	}
	if captured.CallBackURL != "https://api.dejair.co.ke/api/v1/payments/callback" {
		t.Errorf("CallBackURL = %s", captured.CallBackURL)
	}
	if captured.AccountReference != "DejAir" || captured.TransactionDesc != "Helicopter charter" {
		t.Errorf("reference/desc = %s/%s", captured.AccountReference, captured.TransactionDesc)
	}

	// Password is base64(shortcode + passkey + timestamp) with the payload's
	// own timestamp.
	wantPassword := base64.StdEncoding.EncodeToString([]byte("174379" + "test-passkey" + captured.Timestamp))
	if captured.Password != wantPassword {
		t.Errorf("Password = %s, want %s", captured.Password, wantPassword)
	}
	if _, err := time.Parse("20060102150405", captured.Timestamp); err != nil {
		t.Errorf("Timestamp %q not in yyyyMMddHHmmss form: %v", captured.Timestamp, err)
	}
}

func TestInitiateRejectionIsNotRetried(t *testing.T) {
	pushCalls := 0

	mux := http.NewServeMux()
	serveToken(t, mux)
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		pushCalls++
		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":        "1",
			"ResponseDescription": "Invalid Access Token",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Initiate(context.Background(), 8500, "0712345678")
	if !apperrors.IsKind(err, apperrors.KindGatewayInitiation) {
		t.Fatalf("err = %v, want gateway initiation error", err)
	}
	if pushCalls != 1 {
		t.Errorf("push calls = %d, want 1 (hard rejection must not retry)", pushCalls)
	}
}

func TestInitiateRetriesTransportFailures(t *testing.T) {
	pushCalls := 0

	mux := http.NewServeMux()
	serveToken(t, mux)
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		pushCalls++
		if pushCalls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":      "0",
			"MerchantRequestID": "merchant-1",
			"CheckoutRequestID": "ws_CO_1",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Initiate(context.Background(), 8500, "0712345678")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("checkout id = %s, want ws_CO_1", result.CheckoutRequestID)
	}
	if pushCalls != 3 {
		t.Errorf("push calls = %d, want 3", pushCalls)
	}
}

func TestInitiateExhaustsRetryBudget(t *testing.T) {
	pushCalls := 0

	mux := http.NewServeMux()
	serveToken(t, mux)
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		pushCalls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Initiate(context.Background(), 8500, "0712345678")
	if !apperrors.IsKind(err, apperrors.KindGatewayInitiation) {
		t.Fatalf("err = %v, want gateway initiation error", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %v, want attempt count in message", err)
	}
	if pushCalls != 3 {
		t.Errorf("push calls = %d, want 3", pushCalls)
	}
}

func TestVerifyMapsResultCodes(t *testing.T) {
	cases := []struct {
		code string
		want Outcome
	}{
		{"0", OutcomeSuccess},
		{"1", OutcomeFailed},
		{"1032", OutcomeFailed},
		{"1037", OutcomeFailed},
		{"2001", OutcomeFailed},
		{"1001", OutcomePending},
		{"9999", OutcomeError},
	}

	for _, tc := range cases {
		resultCode := tc.code

		mux := http.NewServeMux()
		serveToken(t, mux)
		mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
			var req stkQueryRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode query payload: %v", err)
			}
			if req.CheckoutRequestID != "ws_CO_1" {
				t.Errorf("CheckoutRequestID = %s, want ws_CO_1", req.CheckoutRequestID)
			}
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode": "0",
				"ResultCode":   resultCode,
				"ResultDesc":   "desc for " + resultCode,
			})
		})
		server := httptest.NewServer(mux)

		client := NewClient(testConfig(server.URL))
		result, err := client.Verify(context.Background(), "ws_CO_1")
		server.Close()
		if err != nil {
			t.Fatalf("verify code %s: %v", tc.code, err)
		}
		if result.Outcome != tc.want {
			t.Errorf("code %s: outcome = %s, want %s", tc.code, result.Outcome, tc.want)
		}
		if result.ResultCode != tc.code {
			t.Errorf("code %s: result code = %s", tc.code, result.ResultCode)
		}
	}
}

func TestVerifyInFlightPushIsPending(t *testing.T) {
	mux := http.NewServeMux()
	serveToken(t, mux)
	mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"requestId":    "req-1",
			"errorCode":    "500.001.1001",
			"errorMessage": "The transaction is being processed",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Verify(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Outcome != OutcomePending {
		t.Errorf("outcome = %s, want pending", result.Outcome)
	}
}

func TestVerifyTransportFailureIsError(t *testing.T) {
	mux := http.NewServeMux()
	serveToken(t, mux)
	server := httptest.NewServer(mux)

	client := NewClient(testConfig(server.URL))
	// Warm the token cache, then kill the server so the query itself fails.
	if _, err := client.Verify(context.Background(), "ws_CO_1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	server.Close()

	result, err := client.Verify(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Outcome != OutcomeError {
		t.Errorf("outcome = %s, want error", result.Outcome)
	}
}

func TestAccessTokenIsCached(t *testing.T) {
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":      "0",
			"MerchantRequestID": "merchant-1",
			"CheckoutRequestID": "ws_CO_1",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	for i := 0; i < 3; i++ {
		if _, err := client.Initiate(context.Background(), 1000, "0712345678"); err != nil {
			t.Fatalf("initiate %d: %v", i, err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token calls = %d, want 1", tokenCalls)
	}
}

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"+254 712-345-678", "254712345678"},
		{"712345678", "254712345678"},
		{"0722 000 000", "254722000000"},
	}
	for _, tc := range cases {
		if got := FormatPhone(tc.in); got != tc.want {
			t.Errorf("FormatPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
