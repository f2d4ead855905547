package payments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dejair/internal/actors"
	"dejair/internal/bookings"
	"dejair/internal/mpesa"
	"dejair/internal/shared/apperrors"
	"dejair/internal/shared/config"
	"dejair/pkg/cache"

	"github.com/google/uuid"
)

// ---- fakes ----

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*bookings.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookings.Booking)}
}

func (f *fakeBookingRepo) CreateBooking(ctx context.Context, b *bookings.Booking) error {
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookingRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) Transition(ctx context.Context, id uuid.UUID, mutate func(*bookings.Booking) (*bookings.NegotiationHistory, error)) (*bookings.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking %s not found", id)
	}
	cp := *b
	if _, err := mutate(&cp); err != nil {
		return nil, err
	}
	f.bookings[id] = &cp
	result := cp
	return &result, nil
}

func (f *fakeBookingRepo) GetClientBookings(ctx context.Context, clientID uuid.UUID, query bookings.BookingListQuery) ([]bookings.Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) GetAllBookings(ctx context.Context, query bookings.BookingListQuery) ([]bookings.Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) GetBookingsByStatuses(ctx context.Context, statuses []bookings.Status) ([]bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) GetBookingsByNegotiationStatuses(ctx context.Context, statuses []bookings.NegotiationStatus) ([]bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) GetNegotiationHistory(ctx context.Context, bookingID uuid.UUID) ([]bookings.NegotiationHistory, error) {
	return nil, nil
}

// fakePaymentRepo mirrors the production repository's terminal-state rules,
// including the cross-table booking update on success.
type fakePaymentRepo struct {
	payments    map[uuid.UUID]*Payment
	order       []uuid.UUID
	bookingRepo *fakeBookingRepo
}

func newFakePaymentRepo(bookingRepo *fakeBookingRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:    make(map[uuid.UUID]*Payment),
		bookingRepo: bookingRepo,
	}
}

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, payment *Payment) error {
	cp := *payment
	f.payments[payment.ID] = &cp
	f.order = append(f.order, payment.ID)
	return nil
}

func (f *fakePaymentRepo) GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetPaymentByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Payment, error) {
	for _, p := range f.payments {
		if p.CheckoutRequestID == checkoutRequestID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("payment with checkout request %s not found", checkoutRequestID)
}

func (f *fakePaymentRepo) GetPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	for _, p := range f.payments {
		if p.BookingID == bookingID && p.Status == StatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetLatestForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	for i := len(f.order) - 1; i >= 0; i-- {
		p := f.payments[f.order[i]]
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var out []Payment
	for _, id := range f.order {
		if p := f.payments[id]; p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListAll(ctx context.Context) ([]Payment, error) {
	var out []Payment
	for _, id := range f.order {
		out = append(out, *f.payments[id])
	}
	return out, nil
}

func (f *fakePaymentRepo) MarkSuccess(ctx context.Context, paymentID uuid.UUID) (*Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, apperrors.NotFound("payment %s not found", paymentID)
	}
	if p.Status.IsTerminal() {
		return nil, apperrors.StateConflict("payment %s is already %s", paymentID, p.Status)
	}
	p.Status = StatusSuccess
	p.FailureReason = ""

	if b, ok := f.bookingRepo.bookings[p.BookingID]; ok {
		b.Status = bookings.StatusPaid
		id := p.ID
		b.PaymentID = &id
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, apperrors.NotFound("payment %s not found", paymentID)
	}
	if p.Status.IsTerminal() {
		return nil, apperrors.StateConflict("payment %s is already %s", paymentID, p.Status)
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	cp := *p
	return &cp, nil
}

// fakeGateway scripts gateway responses; Verify walks verifyResults and
// sticks on the last one.
type fakeGateway struct {
	initErr     error
	initCalls   int
	onInitiate  func()
	verifyCalls int

	verifyResults []*mpesa.VerifyResult
	verifyErr     error
}

func (f *fakeGateway) Initiate(ctx context.Context, amount int64, phoneNumber string) (*mpesa.InitiateResult, error) {
	f.initCalls++
	if f.onInitiate != nil {
		f.onInitiate()
	}
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mpesa.InitiateResult{
		MerchantRequestID: "merchant-1",
		CheckoutRequestID: "ws_CO_test_1",
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, checkoutRequestID string) (*mpesa.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	idx := f.verifyCalls - 1
	if idx >= len(f.verifyResults) {
		idx = len(f.verifyResults) - 1
	}
	return f.verifyResults[idx], nil
}

type fakeCache struct{}

func (fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}
func (fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (fakeCache) Delete(ctx context.Context, key string) error      { return nil }
func (fakeCache) DeletePattern(ctx context.Context, p string) error { return nil }
func (fakeCache) Exists(ctx context.Context, key string) bool       { return false }
func (fakeCache) MGet(ctx context.Context, k []string, d interface{}) error {
	return nil
}
func (fakeCache) MSet(ctx context.Context, items map[string]interface{}, ttl time.Duration) error {
	return nil
}
func (fakeCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	data, err := fetcher()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
func (fakeCache) Ping(ctx context.Context) error { return nil }

// ---- helpers ----

type fixture struct {
	bookingRepo *fakeBookingRepo
	paymentRepo *fakePaymentRepo
	gateway     *fakeGateway
	service     Service
	client      actors.Actor
	bookingID   uuid.UUID
}

func newFixture(t *testing.T, bookingStatus bookings.Status) *fixture {
	t.Helper()
	bookingRepo := newFakeBookingRepo()
	paymentRepo := newFakePaymentRepo(bookingRepo)
	gateway := &fakeGateway{}

	clientID := uuid.New()
	final := int64(8500)
	booking := &bookings.Booking{
		ID:             uuid.New(),
		ClientID:       clientID,
		HelicopterID:   uuid.New(),
		OriginalAmount: 10000,
		FinalAmount:    &final,
		Status:         bookingStatus,
		NegStatus:      bookings.NegotiationAccepted,
	}
	if err := bookingRepo.CreateBooking(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	cfg := config.MpesaConfig{VerifyAttempts: 3, VerifyInterval: time.Millisecond}
	svc := NewService(paymentRepo, bookingRepo, gateway, fakeCache{}, cfg)

	return &fixture{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		service:     svc,
		client:      actors.NewClientActor(clientID),
		bookingID:   booking.ID,
	}
}

func verifyResult(outcome mpesa.Outcome, code, desc string) *mpesa.VerifyResult {
	return &mpesa.VerifyResult{Outcome: outcome, ResultCode: code, ResultDesc: desc}
}

// ---- tests ----

func TestPaySuccessMarksBookingPaid(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.verifyResults = []*mpesa.VerifyResult{
		verifyResult(mpesa.OutcomeSuccess, "0", "The service request is processed successfully."),
	}

	resp, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if resp.Status != string(StatusSuccess) {
		t.Errorf("payment status = %s, want success", resp.Status)
	}
	if resp.Amount != 8500 {
		t.Errorf("amount = %d, want 8500 (negotiated final)", resp.Amount)
	}
	if resp.PhoneNumber != "254712345678" {
		t.Errorf("phone = %s, want normalized 254712345678", resp.PhoneNumber)
	}

	booking := fx.bookingRepo.bookings[fx.bookingID]
	if booking.Status != bookings.StatusPaid {
		t.Errorf("booking status = %s, want paid", booking.Status)
	}
	if booking.PaymentID == nil || booking.PaymentID.String() != resp.ID {
		t.Errorf("booking payment_id = %v, want %s", booking.PaymentID, resp.ID)
	}
}

func TestPayDeclinedLeavesBookingPayable(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.verifyResults = []*mpesa.VerifyResult{
		verifyResult(mpesa.OutcomeFailed, "1032", "Request cancelled by user"),
	}

	resp, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if resp.Status != string(StatusFailed) {
		t.Errorf("payment status = %s, want failed", resp.Status)
	}
	if resp.FailureReason != "Request cancelled by user" {
		t.Errorf("failure_reason = %q, want gateway description", resp.FailureReason)
	}

	booking := fx.bookingRepo.bookings[fx.bookingID]
	if booking.Status != bookings.StatusPendingPayment {
		t.Errorf("booking status = %s, want pending_payment", booking.Status)
	}
	if !booking.Status.IsPayable() {
		t.Error("booking should remain payable after a declined payment")
	}
}

func TestPayAlreadyPaidIsStateConflict(t *testing.T) {
	fx := newFixture(t, bookings.StatusPaid)

	_, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("err = %v, want state conflict", err)
	}
	if fx.gateway.initCalls != 0 {
		t.Errorf("gateway called %d times, want 0", fx.gateway.initCalls)
	}
	if len(fx.paymentRepo.payments) != 0 {
		t.Errorf("payment rows = %d, want 0", len(fx.paymentRepo.payments))
	}
}

func TestPayCancelledBookingIsStateConflict(t *testing.T) {
	fx := newFixture(t, bookings.StatusCancelled)

	_, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("err = %v, want state conflict", err)
	}
}

func TestInitiateGatewayFailureLeavesNoState(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.initErr = apperrors.GatewayInitiation(nil, "payment initiation failed after 3 attempts")

	_, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsKind(err, apperrors.KindGatewayInitiation) {
		t.Fatalf("err = %v, want gateway initiation error", err)
	}
	if len(fx.paymentRepo.payments) != 0 {
		t.Errorf("payment rows = %d, want 0 after failed initiation", len(fx.paymentRepo.payments))
	}
}

func TestInitiateVoidsPaymentWhenBookingTurnsUnpayable(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	// The booking is cancelled after the payability pre-checks but before
	// the in-flight charge is reflected on it.
	fx.gateway.onInitiate = func() {
		fx.bookingRepo.bookings[fx.bookingID].Status = bookings.StatusCancelled
	}

	_, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("err = %v, want state conflict", err)
	}

	payment := fx.paymentRepo.payments[fx.paymentRepo.order[0]]
	if payment.Status != StatusFailed {
		t.Errorf("payment status = %s, want failed", payment.Status)
	}
	if payment.FailureReason != "booking no longer payable" {
		t.Errorf("failure reason = %q", payment.FailureReason)
	}
	if got := fx.bookingRepo.bookings[fx.bookingID].Status; got != bookings.StatusCancelled {
		t.Errorf("booking status = %s, want cancelled untouched", got)
	}
}

func TestInitiateReturnsPendingPayment(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	resp, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if resp.Status != string(StatusPending) {
		t.Errorf("payment status = %s, want pending", resp.Status)
	}
	if resp.CheckoutRequestID != "ws_CO_test_1" {
		t.Errorf("checkout_request_id = %s, want ws_CO_test_1", resp.CheckoutRequestID)
	}
	if fx.gateway.verifyCalls != 0 {
		t.Errorf("verify called %d times during initiate, want 0", fx.gateway.verifyCalls)
	}
}

func TestInitiateRejectsSecondPending(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	if _, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"}); err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	_, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("second initiate err = %v, want state conflict", err)
	}
	if len(fx.paymentRepo.payments) != 1 {
		t.Errorf("payment rows = %d, want 1", len(fx.paymentRepo.payments))
	}
}

func TestInitiateWrongClientRejected(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	stranger := actors.NewClientActor(uuid.New())
	_, err := fx.service.Initiate(context.Background(), stranger, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Fatalf("err = %v, want authorization error", err)
	}
}

func TestInitiateRejectsBadPhone(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	_, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "12"})
	if !apperrors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if fx.gateway.initCalls != 0 {
		t.Errorf("gateway called with invalid phone")
	}
}

func TestConfirmRetriesPendingThenSucceeds(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.verifyResults = []*mpesa.VerifyResult{
		verifyResult(mpesa.OutcomePending, "", "still processing"),
		verifyResult(mpesa.OutcomeError, "", "transient"),
		verifyResult(mpesa.OutcomeSuccess, "0", "processed"),
	}

	resp, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if resp.Status != string(StatusSuccess) {
		t.Errorf("payment status = %s, want success", resp.Status)
	}
	if fx.gateway.verifyCalls != 3 {
		t.Errorf("verify calls = %d, want 3", fx.gateway.verifyCalls)
	}
}

func TestConfirmTimeoutMarksFailed(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.verifyResults = []*mpesa.VerifyResult{
		verifyResult(mpesa.OutcomePending, "", "still processing"),
	}

	resp, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if resp.Status != string(StatusFailed) {
		t.Errorf("payment status = %s, want failed", resp.Status)
	}
	if resp.FailureReason != "confirmation timed out" {
		t.Errorf("failure_reason = %q, want confirmation timed out", resp.FailureReason)
	}
	if fx.gateway.verifyCalls != 3 {
		t.Errorf("verify calls = %d, want the full attempt budget of 3", fx.gateway.verifyCalls)
	}

	booking := fx.bookingRepo.bookings[fx.bookingID]
	if !booking.Status.IsPayable() {
		t.Error("booking should remain payable after confirmation timeout")
	}
}

func TestConfirmTerminalPaymentIsIdempotent(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)
	fx.gateway.verifyResults = []*mpesa.VerifyResult{
		verifyResult(mpesa.OutcomeSuccess, "0", "processed"),
	}

	first, err := fx.service.Pay(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	// Re-confirming a settled payment returns the recorded outcome without
	// another gateway round trip.
	calls := fx.gateway.verifyCalls
	second, err := fx.service.Confirm(context.Background(), first.CheckoutRequestID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if second.Status != string(StatusSuccess) {
		t.Errorf("status = %s, want success", second.Status)
	}
	if fx.gateway.verifyCalls != calls {
		t.Errorf("verify calls grew from %d to %d on a terminal payment", calls, fx.gateway.verifyCalls)
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	if _, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"}); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	payload := callbackPayload("ws_CO_test_1", 0, "The service request is processed successfully.")
	if err := fx.service.HandleCallback(context.Background(), payload); err != nil {
		t.Fatalf("callback: %v", err)
	}

	booking := fx.bookingRepo.bookings[fx.bookingID]
	if booking.Status != bookings.StatusPaid {
		t.Errorf("booking status = %s, want paid", booking.Status)
	}

	// The duplicate delivery Daraja occasionally sends is a no-op.
	if err := fx.service.HandleCallback(context.Background(), payload); err != nil {
		t.Fatalf("duplicate callback: %v", err)
	}
}

func TestHandleCallbackFailure(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	if _, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"}); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	payload := callbackPayload("ws_CO_test_1", 1032, "Request cancelled by user")
	if err := fx.service.HandleCallback(context.Background(), payload); err != nil {
		t.Fatalf("callback: %v", err)
	}

	latest, _ := fx.paymentRepo.GetLatestForBooking(context.Background(), fx.bookingID)
	if latest.Status != StatusFailed {
		t.Errorf("payment status = %s, want failed", latest.Status)
	}
	if fx.bookingRepo.bookings[fx.bookingID].Status != bookings.StatusPendingPayment {
		t.Errorf("booking status = %s, want pending_payment", fx.bookingRepo.bookings[fx.bookingID].Status)
	}
}

func TestLatestPaymentStatus(t *testing.T) {
	fx := newFixture(t, bookings.StatusPendingPayment)

	info, err := fx.service.LatestPaymentStatus(context.Background(), fx.bookingID)
	if err != nil {
		t.Fatalf("latest status: %v", err)
	}
	if info != nil {
		t.Fatalf("info = %+v, want nil before any attempt", info)
	}

	if _, err := fx.service.Initiate(context.Background(), fx.client, fx.bookingID, PayRequest{PhoneNumber: "0712345678"}); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	info, err = fx.service.LatestPaymentStatus(context.Background(), fx.bookingID)
	if err != nil {
		t.Fatalf("latest status: %v", err)
	}
	if info == nil || info.Status != string(StatusPending) || info.CheckoutRequestID != "ws_CO_test_1" {
		t.Errorf("info = %+v, want pending/ws_CO_test_1", info)
	}
}

func callbackPayload(checkoutRequestID string, resultCode int, desc string) mpesa.CallbackPayload {
	var payload mpesa.CallbackPayload
	payload.Body.StkCallback.MerchantRequestID = "merchant-1"
	payload.Body.StkCallback.CheckoutRequestID = checkoutRequestID
	payload.Body.StkCallback.ResultCode = resultCode
	payload.Body.StkCallback.ResultDesc = desc
	return payload
}
