package constants

import "time"

// Redis cache keys and TTLs for the DejAir backend.
// Pattern: dejair:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "dejair"
)

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG  = 24 * time.Hour   // very stable reference data
	TTL_STATIC_SHORT = 1 * time.Hour    // fleet catalog
	TTL_DYNAMIC      = 5 * time.Minute  // booking lists
	TTL_REALTIME     = 30 * time.Second // booking/payment status polled by clients
)

// ================== FLEET MODULE ==================

const (
	CACHE_KEY_FLEET_LIST   = CACHE_PREFIX + ":fleet:list"
	CACHE_KEY_FLEET_DETAIL = CACHE_PREFIX + ":fleet:detail:uuid:" // + helicopter-id
)

const (
	TTL_FLEET_LIST   = TTL_STATIC_SHORT
	TTL_FLEET_DETAIL = TTL_STATIC_SHORT
)

// ================== BOOKINGS MODULE ==================

const (
	// Status snapshot polled by clients waiting on payment outcome. Kept
	// short-lived and invalidated on every booking mutation.
	CACHE_KEY_BOOKING_STATUS = CACHE_PREFIX + ":bookings:status:uuid:" // + booking-id
)

const (
	TTL_BOOKING_STATUS = TTL_REALTIME
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_FLEET_ALL = CACHE_PREFIX + ":fleet:*"
)

func BuildBookingStatusKey(bookingID string) string {
	return CACHE_KEY_BOOKING_STATUS + bookingID
}

func BuildFleetDetailKey(helicopterID string) string {
	return CACHE_KEY_FLEET_DETAIL + helicopterID
}
