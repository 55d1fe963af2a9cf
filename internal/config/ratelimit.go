package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig describes one request budget: at most Max requests per Key
// within Window.  Backend selects where counters live: "memory" keeps them in
// process (single-instance deployments only), "redis" shares them across
// instances.
type RateLimitConfig struct {
    Backend string
    Window  time.Duration
    Prefix  string

    BookingMax int // booking requests per tutor per window
    OTPMax     int // OTP sends per phone per window
    RatingMax  int // rating attempts per lesson per window
}

// LoadRateLimitConfig reads rate-limit settings from the environment.  The
// defaults match the request budgets the booking flows were designed around.
func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Backend:    envStr("RATE_LIMIT_BACKEND", "memory"),
        Window:     envDur("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:     envStr("RATE_LIMIT_PREFIX", "rl"),
        BookingMax: envInt("RATE_LIMIT_BOOKING_MAX", 10),
        OTPMax:     envInt("RATE_LIMIT_OTP_MAX", 5),
        RatingMax:  envInt("RATE_LIMIT_RATING_MAX", 3),
    }
    if def.Window <= 0 {
        def.Window = time.Minute
    }
    if def.BookingMax < 1 {
        def.BookingMax = 1
    }
    if def.OTPMax < 1 {
        def.OTPMax = 1
    }
    if def.RatingMax < 1 {
        def.RatingMax = 1
    }
    return def
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
