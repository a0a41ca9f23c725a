package goCred

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal"
	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used for one Build call.
type Builder struct {
	config Config

	store     store.Store
	grants    store.GrantStore
	redis     redis.UniversalClient
	notifier  notify.Notifier
	resetLink func(token string) string
	logger    *slog.Logger
	clock     func() time.Time
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential record store. Defaults to an in-memory store.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithGrantStore sets the reset grant store. Defaults to an in-memory store.
func (b *Builder) WithGrantStore(g store.GrantStore) *Builder {
	b.grants = g
	return b
}

// WithRedis sets the client backing the per-IP throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithNotifier sets where verification codes and reset links are delivered.
// Without one, the engine only returns them to the caller.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// WithResetLink sets how a reset token is turned into the link placed in the
// reset message. Without one, the message carries the raw token.
func (b *Builder) WithResetLink(fn func(token string) string) *Builder {
	b.resetLink = fn
	return b
}

// WithLogger sets the structured logger. Defaults to discarding output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock injects the time source. Every operation reads it once.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink sets the audit sink used when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the decision counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IPThrottle.Enabled && b.redis == nil {
		return nil, errors.New("IPThrottle requires redis client")
	}

	h, err := hasher.New(cfg.Hasher.hasherConfig())
	if err != nil {
		return nil, err
	}
	// Unknown identifiers are verified against this digest so that a miss
	// costs the same as a wrong password.
	dummySecret, err := internal.NewTokenSecret()
	if err != nil {
		return nil, err
	}
	dummyDigest, err := h.Hash(dummySecret)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		store:     b.store,
		grants:    b.grants,
		notifier:  b.notifier,
		resetLink: b.resetLink,
		logger:    b.logger,
		clock:     b.clock,
		sleep:     sleepContext,
	}
	if engine.store == nil {
		engine.store = store.NewMemory()
	}
	if engine.grants == nil {
		engine.grants = store.NewMemoryGrants()
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.DiscardHandler)
	}
	if engine.clock == nil {
		engine.clock = time.Now
	}

	engine.lockout = limiters.NewLockoutLimiter(limiters.LockoutConfig{
		Threshold: cfg.Login.MaxAttempts,
		Duration:  cfg.Login.LockoutDuration,
	})
	if cfg.IPThrottle.Enabled {
		engine.ipLimiter = rate.New(b.redis, rate.Config{
			Prefix:      cfg.IPThrottle.RedisPrefix,
			MaxRequests: cfg.IPThrottle.MaxRequests,
			Window:      cfg.IPThrottle.Window,
		})
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     engine.logger,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.flowDeps = engine.buildFlowDeps(h, dummyDigest)

	b.built = true

	return engine, nil
}

func (e *Engine) buildFlowDeps(h hasher.Hasher, dummyDigest string) flows.Deps {
	cfg := e.config
	records := flows.RecordsFromStore(e.store)
	common := flows.Common{
		Now:           e.now,
		MapStoreError: e.mapStoreError,
		MetricInc:     func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:     e.emitAudit,
	}

	otpLimiter := limiters.NewOTPLimiter(limiters.OTPConfig{
		ResendCeiling:  cfg.OTP.ResendCeiling,
		ResendWindow:   cfg.OTP.ResendWindow,
		ResendCooldown: cfg.OTP.ResendCooldown,
		AttemptCeiling: cfg.OTP.MaxVerifyAttempts,
		AttemptWindow:  cfg.OTP.VerifyWindow,
	})
	resetLimiter := limiters.NewResetLimiter(limiters.ResetConfig{
		RequestCeiling:  cfg.PasswordReset.RequestCeiling,
		RequestWindow:   cfg.PasswordReset.RequestWindow,
		RequestCooldown: cfg.PasswordReset.RequestCooldown,
	})

	return flows.Deps{
		Register: flows.RegisterDeps{
			Common:       common,
			Records:      records,
			OTPDigits:    cfg.OTP.Digits,
			OTPTTL:       cfg.OTP.TTL,
			Hasher:       h,
			Validate:     e.validateRegistration,
			GenerateCode: internal.NewOTP,
			NewID:        internal.NewID,
			Metrics: flows.RegisterMetrics{
				Registered: int(MetricRegistered),
				OTPIssued:  int(MetricOTPIssued),
			},
			Events: flows.RegisterEvents{Register: auditEventRegister},
			Errors: flows.RegisterErrors{
				EngineNotReady: ErrEngineNotReady,
				AccountExists:  ErrAccountExists,
				Unavailable:    ErrStoreUnavailable,
			},
		},
		OTP: flows.OTPDeps{
			Common:       common,
			Records:      records,
			Digits:       cfg.OTP.Digits,
			TTL:          cfg.OTP.TTL,
			Limiter:      otpLimiter,
			Hasher:       h,
			GenerateCode: internal.NewOTP,
			ValidateCode: e.validateCode,
			Metrics: flows.OTPMetrics{
				Issued:            int(MetricOTPIssued),
				ResendThrottled:   int(MetricOTPResendThrottled),
				VerifySuccess:     int(MetricOTPVerifySuccess),
				VerifyFailure:     int(MetricOTPVerifyFailure),
				AttemptsExhausted: int(MetricOTPAttemptsExhausted),
			},
			Events: flows.OTPEvents{Issue: auditEventOTPIssue, Verify: auditEventOTPVerify},
			Errors: flows.OTPErrors{
				EngineNotReady:    ErrEngineNotReady,
				AlreadyVerified:   ErrAlreadyVerified,
				ResendThrottled:   ErrResendThrottled,
				AttemptsExhausted: ErrAttemptsExhausted,
				NoActiveCode:      ErrNoActiveCode,
				Expired:           ErrExpired,
				Mismatch:          ErrMismatch,
				Unavailable:       ErrStoreUnavailable,
			},
		},
		PasswordReset: flows.PasswordResetDeps{
			Common:                common,
			Records:               records,
			TokenTTL:              cfg.PasswordReset.TokenTTL,
			GrantTTL:              cfg.PasswordReset.GrantTTL,
			Limiter:               resetLimiter,
			Hasher:                h,
			GenerateSecret:        internal.NewTokenSecret,
			EncodeToken:           internal.EncodeResetToken,
			DecodeToken:           internal.DecodeResetToken,
			NewGrantID:            internal.NewID,
			PutGrant:              e.grants.Put,
			TakeGrant:             e.grants.Take,
			ValidateEmail:         validateEmail,
			ValidatePassword:      e.validatePassword,
			SleepEnumerationDelay: e.sleepEnumerationDelay,
			Metrics: flows.PasswordResetMetrics{
				Requested: int(MetricResetRequested),
				Throttled: int(MetricResetThrottled),
				Completed: int(MetricResetCompleted),
				Invalid:   int(MetricResetInvalid),
			},
			Events: flows.PasswordResetEvents{
				Request:   auditEventPasswordResetRequest,
				Authorize: auditEventPasswordResetAuth,
				Complete:  auditEventPasswordResetConfirm,
			},
			Errors: flows.PasswordResetErrors{
				EngineNotReady:   ErrEngineNotReady,
				ResendThrottled:  ErrResendThrottled,
				InvalidOrExpired: ErrInvalidOrExpired,
				NotAuthorized:    ErrResetNotAuthorized,
				Unavailable:      ErrStoreUnavailable,
			},
		},
		Login: flows.LoginDeps{
			Common:      common,
			Records:     records,
			Lockout:     e.lockout,
			Hasher:      h,
			DummyDigest: dummyDigest,
			Metrics: flows.LoginMetrics{
				LoginSuccess:   int(MetricLoginSuccess),
				LoginFailure:   int(MetricLoginFailure),
				LoginLockedOut: int(MetricLoginLockedOut),
			},
			Events: flows.LoginEvents{
				LoginSuccess:   auditEventLoginSuccess,
				LoginFailure:   auditEventLoginFailure,
				LoginLockedOut: auditEventLoginLockedOut,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				LockedOut:          ErrLockedOut,
				AccountUnverified:  ErrAccountUnverified,
			},
		},
		Remember: flows.RememberDeps{
			Common:         common,
			Records:        records,
			Hasher:         h,
			GenerateSecret: internal.NewTokenSecret,
			EncodeToken:    internal.EncodeRememberToken,
			DecodeToken:    internal.DecodeRememberToken,
			Metrics: flows.RememberMetrics{
				Issued:   int(MetricRememberIssued),
				Rejected: int(MetricRememberRejected),
			},
			Events: flows.RememberEvents{
				Issue:    auditEventRememberIssue,
				Validate: auditEventRememberValidate,
				Revoke:   auditEventRememberRevoke,
			},
			Errors: flows.RememberErrors{
				EngineNotReady: ErrEngineNotReady,
				Invalid:        ErrRememberTokenInvalid,
				Unavailable:    ErrStoreUnavailable,
			},
		},
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
