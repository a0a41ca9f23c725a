package goCred

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Passw0rd!"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine *Engine
	clock  *fakeClock
	store  *store.Memory
	notes  *notify.Recorder
}

// testConfig keeps the defaults but swaps in a cheap hasher and drops the
// enumeration delay.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Hasher = HasherConfig{Algorithm: "bcrypt", BcryptCost: bcrypt.MinCost}
	cfg.PasswordReset.EnumerationDelayMin = 0
	cfg.PasswordReset.EnumerationDelayMax = 0
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*Config), opts ...func(*Builder)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	env := &testEnv{
		clock: newFakeClock(),
		store: store.NewMemory(),
		notes: &notify.Recorder{},
	}

	b := New().
		WithConfig(cfg).
		WithStore(env.store).
		WithNotifier(env.notes).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func (env *testEnv) register(t *testing.T, username, email string) Registration {
	t.Helper()

	reg, err := env.engine.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	return reg
}

func (env *testEnv) registerVerified(t *testing.T, username, email string) string {
	t.Helper()

	reg := env.register(t, username, email)
	if err := env.engine.VerifyOTP(context.Background(), VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code}); err != nil {
		t.Fatalf("VerifyOTP(%s) failed: %v", username, err)
	}
	return reg.AccountID
}

func (env *testEnv) record(t *testing.T, accountID string) *store.Record {
	t.Helper()

	rec, err := env.store.Get(context.Background(), accountID)
	if err != nil {
		t.Fatalf("store Get failed: %v", err)
	}
	return rec
}

// wrongCode returns a well-formed code different from code.
func wrongCode(code string) string {
	b := []byte(code)
	last := len(b) - 1
	if b[last] == '9' {
		b[last] = '0'
	} else {
		b[last]++
	}
	return string(b)
}
