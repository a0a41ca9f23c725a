package goCred

import (
	"context"
	"time"

	"github.com/MrEthical07/goCred/internal/flows"
)

// Login authenticates by username or email. Checks run in order: temporary
// lockout, verification status, password. Only a wrong password counts
// toward the lockout. With RememberMe set, a remember token is issued after
// a successful login.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if err := e.checkClientThrottle(ctx, "login"); err != nil {
		return LoginResult{}, err
	}

	start := time.Now()
	res, err := flows.RunLogin(ctx, req.Identifier, req.Password, e.flowDeps.Login)
	if e.metrics != nil {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}
	if err != nil {
		e.logOutcome(ctx, "login", "", err)
		return LoginResult{}, err
	}
	if res.Rehashed {
		e.logger.InfoContext(ctx, "password digest upgraded", "account_id", res.AccountID)
	}

	out := LoginResult{AccountID: res.AccountID}
	if req.RememberMe {
		token, err := e.IssueRememberToken(ctx, res.AccountID)
		if err != nil {
			return LoginResult{}, err
		}
		out.RememberToken = token
	}
	return out, nil
}
