package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
)

// RunLogin fetches r.Login's page so its cookie-jar side effects (session
// cookies the transport's cookiejar picks up) take effect before any later
// flow that uses the same HTTP collaborator runs. fetchPage also runs the
// login flow's Filters chains, but their results are discarded and nothing
// they do reaches ctx's variables. A rule with no login flow is an
// Extraction error.
func RunLogin(goctx context.Context, r *rule.Rule, ctx *flowctx.Context) error {
	if r.Login == nil {
		return crawlerr.Extraction("rule has no login flow configured")
	}
	goctx, cancel, mon, err := watchLimits(goctx, r)
	if err != nil {
		return err
	}
	defer cancel()

	if _, err := fetchPage(goctx, *r.Login, ctx); err != nil {
		return err
	}
	if verr := mon.Check(); verr != nil {
		return verr
	}
	return nil
}
