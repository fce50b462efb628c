// reward distributes wincoins for fresh votes and comments on a fixed
// interval, independent of request traffic.
package reward

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/winsomenet/winsome/store"
)

// Broadcaster signals connected clients that wallets changed; one ping per
// run with at least one payout.
type Broadcaster interface {
	WalletsUpdated()
}

type Engine struct {
	store       *store.Store
	interval    time.Duration
	authorShare float64 // fraction of each post's reward kept by the author
	broadcast   Broadcaster
}

func NewEngine(s *store.Store, interval time.Duration, authorPercent float64, b Broadcaster) *Engine {
	return &Engine{
		store:       s,
		interval:    interval,
		authorShare: authorPercent / 100,
		broadcast:   b,
	}
}

// Run executes reward passes until the context ends. A pass that has
// started always completes; cancellation is only observed between passes.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if paid := e.RunOnce(); paid > 0 {
				slog.Info("reward run complete", "payouts", paid)
				if e.broadcast != nil {
					e.broadcast.WalletsUpdated()
				}
			}
		}
	}
}

// RunOnce processes every post once and returns the number of wallet
// transactions written. A failure on one post is logged and skipped; it
// never aborts the rest of the run.
func (e *Engine) RunOnce() int {
	now := time.Now()
	paid := 0
	for _, id := range e.store.PostIDs() {
		n, err := e.rewardPost(id, now)
		if err != nil {
			slog.Warn("reward computation failed for post", "post", id, "error", err)
			continue
		}
		paid += n
	}
	return paid
}

func (e *Engine) rewardPost(id int32, now time.Time) (paid int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	harvest, ok := e.store.HarvestPost(id)
	if !ok {
		return 0, nil // deleted between the id snapshot and the harvest
	}
	total, curators := compute(harvest)
	if total <= 0 || len(curators) == 0 {
		return 0, nil
	}
	authorCut := total * e.authorShare
	curatorCut := (total - authorCut) / float64(len(curators))
	if e.store.Credit(harvest.Author, authorCut, now) {
		paid++
	}
	for _, curator := range curators {
		if e.store.Credit(curator, curatorCut, now) {
			paid++
		}
	}
	return paid, nil
}

// compute turns one harvest into the post's total reward for this run and
// the deduplicated curator list (fresh voters plus commenters). The vote
// score is clamped to at least zero before the logarithm so a downvoted
// post never produces a negative reward, and the whole sum is damped by the
// post's iteration count so long-lived posts decay.
func compute(h store.Harvest) (float64, []string) {
	votes := h.VoteScore
	if votes < 0 {
		votes = 0
	}
	engagement := 0.0
	for _, count := range h.CommentCounts {
		engagement += 2 / (1 + math.Exp(-(float64(count) - 1)))
	}
	total := (math.Log(float64(votes)+1) + math.Log(engagement+1)) / float64(h.Age)
	seen := make(map[string]struct{})
	curators := make([]string, 0, len(h.Voters)+len(h.CommentCounts))
	for _, v := range h.Voters {
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			curators = append(curators, v)
		}
	}
	for commenter := range h.CommentCounts {
		if _, dup := seen[commenter]; !dup {
			seen[commenter] = struct{}{}
			curators = append(curators, commenter)
		}
	}
	return total, curators
}
