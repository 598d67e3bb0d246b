package client

import (
	"context"
	"time"

	"github.com/hydrogenbond007/drand-rs/chain"
	"github.com/hydrogenbond007/drand-rs/log"
)

// PollingWatcher generalizes the `Watch` interface for clients which learn new values
// by asking for them once each group period.
func PollingWatcher(ctx context.Context, c Client, chainInfo *chain.Info, l log.Logger) <-chan Result {
	ch := make(chan Result, 1)
	r := c.RoundAt(time.Now())
	val, err := c.Get(ctx, r)
	if err != nil {
		l.Errorw("", "polling_client", "failed synchronous get", "from", c, "err", err)
		close(ch)
		return ch
	}
	ch <- val

	go func() {
		defer close(ch)

		// Initially, wait to synchronize to the round boundary.
		_, nextTime := chain.NextRound(time.Now().Unix(), chainInfo.Period, chainInfo.GenesisTime)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(nextTime-time.Now().Unix()) * time.Second):
		}

		r, err := c.Get(ctx, c.RoundAt(time.Now()))
		if err == nil {
			ch <- r
		} else {
			l.Errorw("", "polling_client", "failed first async get", "from", c, "err", err)
		}

		// Then tick each period.
		t := time.NewTicker(chainInfo.Period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				r, err := c.Get(ctx, c.RoundAt(time.Now()))
				if err == nil {
					ch <- r
				} else {
					l.Errorw("", "polling_client", "failed subsequent watch poll", "from", c, "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// EmptyClientWithInfo makes a client that returns the given info but no randomness
func EmptyClientWithInfo(info *chain.Info) Client {
	return &emptyClient{info}
}

type emptyClient struct {
	i *chain.Info
}

func (m *emptyClient) String() string {
	return "EmptyClient"
}

func (m *emptyClient) Info(_ context.Context) (*chain.Info, error) {
	return m.i, nil
}

func (m *emptyClient) RoundAt(t time.Time) uint64 {
	return chain.CurrentRound(t.Unix(), m.i.Period, m.i.GenesisTime)
}

func (m *emptyClient) Get(_ context.Context, _ uint64) (Result, error) {
	return nil, errNotSupported
}

func (m *emptyClient) Watch(_ context.Context) <-chan Result {
	ch := make(chan Result, 1)
	close(ch)
	return ch
}

func (m *emptyClient) Close() error {
	return nil
}
