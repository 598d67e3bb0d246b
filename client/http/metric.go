package http

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hydrogenbond007/drand-rs/chain"
	"github.com/hydrogenbond007/drand-rs/client"
	"github.com/hydrogenbond007/drand-rs/metrics"
)

// MeasureHeartbeats periodically tracks latency observed on a set of HTTP clients
func MeasureHeartbeats(ctx context.Context, c []client.Client) *HealthMetrics {
	m := &HealthMetrics{
		next:    0,
		clients: c,
	}
	if len(c) > 0 {
		go m.startObserve(ctx)
	}
	return m
}

// HealthMetrics is a measurement task around HTTP clients
type HealthMetrics struct {
	next    int
	clients []client.Client
}

// HTTPHeartbeatInterval is the duration between liveness heartbeats sent to an HTTP API.
const HTTPHeartbeatInterval = 10 * time.Second

func (c *HealthMetrics) startObserve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		time.Sleep(time.Duration(int64(HTTPHeartbeatInterval) / int64(len(c.clients))))
		n := c.next % len(c.clients)

		hc, ok := c.clients[n].(*httpClient)
		if !ok {
			c.next++
			continue
		}

		result, err := c.clients[n].Get(ctx, c.clients[n].RoundAt(time.Now())+1)
		if err != nil {
			metrics.ClientHTTPHeartbeatFailure.With(prometheus.Labels{"http_address": hc.root}).Inc()
			c.next++
			continue
		}
		metrics.ClientHTTPHeartbeatSuccess.With(prometheus.Labels{"http_address": hc.root}).Inc()

		info, err := hc.FetchChainInfo(ctx)
		if err != nil {
			c.next++
			continue
		}

		// compute the latency metric
		actual := time.Now().UnixNano()
		expected := chain.TimeOfRound(info.Period, info.GenesisTime, result.Round()) * 1e9
		// the labels of the gauge vec must already be set at the registerer level
		metrics.ClientHTTPHeartbeatLatency.With(prometheus.Labels{"http_address": hc.root}).
			Set(float64(actual-expected) / float64(time.Millisecond))
		c.next++
	}
}
