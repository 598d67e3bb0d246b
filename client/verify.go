package client

import (
	"context"
	"fmt"

	"github.com/hydrogenbond007/drand-rs/chain"
	"github.com/hydrogenbond007/drand-rs/log"
)

// newVerifyingClient wraps a client to check every emitted result with chain.Verifier.
func newVerifyingClient(c Client, l log.Logger) *verifyingClient {
	return &verifyingClient{
		Client:         c,
		indirectClient: c,
		verifier:       chain.NewVerifier(),
		log:            l,
	}
}

type verifyingClient struct {
	// Client is the wrapped client. calls to `get` and `watch` return results proxied from this client's fetch
	Client

	// indirectClient is used to fetch the chain info needed for verification.
	// it is separated so that it can provide a cache or shared pool that the direct client may not.
	indirectClient Client

	verifier *chain.Verifier

	log log.Logger
}

// SetLog configures the client log output.
func (v *verifyingClient) SetLog(l log.Logger) {
	v.log = l
}

// Get returns a requested round of randomness, rejecting rounds that do not verify.
func (v *verifyingClient) Get(ctx context.Context, round uint64) (Result, error) {
	info, err := v.indirectClient.Info(ctx)
	if err != nil {
		return nil, err
	}
	r, err := v.Client.Get(ctx, round)
	if err != nil {
		return nil, err
	}
	rd := asRandomData(r)
	if err := v.verify(info, rd); err != nil {
		return nil, err
	}
	return rd, nil
}

// Watch returns new randomness as it becomes available. Rounds failing verification are dropped.
func (v *verifyingClient) Watch(ctx context.Context) <-chan Result {
	outCh := make(chan Result, 1)

	info, err := v.indirectClient.Info(ctx)
	if err != nil {
		v.log.Errorw("", "verifying_client", "could not get info", "err", err)
		close(outCh)
		return outCh
	}

	inCh := v.Client.Watch(ctx)
	go func() {
		defer close(outCh)
		for r := range inCh {
			if err := v.verify(info, asRandomData(r)); err != nil {
				v.log.Warnw("", "verifying_client", "skipping invalid watch round", "round", r.Round(), "err", err)
				continue
			}
			outCh <- r
		}
	}()
	return outCh
}

type resultWithPreviousSignature interface {
	GetPreviousSignature() []byte
}

func asRandomData(r Result) *RandomData {
	rd, ok := r.(*RandomData)
	if ok {
		return rd
	}
	rd = &RandomData{
		Rnd:    r.Round(),
		Random: r.Randomness(),
		Sig:    r.Signature(),
	}
	if rp, ok := r.(resultWithPreviousSignature); ok {
		rd.PreviousSignature = rp.GetPreviousSignature()
	}

	return rd
}

func (v *verifyingClient) verify(info *chain.Info, r *RandomData) error {
	b := r.Beacon()
	ok, err := v.verifier.Verify(b, info)
	if err != nil {
		return fmt.Errorf("verifying beacon: %w", err)
	}
	if !ok {
		return fmt.Errorf("beacon for round %d does not validate against chain %s", r.Rnd, info.HashString())
	}
	return nil
}

// String returns the name of this client.
func (v *verifyingClient) String() string {
	return fmt.Sprintf("%s.(+verifier)", v.Client)
}
