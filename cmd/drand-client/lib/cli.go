package lib

import (
	"encoding/hex"
	nhttp "net/http"

	"github.com/urfave/cli/v2"

	"github.com/hydrogenbond007/drand-rs/client"
	"github.com/hydrogenbond007/drand-rs/client/http"
	"github.com/hydrogenbond007/drand-rs/log"
)

var (
	// URLFlag is the CLI flag for root URL(s) for fetching randomness.
	URLFlag = &cli.StringSliceFlag{
		Name:  "url",
		Usage: "root URL(s) for fetching randomness",
	}
	// HashFlag is the CLI flag for the hash (in hex) for the chain to follow.
	HashFlag = &cli.StringFlag{
		Name:    "hash",
		Usage:   "The hash (in hex) for the chain to follow",
		Aliases: []string{"chain-hash"},
	}
	// InsecureFlag is the CLI flag to allow autodetection of the chain
	// information.
	InsecureFlag = &cli.BoolFlag{
		Name:  "insecure",
		Usage: "Allow autodetection of the chain information",
	}
)

// ClientFlags is a list of common flags for client creation
var ClientFlags = []cli.Flag{
	URLFlag,
	HashFlag,
	InsecureFlag,
}

// Create builds a client, and can be invoked from a cli action supplied
// with ClientFlags
func Create(c *cli.Context, withInstrumentation bool, opts ...client.Option) (client.Client, error) {
	l := log.DefaultLogger()

	var hash []byte
	var err error
	if c.IsSet(HashFlag.Name) {
		hash, err = hex.DecodeString(c.String(HashFlag.Name))
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithChainHash(hash))
	}
	if c.Bool(InsecureFlag.Name) {
		opts = append(opts, client.Insecurely())
	}

	clients := make([]client.Client, 0)
	for _, url := range c.StringSlice(URLFlag.Name) {
		hc, err := http.New(c.Context, l, url, hash, nhttp.DefaultTransport)
		if err != nil {
			l.Warnw("", "client", "failed to load URL", "url", url, "err", err)
			continue
		}
		clients = append(clients, hc)
	}
	if withInstrumentation {
		http.MeasureHeartbeats(c.Context, clients)
	}

	return client.Wrap(clients, opts...)
}
