// Package bolt implements motif.Store over the Bolt protocol (Neo4j, Memgraph).
package bolt

import (
	"context"
	"time"

	"github.com/2x3systems/motifs/motif"
	"github.com/go-logr/logr"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
)

// Mode selects how a Client issues queries.
type Mode int

const (

	// SessionPerQuery opens a read session for each query and collects its result (Neo4j).
	SessionPerQuery Mode = iota

	// ExecuteAndFetch issues each query through the driver's managed execute call (Memgraph).
	ExecuteAndFetch
)

func (mode Mode) String() string {
	switch mode {
	case SessionPerQuery:
		return "session-per-query"
	case ExecuteAndFetch:
		return "execute-and-fetch"
	}
	return "unknown"
}

// Opts specifies how to connect to a Bolt server.
type Opts struct {
	Mode         Mode
	URI          string
	Username     string
	Password     string
	Database     string        // empty selects the server default
	QueryTimeout time.Duration // 0 means none
	Log          logr.Logger   // zero value discards
}

// Client is a motif.Store over a Bolt driver.  It is safe for concurrent use.
type Client struct {
	driver neo4j.DriverWithContext
	opts   Opts
}

var _ motif.Store = (*Client)(nil)

// Open creates a driver for the given server and verifies it can be reached.
func Open(ctx context.Context, opts Opts) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, errors.Wrapf(err, "creating bolt driver for %q", opts.URI)
	}
	if err = driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.Wrapf(err, "connecting to %q", opts.URI)
	}

	opts.Log.Info("connected", "uri", opts.URI, "database", opts.Database, "mode", opts.Mode.String())
	return &Client{
		driver: driver,
		opts:   opts,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// Query runs the given query, returning records with driver-native values.
//
// Driver errors are returned as-is.
func (c *Client) Query(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		records []*neo4j.Record
		err     error
	)
	switch c.opts.Mode {
	case ExecuteAndFetch:
		records, err = c.executeAndFetch(ctx, query, params)
	default:
		records, err = c.sessionRun(ctx, query, params)
	}
	if err != nil {
		return nil, err
	}

	out := make([]motif.Record, len(records))
	for i, ri := range records {
		out[i] = ri.AsMap()
	}
	c.opts.Log.V(2).Info("query", "query", query, "records", len(out))
	return out, nil
}

func (c *Client) sessionRun(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.opts.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (c *Client) executeAndFetch(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	settings := []neo4j.ExecuteQueryConfigurationOption{
		neo4j.ExecuteQueryWithReadersRouting(),
	}
	if len(c.opts.Database) > 0 {
		settings = append(settings, neo4j.ExecuteQueryWithDatabase(c.opts.Database))
	}

	res, err := neo4j.ExecuteQuery(ctx, c.driver, query, params, neo4j.EagerResultTransformer, settings...)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// QueryAsJSON runs the given query and returns records holding only JSON-compatible values (see Flatten).
func (c *Client) QueryAsJSON(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	records, err := c.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		for k, v := range rec {
			rec[k] = Flatten(v)
		}
	}
	return motif.NormalizeRecords(records)
}

// Close closes the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
