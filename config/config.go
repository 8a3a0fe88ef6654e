// Package config loads the motifs configuration: YAML file settings, then MOTIFS_* environment overrides.
//
// Example motifs.yaml:
//
//	store:
//	  kind: neo4j
//	  uri: bolt://localhost:7687
//	  username: neo4j
//	  password: secret
//	  query_timeout: 30s
//	catalog:
//	  db_path: ~/.motifs/catalog
//	generate:
//	  node_types: [Person, Company]
//	  edge: Person->Company
//	  nodes: 4
//	  limit: 100
//	  workers: 8
//	stats:
//	  null_probability: 0.5
//	log:
//	  verbosity: 1
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/2x3systems/motifs/motif"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Store kinds
const (
	StoreNeo4j    = "neo4j"    // session per query
	StoreMemgraph = "memgraph" // execute-and-fetch over one driver
	StoreMemory   = "memory"   // in-process graph loaded from GraphFile
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOTIFS_"

var ErrBadConfig = errors.New("bad config")

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Generate GenerateConfig `yaml:"generate"`
	Stats    StatsConfig    `yaml:"stats"`
	Log      LogConfig      `yaml:"log"`
}

type StoreConfig struct {
	Kind         string        `yaml:"kind"`
	URI          string        `yaml:"uri"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`      // empty selects the server default
	GraphFile    string        `yaml:"graph_file"`    // StoreMemory only
	QueryTimeout time.Duration `yaml:"query_timeout"` // 0 means no per-query timeout
}

type CatalogConfig struct {
	Dir    string `yaml:"dir"`     // directory of graph{n}c.g6 files
	DbPath string `yaml:"db_path"` // catalog db (see catalog.OpenDb)
}

type GenerateConfig struct {
	NodeTypes []string `yaml:"node_types"`
	Edge      string   `yaml:"edge"`
	Nodes     int      `yaml:"nodes"`
	Limit     int      `yaml:"limit"`
	Workers   int      `yaml:"workers"`
	MinEdges  int      `yaml:"min_edges"`
	MaxEdges  int      `yaml:"max_edges"`
}

type StatsConfig struct {
	NullProbability float64 `yaml:"null_probability"`
}

type LogConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:     StoreNeo4j,
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
		},
		Generate: GenerateConfig{
			Nodes:   motif.MinNodes,
			Limit:   motif.DefaultLimit,
			Workers: 1,
		},
		Stats: StatsConfig{
			NullProbability: motif.DefaultNullProbability,
		},
	}
}

// Load returns Defaults() overlaid with the given YAML file (if pathname is set) and then the process environment.
func Load(pathname string) (*Config, error) {
	cfg := Defaults()
	if len(pathname) > 0 {
		data, err := os.ReadFile(pathname)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err = cfg.Decode(data); err != nil {
			return nil, errors.Wrapf(err, "config %q", pathname)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays the given YAML onto this Config.  Unknown fields are an error.
func (cfg *Config) Decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrap(ErrBadConfig, err.Error())
	}
	return nil
}

// ApplyEnv overrides fields from MOTIFS_<SECTION>_<FIELD> variables found via lookup.
func (cfg *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	var err error
	str := func(key string, dst *string) {
		if val, ok := lookup(EnvPrefix + key); ok {
			*dst = val
		}
	}
	num := func(key string, dst *int) {
		if val, ok := lookup(EnvPrefix + key); ok && err == nil {
			n, errParse := strconv.Atoi(strings.TrimSpace(val))
			if errParse != nil {
				err = errors.Wrapf(ErrBadConfig, "%s%s=%q", EnvPrefix, key, val)
			} else {
				*dst = n
			}
		}
	}

	str("STORE_KIND", &cfg.Store.Kind)
	str("STORE_URI", &cfg.Store.URI)
	str("STORE_USERNAME", &cfg.Store.Username)
	str("STORE_PASSWORD", &cfg.Store.Password)
	str("STORE_DATABASE", &cfg.Store.Database)
	str("STORE_GRAPH_FILE", &cfg.Store.GraphFile)
	if val, ok := lookup(EnvPrefix + "STORE_QUERY_TIMEOUT"); ok {
		timeout, errParse := time.ParseDuration(strings.TrimSpace(val))
		if errParse != nil {
			return errors.Wrapf(ErrBadConfig, "%sSTORE_QUERY_TIMEOUT=%q", EnvPrefix, val)
		}
		cfg.Store.QueryTimeout = timeout
	}

	str("CATALOG_DIR", &cfg.Catalog.Dir)
	str("CATALOG_DB_PATH", &cfg.Catalog.DbPath)

	if val, ok := lookup(EnvPrefix + "GENERATE_NODE_TYPES"); ok {
		cfg.Generate.NodeTypes = SplitList(val)
	}
	str("GENERATE_EDGE", &cfg.Generate.Edge)
	num("GENERATE_NODES", &cfg.Generate.Nodes)
	num("GENERATE_LIMIT", &cfg.Generate.Limit)
	num("GENERATE_WORKERS", &cfg.Generate.Workers)
	num("GENERATE_MIN_EDGES", &cfg.Generate.MinEdges)
	num("GENERATE_MAX_EDGES", &cfg.Generate.MaxEdges)

	if val, ok := lookup(EnvPrefix + "STATS_NULL_PROBABILITY"); ok {
		p, errParse := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if errParse != nil {
			return errors.Wrapf(ErrBadConfig, "%sSTATS_NULL_PROBABILITY=%q", EnvPrefix, val)
		}
		cfg.Stats.NullProbability = p
	}

	num("LOG_VERBOSITY", &cfg.Log.Verbosity)
	return err
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(list string) []string {
	parts := strings.Split(list, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks this Config for settings that cannot work together.
func (cfg *Config) Validate() error {
	switch cfg.Store.Kind {
	case StoreNeo4j, StoreMemgraph:
		if len(cfg.Store.URI) == 0 {
			return errors.Wrapf(ErrBadConfig, "store kind %q requires a uri", cfg.Store.Kind)
		}
	case StoreMemory:
	default:
		return errors.Wrapf(motif.ErrUnknownStore, "%q", cfg.Store.Kind)
	}
	if cfg.Store.QueryTimeout < 0 {
		return errors.Wrap(ErrBadConfig, "store.query_timeout is negative")
	}

	if len(cfg.Catalog.Dir) > 0 && len(cfg.Catalog.DbPath) > 0 {
		return errors.Wrap(ErrBadConfig, "catalog.dir and catalog.db_path are mutually exclusive")
	}

	if cfg.Generate.Nodes < 1 {
		return errors.Wrapf(ErrBadConfig, "generate.nodes is %d", cfg.Generate.Nodes)
	}
	if cfg.Generate.Workers < 0 {
		return errors.Wrapf(ErrBadConfig, "generate.workers is %d", cfg.Generate.Workers)
	}
	if cfg.Generate.MaxEdges > 0 && cfg.Generate.MaxEdges < cfg.Generate.MinEdges {
		return errors.Wrap(ErrBadConfig, "generate.max_edges is less than generate.min_edges")
	}
	for _, nodeType := range cfg.Generate.NodeTypes {
		if len(nodeType) == 0 {
			return errors.Wrap(motif.ErrBadNodeType, "generate.node_types has an empty entry")
		}
	}
	if len(cfg.Generate.Edge) > 0 {
		if _, err := motif.ParsePredictedEdge(cfg.Generate.Edge); err != nil {
			return err
		}
	}

	if p := cfg.Stats.NullProbability; p < 0 || p > 1 {
		return errors.Wrapf(motif.ErrBadProbability, "stats.null_probability is %v", p)
	}
	return nil
}

// String returns a summary safe for logging (the store password is omitted).
func (cfg *Config) String() string {
	return fmt.Sprintf(
		"Config{Store: %s %s, Catalog: %q/%q, Generate: %v %q n=%d limit=%d workers=%d, NullP: %v}",
		cfg.Store.Kind, cfg.Store.URI,
		cfg.Catalog.Dir, cfg.Catalog.DbPath,
		cfg.Generate.NodeTypes, cfg.Generate.Edge, cfg.Generate.Nodes, cfg.Generate.Limit, cfg.Generate.Workers,
		cfg.Stats.NullProbability,
	)
}
