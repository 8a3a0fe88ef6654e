package catalog

import (
	"context"
	"encoding/binary"
	"io"
	"runtime"

	"github.com/2x3systems/motifs/motif"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

/***

Catalog database format:

	gStateKey => dbState (protobuf)

	kSkeletonEntry, Nv (byte), SeqID (uint32 BE)     => graph6 encoding
	...

	kGraph6Index, graph6 encoding                     => Nv (byte)
	...

The above structure allows to:
	1) enumerate all skeletons for a given Nv in the order they were added (which is the source catalog order)
	2) check if a given skeleton has already been added

***/

const (
	kSkeletonEntry byte = 0x01
	kGraph6Index   byte = 0x02

	// MaxDbNodes is the largest node count a catalog db will index.
	MaxDbNodes = 16
)

var (
	gStateKey = []byte{0x00, 0x00, 0x01}
)

// DbOpts specifies params for opening a catalog db
type DbOpts struct {
	DbPathName string      // omit for an in-memory db
	ReadOnly   bool        // open in read-only mode
	Log        logr.Logger // zero value discards
}

// Db is a badger-backed skeleton catalog.  Skeletons are added via TryAddSkeleton or the Import* helpers.
type Db struct {
	readOnly   bool
	stateDirty bool
	state      dbState
	db         *badger.DB
	log        logr.Logger
}

var _ motif.Catalog = (*Db)(nil)

// OpenDb opens (or creates) a catalog db.
func OpenDb(opts DbOpts) (*Db, error) {
	cat := &Db{
		readOnly: opts.ReadOnly,
		log:      opts.Log,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single writer
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(motif.ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog db %q", opts.DbPathName)
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !cat.readOnly
		cat.state.MajorVers = kMajorVers
		cat.state.MinorVers = kMinorVers
		cat.state.NumSkeletons = make([]uint64, MaxDbNodes+1)
	}

	if err == nil && (cat.state.MajorVers != kMajorVers || cat.state.MinorVers != kMinorVers) {
		err = errors.Wrapf(motif.ErrBadCatalogParam, "catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}
	for len(cat.state.NumSkeletons) <= MaxDbNodes {
		cat.state.NumSkeletons = append(cat.state.NumSkeletons, 0)
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	cat.log.Info("opened skeleton catalog", "path", opts.DbPathName, "readOnly", cat.readOnly)
	return cat, nil
}

// IsReadOnly returns true if this catalog was opened for read-only access.
func (cat *Db) IsReadOnly() bool {
	return cat.readOnly
}

// NumSkeletons returns the number of skeletons held for the given node count.
func (cat *Db) NumSkeletons(numNodes int) int64 {
	if numNodes < 0 || numNodes >= len(cat.state.NumSkeletons) {
		return 0
	}
	return int64(cat.state.NumSkeletons[numNodes])
}

// Sizes returns each node count this catalog holds skeletons for, ascending.
func (cat *Db) Sizes() []int {
	var sizes []int
	for n, count := range cat.state.NumSkeletons {
		if count > 0 {
			sizes = append(sizes, n)
		}
	}
	return sizes
}

func (cat *Db) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cat.state.decode(val)
		})
	})
}

func (cat *Db) writeState(txn *badger.Txn) error {
	stateBuf, err := cat.state.encode()
	if err != nil {
		return err
	}
	return txn.Set(gStateKey, stateBuf)
}

func (cat *Db) flushState() error {
	if !cat.stateDirty || cat.db == nil {
		return nil
	}
	err := cat.db.Update(cat.writeState)
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

func (cat *Db) Close() error {
	var err error
	if cat.db != nil {
		err = cat.flushState()
		if errClose := cat.db.Close(); err == nil {
			err = errClose
		}
		cat.db = nil
	}
	return err
}

func formEntryKey(numNodes int, seqID uint64) []byte {
	key := make([]byte, 2, 6)
	key[0] = kSkeletonEntry
	key[1] = byte(numNodes)
	return binary.BigEndian.AppendUint32(key, uint32(seqID))
}

func formIndexKey(g6 string) []byte {
	key := make([]byte, 0, 1+len(g6))
	key = append(key, kGraph6Index)
	return append(key, g6...)
}

// TryAddSkeleton adds the given skeleton if it is not already present (by its graph6 encoding).
//
// If true is returned, sk was not present and was appended to the catalog for its node count.
func (cat *Db) TryAddSkeleton(sk *motif.Skeleton) (bool, error) {
	if cat.readOnly {
		return false, motif.ErrReadOnly
	}
	Nv := sk.NodeCount()
	if Nv < 1 || Nv > MaxDbNodes {
		return false, errors.Wrapf(motif.ErrBadCatalogParam, "skeleton has %d nodes", Nv)
	}

	g6 := sk.Graph6
	if len(g6) == 0 {
		g6 = EncodeGraph6(sk)
	}
	indexKey := formIndexKey(g6)

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	_, err := txn.Get(indexKey)
	if err == nil {
		return false, nil
	} else if err != badger.ErrKeyNotFound {
		return false, err
	}

	seqID := cat.state.NumSkeletons[Nv] + 1
	cat.state.NumSkeletons[Nv] = seqID

	err = txn.Set(indexKey, []byte{byte(Nv)})
	if err == nil {
		err = txn.Set(formEntryKey(Nv, seqID), []byte(g6))
	}
	if err == nil {
		err = cat.writeState(txn)
	}
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		cat.state.NumSkeletons[Nv] = seqID - 1
		return false, err
	}
	return true, nil
}

// ImportGraph6 adds every graph6 line read from r, returning how many were new.
func (cat *Db) ImportGraph6(r io.Reader) (added int, err error) {
	err = scanGraph6(r, func(lineNum int, sk motif.Skeleton) error {
		wasAdded, err := cat.TryAddSkeleton(&sk)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNum)
		}
		if wasAdded {
			added++
		}
		return nil
	})
	return added, err
}

// ImportFrom copies the skeletons of each given node count from src, preserving src's order.
//
// Node counts src has no catalog for are skipped.
func (cat *Db) ImportFrom(ctx context.Context, src motif.Catalog, sizes ...int) (added int, err error) {
	for _, Nv := range sizes {
		stream, err := src.Skeletons(ctx, Nv)
		if errors.Is(err, motif.ErrCatalogNotFound) {
			cat.log.Info("no source catalog", "nodes", Nv)
			continue
		}
		if err != nil {
			return added, err
		}

		addedNv := 0
		for sk := range stream.Outlet {
			if err == nil {
				var wasAdded bool
				wasAdded, err = cat.TryAddSkeleton(&sk)
				if wasAdded {
					addedNv++
				}
			}
		}
		if err == nil {
			err = stream.Err()
		}
		added += addedNv
		if err != nil {
			return added, err
		}
		cat.log.Info("imported skeletons", "nodes", Nv, "added", addedNv, "total", cat.NumSkeletons(Nv))
	}
	return added, nil
}

// Skeletons streams every skeleton for the given node count in the order they were added.
func (cat *Db) Skeletons(ctx context.Context, numNodes int) (*motif.SkeletonStream, error) {
	if cat.NumSkeletons(numNodes) == 0 {
		return nil, errors.Wrapf(motif.ErrCatalogNotFound, "%d nodes", numNodes)
	}

	next := motif.NewSkeletonStream()

	go func() {
		next.Close(cat.selectSkeletons(ctx, numNodes, next))
	}()

	return next, nil
}

func (cat *Db) selectSkeletons(ctx context.Context, numNodes int, dst *motif.SkeletonStream) error {
	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	prefix := [2]byte{kSkeletonEntry, byte(numNodes)}
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         prefix[:],
	})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var sk motif.Skeleton
		err := it.Item().Value(func(val []byte) error {
			var err error
			sk, err = ParseGraph6(string(val))
			return err
		})
		if err != nil {
			return err
		}
		if !dst.Push(ctx, sk) {
			return ctx.Err()
		}
	}
	return nil
}
