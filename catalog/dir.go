package catalog

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/2x3systems/motifs/motif"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

//go:embed graphs/*.g6
var embeddedGraphs embed.FS

// Graph6Filename returns the catalog file name holding all connected skeletons with numNodes nodes.
func Graph6Filename(numNodes int) string {
	return fmt.Sprintf("graph%dc.g6", numNodes)
}

// Embedded returns the built-in catalog of connected non-isomorphic graphs for 3 to 7 nodes.
func Embedded() motif.Catalog {
	sub, err := fs.Sub(embeddedGraphs, "graphs")
	if err != nil {
		panic(err)
	}
	return FS(sub, logr.Discard())
}

// Dir returns a catalog reading graph{n}c.g6 files from the given directory.
func Dir(pathname string, log logr.Logger) motif.Catalog {
	return FS(os.DirFS(pathname), log)
}

// FS returns a catalog reading graph{n}c.g6 files from the root of fsys.
func FS(fsys fs.FS, log logr.Logger) motif.Catalog {
	return &fsCatalog{
		fsys: fsys,
		log:  log,
	}
}

type fsCatalog struct {
	fsys fs.FS
	log  logr.Logger
}

func (cat *fsCatalog) Skeletons(ctx context.Context, numNodes int) (*motif.SkeletonStream, error) {
	name := Graph6Filename(numNodes)
	file, err := cat.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(motif.ErrCatalogNotFound, "%d nodes (%s)", numNodes, name)
		}
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	cat.log.V(1).Info("reading skeleton catalog", "file", name)

	next := motif.NewSkeletonStream()

	go func() {
		defer file.Close()
		next.Close(readGraph6(ctx, file, numNodes, next))
	}()

	return next, nil
}

func (cat *fsCatalog) Close() error {
	return nil
}

// readGraph6 pushes each graph6 line of r to dst, failing on any graph not having numNodes nodes.
func readGraph6(ctx context.Context, r io.Reader, numNodes int, dst *motif.SkeletonStream) error {
	return scanGraph6(r, func(lineNum int, sk motif.Skeleton) error {
		if sk.NodeCount() != numNodes {
			return errors.Wrapf(motif.ErrBadGraph6, "line %d: expected %d nodes, got %d", lineNum, numNodes, sk.NodeCount())
		}
		if !dst.Push(ctx, sk) {
			return ctx.Err()
		}
		return nil
	})
}

// scanGraph6 calls onSkeleton for each graph6 line of r, skipping blank and header lines.
func scanGraph6(r io.Reader, onSkeleton func(lineNum int, sk motif.Skeleton) error) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(line) == 0 || line == graph6Header {
			continue
		}

		sk, err := ParseGraph6(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNum)
		}
		if err = onSkeleton(lineNum, sk); err != nil {
			return err
		}
	}
	return scanner.Err()
}
