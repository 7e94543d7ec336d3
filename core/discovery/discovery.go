// Package discovery walks a directory tree looking for MBTiles files and
// opens each one into a fresh registry.Snapshot.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/logger"

	"github.com/tarkov-database/mbtileserver/core/mbtiles"
	"github.com/tarkov-database/mbtileserver/core/registry"
)

const fileExtension = ".mbtiles"

// Discover walks root depth-first, opening every regular file with a
// .mbtiles extension concurrently. Invalid files are warn-logged and
// skipped rather than aborting the walk. poolSize is forwarded to
// mbtiles.Open for each tileset. Duplicate ids (two files resolving to the
// same id) resolve last-wins in filesystem walk order, with a warning.
func Discover(ctx context.Context, root string, poolSize int) (registry.Snapshot, error) {
	candidates, err := findMBTiles(root)
	if err != nil {
		return nil, fmt.Errorf("reading tileset directory failed: %w", err)
	}

	opened := make([]*mbtiles.TileMeta, len(candidates))
	wg := &sync.WaitGroup{}

	for i, c := range candidates {
		wg.Add(1)
		go func(i int, path, id string) {
			defer wg.Done()
			tm, err := mbtiles.Open(ctx, path, id, poolSize)
			if err != nil {
				logger.Warningf("skipping tileset %q: %v", path, err)
				return
			}
			opened[i] = tm
		}(i, c.path, c.id)
	}
	wg.Wait()

	snap := registry.Snapshot{}
	for i, tm := range opened {
		if tm == nil {
			continue
		}
		if prev, exists := snap[candidates[i].id]; exists {
			logger.Warningf("duplicate tileset id %q: %s overrides %s", candidates[i].id, tm.Path, prev.Path)
			prev.Close()
		}
		snap[candidates[i].id] = tm
	}

	logger.Infof("%d tileset(s) discovered under %s", len(snap), root)

	return snap, nil
}

type candidate struct {
	path string
	id   string
}

// findMBTiles performs the recursive directory walk and derives each
// file's logical id by joining directory stems with "/" and appending the
// file stem (no extension), matching the URL id grammar used by the router.
func findMBTiles(root string) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(d.Name()) != fileExtension {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(rel, fileExtension)
		id := filepath.ToSlash(rel)

		out = append(out, candidate{path: path, id: id})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
