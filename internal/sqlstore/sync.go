package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/storage"
)

// importOrder lists kinds so that ingredient rows exist before stores
// assign them.
var importOrder = []recipefile.Kind{recipefile.KindIngredients, recipefile.KindStore, recipefile.KindRecipe}

// Sync walks the vault and brings the catalog up to date:
//   - new/changed files are parsed and imported
//   - files removed from disk are deleted from the catalog
//   - composition cycles are logged
func Sync(ctx context.Context, db Index, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	byKind := make(map[recipefile.Kind][]models.FileMetadata)
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		kind := recipefile.KindOf(m.Path)
		if kind == recipefile.KindUnknown {
			continue
		}
		disk[m.Path] = struct{}{}
		byKind[kind] = append(byKind[kind], m)
	}

	for _, kind := range importOrder {
		for _, m := range byKind[kind] {
			if checksums[m.Path] == m.Checksum {
				continue
			}
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			if err := IndexFile(ctx, db, m.Path, data); err != nil {
				logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: imported", slog.String("path", m.Path))
			}
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePath(ctx, p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	ReportCycles(ctx, db, logger)
	return nil
}

// IndexFile parses data according to the kind of path and imports it.
func IndexFile(ctx context.Context, db Index, path string, data []byte) error {
	cs := storage.Checksum(data)
	switch recipefile.KindOf(path) {
	case recipefile.KindIngredients:
		doc, err := recipefile.ParseIngredients(data)
		if err != nil {
			return err
		}
		return db.ImportIngredients(ctx, path, cs, doc)
	case recipefile.KindRecipe:
		doc, err := recipefile.ParseRecipe(data)
		if err != nil {
			return err
		}
		_, err = db.ImportRecipe(ctx, path, cs, doc)
		return err
	case recipefile.KindStore:
		doc, err := recipefile.ParseStore(data)
		if err != nil {
			return err
		}
		_, err = db.ImportStore(ctx, path, cs, doc)
		return err
	}
	return fmt.Errorf("sqlstore: not a vault document: %s", path)
}

// ReportCycles logs each composition loop as a warning.
func ReportCycles(ctx context.Context, db Index, logger *slog.Logger) {
	cycles, err := db.FindCycles(ctx)
	if err != nil {
		logger.Warn("sync: cycle check failed", slog.String("error", err.Error()))
		return
	}
	for _, c := range cycles {
		logger.Warn("sync: recipe composition cycle", slog.String("cycle", strings.Join(c, " -> ")))
	}
}
