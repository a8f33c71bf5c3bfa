package index

import (
	"log/slog"

	"github.com/starford/vitrine/internal/checksum"
	"github.com/starford/vitrine/internal/models"
)

// Sync brings the mirror up to date with a newest-first snapshot. It is a
// no-op when the stored checksum already matches. It reports whether the
// mirror was rewritten.
func Sync(db CatalogIndex, sum string, records []models.Record, logger *slog.Logger) (bool, error) {
	current, err := db.SnapshotChecksum()
	if err != nil {
		return false, err
	}
	if current == sum {
		logger.Debug("sync: snapshot unchanged", slog.String("checksum", checksum.Short(sum)))
		return false, nil
	}
	if err := db.ReplaceSnapshot(sum, records); err != nil {
		logger.Warn("sync: replace failed", slog.String("error", err.Error()))
		return false, err
	}
	logger.Info("sync: mirrored snapshot",
		slog.String("checksum", checksum.Short(sum)),
		slog.Int("records", len(records)))
	return true, nil
}
