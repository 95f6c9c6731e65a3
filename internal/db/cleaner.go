package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const deleteOrphans = `
DELETE FROM qr_codes q
 WHERE NOT EXISTS (SELECT 1 FROM user_qr uq WHERE uq.qr_id = q.id)
RETURNING q.id`

// RemoveOrphanQrCodes deletes QR codes that no user owns any more and
// returns their ids.
func RemoveOrphanQrCodes(ctx context.Context, db *sql.DB) ([]int64, error) {
	rows, err := db.QueryContext(ctx, deleteOrphans)
	if err != nil {
		return nil, fmt.Errorf("delete orphans: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// StartOrphanCleaner removes ownerless QR codes every interval until ctx is
// done. onRemoved, if set, receives the ids deleted by each sweep.
func StartOrphanCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
	onRemoved func(ids []int64),
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ids, err := RemoveOrphanQrCodes(ctx, db)
				if err != nil {
					log.Error("failed to clean orphan qr codes", zap.Error(err))
					continue
				}
				if len(ids) > 0 {
					log.Info("cleaned orphan qr codes", zap.Int("removed", len(ids)))
					if onRemoved != nil {
						onRemoved(ids)
					}
				}
			}
		}
	}()
}
