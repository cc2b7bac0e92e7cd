package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/domain/documents/bol"
)

// CompressionAlgo specifies the compression algorithm used for a snapshot.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditSnapshot is an immutable record of a BOL at the moment of completion.
// Signature images make some snapshots large, so bodies over the threshold
// are stored zstd-compressed.
type AuditSnapshot struct {
	ID                 id.ID           `db:"id"`
	BolID              id.ID           `db:"bol_id"`
	BolNumber          string          `db:"bol_number"`
	UserID             string          `db:"user_id"`
	UserEmail          string          `db:"user_email"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditStore persists completion snapshots.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates a new audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// RecordCompletion stores a full snapshot of the completed BOL.
func (s *AuditStore) RecordCompletion(ctx context.Context, b *bol.BOL) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bol snapshot: %w", err)
	}

	entry := AuditSnapshot{
		ID:              id.New(),
		BolID:           b.ID,
		BolNumber:       b.Number,
		Snapshot:        body,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if user := security.GetUser(ctx); user != nil {
		entry.UserID = user.UserID
		entry.UserEmail = user.Email
	}

	if len(body) > s.compressThreshold {
		entry.SnapshotCompressed = s.encoder.EncodeAll(body, nil)
		entry.Snapshot = nil
		entry.CompressionAlgo = CompressionZstd
	}

	const sql = `
		INSERT INTO sys_completion_audit (
			id, bol_id, bol_number, user_id, user_email,
			snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.BolID, entry.BolNumber, entry.UserID, entry.UserEmail,
		entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert completion snapshot: %w", err)
	}

	return nil
}

// History returns snapshots for a BOL, newest first, decompressed.
func (s *AuditStore) History(ctx context.Context, bolID id.ID, limit int) ([]AuditSnapshot, error) {
	const sql = `
		SELECT id, bol_id, bol_number, user_id, user_email,
		       snapshot, snapshot_compressed, compression_algo, created_at
		FROM sys_completion_audit
		WHERE bol_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, bolID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var entries []AuditSnapshot
	for rows.Next() {
		var e AuditSnapshot
		err := rows.Scan(
			&e.ID, &e.BolID, &e.BolNumber, &e.UserID, &e.UserEmail,
			&e.Snapshot, &e.SnapshotCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.SnapshotCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.SnapshotCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot: %w", err)
			}
			e.Snapshot = decompressed
			e.SnapshotCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

var _ bol.CompletionAuditor = (*AuditStore)(nil)
