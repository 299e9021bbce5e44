package mediastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateAsset persists an asset and its stored files in one transaction and
// fills in the generated row ids.
func (s *Store) CreateAsset(ctx context.Context, asset *MediaAsset) error {
	ctx = ensureContext(ctx)
	if asset == nil {
		return errors.New("asset is nil")
	}
	if asset.AssetID == "" {
		return errors.New("asset identifier is required")
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin asset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO media_assets (asset_id, game_id, kind, original_file_name, capture_time, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		asset.AssetID,
		nullableInt64(asset.GameID),
		asset.Kind,
		asset.OriginalFileName,
		asset.CaptureTime.UTC().Format(time.RFC3339Nano),
		asset.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("asset row id: %w", err)
	}
	asset.ID = rowID

	for _, file := range asset.Files {
		fileRes, err := tx.ExecContext(
			ctx,
			`INSERT INTO stored_files (asset_row_id, purpose, size_variant, extension, content_type)
             VALUES (?, ?, ?, ?, ?)`,
			rowID,
			file.Purpose,
			file.SizeVariant,
			file.Extension,
			nullableString(file.ContentType),
		)
		if err != nil {
			return fmt.Errorf("insert stored file %s: %w", file.RemoteKey(), err)
		}
		file.AssetRowID = rowID
		file.AssetID = asset.AssetID
		if file.ID, err = fileRes.LastInsertId(); err != nil {
			return fmt.Errorf("stored file row id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit asset: %w", err)
	}
	return nil
}

// AssetExists reports whether an asset already exists for an original
// filename within a game. This is the worker's unit-level idempotency check.
func (s *Store) AssetExists(ctx context.Context, originalFileName string, gameID *int64) (bool, error) {
	ctx = ensureContext(ctx)
	query := `SELECT COUNT(1) FROM media_assets WHERE original_file_name = ?`
	args := []any{originalFileName}
	if gameID == nil {
		query += ` AND game_id IS NULL`
	} else {
		query += ` AND game_id = ?`
		args = append(args, *gameID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("asset exists: %w", err)
	}
	return count > 0, nil
}

// GetAssetByFileName fetches the asset created for an original filename
// within a game, with files loaded, or nil when none exists.
func (s *Store) GetAssetByFileName(ctx context.Context, originalFileName string, gameID *int64) (*MediaAsset, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + assetColumns + ` FROM media_assets WHERE original_file_name = ?`
	args := []any{originalFileName}
	if gameID == nil {
		query += ` AND game_id IS NULL`
	} else {
		query += ` AND game_id = ?`
		args = append(args, *gameID)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by filename: %w", err)
	}
	if err := s.loadFiles(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset fetches an asset and its stored files by asset identifier, or nil
// when it does not exist.
func (s *Store) GetAsset(ctx context.Context, assetID string) (*MediaAsset, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM media_assets WHERE asset_id = ?`, assetID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	if err := s.loadFiles(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *Store) loadFiles(ctx context.Context, asset *MediaAsset) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM stored_files f
         JOIN media_assets a ON a.id = f.asset_row_id
         WHERE f.asset_row_id = ? ORDER BY f.id`,
		asset.ID,
	)
	if err != nil {
		return fmt.Errorf("load stored files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return err
		}
		asset.Files = append(asset.Files, file)
	}
	return rows.Err()
}

// AddStoredFile appends a file variant to an existing asset.
func (s *Store) AddStoredFile(ctx context.Context, asset *MediaAsset, file *StoredFile) error {
	ctx = ensureContext(ctx)
	if asset == nil || file == nil {
		return errors.New("asset and file are required")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO stored_files (asset_row_id, purpose, size_variant, extension, content_type)
         VALUES (?, ?, ?, ?, ?)`,
		asset.ID,
		file.Purpose,
		file.SizeVariant,
		file.Extension,
		nullableString(file.ContentType),
	)
	if err != nil {
		return fmt.Errorf("add stored file: %w", err)
	}
	file.AssetRowID = asset.ID
	file.AssetID = asset.AssetID
	if file.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("stored file row id: %w", err)
	}
	asset.Files = append(asset.Files, file)
	return nil
}

// SetFileContentType records the content type for one stored file.
func (s *Store) SetFileContentType(ctx context.Context, fileID int64, contentType string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE stored_files SET content_type = ? WHERE id = ?`,
		nullableString(contentType),
		fileID,
	)
	if err != nil {
		return fmt.Errorf("set content type: %w", err)
	}
	return nil
}

// FilesMissingContentType returns stored files whose content type has not
// been recorded yet.
func (s *Store) FilesMissingContentType(ctx context.Context) ([]*StoredFile, error) {
	return s.queryFiles(
		ctx,
		`SELECT `+fileColumns+` FROM stored_files f
         JOIN media_assets a ON a.id = f.asset_row_id
         WHERE f.content_type IS NULL OR f.content_type = ''
         ORDER BY f.id`,
	)
}

// FilesWithContentType returns stored files matching an extension and
// recorded content type. Used to find known-bad signatures such as .mov
// objects stored as binary/octet-stream.
func (s *Store) FilesWithContentType(ctx context.Context, extension, contentType string) ([]*StoredFile, error) {
	return s.queryFiles(
		ctx,
		`SELECT `+fileColumns+` FROM stored_files f
         JOIN media_assets a ON a.id = f.asset_row_id
         WHERE f.extension = ? AND f.content_type = ?
         ORDER BY f.id`,
		extension,
		contentType,
	)
}

func (s *Store) queryFiles(ctx context.Context, query string, args ...any) ([]*StoredFile, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stored files: %w", err)
	}
	defer rows.Close()

	var files []*StoredFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// AssetsNeedingAlternates returns up to limit assets whose originals are in a
// problematic format (HEIC or QuickTime) and which have fewer alternates than
// originals. Files are loaded for each returned asset.
func (s *Store) AssetsNeedingAlternates(ctx context.Context, limit int) ([]*MediaAsset, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+assetColumns+` FROM media_assets
         WHERE EXISTS (
             SELECT 1 FROM stored_files f
             WHERE f.asset_row_id = media_assets.id
               AND f.content_type IN ('image/heic', 'video/quicktime')
         )
         AND (SELECT COUNT(1) FROM stored_files f
              WHERE f.asset_row_id = media_assets.id AND f.purpose = ?)
           < (SELECT COUNT(1) FROM stored_files f
              WHERE f.asset_row_id = media_assets.id AND f.purpose = ?)
         ORDER BY media_assets.id
         LIMIT ?`,
		PurposeAlternate,
		PurposeOriginal,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("assets needing alternates: %w", err)
	}
	defer rows.Close()

	var assets []*MediaAsset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if err := s.loadFiles(ctx, asset); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// UnitsForCleanup returns units whose local source files can be removed:
// not yet purged, and either individually processed or belonging to a task
// that reached a terminal status.
func (s *Store) UnitsForCleanup(ctx context.Context) ([]*MediaUnit, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+unitColumns+` FROM media_units
         WHERE files_purged = 0
           AND (processed = 1 OR task_id IN (
               SELECT id FROM import_tasks WHERE status IN (?, ?)
           ))
         ORDER BY id`,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("units for cleanup: %w", err)
	}
	defer rows.Close()

	var units []*MediaUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// SourcePathReferenced reports whether any unprocessed unit still points at a
// local path. The orphan sweep must not delete such files.
func (s *Store) SourcePathReferenced(ctx context.Context, path string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM media_units
         WHERE processed = 0 AND (photo_path = ? OR video_path = ?)`,
		path,
		path,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("source path referenced: %w", err)
	}
	return count > 0, nil
}

const assetColumns = "id, asset_id, game_id, kind, original_file_name, capture_time, created_at"

const fileColumns = "f.id, f.asset_row_id, a.asset_id, f.purpose, f.size_variant, f.extension, f.content_type"

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*MediaAsset, error) {
	var (
		id         int64
		assetID    string
		gameID     sql.NullInt64
		kindStr    string
		fileName   string
		captureRaw sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &assetID, &gameID, &kindStr, &fileName, &captureRaw, &createdRaw); err != nil {
		return nil, err
	}

	asset := &MediaAsset{
		ID:               id,
		AssetID:          assetID,
		Kind:             Kind(kindStr),
		OriginalFileName: fileName,
	}
	if gameID.Valid {
		v := gameID.Int64
		asset.GameID = &v
	}
	if capture, err := parseTimeString(captureRaw.String); err == nil {
		asset.CaptureTime = capture
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		asset.CreatedAt = created
	}
	return asset, nil
}

func scanFile(scanner interface{ Scan(dest ...any) error }) (*StoredFile, error) {
	var (
		id          int64
		assetRowID  int64
		assetID     string
		purposeStr  string
		sizeStr     string
		extension   string
		contentType sql.NullString
	)

	if err := scanner.Scan(&id, &assetRowID, &assetID, &purposeStr, &sizeStr, &extension, &contentType); err != nil {
		return nil, err
	}

	return &StoredFile{
		ID:          id,
		AssetRowID:  assetRowID,
		AssetID:     assetID,
		Purpose:     Purpose(purposeStr),
		SizeVariant: SizeVariant(sizeStr),
		Extension:   extension,
		ContentType: contentType.String,
	}, nil
}
