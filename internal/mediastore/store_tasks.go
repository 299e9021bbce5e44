package mediastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTask atomically creates an import task and its units in queued state.
func (s *Store) NewTask(ctx context.Context, gameID *int64, units []*MediaUnit) (*ImportTask, error) {
	ctx = ensureContext(ctx)
	if len(units) == 0 {
		return nil, errors.New("task requires at least one unit")
	}
	for _, unit := range units {
		if err := validateUnit(unit); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin task tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO import_tasks (id, game_id, status, attempts, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?)`,
		id,
		nullableInt64(gameID),
		StatusQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	for i, unit := range units {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO media_units (
                task_id, position, base_name, kind,
                photo_path, photo_name, video_path, video_name
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			i,
			unit.BaseName,
			unit.Kind,
			nullableString(unit.PhotoPath),
			nullableString(unit.PhotoName),
			nullableString(unit.VideoPath),
			nullableString(unit.VideoName),
		)
		if err != nil {
			return nil, fmt.Errorf("insert unit %q: %w", unit.BaseName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return s.GetTask(ctx, id)
}

func validateUnit(unit *MediaUnit) error {
	if unit == nil {
		return errors.New("unit is nil")
	}
	if unit.BaseName == "" {
		return errors.New("unit base name is required")
	}
	switch unit.Kind {
	case KindPhoto:
		if unit.PhotoPath == "" || unit.PhotoName == "" {
			return fmt.Errorf("photo unit %q must have a photo path and name", unit.BaseName)
		}
	case KindVideo:
		if unit.VideoPath == "" || unit.VideoName == "" {
			return fmt.Errorf("video unit %q must have a video path and name", unit.BaseName)
		}
	case KindLivePhoto:
		if unit.PhotoPath == "" || unit.PhotoName == "" || unit.VideoPath == "" || unit.VideoName == "" {
			return fmt.Errorf("live photo unit %q must have both photo and video refs", unit.BaseName)
		}
	default:
		return fmt.Errorf("unsupported unit kind %q", unit.Kind)
	}
	return nil
}

// GetTask fetches a task with its units, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*ImportTask, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM import_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := s.loadUnits(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) loadUnits(ctx context.Context, task *ImportTask) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+unitColumns+` FROM media_units WHERE task_id = ? ORDER BY position`,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("load units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return err
		}
		task.Units = append(task.Units, unit)
	}
	return rows.Err()
}

// UpdateTask persists status, attempt, and timing changes to a task.
func (s *Store) UpdateTask(ctx context.Context, task *ImportTask) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE import_tasks
         SET status = ?, attempts = ?, error_message = ?, updated_at = ?,
             started_at = ?, completed_at = ?
         WHERE id = ?`,
		task.Status,
		task.Attempts,
		nullableString(task.ErrorMessage),
		task.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(task.StartedAt),
		nullableTime(task.CompletedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdateUnit persists processing and cleanup flags for a unit.
func (s *Store) UpdateUnit(ctx context.Context, unit *MediaUnit) error {
	if unit == nil {
		return errors.New("unit is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE media_units
         SET processed = ?, files_purged = ?, error_message = ?
         WHERE id = ?`,
		boolToInt(unit.Processed),
		boolToInt(unit.FilesPurged),
		nullableString(unit.ErrorMessage),
		unit.ID,
	)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	return nil
}

// ListTasks returns tasks filtered by optional game and status set, oldest
// first, with units loaded.
func (s *Store) ListTasks(ctx context.Context, gameID *int64, statuses ...Status) ([]*ImportTask, error) {
	ctx = ensureContext(ctx)

	query := `SELECT ` + taskColumns + ` FROM import_tasks`
	var clauses []string
	var args []any
	if gameID != nil {
		clauses = append(clauses, `game_id = ?`)
		args = append(args, *gameID)
	}
	if len(statuses) > 0 {
		clauses = append(clauses, `status IN (`+makePlaceholders(len(statuses))+`)`)
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*ImportTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if err := s.loadUnits(ctx, task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// PendingTaskIDs returns the ids of every task still eligible for processing,
// oldest first. The restarter re-pushes these blindly.
func (s *Store) PendingTaskIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id FROM import_tasks WHERE status IN (?, ?) ORDER BY created_at`,
		StatusQueued,
		StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("pending task ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Health aggregates task counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM import_tasks GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	health := HealthSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusInProgress:
			health.InProgress += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, rows.Err()
}

const taskColumns = "id, game_id, status, attempts, error_message, created_at, updated_at, started_at, completed_at"

const unitColumns = "id, task_id, position, base_name, kind, photo_path, photo_name, video_path, video_name, processed, files_purged, error_message"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*ImportTask, error) {
	var (
		id           string
		gameID       sql.NullInt64
		statusStr    string
		attempts     int
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&gameID,
		&statusStr,
		&attempts,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	task := &ImportTask{
		ID:           id,
		Status:       Status(statusStr),
		Attempts:     attempts,
		ErrorMessage: errorMessage.String,
	}
	if gameID.Valid {
		v := gameID.Int64
		task.GameID = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			task.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	return task, nil
}

func scanUnit(scanner interface{ Scan(dest ...any) error }) (*MediaUnit, error) {
	var (
		id           int64
		taskID       string
		position     int
		baseName     string
		kindStr      string
		photoPath    sql.NullString
		photoName    sql.NullString
		videoPath    sql.NullString
		videoName    sql.NullString
		processed    sql.NullInt64
		filesPurged  sql.NullInt64
		errorMessage sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&taskID,
		&position,
		&baseName,
		&kindStr,
		&photoPath,
		&photoName,
		&videoPath,
		&videoName,
		&processed,
		&filesPurged,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	kind, ok := ParseKind(kindStr)
	if !ok {
		return nil, fmt.Errorf("unit %d has unsupported kind %q", id, kindStr)
	}

	return &MediaUnit{
		ID:           id,
		TaskID:       taskID,
		Position:     position,
		BaseName:     baseName,
		Kind:         kind,
		PhotoPath:    photoPath.String,
		PhotoName:    photoName.String,
		VideoPath:    videoPath.String,
		VideoName:    videoName.String,
		Processed:    processed.Valid && processed.Int64 != 0,
		FilesPurged:  filesPurged.Valid && filesPurged.Int64 != 0,
		ErrorMessage: errorMessage.String,
	}, nil
}
