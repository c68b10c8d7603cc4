package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

//go:embed schema/jobs-schema.sql
var schemaSQL string

const jobColumns = `id, date, crew_name, full_address, address_number, feeder, job_duration_hours, spans,
	start_time, end_time, status, notes, additional_crews_required, completion_date, completed_by`

// mergeColumns are the canonical fields that may be used to match existing rows.
var mergeColumns = map[string]struct{}{
	"date": {}, "crew_name": {}, "full_address": {}, "address_number": {}, "feeder": {},
	"job_duration_hours": {}, "spans": {}, "start_time": {}, "end_time": {}, "status": {},
	"notes": {}, "additional_crews_required": {},
}

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "ensure jobs schema")
	}
	return nil
}

func (r *JobRepository) List(ctx context.Context, params job.FindParams) ([]job.Job, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("date", params.Date)
	add("crew_name", params.Crew)
	add("feeder", params.Feeder)
	add("status", string(params.Status))

	sql := "SELECT " + jobColumns + " FROM jobs"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY date ASC, start_time ASC, created_at ASC"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	return out, nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (job.Job, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = $1", id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, patch job.StatusPatch) (job.Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs SET
			status = $2,
			completion_date = COALESCE($3, completion_date),
			completed_by = COALESCE($4, completed_by),
			updated_at = now()
		WHERE id = $1
		RETURNING `+jobColumns,
		id, string(patch.Status), patch.CompletionDate, patch.CompletedBy,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobRepository) CreateBatch(ctx context.Context, records []job.Fields, mergeOn []string) (int, error) {
	for _, name := range mergeOn {
		if _, ok := mergeColumns[name]; !ok {
			return 0, errors.Errorf("unknown merge field %q", name)
		}
	}

	written := 0
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, rec := range records {
			id, found, err := findExisting(ctx, tx, rec, mergeOn)
			if err != nil {
				return err
			}
			if found {
				err = updateFields(ctx, tx, id, rec)
			} else {
				err = insertFields(ctx, tx, newRecordID(), rec)
			}
			if err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "create jobs batch")
	}
	return written, nil
}

func findExisting(ctx context.Context, tx pgx.Tx, rec job.Fields, mergeOn []string) (string, bool, error) {
	if len(mergeOn) == 0 {
		return "", false, nil
	}
	conds := make([]string, 0, len(mergeOn))
	args := make([]any, 0, len(mergeOn))
	for i, name := range mergeOn {
		v, _ := rec.Value(name)
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s::text = $%d", name, i+1))
	}
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM jobs WHERE "+strings.Join(conds, " AND ")+" ORDER BY created_at LIMIT 1", args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func insertFields(ctx context.Context, tx pgx.Tx, id string, f job.Fields) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO jobs (id, date, crew_name, full_address, address_number, feeder, job_duration_hours,
			spans, start_time, end_time, status, notes, additional_crews_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, f.Date, f.CrewName, f.FullAddress, f.AddressNumber, f.Feeder, f.JobDurationHours,
		f.Spans, f.StartTime, f.EndTime, string(f.Status), f.Notes, f.AdditionalCrewsRequired,
	)
	return err
}

func updateFields(ctx context.Context, tx pgx.Tx, id string, f job.Fields) error {
	_, err := tx.Exec(ctx, `
		UPDATE jobs SET date = $2, crew_name = $3, full_address = $4, address_number = $5, feeder = $6,
			job_duration_hours = $7, spans = $8, start_time = $9, end_time = $10, status = $11, notes = $12,
			additional_crews_required = $13, updated_at = now()
		WHERE id = $1`,
		id, f.Date, f.CrewName, f.FullAddress, f.AddressNumber, f.Feeder, f.JobDurationHours,
		f.Spans, f.StartTime, f.EndTime, string(f.Status), f.Notes, f.AdditionalCrewsRequired,
	)
	return err
}

func scanJob(row pgx.Row) (job.Job, error) {
	var (
		id, status, completionDate, completedBy string
		f                                       job.Fields
	)
	err := row.Scan(
		&id, &f.Date, &f.CrewName, &f.FullAddress, &f.AddressNumber, &f.Feeder, &f.JobDurationHours, &f.Spans,
		&f.StartTime, &f.EndTime, &status, &f.Notes, &f.AdditionalCrewsRequired, &completionDate, &completedBy,
	)
	if err != nil {
		return job.Job{}, err
	}
	f.Status = job.Status(status)
	return job.Hydrate(id, f, completionDate, completedBy), nil
}
