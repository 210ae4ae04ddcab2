package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenda/agenda/internal/platform/db"
)

// =========== WorkingHours Repository ===========

type workingHoursRepoPG struct{ pool *pgxpool.Pool }

func NewWorkingHoursRepoPG(pool *pgxpool.Pool) WorkingHoursRepository {
	return &workingHoursRepoPG{pool: pool}
}

func (r *workingHoursRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const whCols = `id, doctor_id, weekday, start_min, end_min, created_at, updated_at`

func (r *workingHoursRepoPG) scanRange(row pgx.Row) (*WorkingHours, error) {
	var w WorkingHours
	err := row.Scan(&w.ID, &w.DoctorID, &w.Weekday, &w.StartMin, &w.EndMin,
		&w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

// ReplaceForDoctor swaps the weekly template in one transaction so a failed
// insert never leaves the doctor with a half-written week.
func (r *workingHoursRepoPG) ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, entries []*WorkingHours) error {
	replace := func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.Exec(ctx, `DELETE FROM working_hours WHERE doctor_id = $1`, doctorID); err != nil {
			return err
		}
		for _, w := range entries {
			w.ID = uuid.New()
			w.DoctorID = doctorID
			if _, err := conn.Exec(ctx, `
				INSERT INTO working_hours (id, doctor_id, weekday, start_min, end_min)
				VALUES ($1,$2,$3,$4,$5)`,
				w.ID, w.DoctorID, w.Weekday, w.StartMin, w.EndMin); err != nil {
				return err
			}
		}
		return nil
	}

	if db.TxFromContext(ctx) != nil {
		return replace(ctx)
	}
	return db.WithTx(ctx, r.pool, replace)
}

func (r *workingHoursRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WorkingHours, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+whCols+` FROM working_hours WHERE doctor_id = $1 ORDER BY weekday, start_min`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WorkingHours
	for rows.Next() {
		w, err := r.scanRange(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (r *workingHoursRepoPG) ListForWeekday(ctx context.Context, doctorID uuid.UUID, weekday int) ([]*WorkingHours, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+whCols+` FROM working_hours WHERE doctor_id = $1 AND weekday = $2 ORDER BY start_min`,
		doctorID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WorkingHours
	for rows.Next() {
		w, err := r.scanRange(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// =========== Exception Repository ===========

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository {
	return &exceptionRepoPG{pool: pool}
}

func (r *exceptionRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const excCols = `id, doctor_id, date, reason, all_day, start_min, end_min, created_at, updated_at`

func (r *exceptionRepoPG) scanException(row pgx.Row) (*ScheduleException, error) {
	var e ScheduleException
	err := row.Scan(&e.ID, &e.DoctorID, &e.Date, &e.Reason, &e.AllDay,
		&e.StartMin, &e.EndMin, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *exceptionRepoPG) Create(ctx context.Context, e *ScheduleException) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_exception (id, doctor_id, date, reason, all_day, start_min, end_min)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.DoctorID, e.Date, e.Reason, e.AllDay, e.StartMin, e.EndMin)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateException
	}
	return err
}

func (r *exceptionRepoPG) GetByDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*ScheduleException, error) {
	e, err := r.scanException(r.conn(ctx).QueryRow(ctx,
		`SELECT `+excCols+` FROM schedule_exception WHERE doctor_id = $1 AND date = $2`,
		doctorID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *exceptionRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleException, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+excCols+` FROM schedule_exception
		 WHERE doctor_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ScheduleException
	for rows.Next() {
		e, err := r.scanException(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *exceptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_exception WHERE id = $1`, id)
	return err
}
