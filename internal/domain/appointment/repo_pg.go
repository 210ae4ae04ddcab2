package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenda/agenda/internal/domain/availability"
	"github.com/agenda/agenda/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, doctor_id, patient_id, start_time, duration_min, status, reason, created_at, updated_at`

func (r *repoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.DurationMin,
		&a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, doctor_id, patient_id, start_time, duration_min, status, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.DoctorID, a.PatientID, a.StartTime, a.DurationMin, a.Status, a.Reason)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DoctorID != uuid.Nil {
		where += ` AND doctor_id = ` + arg(f.DoctorID)
	}
	if f.PatientID != uuid.Nil {
		where += ` AND patient_id = ` + arg(f.PatientID)
	}
	if !f.From.IsZero() {
		where += ` AND start_time >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		where += ` AND start_time < ` + arg(f.To)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + ` FROM appointment` + where +
		` ORDER BY start_time ASC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) OccupiedIntervals(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT start_time, duration_min FROM appointment
		WHERE doctor_id = $1
		  AND status NOT IN ('cancelled', 'no_show')
		  AND start_time < $3
		  AND start_time + make_interval(mins => duration_min) > $2
		ORDER BY start_time ASC`,
		doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var start time.Time
		var durationMin int
		if err := rows.Scan(&start, &durationMin); err != nil {
			return nil, err
		}
		out = append(out, availability.Interval{
			Start: start,
			End:   start.Add(time.Duration(durationMin) * time.Minute),
		})
	}
	return out, rows.Err()
}
