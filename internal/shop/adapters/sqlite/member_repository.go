package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type memberRepository struct {
	q querier
}

var _ app.MemberRepository = (*memberRepository)(nil)

func (r *memberRepository) Save(ctx context.Context, m *domain.Member) error {
	const q = `
		INSERT INTO members (name, city, street, zipcode)
		VALUES (?, ?, ?, ?)`

	res, err := r.q.ExecContext(ctx, q, m.Name, m.Address.City, m.Address.Street, m.Address.Zipcode)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", app.ErrDuplicateName, m.Name)
	}
	if err != nil {
		return fmt.Errorf("sqlite: save member %q: %w", m.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: save member %q: %w", m.Name, err)
	}
	m.ID = id
	return nil
}

func (r *memberRepository) Update(ctx context.Context, m *domain.Member) error {
	const q = `
		UPDATE members
		SET    name = ?, city = ?, street = ?, zipcode = ?
		WHERE  member_id = ?`

	res, err := r.q.ExecContext(ctx, q, m.Name, m.Address.City, m.Address.Street, m.Address.Zipcode, m.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", app.ErrDuplicateName, m.Name)
	}
	if err != nil {
		return fmt.Errorf("sqlite: update member %d: %w", m.ID, err)
	}
	return requireAffected(res, "member", m.ID)
}

func (r *memberRepository) FindOne(ctx context.Context, id int64) (*domain.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members m WHERE m.member_id = ?`

	var row memberRow
	err := scanRow(r.q.QueryRowContext(ctx, q, id), &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", id, app.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find member %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *memberRepository) FindAll(ctx context.Context) ([]*domain.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members m ORDER BY m.member_id`
	return r.list(ctx, q)
}

func (r *memberRepository) FindByName(ctx context.Context, name string) ([]*domain.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members m WHERE m.name = ? ORDER BY m.member_id`
	return r.list(ctx, q, name)
}

func (r *memberRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Member, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list members: %w", err)
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		var row memberRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("sqlite: scan member: %w", err)
		}
		members = append(members, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list members: %w", err)
	}
	return members, nil
}

// requireAffected turns an UPDATE that matched nothing into app.ErrNotFound.
func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update %s %d: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, app.ErrNotFound)
	}
	return nil
}
