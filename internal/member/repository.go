package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

const selectMember = `
	SELECT gym_id, user_id, name, email, gender, dob, address, phone, training_type, notes,
	       created_by, joined_at, total_to_be_paid, total_paid, total_due, created_at, updated_at
	FROM members`

var profileColumns = map[string]bool{
	"name":          true,
	"email":         true,
	"phone":         true,
	"gender":        true,
	"dob":           true,
	"training_type": true,
	"address":       true,
	"notes":         true,
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, gymID, userID string) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, selectMember+` WHERE gym_id = $1 AND user_id = $2`, gymID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repository) ListByGym(ctx context.Context, gymID string) ([]*Member, error) {
	var members []*Member
	err := r.db.SelectContext(ctx, &members, selectMember+` WHERE gym_id = $1 ORDER BY joined_at DESC, user_id ASC`, gymID)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) UpdateProfile(ctx context.Context, gymID, userID string, fields map[string]string) error {
	if len(fields) == 0 {
		return ErrNothingToUpdate
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !profileColumns[col] {
			return fmt.Errorf("column %q is not a profile column", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+2)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, gymID, userID)

	query := fmt.Sprintf(`UPDATE members SET %s WHERE gym_id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(cols)+1, len(cols)+2)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrMemberNotFound
	}
	return nil
}
