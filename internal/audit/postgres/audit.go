package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, log *audit.Log) error {
	query := `INSERT INTO audit_logs (user_id, api_token_id, action, details, ip, timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowxContext(ctx, query,
		log.UserID, log.APITokenID, log.Action, log.Details, log.IP, log.Timestamp,
	).Scan(&log.ID)
}

// buildWhere assembles the shared filter clause of Search and Purge.
func buildWhere(q audit.Query) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Action != "" {
		add("action = $%d", q.Action)
	}
	if q.UserID != nil {
		add("user_id = $%d", *q.UserID)
	}
	if q.APITokenID != nil {
		add("api_token_id = $%d", *q.APITokenID)
	}
	if q.IP != "" {
		add("ip LIKE $%d", "%"+q.IP+"%")
	}
	if q.Details != "" {
		add("details LIKE $%d", "%"+q.Details+"%")
	}
	if q.From != nil {
		add("timestamp >= $%d", *q.From)
	}
	if q.To != nil {
		add("timestamp <= $%d", *q.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) Search(ctx context.Context, q audit.Query, limit int) ([]audit.Log, error) {
	where, args := buildWhere(q)
	query := fmt.Sprintf(
		"SELECT id, user_id, api_token_id, action, details, ip, timestamp FROM audit_logs%s ORDER BY timestamp DESC, id DESC LIMIT %d",
		where, limit)

	logs := []audit.Log{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *Repository) Purge(ctx context.Context, q audit.Query) (int64, error) {
	where, args := buildWhere(q)
	res, err := r.db.ExecContext(ctx, "DELETE FROM audit_logs"+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
