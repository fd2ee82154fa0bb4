package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/types"
)

// SQLTxLedger archives transaction rows in Postgres. The trs table mirrors
// the canonical column list of the persistence adapter; handler tables are
// created by migrations shipped with the deployment.
type SQLTxLedger struct {
	db *sql.DB
}

func NewSQLTxLedger(dsn string) (*SQLTxLedger, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &SQLTxLedger{db: sqlDB}, nil
}

func (l *SQLTxLedger) CountByID(ctx context.Context, id string) (uint64, error) {
	var count uint64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trs WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("could not count transaction %s: %w", id, err)
	}
	return count, nil
}

// SaveRows executes every row insert inside one transaction so a block's
// rows land atomically.
func (l *SQLTxLedger) SaveRows(ctx context.Context, rows []types.Row) error {
	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	for _, row := range rows {
		stmt := insertStatement(row)
		if _, err := sqlTx.ExecContext(ctx, stmt, row.Values...); err != nil {
			sqlTx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", row.Table, err)
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

func (l *SQLTxLedger) MustClose() {
	if err := l.db.Close(); err != nil {
		logx.Error("SQL_LEDGER", "Failed to close postgres: ", err.Error())
	}
}

func insertStatement(row types.Row) string {
	placeholders := make([]string, len(row.Columns))
	quoted := make([]string, len(row.Columns))
	for i, col := range row.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = fmt.Sprintf("%q", col)
	}
	return fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s)",
		row.Table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)
}
