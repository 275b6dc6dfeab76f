package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// buildPaginationClause constructs the LIMIT/OFFSET clause for SQL queries.
func buildPaginationClause(limit, offset int) string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// executeCountAndDataQuery runs the count + data pattern shared by the list
// endpoints: a COUNT over the filtered set, then the paginated data query.
// When the offset is past the total, the data query is skipped and rows is
// nil.
func executeCountAndDataQuery(
	ctx context.Context,
	qi QueryInterface,
	baseQuery string,
	selectColumns string,
	whereClause string,
	orderBy string,
	args []interface{},
	limit int,
	offset int,
) (int, pgx.Rows, error) {
	countQuery := "SELECT COUNT(*) " + baseQuery + whereClause

	var totalCount int
	if err := qi.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return 0, nil, WrapError(err, "count query")
	}

	if offset >= totalCount {
		return totalCount, nil, nil
	}

	dataQuery := selectColumns + " " + baseQuery + whereClause + " " +
		orderBy + buildPaginationClause(limit, offset)
	rows, err := qi.Query(ctx, dataQuery, args...)
	if err != nil {
		return 0, nil, WrapError(err, "data query")
	}
	return totalCount, rows, nil
}
