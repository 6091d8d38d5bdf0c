package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	uniqueViolationCode = "23505"
	selectColumns       = "id, external_id, value, comment, significance"
)

// columns maps query fields onto table columns
var columns = map[string]string{
	entities.FieldID:           "id",
	entities.FieldExternalID:   "external_id",
	entities.FieldValue:        "value",
	entities.FieldComment:      "comment",
	entities.FieldSignificance: "significance",
}

var operators = map[abstractions.FilterOperator]string{
	abstractions.OpEqual:              "=",
	abstractions.OpNotEqual:           "<>",
	abstractions.OpGreaterThan:        ">",
	abstractions.OpGreaterThanOrEqual: ">=",
	abstractions.OpLessThan:           "<",
	abstractions.OpLessThanOrEqual:    "<=",
}

// DataPointRepository stores data points in the data_points table
type DataPointRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDataPointRepository creates a repository on an open pool
func NewDataPointRepository(pool *pgxpool.Pool, logger *zap.Logger) *DataPointRepository {
	return &DataPointRepository{pool: pool, logger: logger}
}

// Save inserts the point when it is new and updates it otherwise
func (r *DataPointRepository) Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error) {
	var row pgx.Row
	if point.IsNew() {
		row = r.pool.QueryRow(ctx,
			`INSERT INTO data_points (external_id, value, comment, significance)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+selectColumns,
			point.ExternalID, point.Value, point.Comment, point.Significance,
		)
	} else {
		row = r.pool.QueryRow(ctx,
			`UPDATE data_points
			 SET external_id = $2, value = $3, comment = $4, significance = $5
			 WHERE id = $1
			 RETURNING `+selectColumns,
			point.ID, point.ExternalID, point.Value, point.Comment, point.Significance,
		)
	}

	saved, err := scanDataPoint(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, fmt.Errorf("external id %q: %w", point.ExternalID, ports.ErrUniqueViolation)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("data point %d: %w", point.ID, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("save data point: %w", err)
	}

	r.logger.Debug("Data point saved",
		zap.Int64("id", saved.ID),
		zap.String("external_id", saved.ExternalID),
	)
	return saved, nil
}

// FindOne returns the first match in id order
func (r *DataPointRepository) FindOne(ctx context.Context, criteria abstractions.Criteria) (*entities.DataPoint, error) {
	criteria.Limit = 1
	points, err := r.FindAll(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", criteria, ports.ErrNotFound)
	}
	return points[0], nil
}

// FindAll returns every matching record
func (r *DataPointRepository) FindAll(ctx context.Context, criteria abstractions.Criteria) ([]*entities.DataPoint, error) {
	query, args, err := buildSelect(criteria)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query data points: %w", err)
	}
	defer rows.Close()

	points := make([]*entities.DataPoint, 0)
	for rows.Next() {
		p, err := scanDataPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan data point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data points: %w", err)
	}

	return points, nil
}

// Count returns the number of stored records
func (r *DataPointRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM data_points`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count data points: %w", err)
	}
	return n, nil
}

// Ping checks connectivity for readiness probes
func (r *DataPointRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanDataPoint(row pgx.Row) (*entities.DataPoint, error) {
	var p entities.DataPoint
	if err := row.Scan(&p.ID, &p.ExternalID, &p.Value, &p.Comment, &p.Significance); err != nil {
		return nil, err
	}
	return &p, nil
}

// buildSelect translates criteria into a parameterised SELECT
func buildSelect(criteria abstractions.Criteria) (string, []interface{}, error) {
	var b strings.Builder
	b.WriteString("SELECT " + selectColumns + " FROM data_points")

	args := make([]interface{}, 0, len(criteria.Filters))
	for i, f := range criteria.Filters {
		column, ok := columns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", f.Field)
		}

		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}

		args = append(args, f.Value)
		placeholder := "$" + strconv.Itoa(len(args))

		if f.Operator == abstractions.OpStartsWith {
			b.WriteString(column + " LIKE " + placeholder + " || '%'")
			continue
		}
		op, ok := operators[f.Operator]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", f.Operator)
		}
		b.WriteString(column + " " + op + " " + placeholder)
	}

	order := make([]string, 0, len(criteria.Sort)+1)
	for _, s := range criteria.Sort {
		column, ok := columns[s.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown sort field %q", s.Field)
		}
		direction := "ASC"
		if s.Order == abstractions.SortDescending {
			direction = "DESC"
		}
		order = append(order, column+" "+direction)
	}
	order = append(order, "id ASC")
	b.WriteString(" ORDER BY " + strings.Join(order, ", "))

	if criteria.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(criteria.Limit))
	}

	return b.String(), args, nil
}
