// Package dynamodb implements the data point store on a single DynamoDB table.
//
// Items share one PK/SK keyspace:
//
//	DATAPOINT#<id>    METADATA   the record itself
//	EXTERNALID#<ext>  UNIQUE     claims an external id for one record
//	COUNTER           DATAPOINT  atomic id sequence
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityDataPoint = "DATAPOINT"
	entityUnique    = "EXTERNALID"

	skMetadata = "METADATA"
	skUnique   = "UNIQUE"

	counterPK = "COUNTER"
	counterSK = "DATAPOINT"

	attrPK         = "PK"
	attrEntityType = "EntityType"
	attrCounter    = "Counter"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

// attributes maps query fields onto item attributes
var attributes = map[string]string{
	entities.FieldID:           "ID",
	entities.FieldExternalID:   "ExternalID",
	entities.FieldValue:        "Value",
	entities.FieldComment:      "Comment",
	entities.FieldSignificance: "Significance",
}

// API is the subset of the DynamoDB client used by the repository
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DataPointRepository stores data points in DynamoDB
type DataPointRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewDataPointRepository creates a repository for the given table
func NewDataPointRepository(client API, tableName string, logger *zap.Logger) *DataPointRepository {
	return &DataPointRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// dataPointItem represents the DynamoDB item structure for a data point
type dataPointItem struct {
	PK           string  `dynamodbav:"PK"`
	SK           string  `dynamodbav:"SK"`
	EntityType   string  `dynamodbav:"EntityType"`
	ID           int64   `dynamodbav:"ID"`
	ExternalID   string  `dynamodbav:"ExternalID"`
	Value        string  `dynamodbav:"Value"`
	Comment      *string `dynamodbav:"Comment,omitempty"`
	Significance int     `dynamodbav:"Significance"`
}

// uniqueItem claims an external id for a data point
type uniqueItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	DataPointID int64  `dynamodbav:"DataPointID"`
}

func dataPointKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("%s#%d", entityDataPoint, id)},
		"SK": &types.AttributeValueMemberS{Value: skMetadata},
	}
}

func uniqueKey(externalID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("%s#%s", entityUnique, externalID)},
		"SK": &types.AttributeValueMemberS{Value: skUnique},
	}
}

func toItem(p *entities.DataPoint) dataPointItem {
	return dataPointItem{
		PK:           fmt.Sprintf("%s#%d", entityDataPoint, p.ID),
		SK:           skMetadata,
		EntityType:   entityDataPoint,
		ID:           p.ID,
		ExternalID:   p.ExternalID,
		Value:        p.Value,
		Comment:      p.Comment,
		Significance: p.Significance,
	}
}

func (i dataPointItem) toEntity() *entities.DataPoint {
	return &entities.DataPoint{
		ID:           i.ID,
		ExternalID:   i.ExternalID,
		Value:        i.Value,
		Comment:      i.Comment,
		Significance: i.Significance,
	}
}

// Save inserts the point when it is new and updates it otherwise. The
// record and its external id claim are written in one transaction.
func (r *DataPointRepository) Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error) {
	stored := point.Clone()

	var (
		writes    []types.TransactWriteItem
		claimSlot = -1
		err       error
	)

	if stored.IsNew() {
		if err := r.ensureUnclaimed(ctx, stored.ExternalID); err != nil {
			return nil, err
		}
		if stored.ID, err = r.nextID(ctx); err != nil {
			return nil, err
		}

		put, err := r.putDataPoint(stored, expression.AttributeNotExists(expression.Name(attrPK)))
		if err != nil {
			return nil, err
		}
		claim, err := r.putClaim(stored)
		if err != nil {
			return nil, err
		}
		writes = []types.TransactWriteItem{put, claim}
		claimSlot = 1
	} else {
		previous, err := r.get(ctx, stored.ID)
		if err != nil {
			return nil, err
		}

		put, err := r.putDataPoint(stored, expression.AttributeExists(expression.Name(attrPK)))
		if err != nil {
			return nil, err
		}
		writes = []types.TransactWriteItem{put}

		if previous.ExternalID != stored.ExternalID {
			claim, err := r.putClaim(stored)
			if err != nil {
				return nil, err
			}
			release := types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key:       uniqueKey(previous.ExternalID),
				},
			}
			writes = append(writes, claim, release)
			claimSlot = 1
		}
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		return nil, r.translateWriteError(err, stored, claimSlot)
	}

	r.logger.Debug("Data point saved",
		zap.Int64("id", stored.ID),
		zap.String("external_id", stored.ExternalID),
	)

	return stored, nil
}

func (r *DataPointRepository) translateWriteError(err error, point *entities.DataPoint, claimSlot int) error {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) != conditionalCheckFailed {
				continue
			}
			if i == claimSlot {
				return fmt.Errorf("external id %q: %w", point.ExternalID, ports.ErrUniqueViolation)
			}
			if i == 0 && !point.IsNew() {
				return fmt.Errorf("data point %d: %w", point.ID, ports.ErrNotFound)
			}
		}
	}

	r.logger.Error("Failed to save data point to DynamoDB",
		zap.Error(err),
		zap.Int64("id", point.ID),
	)
	return fmt.Errorf("failed to save data point: %w", err)
}

func (r *DataPointRepository) putDataPoint(point *entities.DataPoint, cond expression.ConditionBuilder) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(toItem(point))
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal data point: %w", err)
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to build condition: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:                 aws.String(r.tableName),
			Item:                      av,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}, nil
}

func (r *DataPointRepository) putClaim(point *entities.DataPoint) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(uniqueItem{
		PK:          fmt.Sprintf("%s#%s", entityUnique, point.ExternalID),
		SK:          skUnique,
		EntityType:  entityUnique,
		DataPointID: point.ID,
	})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal external id claim: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to build condition: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     av,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		},
	}, nil
}

// ensureUnclaimed rejects an insert before an id is drawn from the counter
func (r *DataPointRepository) ensureUnclaimed(ctx context.Context, externalID string) error {
	claim, err := r.claim(ctx, externalID)
	if err != nil {
		return err
	}
	if claim != nil {
		return fmt.Errorf("external id %q: %w", externalID, ports.ErrUniqueViolation)
	}
	return nil
}

// claim reads the uniqueness item for an external id. A nil claim means the
// external id is free.
func (r *DataPointRepository) claim(ctx context.Context, externalID string) (*uniqueItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            uniqueKey(externalID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check external id: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item uniqueItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal external id claim: %w", err)
	}
	return &item, nil
}

// nextID increments the shared counter item
func (r *DataPointRepository) nextID(ctx context.Context) (int64, error) {
	update := expression.Add(expression.Name(attrCounter), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build counter update: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: counterPK},
			"SK": &types.AttributeValueMemberS{Value: counterSK},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate data point id: %w", err)
	}

	var id int64
	if err := attributevalue.Unmarshal(out.Attributes[attrCounter], &id); err != nil {
		return 0, fmt.Errorf("failed to read data point id: %w", err)
	}
	return id, nil
}

func (r *DataPointRepository) get(ctx context.Context, id int64) (*entities.DataPoint, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            dataPointKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get data point: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("data point %d: %w", id, ports.ErrNotFound)
	}

	var item dataPointItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data point: %w", err)
	}
	return item.toEntity(), nil
}

// FindOne returns the first match in id order. Lookups by id or by external
// id alone are strongly consistent reads that never scan.
func (r *DataPointRepository) FindOne(ctx context.Context, criteria abstractions.Criteria) (*entities.DataPoint, error) {
	if id, ok := idLookup(criteria); ok {
		return r.get(ctx, id)
	}
	if externalID, ok := externalIDLookup(criteria); ok {
		claim, err := r.claim(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if claim == nil {
			return nil, fmt.Errorf("%s: %w", criteria, ports.ErrNotFound)
		}
		return r.get(ctx, claim.DataPointID)
	}

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

func idLookup(criteria abstractions.Criteria) (int64, bool) {
	if len(criteria.Filters) != 1 {
		return 0, false
	}
	f := criteria.Filters[0]
	if f.Field != entities.FieldID || f.Operator != abstractions.OpEqual {
		return 0, false
	}
	switch v := f.Value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func externalIDLookup(criteria abstractions.Criteria) (string, bool) {
	if len(criteria.Filters) != 1 {
		return "", false
	}
	f := criteria.Filters[0]
	if f.Field != entities.FieldExternalID || f.Operator != abstractions.OpEqual {
		return "", false
	}
	v, ok := f.Value.(string)
	return v, ok
}

// FindAll scans the table with the criteria as a filter expression. Scan
// results carry no order so sorting and limiting happen after the scan.
func (r *DataPointRepository) FindAll(ctx context.Context, criteria abstractions.Criteria) ([]*entities.DataPoint, error) {
	expr, err := buildFilter(criteria)
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		ConsistentRead:            aws.Bool(true),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	points := make([]*entities.DataPoint, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data points: %w", err)
		}

		var items []dataPointItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data points: %w", err)
		}
		for _, item := range items {
			p := item.toEntity()
			if item.EntityType == entityDataPoint && criteria.Matches(p.FieldByName) {
				points = append(points, p)
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		if cmp := criteria.Order(points[i].FieldByName, points[j].FieldByName); cmp != 0 {
			return cmp < 0
		}
		return points[i].ID < points[j].ID
	})

	if criteria.Limit > 0 && len(points) > criteria.Limit {
		points = points[:criteria.Limit]
	}

	r.logger.Debug("Scanned data points",
		zap.Stringer("criteria", criteria),
		zap.Int("count", len(points)),
	)
	return points, nil
}

// Count returns the number of stored records
func (r *DataPointRepository) Count(ctx context.Context) (int64, error) {
	expr, err := buildFilter(abstractions.All().Build())
	if err != nil {
		return 0, err
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		Select:                    types.SelectCount,
		ConsistentRead:            aws.Bool(true),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var total int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count data points: %w", err)
		}
		total += int64(page.Count)
	}
	return total, nil
}

// Ping checks the table is reachable for readiness probes
func (r *DataPointRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	return err
}

// buildFilter translates criteria into a scan filter restricted to data
// point items
func buildFilter(criteria abstractions.Criteria) (expression.Expression, error) {
	cond := expression.Name(attrEntityType).Equal(expression.Value(entityDataPoint))

	for _, f := range criteria.Filters {
		attr, ok := attributes[f.Field]
		if !ok {
			return expression.Expression{}, fmt.Errorf("unknown field %q", f.Field)
		}
		name := expression.Name(attr)
		value := expression.Value(f.Value)

		var c expression.ConditionBuilder
		switch f.Operator {
		case abstractions.OpEqual:
			c = name.Equal(value)
		case abstractions.OpNotEqual:
			c = name.NotEqual(value)
		case abstractions.OpGreaterThan:
			c = name.GreaterThan(value)
		case abstractions.OpGreaterThanOrEqual:
			c = name.GreaterThanEqual(value)
		case abstractions.OpLessThan:
			c = name.LessThan(value)
		case abstractions.OpLessThanOrEqual:
			c = name.LessThanEqual(value)
		case abstractions.OpStartsWith:
			c = name.BeginsWith(fmt.Sprint(f.Value))
		default:
			return expression.Expression{}, fmt.Errorf("unsupported operator %q", f.Operator)
		}
		cond = cond.And(c)
	}

	return expression.NewBuilder().WithFilter(cond).Build()
}
