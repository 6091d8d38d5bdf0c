package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used here
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder pushes import outcomes to CloudWatch
type CloudWatchRecorder struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewCloudWatchRecorder creates a new CloudWatch recorder
func NewCloudWatchRecorder(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordImport publishes created and updated counts for one import run.
// Failures are logged, never returned.
func (r *CloudWatchRecorder) RecordImport(ctx context.Context, created, updated int) {
	timestamp := aws.Time(r.now())

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(r.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("ImportedRecords"),
				Dimensions: []types.Dimension{
					{Name: aws.String("Outcome"), Value: aws.String("created")},
				},
				Value:     aws.Float64(float64(created)),
				Unit:      types.StandardUnitCount,
				Timestamp: timestamp,
			},
			{
				MetricName: aws.String("ImportedRecords"),
				Dimensions: []types.Dimension{
					{Name: aws.String("Outcome"), Value: aws.String("updated")},
				},
				Value:     aws.Float64(float64(updated)),
				Unit:      types.StandardUnitCount,
				Timestamp: timestamp,
			},
		},
	}

	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.Warn("Failed to put import metrics", zap.Error(err))
	}
}

// NoopRecorder discards import outcomes
type NoopRecorder struct{}

// RecordImport implements ports.ImportRecorder
func (NoopRecorder) RecordImport(context.Context, int, int) {}
