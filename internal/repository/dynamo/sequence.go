package dynamo

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	"github.com/sourcingbee/challan/internal/dynamodb"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/types"
)

type counterItem struct {
	Name            string `dynamodbav:"name"`
	CurrentValue    int64  `dynamodbav:"current_value"`
	TotalIncrements int64  `dynamodbav:"total_increments"`
	LastUpdated     string `dynamodbav:"last_updated"`
}

type sequenceStore struct {
	client     *dynamodb.Client
	table      string
	seed       int64
	maxRetries int
	logger     *logger.Logger
}

// NewSequenceStore returns a counter store on a DynamoDB table keyed by
// counter name. Increments are read-then-conditional-write: the write only
// lands if the counter still holds the value we read, and contention is
// retried with exponential backoff up to the configured retry limit.
func NewSequenceStore(client *dynamodb.Client, cfg *config.Configuration, logger *logger.Logger) sequence.Store {
	return &sequenceStore{
		client:     client,
		table:      cfg.DynamoDB.Table,
		seed:       cfg.Sequence.Seed,
		maxRetries: cfg.Sequence.MaxRetries,
		logger:     logger,
	}
}

func (s *sequenceStore) BackendType() types.SequenceBackendType {
	return types.SequenceBackendDynamoDB
}

func (s *sequenceStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ierr.NewError("dynamodb is not configured").
			Mark(ierr.ErrBackendUnavailable)
	}

	_, err := s.client.DB().DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("DynamoDB table is unreachable").
			WithReportableDetails(map[string]any{"table": s.table}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return nil
}

func (s *sequenceStore) getItem(ctx context.Context, name string) (*counterItem, error) {
	out, err := s.client.DB().GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]ddbtypes.AttributeValue{"name": &ddbtypes.AttributeValueMemberS{Value: name}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read sequence counter").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Sequence counter item is malformed").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return &item, nil
}

func (s *sequenceStore) Peek(ctx context.Context, name string) (int64, error) {
	item, err := s.getItem(ctx, name)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return s.seed, nil
	}
	return item.CurrentValue, nil
}

func (s *sequenceStore) Next(ctx context.Context, name string) (int64, error) {
	var issued int64

	attempt := 0
	operation := func() error {
		attempt++

		item, err := s.getItem(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}

		current := s.seed
		increments := int64(0)
		if item != nil {
			current = item.CurrentValue
			increments = item.TotalIncrements
		}
		next := current + 1

		err = s.conditionalWrite(ctx, name, current, next, increments+1, item == nil)
		if err != nil {
			var condErr *ddbtypes.ConditionalCheckFailedException
			if errors.As(err, &condErr) {
				s.logger.Debugw("sequence increment lost the race, retrying",
					"sequence", name,
					"attempt", attempt,
				)
				return err // retryable
			}
			return backoff.Permanent(ierr.WithError(err).
				WithHint("Failed to write sequence counter").
				WithReportableDetails(map[string]any{"sequence": name}).
				Mark(ierr.ErrBackendUnavailable))
		}

		issued = next
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(), uint64(s.maxRetries-1)),
		ctx,
	)
	if err := backoff.Retry(operation, bo); err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ierr.WithError(err).
				WithHintf("Sequence increment failed after %d attempts", s.maxRetries).
				WithReportableDetails(map[string]any{"sequence": name}).
				Mark(ierr.ErrSequenceConflict)
		}
		return 0, err
	}
	return issued, nil
}

// conditionalWrite lands the new value only if the counter still holds the
// value read at the start of the attempt.
func (s *sequenceStore) conditionalWrite(ctx context.Context, name string, expected, value, increments int64, isNew bool) error {
	item, err := attributevalue.MarshalMap(counterItem{
		Name:            name,
		CurrentValue:    value,
		TotalIncrements: increments,
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	input := &awsdynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}

	if isNew {
		input.ConditionExpression = aws.String("attribute_not_exists(#n)")
		input.ExpressionAttributeNames = map[string]string{"#n": "name"}
	} else {
		input.ConditionExpression = aws.String("current_value = :expected")
		input.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{
			":expected": &ddbtypes.AttributeValueMemberN{Value: formatInt(expected)},
		}
	}

	_, err = s.client.DB().PutItem(ctx, input)
	return err
}

func (s *sequenceStore) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	item, err := s.getItem(ctx, name)
	if err != nil {
		return 0, err
	}

	current := s.seed
	increments := int64(0)
	if item != nil {
		current = item.CurrentValue
		increments = item.TotalIncrements
	}

	if !force && value < current {
		return 0, ierr.NewError("cannot lower sequence counter").
			WithHint("Lowering a counter reissues document numbers; pass force to override").
			WithReportableDetails(map[string]any{
				"sequence":        name,
				"current_value":   current,
				"requested_value": value,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.conditionalWrite(ctx, name, current, value, increments, item == nil); err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ierr.WithError(err).
				WithHint("Sequence counter changed concurrently, retry the override").
				WithReportableDetails(map[string]any{"sequence": name}).
				Mark(ierr.ErrSequenceConflict)
		}
		return 0, ierr.WithError(err).
			WithHint("Failed to override sequence counter").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}

	s.logger.Infow("sequence counter overridden",
		"sequence", name,
		"value", value,
		"force", force,
	)
	return value, nil
}

func (s *sequenceStore) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	var counters []*sequence.Counter

	paginator := awsdynamodb.NewScanPaginator(s.client.DB(), &awsdynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to list sequence counters").
				Mark(ierr.ErrBackendUnavailable)
		}

		var items []counterItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Sequence counter items are malformed").
				Mark(ierr.ErrBackendUnavailable)
		}
		for _, item := range items {
			updated, _ := time.Parse(time.RFC3339, item.LastUpdated)
			counters = append(counters, &sequence.Counter{
				Name:            item.Name,
				CurrentValue:    item.CurrentValue,
				TotalIncrements: item.TotalIncrements,
				LastUpdated:     updated,
			})
		}
	}

	sort.Slice(counters, func(i, j int) bool { return counters[i].Name < counters[j].Name })
	return counters, nil
}

func newExponentialBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0
	return bo
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
