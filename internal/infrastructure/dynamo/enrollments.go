package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tourney-api/internal/domain"
)

// EnrollmentRepo provides typed DynamoDB operations for the enrollments table.
// PK: tournament_id, SK: user_id.
type EnrollmentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEnrollmentRepo(client *dynamodb.Client, tableName string) *EnrollmentRepo {
	return &EnrollmentRepo{client: client, tableName: tableName}
}

// Put inserts an enrollment. The conditional write makes a duplicate
// enrollment an ErrAlreadyEnrolled conflict instead of a silent overwrite.
func (r *EnrollmentRepo) Put(ctx context.Context, e *domain.Enrollment) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal enrollment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(tournament_id) AND attribute_not_exists(user_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("enrollment exists: %w", domain.ErrAlreadyEnrolled)
		}
		return classify(err)
	}
	return nil
}

func (r *EnrollmentRepo) Get(ctx context.Context, tournamentID, userID string) (*domain.Enrollment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("tournament_id", tournamentID, "user_id", userID),
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("enrollment not found: %w", domain.ErrNotFound)
	}
	var e domain.Enrollment
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByTournament returns every enrollment for a tournament.
func (r *EnrollmentRepo) ListByTournament(ctx context.Context, tournamentID string) ([]domain.Enrollment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("tournament_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: tournamentID},
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	var es []domain.Enrollment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &es); err != nil {
		return nil, err
	}
	return es, nil
}

// ListByUser returns every enrollment for a user via the user_id GSI.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	var es []domain.Enrollment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &es); err != nil {
		return nil, err
	}
	return es, nil
}

func (r *EnrollmentRepo) Delete(ctx context.Context, tournamentID, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("tournament_id", tournamentID, "user_id", userID),
	})
	return classify(err)
}
