package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tourney-api/internal/domain"
)

// TournamentRepo provides typed DynamoDB operations for the tournaments table.
type TournamentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTournamentRepo(client *dynamodb.Client, tableName string) *TournamentRepo {
	return &TournamentRepo{client: client, tableName: tableName}
}

func (r *TournamentRepo) Put(ctx context.Context, t *domain.Tournament) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal tournament: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return classify(err)
}

func (r *TournamentRepo) Get(ctx context.Context, tournamentID string) (*domain.Tournament, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("tournament_id", tournamentID),
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tournament not found: %w", domain.ErrNotFound)
	}
	var t domain.Tournament
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TournamentRepo) Update(ctx context.Context, tournamentID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("tournament_id", tournamentID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return classify(err)
}

// ListByStatus queries the status GSI, ordered by start time.
func (r *TournamentRepo) ListByStatus(ctx context.Context, status domain.TournamentStatus) ([]domain.Tournament, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("status-start_at-index"),
		KeyConditionExpression: aws.String("#s = :status"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	var ts []domain.Tournament
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// Scan returns all tournaments. The table is small (tens of rows) so a
// full scan is acceptable for the public listing.
func (r *TournamentRepo) Scan(ctx context.Context) ([]domain.Tournament, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, classify(err)
	}
	var ts []domain.Tournament
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// ReserveSlot atomically increments enrolled_count, conditioned on the
// tournament still accepting players. Fails with ErrTournamentFull when
// the capacity is reached, so two concurrent enrollments cannot both take
// the last slot.
func (r *TournamentRepo) ReserveSlot(ctx context.Context, tournamentID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("tournament_id", tournamentID),
		UpdateExpression:    aws.String("ADD enrolled_count :one"),
		ConditionExpression: aws.String("attribute_exists(tournament_id) AND enrolled_count < max_players"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("no slots left: %w", domain.ErrTournamentFull)
		}
		return classify(err)
	}
	return nil
}

// ReleaseSlot undoes a reservation after a failed enrollment step.
func (r *TournamentRepo) ReleaseSlot(ctx context.Context, tournamentID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("tournament_id", tournamentID),
		UpdateExpression:    aws.String("ADD enrolled_count :minus"),
		ConditionExpression: aws.String("attribute_exists(tournament_id) AND enrolled_count > :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":minus": &types.AttributeValueMemberN{Value: "-1"},
			":zero":  &types.AttributeValueMemberN{Value: "0"},
		},
	})
	return classify(err)
}
