package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-api/internal/domain"
)

// OTPRepo manages one-time passcode records.
// PK: identifier, SK: purpose. Because the pair is the full primary key,
// Put atomically replaces any previous record for that pair — the store can
// never hold two live codes for the same (identifier, purpose).
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, identifier string, purpose domain.Purpose) (*domain.OTPRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("identifier", identifier, "purpose", purpose.String()),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
	}
	var rec domain.OTPRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *OTPRepo) Update(ctx context.Context, identifier string, purpose domain.Purpose, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("identifier", identifier, "purpose", purpose.String()),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// IncrementAttempts bumps the attempt counter with a single ADD expression and
// returns the new count. Concurrent wrong guesses each observe a distinct
// value, so the ceiling cannot be overshot by lost read-modify-write updates.
// The condition keeps ADD from resurrecting a record that was just deleted.
func (r *OTPRepo) IncrementAttempts(ctx context.Context, identifier string, purpose domain.Purpose) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("identifier", identifier, "purpose", purpose.String()),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("attribute_exists(identifier)"),
		ExpressionAttributeNames: map[string]string{
			"#a": "attempts",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
		}
		return 0, err
	}
	var attempts int
	if err := attributevalue.Unmarshal(out.Attributes["attempts"], &attempts); err != nil {
		return 0, fmt.Errorf("unmarshal attempt count: %w", err)
	}
	return attempts, nil
}

func (r *OTPRepo) Delete(ctx context.Context, identifier string, purpose domain.Purpose) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("identifier", identifier, "purpose", purpose.String()),
	})
	return err
}

// DeleteExpired removes every record with expires_at < now and returns the
// count. Purely housekeeping: Verify re-checks expiry on its own, so this is
// safe to run concurrently with live traffic. DynamoDB TTL also reaps these,
// but lazily.
func (r *OTPRepo) DeleteExpired(ctx context.Context, now int64) (int, error) {
	deleted := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(r.tableName),
			FilterExpression:     aws.String("expires_at < :now"),
			ProjectionExpression: aws.String("identifier, purpose"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, err
		}
		for _, item := range out.Items {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.tableName),
				Key:       item,
			})
			if err != nil {
				return deleted, err
			}
			deleted++
		}
		if out.LastEvaluatedKey == nil {
			return deleted, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
