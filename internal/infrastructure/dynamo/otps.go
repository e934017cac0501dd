package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-lms-api/internal/domain"
)

// expiredRetention delays DynamoDB TTL deletion past the OTP expiry so that a
// late verify still sees the record and reports it expired.
const expiredRetention = time.Hour

type otpItem struct {
	Email     string    `dynamodbav:"email"`
	Code      string    `dynamodbav:"code"`
	ExpiresAt time.Time `dynamodbav:"expires_at"`
	TTL       int64     `dynamodbav:"ttl"` // Unix seconds, DynamoDB TTL attribute
}

// OTPRepo stores pending OTPs in the otp_codes table. PK: email.
type OTPRepo struct {
	client    API
	tableName string
}

func NewOTPRepo(client API, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.OTPRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	var it otpItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &domain.OTPRecord{Email: it.Email, Code: it.Code, ExpiresAt: it.ExpiresAt}, nil
}

func (r *OTPRepo) Set(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(otpItem{
		Email:     rec.Email,
		Code:      rec.Code,
		ExpiresAt: rec.ExpiresAt.UTC(),
		TTL:       rec.ExpiresAt.Add(expiredRetention).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}
