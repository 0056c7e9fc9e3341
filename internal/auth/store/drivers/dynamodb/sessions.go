package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/cryptox"
)

const keyAttribute = "token_id"

type sessionsRepo struct {
	api   API
	table string
	now   func() time.Time
}

// item is the table row. Times are epoch seconds so expires_at can serve as
// the TTL attribute.
type item struct {
	TokenID   string `dynamodbav:"token_id"`
	SessionID string `dynamodbav:"session_id"`
	UserID    string `dynamodbav:"user_id"`
	CreatedAt int64  `dynamodbav:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
	Type      string `dynamodbav:"type"`
}

func keyFor(token string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: cryptox.FingerprintToken(token)},
	}
}

func (r *sessionsRepo) PutSession(ctx context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error {
	av, err := attributevalue.MarshalMap(item{
		TokenID:   cryptox.FingerprintToken(key),
		SessionID: rec.ID,
		UserID:    rec.UserID,
		CreatedAt: rec.IssuedAt.Unix(),
		ExpiresAt: r.now().Add(ttl).Unix(),
		Type:      "refresh",
	})
	if err != nil {
		return err
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, key string) (domain.SessionRecord, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            keyFor(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.SessionRecord{}, err
	}
	if len(out.Item) == 0 {
		return domain.SessionRecord{}, store.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return domain.SessionRecord{}, err
	}

	rec := domain.SessionRecord{
		ID:        it.SessionID,
		UserID:    it.UserID,
		IssuedAt:  time.Unix(it.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(it.ExpiresAt, 0).UTC(),
	}

	// TTL deletion in DynamoDB lags, so expired rows can still be read.
	if rec.Expired(r.now()) {
		return domain.SessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, key string) error {
	_, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       keyFor(key),
	})
	return err
}

// DeleteExpiredSessions is a no-op, the table TTL removes expired rows.
func (r *sessionsRepo) DeleteExpiredSessions(context.Context) error { return nil }
