// Package dynamodb implements lock.Locker with DynamoDB conditional writes,
// for writers in different processes sharing a remote dataset library.
//
// A lock is an item keyed by lock_key that carries its owner and a lease
// expiry. Acquiring puts the item only if it is absent or expired;
// releasing deletes it only if the caller still owns it.
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name annostore-locks \
//	  --attribute-definitions AttributeName=lock_key,AttributeType=S \
//	  --key-schema AttributeName=lock_key,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/hupe1980/annostore/lock"
)

// Client is the subset of *dynamodb.Client used by Locker.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

const (
	attrKey     = "lock_key"
	attrOwner   = "owner"
	attrExpires = "expires_at"
)

// Locker grants leases stored in a DynamoDB table.
type Locker struct {
	client    Client
	table     string
	namespace string
	lease     time.Duration
	poll      time.Duration
	now       func() time.Time
}

var _ lock.Locker = (*Locker)(nil)

// Option configures a Locker.
type Option func(*Locker)

// WithLease sets how long a lock stays valid without being released. It
// must exceed the longest save. Default: 30s.
func WithLease(d time.Duration) Option {
	return func(l *Locker) { l.lease = d }
}

// WithPollInterval sets the wait between acquisition attempts. Default: 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) { l.poll = d }
}

// WithNamespace prefixes every key, so several libraries can share a table.
func WithNamespace(ns string) Option {
	return func(l *Locker) { l.namespace = ns }
}

// New returns a Locker on an existing client.
func New(client Client, table string, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		table:  table,
		lease:  30 * time.Second,
		poll:   100 * time.Millisecond,
		now:    time.Now,
	}
	for _, fn := range opts {
		fn(l)
	}
	return l
}

// NewFromConfig loads the default AWS configuration and returns a Locker.
func NewFromConfig(ctx context.Context, table string, opts ...Option) (*Locker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(dynamodb.NewFromConfig(cfg), table, opts...), nil
}

func (l *Locker) key(k string) string {
	if l.namespace == "" {
		return k
	}
	return l.namespace + "/" + k
}

// Lock acquires key, polling until the current holder releases it, its lease
// expires or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	owner := uuid.NewString()
	k := l.key(key)

	for {
		ok, err := l.tryAcquire(ctx, k, owner)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() error {
		err := lock.ErrNotHeld
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err = l.release(ctx, k, owner)
		})
		return err
	}, nil
}

func (l *Locker) tryAcquire(ctx context.Context, key, owner string) (bool, error) {
	now := l.now()
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			attrKey:     &types.AttributeValueMemberS{Value: key},
			attrOwner:   &types.AttributeValueMemberS{Value: owner},
			attrExpires: &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(l.lease).UnixMilli(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(#k) OR #e < :now"),
		ExpressionAttributeNames: map[string]string{
			"#k": attrKey,
			"#e": attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, fmt.Errorf("dynamodb lock %q: %w", key, err)
	}
	return true, nil
}

func (l *Locker) release(ctx context.Context, key, owner string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.table),
		Key: map[string]types.AttributeValue{
			attrKey: &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression: aws.String("#o = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#o": attrOwner,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// lease expired and another writer took over
			return fmt.Errorf("%w: %s", lock.ErrNotHeld, key)
		}
		return fmt.Errorf("dynamodb unlock %q: %w", key, err)
	}
	return nil
}
