package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/annostore/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeDDB evaluates the two condition expressions the locker uses.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func s(v types.AttributeValue) string {
	switch a := v.(type) {
	case *types.AttributeValueMemberS:
		return a.Value
	case *types.AttributeValueMemberN:
		return a.Value
	}
	return ""
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := s(in.Item[attrKey])
	if cur, ok := f.items[key]; ok {
		exp, _ := strconv.ParseInt(s(cur[attrExpires]), 10, 64)
		now, _ := strconv.ParseInt(s(in.ExpressionAttributeValues[":now"]), 10, 64)
		if exp >= now {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("held")}
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := s(in.Key[attrKey])
	cur, ok := f.items[key]
	if !ok || s(cur[attrOwner]) != s(in.ExpressionAttributeValues[":owner"]) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("not owner")}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestLocker_AcquireRelease(t *testing.T) {
	ddb := newFakeDDB()
	l := New(ddb, "locks", WithNamespace("lib"), WithPollInterval(time.Millisecond))
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "coco/split=train/objects.ptb")
	require.NoError(t, err)
	assert.Contains(t, ddb.items, "lib/coco/split=train/objects.ptb")

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "coco/split=train/objects.ptb")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock())
	assert.ErrorIs(t, unlock(), lock.ErrNotHeld)
	assert.Empty(t, ddb.items)
}

func TestLocker_WaitsForRelease(t *testing.T) {
	l := New(newFakeDDB(), "locks", WithPollInterval(time.Millisecond))
	ctx := context.Background()

	first, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := l.Lock(ctx, "k")
		if assert.NoError(t, err) {
			close(acquired)
			assert.NoError(t, second())
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired a held lock")
	case <-time.After(10 * time.Millisecond):
	}
	require.NoError(t, first())
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second writer never acquired the lock")
	}
}

func TestLocker_ExpiredLease(t *testing.T) {
	ddb := newFakeDDB()
	clock := time.Unix(1_700_000_000, 0)
	l := New(ddb, "locks", WithLease(time.Second))
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	fresh, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	// the stale holder lost its lease
	require.ErrorIs(t, stale(), lock.ErrNotHeld)
	require.NoError(t, fresh())
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func TestLocker_ServiceError(t *testing.T) {
	m := new(mockClient)
	boom := errors.New("throttled")
	m.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.TableName) == "locks" && in.ConditionExpression != nil
	})).Return(nil, boom).Once()

	_, err := New(m, "locks").Lock(context.Background(), "k")
	require.ErrorIs(t, err, boom)
	m.AssertExpectations(t)
}
