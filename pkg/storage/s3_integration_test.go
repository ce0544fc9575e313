//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

// TestS3Store_LocalStack runs the store against LocalStack. Requires Docker.
func TestS3Store_LocalStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := localstack.Run(ctx, "localstack/localstack:3.0")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err)

	opts := S3Options{Region: "us-east-1", Endpoint: endpoint, AccessKey: "test", SecretKey: "test"}
	store, err := NewS3StoreFromOptions(ctx, "datasift-test", "runs", opts)
	require.NoError(t, err)

	_, err = store.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("datasift-test")})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "r1/summary.json", []byte(`{"total_records":5}`)))

	data, err := store.Get(ctx, "r1/summary.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_records":5}`, string(data))

	keys, err := store.List(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1/summary.json"}, keys)

	_, err = store.Get(ctx, "r1/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "s3://datasift-test/runs/r1/summary.json", store.Location("r1/summary.json"))
}
