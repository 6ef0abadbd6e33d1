package service

import (
	"context"

	"github.com/draftline/draftline-go/internal/testutil"
)

// fakePostRepo keeps the service tests readable; the shared in-memory
// implementation lives in testutil.
type fakePostRepo = testutil.InMemoryPostRepo

func newFakePostRepo() *fakePostRepo {
	return testutil.NewInMemoryPostRepo()
}

// gatewayFunc adapts a function to core.PublishGateway.
type gatewayFunc func(ctx context.Context, accountRef, content string) (string, error)

func (f gatewayFunc) Publish(ctx context.Context, accountRef, content string) (string, error) {
	return f(ctx, accountRef, content)
}
