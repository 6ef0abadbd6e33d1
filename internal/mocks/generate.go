// Package mocks provides mock implementations for testing the draftline
// scheduling system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the core ports. The mocks are generated with go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	gateway := mocks.NewMockPublishGateway(ctrl)
//	gateway.EXPECT().Publish(gomock.Any(), "acct-1", "hello").Return("ext-1", nil)
package mocks

// Generate mock for DistributedLock interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=distributed_lock_mock.go github.com/draftline/draftline-go/internal/core DistributedLock

// Generate mock for PublishGateway interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=publish_gateway_mock.go github.com/draftline/draftline-go/internal/core PublishGateway

// Generate mock for NotificationSink interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=notification_sink_mock.go github.com/draftline/draftline-go/internal/core NotificationSink
