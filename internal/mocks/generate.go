// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core interface boundary. The mocks are generated from the go:generate
// directive in internal/core/interfaces.go; to regenerate after interface
// changes, run:
//
//	go generate ./internal/core
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockMigrationJobRepository(ctrl)
//	repo.EXPECT().Get(gomock.Any(), "job-1").Return(job, nil)
package mocks
