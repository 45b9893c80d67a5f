// Copyright (c) 2026 CBCoder. All rights reserved.

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucleber13/webapp/internal/platform/ctxutil"
	"github.com/lucleber13/webapp/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Principal verifies the security context lifecycle: nil while
anonymous, populated after the gate attaches a principal.
*/
func TestContext_Principal(t *testing.T) {
	ctx := context.Background()

	// 1. Anonymous context carries no principal
	assert.Nil(t, ctxutil.GetPrincipal(ctx))

	// 2. Inject and retrieve
	principal := &sec.Principal{
		Subject: "alice@example.com",
		Roles:   sec.NewRoleSet(sec.RoleAdmin),
	}
	ctx = ctxutil.WithPrincipal(ctx, principal)

	retrieved := ctxutil.GetPrincipal(ctx)
	assert.NotNil(t, retrieved)
	assert.Equal(t, "alice@example.com", retrieved.Subject)
	assert.True(t, retrieved.Roles.Has(sec.RoleAdmin))
}
