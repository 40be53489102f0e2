package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

var testNow = time.Date(2026, time.March, 14, 18, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func anyCtx() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

func intPtr(v int) *int { return &v }

func nopLogger() *logging.Logger { return logging.NewNop() }
