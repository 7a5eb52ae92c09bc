package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"zarinpal/internal/payment"
)

type fakeLister struct {
	out *payment.UnverifiedOutcome
}

func (f *fakeLister) UnverifiedTransactions(ctx context.Context) *payment.UnverifiedOutcome {
	return f.out
}

func TestSweepUnverified_LogsEachTransaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lister := &fakeLister{out: &payment.UnverifiedOutcome{
		Code: 100,
		Transactions: []payment.UnverifiedTransaction{
			{Authority: "A1", Amount: 1000},
			{Authority: "A2", Amount: 2000},
		},
	}}

	s := New(lister, time.Second, zap.New(core))
	require.Equal(t, 2, s.sweepUnverified())

	warned := logs.FilterMessage("Unverified payment").All()
	require.Len(t, warned, 2)
	require.Equal(t, "A1", warned[0].ContextMap()["authority"])
}

func TestSweepUnverified_Failure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lister := &fakeLister{out: &payment.UnverifiedOutcome{
		Failure: &payment.Failure{Kind: payment.FailureGateway, Code: -11, Message: "The merchant is not active."},
	}}

	s := New(lister, time.Second, zap.New(core))
	require.Zero(t, s.sweepUnverified())
	require.Equal(t, 1, logs.FilterMessage("Unverified transactions sweep failed").Len())
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := New(&fakeLister{}, 0, zap.NewNop())
	require.Error(t, s.Start("not a cron spec"))
}

func TestStartStop(t *testing.T) {
	s := New(&fakeLister{out: &payment.UnverifiedOutcome{Code: 100}}, 0, zap.NewNop())
	require.NoError(t, s.Start("0 */10 * * * *"))
	<-s.Stop().Done()
}
