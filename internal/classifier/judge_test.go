package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"docingest/internal/model"
)

type temporaryErr struct{}

func (temporaryErr) Error() string   { return "upstream 503" }
func (temporaryErr) Temporary() bool { return true }

func TestJudge(t *testing.T) {
	assert.False(t, judge(ErrBlocked).Retry)
	assert.True(t, judge(fmt.Errorf("ask: %w", ErrRateLimited)).Retry)
	assert.True(t, judge(temporaryErr{}).Retry)
	assert.False(t, judge(errors.New("400 bad request")).Retry)
	assert.True(t, judge(errors.New("400 bad request")).Trip)
	assert.False(t, judge(context.Canceled).Trip)
}

func TestReasonFor(t *testing.T) {
	assert.Equal(t, ReasonMalformed, reasonFor(fmt.Errorf("%w: x", ErrMalformed)))
	assert.Equal(t, ReasonBlocked, reasonFor(ErrBlocked))
	assert.Equal(t, ReasonTimeout, reasonFor(context.DeadlineExceeded))
	assert.Equal(t, ReasonThrottled, reasonFor(ErrRateLimited))
	assert.Equal(t, ReasonFailed, reasonFor(errors.New("x")))
}

func TestIsFallback(t *testing.T) {
	assert.True(t, IsFallback(model.FallbackVerdict(ReasonTimeout)))
	assert.False(t, IsFallback(model.Verdict{Kind: model.KindOther, Reason: "photo of a cat"}))
	assert.False(t, IsFallback(model.Verdict{Kind: model.KindReport}))
}
