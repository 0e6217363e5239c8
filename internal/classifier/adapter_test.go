package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docingest/internal/classifier"
	"docingest/internal/classifier/mocks"
	"docingest/internal/model"
	"docingest/internal/resilience"
)

type upstream503 struct{}

func (upstream503) Error() string   { return "upstream 503" }
func (upstream503) Temporary() bool { return true }

func TestAdapter_Classify(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(o *mocks.MockOracle)
		opts       []classifier.Option
		wantKind   model.Kind
		wantReason string
	}{
		{
			name: "valid answer",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.MatchedBy(func(q classifier.Query) bool {
					return q.MediaType == "image/png" && q.Temperature == classifier.Temperature && len(q.Schema) > 0 && q.Instruction == classifier.Instruction
				})).Return(`{"documentType":"report","extractedData":{"test_name":"CBC"}}`, nil).Once()
			},
			wantKind: model.KindReport,
		},
		{
			name: "malformed answer falls back",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.Anything).Return(`{"documentType":"report"}`, nil).Once()
			},
			wantKind:   model.KindOther,
			wantReason: classifier.ReasonMalformed,
		},
		{
			name: "safety block falls back",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.Anything).Return("", classifier.ErrBlocked).Once()
			},
			wantKind:   model.KindOther,
			wantReason: classifier.ReasonBlocked,
		},
		{
			name: "oracle error falls back",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()
			},
			wantKind:   model.KindOther,
			wantReason: classifier.ReasonFailed,
		},
		{
			name: "temporary error is retried",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.Anything).Return("", upstream503{}).Once()
				o.On("Ask", mock.Anything, mock.Anything).Return(`{"documentType":"prescription","extractedData":{}}`, nil).Once()
			},
			opts:     []classifier.Option{classifier.WithPolicy(resilience.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond})},
			wantKind: model.KindPrescription,
		},
		{
			name: "timeout falls back",
			setupMocks: func(o *mocks.MockOracle) {
				o.On("Ask", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					<-args.Get(0).(context.Context).Done()
				}).Return("", context.DeadlineExceeded).Once()
			},
			opts:       []classifier.Option{classifier.WithTimeout(10 * time.Millisecond)},
			wantKind:   model.KindOther,
			wantReason: classifier.ReasonTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := new(mocks.MockOracle)
			tt.setupMocks(o)
			a := classifier.New(o, tt.opts...)

			v := a.Classify(context.Background(), []byte("img"), "image/png")

			assert.Equal(t, tt.wantKind, v.Kind)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, v.Reason)
				assert.Equal(t, model.ExtractedData{}, v.Extracted)
			}
			o.AssertExpectations(t)
		})
	}
}

func TestAdapter_ThrottledWhenLimiterCannotAdmit(t *testing.T) {
	o := new(mocks.MockOracle)
	a := classifier.New(o, classifier.WithRateLimit(0.001, 1), classifier.WithTimeout(20*time.Millisecond))

	o.On("Ask", mock.Anything, mock.Anything).Return(`{"documentType":"other","extractedData":{}}`, nil).Once()
	first := a.Classify(context.Background(), nil, "image/png")
	second := a.Classify(context.Background(), nil, "image/png")

	assert.Equal(t, model.KindOther, first.Kind)
	assert.Empty(t, first.Reason)
	assert.Equal(t, classifier.ReasonThrottled, second.Reason)
	o.AssertExpectations(t)
}
