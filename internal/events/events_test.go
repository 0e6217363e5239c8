package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docingest/internal/model"
)

type fakeConn struct{ mock.Mock }

func (f *fakeConn) Publish(subject string, data []byte) error {
	return f.Called(subject, data).Error(0)
}

func (f *fakeConn) Close() { f.Called() }

func TestNATS_PublishIngested(t *testing.T) {
	c := new(fakeConn)
	var sent []byte
	c.On("Publish", "documents.ingested", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).([]byte)
	}).Return(nil).Once()

	n := newNATS(c, "documents.ingested", nil)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := n.PublishIngested(context.Background(), Ingested{Kind: model.KindReport, DocumentID: 5, MemberID: 7, ImageIDs: []int64{1, 2}, At: at})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(sent, &got))
	assert.Equal(t, "report", got["kind"])
	assert.EqualValues(t, 5, got["document_id"])
	assert.Equal(t, false, got["appended"])
	c.AssertExpectations(t)
}

func TestNATS_PublishRetries(t *testing.T) {
	c := new(fakeConn)
	c.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed")).Times(3)
	n := newNATS(c, "s", nil)

	err := n.PublishIngested(context.Background(), Ingested{})
	assert.Error(t, err)
	c.AssertExpectations(t)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishIngested(context.Background(), Ingested{}))
}
