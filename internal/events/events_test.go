package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfreiman/interviewcoach/internal/retry"
)

type fakeChannel struct {
	fail   error
	sent   []amqp.Publishing
	keys   []string
	closed bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.fail != nil {
		return c.fail
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newTestPublisher(channels ...*fakeChannel) (*AMQPPublisher, *int) {
	p := NewAMQPPublisher(Config{URL: "amqp://test", Exchange: "coach"})
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	dials := 0
	p.dial = func(url, exchange string) (channel, io.Closer, error) {
		if dials >= len(channels) {
			return nil, nil, errors.New("broker down")
		}
		ch := channels[dials]
		dials++
		return ch, nopCloser{}, nil
	}
	return p, &dials
}

func TestNew_NoopWithoutURL(t *testing.T) {
	p := New(Config{})
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeInterviewStarted}))
	assert.NoError(t, p.Close())

	assert.IsType(t, &AMQPPublisher{}, New(Config{URL: "amqp://localhost"}))
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, dials := newTestPublisher(ch)
	ctx := context.Background()

	corr := 4
	require.NoError(t, p.Publish(ctx, Event{Type: TypeQuestionAnswered, SessionID: "s1", QuestionOrder: 2, Correctness: &corr}))
	require.NoError(t, p.Publish(ctx, Event{Type: TypeQuestionSkipped, SessionID: "s1", QuestionOrder: 3}))

	assert.Equal(t, 1, *dials, "connection is reused")
	assert.Equal(t, []string{"coach/interview.answered", "coach/interview.skipped"}, ch.keys)

	msg := ch.sent[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "interview.answered", decoded["type"])
	assert.Equal(t, "s1", decoded["session_id"])
	assert.EqualValues(t, 4, decoded["correctness"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["occurred_at"])
}

func TestAMQPPublisher_ReconnectsOnce(t *testing.T) {
	broken := &fakeChannel{fail: errors.New("channel closed")}
	healthy := &fakeChannel{}
	p, dials := newTestPublisher(broken, healthy)

	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeInterviewReset}))
	assert.Equal(t, 2, *dials)
	assert.True(t, broken.closed)
	assert.Len(t, healthy.sent, 1)
}

func TestAMQPPublisher_Failure(t *testing.T) {
	p, _ := newTestPublisher()

	err := p.Publish(context.Background(), Event{Type: TypeInterviewStarted})
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "coach", pubErr.Exchange)
	assert.True(t, retry.IsRetryable(err))

	assert.Error(t, p.Publish(context.Background(), Event{}))
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newTestPublisher(ch)
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeProfileBuilt}))
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.NoError(t, p.Close())
}
