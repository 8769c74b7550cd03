package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

type recordingNotifier struct {
	sent []Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, m Message) error {
	n.sent = append(n.sent, m)
	return n.err
}

func TestKafkaNotifierPublishesKeyedByDestination(t *testing.T) {
	w := &recordingWriter{}
	n := &KafkaNotifier{writer: w}

	msg := Message{Kind: KindVerificationSucceeded, Destination: "op-1", Body: "Verification completed successfully."}
	require.NoError(t, n.Send(context.Background(), msg))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "op-1", string(w.messages[0].Key))

	var decoded Message
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, msg, decoded)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierWrapsWriteError(t *testing.T) {
	n := &KafkaNotifier{writer: &recordingWriter{err: errors.New("broker down")}}
	err := n.Send(context.Background(), Message{Kind: KindVerificationFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestFanoutDeliversToAll(t *testing.T) {
	first := &recordingNotifier{err: errors.New("first failed")}
	second := &recordingNotifier{}
	f := Fanout{first, nil, second}

	err := f.Send(context.Background(), Message{Kind: KindVerificationFailed, Destination: "op"})
	require.Error(t, err)
	assert.Len(t, first.sent, 1)
	assert.Len(t, second.sent, 1)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
}
