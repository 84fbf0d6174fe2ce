package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-score/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testAssessment() domain.Assessment {
	return domain.Assessment{
		ID:          "assess-0123456789abcdef",
		Point:       domain.Point{Lon: -121.74, Lat: 38.54},
		Features:    domain.FeatureVector{FEMAZone: domain.StringPtr("AE"), StormCount5km: 3},
		Breakdown:   domain.Breakdown{Flood: 40, Storm: 5},
		RuleScore:   45,
		RuleLabel:   domain.LabelHigh,
		Label:       domain.LabelModerate,
		LabelSource: domain.SourceModel,
		AssessedAt:  time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	a := testAssessment()

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte(a.ID), msg.Key)
	assert.Contains(t, string(msg.Value), `"rule_score":45`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "label", msg.Headers[0].Key)
	assert.Equal(t, []byte("Moderate"), msg.Headers[0].Value)
	assert.Equal(t, "label_source", msg.Headers[1].Key)
	assert.Equal(t, []byte("model"), msg.Headers[1].Value)
	assert.Equal(t, "assessed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)

	var decoded domain.Assessment
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, a.Features, decoded.Features)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, topic: "hazard-assessments", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testAssessment()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "assess-0123456789abcdef", string(fw.msgs[0].Key))

	fw.err = errors.New("leader not available")
	err := w.Publish(context.Background(), testAssessment())
	assert.ErrorContains(t, err, "hazard-assessments")
	assert.ErrorContains(t, err, "leader not available")

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}
