package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/source"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeClient struct {
	topics   []string
	payloads [][]byte
	fail     bool
	onPub    func()
}

func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	if f.onPub != nil {
		f.onPub()
	}
	if f.fail {
		return doneToken{err: errors.New("not connected")}
	}
	return doneToken{}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEncode(t *testing.T) {
	topic, payload, err := encode(domain.Sample{
		DeviceID:  "sim-1",
		Location:  domain.Coordinate{Lat: 37.47915, Lon: 126.9059},
		Accuracy:  5,
		Timestamp: time.Unix(1715003456, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, "/devices/sim-1/location", topic)
	assert.JSONEq(t, `{"device_id":"sim-1","latitude":37.47915,"longitude":126.9059,"accuracy":5,"timestamp":1715003456}`, string(payload))
}

func TestRelay_WalkerUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{}
	client.onPub = func() {
		if len(client.topics) == 3 {
			cancel()
		}
	}
	w := source.NewWalker(source.WalkerConfig{DeviceID: "sim-1", Target: domain.Coordinate{Lat: 37.47915, Lon: 126.9059}})

	err := relay(ctx, client, w, quietLogger())
	require.NoError(t, err)
	require.Len(t, client.topics, 3)

	var msg locationMessage
	require.NoError(t, json.Unmarshal(client.payloads[0], &msg))
	assert.Equal(t, "sim-1", msg.DeviceID)
}

func TestRelay_PublishErrorsDoNotStop(t *testing.T) {
	gps := source.NewNMEA(io.NopCloser(strings.NewReader(
		"$GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W*6A\r\n"+
			"$GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W*6A\r\n",
	)), "gps-1")
	client := &fakeClient{fail: true}

	err := relay(context.Background(), client, gps, quietLogger())
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, client.topics, 2)
}
