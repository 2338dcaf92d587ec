package RTSP

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type countingStarter struct {
	calls int32
	err   error
}

func (c *countingStarter) StartSession(s *Session) error {
	atomic.AddInt32(&c.calls, 1)
	// starters may look at the session they start
	_ = s.Streams()
	return c.err
}

func TestSessionStartsOnce(t *testing.T) {
	s := newSession(func(*Session, error) {})
	s.AddStream(NewMediaStream("0", TrackFormat{MediaType: "video", PayloadType: 96}))
	starter := &countingStarter{}

	require.NoError(t, s.start(starter))
	require.NoError(t, s.start(starter))
	require.True(t, s.IsPlaying())
	require.Equal(t, int32(1), atomic.LoadInt32(&starter.calls))
}

func TestSessionStartFailureIsRetried(t *testing.T) {
	s := newSession(func(*Session, error) {})
	starter := &countingStarter{err: errors.New("no source")}

	require.Error(t, s.start(starter))
	require.False(t, s.IsPlaying())
	starter.err = nil
	require.NoError(t, s.start(starter))
	require.Equal(t, int32(2), atomic.LoadInt32(&starter.calls))
}

func TestSessionReportErrorOnce(t *testing.T) {
	reported := make(chan error, 2)
	s := newSession(func(_ *Session, err error) { reported <- err })

	s.ReportError(errors.New("first"))
	s.ReportError(errors.New("second"))
	require.EqualError(t, <-reported, "first")
	require.Len(t, reported, 0)
}

func TestMediaStreamSubscribers(t *testing.T) {
	ms := NewMediaStream("1", TrackFormat{MediaType: "audio", PayloadType: 0, RtpMap: "PCMU/8000"})
	require.Equal(t, 0, ms.SubscriberCount())
	require.Nil(t, ms.subscribe(&Subscriber{SessionId: "a"}))
	require.Nil(t, ms.subscribe(&Subscriber{SessionId: "b"}))
	old := ms.subscribe(&Subscriber{SessionId: "a", ClientPorts: [2]int{1, 2}})
	require.NotNil(t, old)
	require.Equal(t, 2, ms.SubscriberCount())
	require.NotNil(t, ms.unsubscribe("a"))
	require.Nil(t, ms.unsubscribe("a"))
	require.Equal(t, 1, ms.SubscriberCount())

	p := ms.trackParams()
	require.Equal(t, "1", p.TrackID)
	require.Equal(t, "PCMU/8000", p.RtpMap)
}
