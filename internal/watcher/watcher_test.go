package watcher

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/christopherklint97/redlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDrainer struct {
	n atomic.Int32
}

func (d *countingDrainer) Drain(context.Context) { d.n.Add(1) }

type staticSettings store.Settings

func (s staticSettings) Get() (store.Settings, error) { return store.Settings(s), nil }

func TestCheckDrainsOnlyOnReconnect(t *testing.T) {
	reachable := false
	probe := func(ctx context.Context, baseURL string) error {
		if reachable {
			return nil
		}
		return errors.New("connection refused")
	}
	d := &countingDrainer{}
	w := New(staticSettings{RedmineURL: "https://redmine.example"}, d, time.Minute, WithProbe(probe), WithPIDFile(""))
	ctx := context.Background()

	w.Check(ctx)
	assert.Equal(t, int32(0), d.n.Load())
	assert.False(t, w.Online())

	reachable = true
	w.Check(ctx)
	w.Check(ctx)
	assert.Equal(t, int32(1), d.n.Load())
	assert.True(t, w.Online())

	reachable = false
	w.Check(ctx)
	reachable = true
	w.Check(ctx)
	assert.Equal(t, int32(2), d.n.Load())
}

func TestCheckSkipsWithoutURL(t *testing.T) {
	probed := false
	d := &countingDrainer{}
	w := New(staticSettings{}, d, time.Minute, WithPIDFile(""), WithProbe(func(context.Context, string) error {
		probed = true
		return nil
	}))

	w.Check(context.Background())

	assert.False(t, probed)
	assert.Equal(t, int32(0), d.n.Load())
}

func TestRunDrainsOnStartAndWritesPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "redlog.pid")
	d := &countingDrainer{}
	w := New(staticSettings{}, d, time.Hour, WithPIDFile(pidFile))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return d.n.Load() == 1 }, time.Second, 5*time.Millisecond)
	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	cancel()
	require.NoError(t, <-done)
	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	probe := DialProbe(time.Second)
	require.NoError(t, probe(context.Background(), "http://"+ln.Addr().String()+"/redmine"))

	addr := ln.Addr().String()
	ln.Close()
	assert.Error(t, probe(context.Background(), "http://"+addr))
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://redmine.example", "redmine.example:443"},
		{"http://redmine.example/sub", "redmine.example:80"},
		{"https://redmine.example:8443", "redmine.example:8443"},
	}
	for _, tt := range tests {
		got, err := hostPort(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := hostPort("not a url")
	assert.Error(t, err)
}
