package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/internal/livelist"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/viewmodels"
	"github.com/motu-crew/crewboard/pkg/configuration"
)

func TestRender_MarksInFlightAndPausedState(t *testing.T) {
	var buf bytes.Buffer
	render(&buf, livelist.Snapshot{
		Jobs: []viewmodels.Job{
			{ID: "rec1", Date: "2026-03-15", CrewName: "Ryan", FullAddress: "1 Beach Rd", Feeder: "MOTU 112", Status: "Completed"},
			{ID: "rec2", Date: "2026-03-15", CrewName: "Jade", FullAddress: "2 Beach Rd", Feeder: "MOTU 111", Status: "Pending"},
		},
		InFlight: []string{"rec1"},
	}, time.Date(2026, 3, 15, 9, 5, 0, 0, time.UTC))

	out := buf.String()
	assert.Contains(t, out, "[09:05:00] 2 jobs (paused)")
	assert.Contains(t, out, "Completed *")
	assert.Regexp(t, `2\.\s+2026-03-15\s+Jade\s+2 Beach Rd\s+MOTU 111\s+Pending`, out)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatch_TapsRowFromInputThenQuits(t *testing.T) {
	var mu sync.Mutex
	var patched string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			mu.Lock()
			patched = r.URL.Path
			mu.Unlock()
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"rec1","status":"Pending"},{"id":"rec2","status":"Pending"}]`))
	}))
	defer srv.Close()

	conf, err := configuration.Parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	out := &syncBuffer{}
	in, inWriter := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- runWatch(context.Background(), conf, logger, watchOptions{url: srv.URL, interval: time.Hour}, in, out)
	}()

	_, _ = inWriter.Write([]byte("2\n"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return patched == "/api/jobs/rec2"
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "In Progress") }, time.Second, 5*time.Millisecond)

	_, _ = inWriter.Write([]byte("q\n"))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not quit")
	}
}
