package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReporterOverwritesInPlace(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "Downloading")

	r.Update(1, 3)
	r.Update(2, 3)
	r.Finish()

	out := buf.String()
	require.Contains(t, out, "\rDownloading 1/3")
	require.Contains(t, out, "\rDownloading 2/3")
	require.True(t, strings.HasSuffix(out, "\n"))
}

func TestReporterFinishWithoutUpdatesIsSilent(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "Downloading")
	r.Finish()
	require.Empty(t, buf.String())
}

func TestReporterConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "Downloading")

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Update(n, 8)
		}(i)
	}
	wg.Wait()
	r.Finish()

	require.Contains(t, buf.String(), "/8")
}
