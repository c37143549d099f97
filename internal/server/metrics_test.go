package server

import (
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest(200)
	m.RecordRequest(404)
	m.RecordRequest(500)
	m.RecordLoginAttempt(true)
	m.RecordLoginAttempt(false)
	m.RecordRegistration()
	m.RecordUpload(1024)
	m.RecordDownload(2048)
	m.RecordRateLimited()

	snap := m.Snapshot()
	if snap.RequestsTotal != 3 {
		t.Errorf("requests = %d, want 3", snap.RequestsTotal)
	}
	if snap.RequestErrors4xx != 1 || snap.RequestErrors5xx != 1 {
		t.Errorf("errors = %d/%d, want 1/1", snap.RequestErrors4xx, snap.RequestErrors5xx)
	}
	if snap.LoginAttemptsTotal != 2 || snap.LoginSuccessTotal != 1 || snap.LoginFailuresTotal != 1 {
		t.Errorf("logins = %d/%d/%d, want 2/1/1",
			snap.LoginAttemptsTotal, snap.LoginSuccessTotal, snap.LoginFailuresTotal)
	}
	if snap.RegistrationsTotal != 1 {
		t.Errorf("registrations = %d, want 1", snap.RegistrationsTotal)
	}
	if snap.UploadBytesTotal != 1024 || snap.DownloadBytesTotal != 2048 {
		t.Errorf("bytes = %d/%d, want 1024/2048", snap.UploadBytesTotal, snap.DownloadBytesTotal)
	}
	if snap.RateLimitedTotal != 1 {
		t.Errorf("rate limited = %d, want 1", snap.RateLimitedTotal)
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRequest(200)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().RequestsTotal; got != 5000 {
		t.Errorf("requests = %d, want 5000", got)
	}
}
