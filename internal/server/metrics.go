package server

import "sync"

// Metrics holds in-process counters exposed on the admin metrics
// endpoint. All methods are safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64

	loginAttemptsTotal int64
	loginSuccessTotal  int64
	loginFailuresTotal int64

	registrationsTotal int64

	uploadsTotal       int64
	uploadBytesTotal   int64
	downloadsTotal     int64
	downloadBytesTotal int64

	rateLimitedTotal int64
}

// NewMetrics returns a zeroed metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// RecordLoginAttempt records a login attempt and its outcome.
func (m *Metrics) RecordLoginAttempt(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginAttemptsTotal++
	if success {
		m.loginSuccessTotal++
	} else {
		m.loginFailuresTotal++
	}
}

// RecordRegistration records a successful account registration.
func (m *Metrics) RecordRegistration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsTotal++
}

// RecordUpload records a successful file upload.
func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
}

// RecordDownload records a successful file download.
func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitedTotal++
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`

	LoginAttemptsTotal int64 `json:"login_attempts_total"`
	LoginSuccessTotal  int64 `json:"login_success_total"`
	LoginFailuresTotal int64 `json:"login_failures_total"`

	RegistrationsTotal int64 `json:"registrations_total"`

	UploadsTotal       int64 `json:"uploads_total"`
	UploadBytesTotal   int64 `json:"upload_bytes_total"`
	DownloadsTotal     int64 `json:"downloads_total"`
	DownloadBytesTotal int64 `json:"download_bytes_total"`

	RateLimitedTotal int64 `json:"rate_limited_total"`
}

// Snapshot returns a consistent copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		RequestsTotal:      m.requestsTotal,
		RequestErrors4xx:   m.requestErrors4xx,
		RequestErrors5xx:   m.requestErrors5xx,
		LoginAttemptsTotal: m.loginAttemptsTotal,
		LoginSuccessTotal:  m.loginSuccessTotal,
		LoginFailuresTotal: m.loginFailuresTotal,
		RegistrationsTotal: m.registrationsTotal,
		UploadsTotal:       m.uploadsTotal,
		UploadBytesTotal:   m.uploadBytesTotal,
		DownloadsTotal:     m.downloadsTotal,
		DownloadBytesTotal: m.downloadBytesTotal,
		RateLimitedTotal:   m.rateLimitedTotal,
	}
}
