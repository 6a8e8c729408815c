// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package audit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether asynchronous review events are recorded.
	// Evidence accesses are always recorded.
	Enabled bool `json:"enabled"`

	// LogLevel filters events by minimum severity.
	LogLevel Severity `json:"log_level"`

	// Retention is how long to keep audit events. Zero disables cleanup.
	Retention time.Duration `json:"retention"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// LogToStdout also writes events to the application log.
	LogToStdout bool `json:"log_to_stdout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		LogLevel:        SeverityInfo,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// Logger is the audit logging service. It implements
// forensics.AccessRecorder.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	mu        sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

var _ forensics.AccessRecorder = (*Logger)(nil)

// NewLogger creates a new audit logger.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	// Start async writer
	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event to the store.
func (l *Logger) writeEvent(event *Event) {
	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if config.LogToStdout {
		l.logToStdout(event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

// logToStdout writes an event to the application log in JSON format.
func (l *Logger) logToStdout(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal audit event")
		return
	}
	logging.Info().RawJSON("event", data).Msg("Audit event")
}

func (l *Logger) prepare(event *Event) {
	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
}

// Log records an audit event asynchronously.
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if !config.Enabled {
		return
	}
	if !shouldLog(event.Severity, config.LogLevel) {
		return
	}

	l.prepare(event)

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// RecordEvidenceAccess persists an evidence access synchronously. A nil
// return means the record is stored; the caller may then hand out the URL.
func (l *Logger) RecordEvidenceAccess(ctx context.Context, access forensics.EvidenceAccess) error {
	event := &Event{
		Timestamp: access.At.UTC(),
		Type:      EventTypeEvidenceViewed,
		Severity:  SeverityInfo,
		Outcome:   OutcomeSuccess,
		Actor: Actor{
			ID:   access.UserID,
			Type: "user",
			Name: access.UserName,
			Role: access.Role,
		},
		Target: &Target{
			ID:      access.ViolationID,
			Type:    "violation",
			ChildID: access.EvidenceID,
		},
		Action:      "download",
		Description: "Blurred evidence downloaded",
		RequestID:   access.RequestID,
	}
	if !access.Blurred {
		event.Type = EventTypeOriginalRevealed
		event.Severity = SeverityWarning
		event.Action = "reveal"
		event.Description = "Unblurred evidence original revealed"
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}
	l.prepare(event)

	if err := l.store.Save(ctx, event); err != nil {
		return fmt.Errorf("record evidence access: %w", err)
	}

	l.mu.RLock()
	toStdout := l.config.LogToStdout
	l.mu.RUnlock()
	if toStdout {
		l.logToStdout(event)
	}
	return nil
}

// shouldLog returns true if the event severity meets the minimum level.
func shouldLog(severity, minimum Severity) bool {
	severityOrder := map[Severity]int{
		SeverityDebug:    0,
		SeverityInfo:     1,
		SeverityWarning:  2,
		SeverityError:    3,
		SeverityCritical: 4,
	}
	return severityOrder[severity] >= severityOrder[minimum]
}

// Close drains pending events and stops the writer. It does not close the
// store.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// Cleanup removes events older than retention once.
func (l *Logger) Cleanup(ctx context.Context, retention time.Duration) {
	cutoff := l.now().Add(-retention)
	count, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup error")
	} else if count > 0 {
		logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
	}
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// SetEnabled enables or disables asynchronous audit logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Enabled = enabled
}

// Enabled returns whether asynchronous audit logging is enabled.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Enabled
}

// generateEventID generates a unique event ID.
func generateEventID() string {
	return uuid.NewString()
}

// Helper methods for common audit events

// LogAuthSuccess logs a successful authentication.
func (l *Logger) LogAuthSuccess(ctx context.Context, actor Actor, source Source, authMethod string) {
	l.Log(&Event{
		Type:        EventTypeAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "authenticate",
		Description: "User authenticated successfully",
		Metadata:    mustJSON(map[string]string{"method": authMethod}),
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogAuthFailure logs a failed authentication attempt.
func (l *Logger) LogAuthFailure(ctx context.Context, actorName string, source Source, reason string) {
	l.Log(&Event{
		Type:     EventTypeAuthFailure,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor: Actor{
			ID:   actorName,
			Type: "user",
			Name: actorName,
		},
		Source:      source,
		Action:      "authenticate",
		Description: "Authentication failed: " + reason,
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// ObserveAuthFailure records a rejected bearer credential. It lets the
// Logger serve as the auth middleware's failure observer.
func (l *Logger) ObserveAuthFailure(ctx context.Context, r *http.Request, reason string) {
	l.LogAuthFailure(ctx, "anonymous", SourceFromRequest(r), reason)
}

// LogAuthzDenied logs an authorization denial.
func (l *Logger) LogAuthzDenied(ctx context.Context, actor Actor, source Source, resource, action string) {
	l.Log(&Event{
		Type:     EventTypeAuthzDenied,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor:    actor,
		Source:   source,
		Action:   "authorize",
		Target: &Target{
			ID:   resource,
			Type: "resource",
		},
		Description: "Authorization denied for " + action + " on " + resource,
		Metadata: mustJSON(map[string]string{
			"resource":         resource,
			"requested_action": action,
		}),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// LogReviewAction logs a reviewer action on a violation. childID names the
// comment for comment events and may be empty.
func (l *Logger) LogReviewAction(ctx context.Context, eventType EventType, actor Actor, source Source, violationID, childID, description string) {
	l.Log(&Event{
		Type:     eventType,
		Severity: SeverityInfo,
		Outcome:  OutcomeSuccess,
		Actor:    actor,
		Source:   source,
		Action:   string(eventType),
		Target: &Target{
			ID:      violationID,
			Type:    "violation",
			ChildID: childID,
		},
		Description: description,
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogDataExport logs an export of search results.
func (l *Logger) LogDataExport(ctx context.Context, actor Actor, source Source, format string, byteCount int) {
	l.Log(&Event{
		Type:        EventTypeDataExport,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "export",
		Description: "Violations exported",
		Metadata: mustJSON(map[string]interface{}{
			"format": format,
			"bytes":  byteCount,
		}),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// mustJSON converts a value to JSON, returning empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// SourceFromRequest creates a Source from an HTTP request.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}

// ActorFromAuth creates an Actor from the caller identity.
func ActorFromAuth(auth forensics.AuthContext) Actor {
	return Actor{
		ID:   auth.UserID,
		Type: "user",
		Name: auth.UserName,
		Role: auth.Role,
	}
}
