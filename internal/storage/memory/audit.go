package memory

import (
	"context"
	"strings"

	"github.com/exiledproject/launcher-cms/internal/audit"
)

func (s *Store) Insert(_ context.Context, log *audit.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = s.id("audit_logs")
	s.auditLogs = append(s.auditLogs, *log)
	return nil
}

func (s *Store) Search(_ context.Context, q audit.Query, limit int) ([]audit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Log
	// Newest rows live at the tail of the append-only slice.
	for i := len(s.auditLogs) - 1; i >= 0 && len(out) < limit; i-- {
		if matchQuery(s.auditLogs[i], q) {
			out = append(out, s.auditLogs[i])
		}
	}
	return out, nil
}

func (s *Store) Purge(_ context.Context, q audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.auditLogs[:0]
	var deleted int64
	for _, log := range s.auditLogs {
		if matchQuery(log, q) {
			deleted++
			continue
		}
		kept = append(kept, log)
	}
	s.auditLogs = kept
	return deleted, nil
}

func matchQuery(log audit.Log, q audit.Query) bool {
	if q.Action != "" && log.Action != q.Action {
		return false
	}
	if q.UserID != nil && (log.UserID == nil || *log.UserID != *q.UserID) {
		return false
	}
	if q.APITokenID != nil && (log.APITokenID == nil || *log.APITokenID != *q.APITokenID) {
		return false
	}
	if q.IP != "" && !strings.Contains(log.IP, q.IP) {
		return false
	}
	if q.Details != "" && !strings.Contains(log.Details, q.Details) {
		return false
	}
	if q.From != nil && log.Timestamp.Before(*q.From) {
		return false
	}
	if q.To != nil && log.Timestamp.After(*q.To) {
		return false
	}
	return true
}
