package monitor

import (
	"Murmur/internal/model"
	"Murmur/internal/store"
	"Murmur/internal/transport"
)

// Service gathers a point-in-time health view of the sync core. It is how a
// caller observes degraded (REST-only) operation.
type Service struct {
	manager *transport.Manager
	store   *store.Store
}

func NewService(manager *transport.Manager, s *store.Store) *Service {
	return &Service{manager: manager, store: s}
}

// Snapshot returns the current connection and sync statistics.
func (s *Service) Snapshot() model.MonitorSnapshot {
	connection := s.manager.Stats()
	syncStats := s.store.Stats()

	status := "offline"
	switch {
	case connection.Degraded:
		status = "degraded"
	case connection.State == string(transport.StateConnected):
		status = "live"
	case connection.State == string(transport.StateConnecting),
		connection.State == string(transport.StateReconnecting):
		status = "connecting"
	}

	return model.MonitorSnapshot{
		Status:     status,
		Connection: connection,
		Sync:       syncStats,
	}
}
