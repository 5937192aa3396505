package analytics

import (
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Record stores a public-page event. Analytics must never break the page,
// so failures are logged and swallowed.
func (s *Service) Record(e *Event) {
	if err := s.repo.InsertEvent(e); err != nil {
		log.Warn().Err(err).Str("event_type", e.EventType).Msg("Failed to record analytics event")
	}
}

func (s *Service) GetEventHistory(roadmapID string, start, end int64, limit, offset int) ([]Event, error) {
	return s.repo.GetEvents(roadmapID, start, end, limit, offset)
}

func (s *Service) GetStatsOverview(roadmapID string, startDate, endDate string) ([]DailyStat, error) {
	return s.repo.GetDailyStats(roadmapID, startDate, endDate)
}

// RollupDay recomputes and stores a roadmap's aggregates for one day.
func (s *Service) RollupDay(roadmapID, date string) error {
	stat, err := s.repo.ComputeDailyStats(roadmapID, date)
	if err != nil {
		return err
	}
	return s.repo.UpsertDailyStats(stat, roadmapID)
}
