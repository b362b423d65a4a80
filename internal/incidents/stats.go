package incidents

import (
	"context"
	"fmt"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Stats is the aggregate response-time report over resolved incidents.
type Stats struct {
	MTTAMinutes        *float64 `json:"mtta_minutes"`
	MTTRMinutes        *float64 `json:"mttr_minutes"`
	TotalIncidents     int      `json:"total_incidents"`
	ResolvedCount      int      `json:"resolved_count"`
	AvgResponseMinutes *float64 `json:"avg_response_time"`
}

// MTTA returns minutes from creation to acknowledgement.
func MTTA(inc *domain.Incident) (float64, bool) {
	if inc.AcknowledgedAt == nil {
		return 0, false
	}
	return inc.AcknowledgedAt.Sub(inc.CreatedAt).Minutes(), true
}

// MTTR returns minutes from creation to resolution.
func MTTR(inc *domain.Incident) (float64, bool) {
	if inc.ResolvedAt == nil {
		return 0, false
	}
	return inc.ResolvedAt.Sub(inc.CreatedAt).Minutes(), true
}

// ComputeStats aggregates MTTA and MTTR over the RESOLVED incidents in the slice.
// Averages stay nil when no incident defines them.
func ComputeStats(list []domain.Incident) Stats {
	var (
		stats              Stats
		mttaSum, mttrSum   float64
		mttaCount, mttrCnt int
	)

	for i := range list {
		inc := &list[i]
		if inc.Status != domain.IncidentStatusResolved {
			continue
		}
		stats.TotalIncidents++
		if v, ok := MTTA(inc); ok {
			mttaSum += v
			mttaCount++
		}
		if v, ok := MTTR(inc); ok {
			mttrSum += v
			mttrCnt++
		}
	}
	stats.ResolvedCount = stats.TotalIncidents

	if mttaCount > 0 {
		mtta := mttaSum / float64(mttaCount)
		avg := mtta
		stats.MTTAMinutes = &mtta
		stats.AvgResponseMinutes = &avg
	}
	if mttrCnt > 0 {
		mttr := mttrSum / float64(mttrCnt)
		stats.MTTRMinutes = &mttr
	}
	return stats
}

// Stats returns aggregate metrics over resolved incidents matching filter.
func (s *Service) Stats(ctx context.Context, filter StatsFilter) (*Stats, error) {
	resolved, err := s.repo.ListResolved(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list resolved incidents: %w", err)
	}
	stats := ComputeStats(resolved)
	return &stats, nil
}
