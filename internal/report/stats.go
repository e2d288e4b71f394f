package report

import (
	"sort"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// TopClientLimit caps the client ranking
const TopClientLimit = 5

// ProjectRecord is the slice of a project the report needs
type ProjectRecord struct {
	// ClientName is empty when the project has no client
	ClientName string
	Status     domain.ProjectStatus
	Channel    domain.AcquisitionChannel
	Amount     decimal.Decimal
}

// ChannelStat is one row of the channel breakdown
type ChannelStat struct {
	Channel string          `json:"channel"`
	Count   int             `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
}

// StatusStat is one row of the status breakdown
type StatusStat struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ClientStat is one row of the client ranking
type ClientStat struct {
	Client string          `json:"client"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Stats are the aggregates of one month. Breakdowns are ordered by count descending,
// ties kept in order of first appearance.
type Stats struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	TotalProjects    int             `json:"totalProjects"`
	NewProjects      int             `json:"newProjects"`
	WonProjects      int             `json:"wonProjects"`
	LostProjects     int             `json:"lostProjects"`
	InProgress       int             `json:"inProgress"`
	TotalEstimated   decimal.Decimal `json:"totalEstimated"`
	WonAmount        decimal.Decimal `json:"wonAmount"`
	WinRate          float64         `json:"winRate"`
	ChannelBreakdown []ChannelStat   `json:"channelBreakdown"`
	StatusBreakdown  []StatusStat    `json:"statusBreakdown"`
	TopClients       []ClientStat    `json:"topClients"`
}

// Compute aggregates the projects created in period.
// inProgress and totalProjects are global counts supplied by the caller.
func Compute(period Period, projects []ProjectRecord, inProgress, totalProjects int) Stats {
	stats := Stats{
		Year:             period.Year,
		Month:            int(period.Month),
		TotalProjects:    totalProjects,
		NewProjects:      len(projects),
		InProgress:       inProgress,
		TotalEstimated:   decimal.Zero,
		WonAmount:        decimal.Zero,
		ChannelBreakdown: []ChannelStat{},
		StatusBreakdown:  []StatusStat{},
		TopClients:       []ClientStat{},
	}

	channelIdx := make(map[string]int)
	statusIdx := make(map[string]int)
	clientIdx := make(map[string]int)

	for _, p := range projects {
		stats.TotalEstimated = stats.TotalEstimated.Add(p.Amount)

		switch {
		case p.Status.IsWon():
			stats.WonProjects++
			stats.WonAmount = stats.WonAmount.Add(p.Amount)
		case p.Status.IsLost():
			stats.LostProjects++
		}

		channel := p.Channel.Label()
		i, ok := channelIdx[channel]
		if !ok {
			i = len(stats.ChannelBreakdown)
			channelIdx[channel] = i
			stats.ChannelBreakdown = append(stats.ChannelBreakdown, ChannelStat{Channel: channel, Amount: decimal.Zero})
		}
		stats.ChannelBreakdown[i].Count++
		stats.ChannelBreakdown[i].Amount = stats.ChannelBreakdown[i].Amount.Add(p.Amount)

		status := p.Status.Label()
		j, ok := statusIdx[status]
		if !ok {
			j = len(stats.StatusBreakdown)
			statusIdx[status] = j
			stats.StatusBreakdown = append(stats.StatusBreakdown, StatusStat{Status: status})
		}
		stats.StatusBreakdown[j].Count++

		if p.ClientName == "" {
			continue
		}
		k, ok := clientIdx[p.ClientName]
		if !ok {
			k = len(stats.TopClients)
			clientIdx[p.ClientName] = k
			stats.TopClients = append(stats.TopClients, ClientStat{Client: p.ClientName, Amount: decimal.Zero})
		}
		stats.TopClients[k].Count++
		stats.TopClients[k].Amount = stats.TopClients[k].Amount.Add(p.Amount)
	}

	stats.WinRate = WinRate(stats.WonProjects, stats.LostProjects)

	sort.SliceStable(stats.ChannelBreakdown, func(a, b int) bool {
		return stats.ChannelBreakdown[a].Count > stats.ChannelBreakdown[b].Count
	})
	sort.SliceStable(stats.StatusBreakdown, func(a, b int) bool {
		return stats.StatusBreakdown[a].Count > stats.StatusBreakdown[b].Count
	})
	sort.SliceStable(stats.TopClients, func(a, b int) bool {
		return stats.TopClients[a].Count > stats.TopClients[b].Count
	})
	if len(stats.TopClients) > TopClientLimit {
		stats.TopClients = stats.TopClients[:TopClientLimit]
	}

	return stats
}

// WinRate returns won / (won + lost) * 100, or 0 when nothing was decided
func WinRate(won, lost int) float64 {
	decided := won + lost
	if decided == 0 {
		return 0
	}
	return float64(won) / float64(decided) * 100
}
