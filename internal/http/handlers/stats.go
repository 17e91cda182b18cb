package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/config"
	"chartsrv/internal/render"
)

// StatsService reports Chrome pool occupancy for operators.
type StatsService struct {
	cfg    config.Config
	charts *render.ChartJS
}

func NewStatsService(cfg config.Config, charts *render.ChartJS) *StatsService {
	return &StatsService{cfg: cfg, charts: charts}
}

// HandleChromeStats serves GET /chrome/stats.
func (s *StatsService) HandleChromeStats(c *fiber.Ctx) error {
	if s.charts == nil || s.charts.Pool() == nil {
		return c.JSON(fiber.Map{
			"enabled":        false,
			"pool_size_conf": s.cfg.Chart.ChromePoolSize,
			"timeout_secs":   s.cfg.Chart.TimeoutSecs,
		})
	}

	st := s.charts.Pool().Stats(s.cfg.Chart.TimeoutSecs)
	return c.JSON(fiber.Map{
		"enabled":        st.Enabled,
		"capacity":       st.Capacity,
		"idle":           st.Idle,
		"in_use":         st.InUse,
		"pool_size_conf": st.PoolSizeConf,
		"profile_dir":    st.ProfileDir,
		"timeout_secs":   st.TimeoutSecs,
		"restarts":       st.Restarts,
		"last_restart":   st.LastRestart,
	})
}
