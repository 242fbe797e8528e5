package station

import (
	"context"
	"time"

	"PellinesFM/logger"
)

// Scheduler 自动切歌调度器：在 PLAYLIST 模式下按当前曲目的实际时长
// 推进播放列表。每次状态变更后定时器都会按新曲目重新校准，曲目没有
// 声明时长时退回到配置的保守间隔。
type Scheduler struct {
	station *Station
}

// NewScheduler creates a scheduler bound to a station.
func NewScheduler(s *Station) *Scheduler {
	return &Scheduler{station: s}
}

// Run blocks until ctx is cancelled. Each tick acquires the same mutation
// boundary as administrative commands (inside Advance), so a manual
// selection and an automatic advance can never race.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.station.NextAdvanceDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.station.TransitionSignal():
			// 状态变了（选歌、直播开始/结束等），按新状态重新计时
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.station.NextAdvanceDelay())

		case <-timer.C:
			if _, ok := s.station.Advance(ctx); !ok {
				logger.Debug("auto-advance tick with nothing to play")
			}
			timer.Reset(s.station.NextAdvanceDelay())
		}
	}
}
