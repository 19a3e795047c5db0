package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	hlog "historicalmap/internal/log"
)

// Progress reports how far a long running operation got.
type Progress struct {
	Done    int  `json:"done"`
	Total   int  `json:"total"`
	Running bool `json:"running"`
}

// SaverService writes edited source years back to the store.
type SaverService interface {
	// Save stores every year of source within [start, end]. Only one save runs at a time.
	Save(ctx context.Context, source string, start, end int) error
	Progress() Progress
}

type saverService struct {
	sources SourceService
	data    DataManager
	logger  zerolog.Logger

	mu       sync.Mutex
	progress Progress
}

func NewSaverService(sources SourceService, data DataManager) SaverService {
	return &saverService{sources: sources, data: data, logger: hlog.WithComponent("saver")}
}

func (s *saverService) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *saverService) begin(total int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.Running {
		return false
	}
	s.progress = Progress{Total: total, Running: true}
	return true
}

func (s *saverService) step() {
	s.mu.Lock()
	s.progress.Done++
	s.mu.Unlock()
}

func (s *saverService) finish() {
	s.mu.Lock()
	s.progress.Running = false
	s.mu.Unlock()
}

func (s *saverService) Save(ctx context.Context, source string, start, end int) error {
	if start > end {
		return ErrInvalidRange
	}
	years, err := s.sources.Years(source)
	if err != nil {
		return err
	}
	var todo []int
	for _, y := range years {
		if y >= start && y <= end {
			todo = append(todo, y)
		}
	}
	if !s.begin(len(todo)) {
		return ErrSaveInProgress
	}
	defer s.finish()

	s.logger.Info().Str("source", source).Int("start", start).Int("end", end).Int("years", len(todo)).Msg("save started")
	for _, y := range todo {
		if err := ctx.Err(); err != nil {
			return err
		}
		sp, ok := s.sources.SavePoint(source, y)
		if !ok {
			// removed while saving
			s.step()
			continue
		}
		data, removed := sp.Data, sp.Removed
		if removed.IsEmpty() {
			removed = nil
		}
		if data.IsEmpty() {
			data = nil
		}
		if err := s.data.Apply(ctx, removed, data); err != nil {
			s.logger.Error().Err(err).Str("source", source).Int("year", y).Msg("save failed")
			return fmt.Errorf("save year %d: %w", y, err)
		}
		s.sources.MarkSaved(source, y, sp)
		s.step()
	}
	s.logger.Info().Str("source", source).Int("years", len(todo)).Msg("save finished")
	return nil
}
