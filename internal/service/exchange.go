package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"historicalmap/internal/exchange"
	hlog "historicalmap/internal/log"
	"historicalmap/internal/model"
)

// ExportRequest describes one export.
type ExportRequest struct {
	File      string `json:"file"`
	Format    string `json:"format"`
	Overwrite bool   `json:"overwrite"`
	Source    string `json:"source"`
	Author    string `json:"author"`
}

// ImportResult names the source created by an import.
type ImportResult struct {
	Source    string `json:"source"`
	FirstYear int    `json:"first_year"`
	Years     int    `json:"years"`
}

// ExchangeService moves source data to and from exchange files.
type ExchangeService interface {
	// Export writes the selected items of req.Source. It returns the number of years written.
	Export(ctx context.Context, req ExportRequest) (int, error)
	// Import reads file into a new source named after it.
	Import(ctx context.Context, file string) (ImportResult, error)
	Formats() []string
	Progress() Progress
}

type exchangeService struct {
	sources  SourceService
	selector Selector
	formats  *exchange.Registry
	now      func() time.Time
	logger   zerolog.Logger

	mu       sync.Mutex
	progress Progress
}

func NewExchangeService(sources SourceService, selector Selector, formats *exchange.Registry) ExchangeService {
	if formats == nil {
		formats = exchange.DefaultRegistry()
	}
	return &exchangeService{
		sources:  sources,
		selector: selector,
		formats:  formats,
		now:      time.Now,
		logger:   hlog.WithComponent("exchange"),
	}
}

func (s *exchangeService) Formats() []string { return s.formats.Names() }

func (s *exchangeService) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *exchangeService) setProgress(done, total int, running bool) {
	s.mu.Lock()
	s.progress = Progress{Done: done, Total: total, Running: running}
	s.mu.Unlock()
}

func (s *exchangeService) format(name, file string) (exchange.Format, error) {
	if name != "" {
		return s.formats.Lookup(name)
	}
	return s.formats.ForPath(file)
}

func (s *exchangeService) Export(ctx context.Context, req ExportRequest) (int, error) {
	if req.File == "" {
		return 0, exchange.Errorf(exchange.CodeInvalidParam, "file name is empty")
	}
	if req.Source == "" {
		req.Source = PermanentSource
	}
	f, err := s.format(req.Format, req.File)
	if err != nil {
		return 0, err
	}
	if f.Extension() != "" && !strings.EqualFold(filepath.Ext(req.File), f.Extension()) {
		req.File += f.Extension()
	}
	years, err := s.sources.Years(req.Source)
	if err != nil {
		return 0, err
	}

	selected := s.selector.Years()
	if len(selected) > 0 {
		years = intersect(years, selected)
	}
	s.setProgress(0, len(years), true)
	defer func() {
		p := s.Progress()
		s.setProgress(p.Done, p.Total, false)
	}()

	entries := make([]model.Data, 0, len(years))
	for i, y := range years {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, ok := s.sources.Data(req.Source, y)
		if !ok {
			continue
		}
		if len(selected) > 0 {
			sel, _ := s.selector.Selection(y)
			data = filter(data, sel)
		}
		entries = append(entries, *data)
		s.setProgress(i+1, len(years), true)
	}

	doc := exchange.Document{
		Author:         req.Author,
		Date:           s.now().UTC().Format(time.RFC3339),
		HistoricalInfo: entries,
	}
	b, err := f.Encode(doc)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", f.Name(), err)
	}
	if err := exchange.WriteFile(req.File, b, req.Overwrite); err != nil {
		return 0, err
	}
	s.logger.Info().Str("file", req.File).Str("format", f.Name()).Str("source", req.Source).Int("years", len(entries)).Msg("export finished")
	return len(entries), nil
}

func (s *exchangeService) Import(ctx context.Context, file string) (ImportResult, error) {
	if file == "" {
		return ImportResult{}, exchange.Errorf(exchange.CodeInvalidParam, "file name is empty")
	}
	b, err := exchange.ReadFile(file)
	if err != nil {
		return ImportResult{}, err
	}
	f, err := s.formats.ForPath(file)
	if err != nil {
		return ImportResult{}, err
	}
	doc, err := f.Decode(b)
	if err != nil {
		return ImportResult{}, err
	}
	if len(doc.HistoricalInfo) == 0 {
		return ImportResult{}, exchange.Errorf(exchange.CodeFileEmpty, "%s has no entries", file)
	}
	entries := append([]model.Data(nil), doc.HistoricalInfo...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Year < entries[j].Year })

	name := s.claimSource(file)

	s.setProgress(0, len(entries), true)
	defer func() {
		p := s.Progress()
		s.setProgress(p.Done, p.Total, false)
	}()
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return ImportResult{}, err
		}
		if err := s.sources.Put(name, &entries[i]); err != nil {
			return ImportResult{}, err
		}
		s.setProgress(i+1, len(entries), true)
	}
	s.logger.Info().Str("file", file).Str("source", name).Int("years", len(entries)).Msg("import finished")
	return ImportResult{Source: name, FirstYear: entries[0].Year, Years: len(entries)}, nil
}

// claimSource creates the source for file: the base name without extension, suffixed
// -N while taken. AddSource decides, so a source created concurrently through another
// path is never reused.
func (s *exchangeService) claimSource(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if base == "" || base == "." {
		base = "import"
	}
	name := base
	for n := 2; !s.sources.AddSource(name); n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	return name
}

// filter keeps the items of d named in sel.
func filter(d *model.Data, sel Selection) *model.Data {
	out := model.NewData(d.Year)
	countries := set(sel.Countries)
	for _, c := range d.Countries {
		if _, ok := countries[c.Name]; ok {
			out.Countries = append(out.Countries, c)
		}
	}
	cities := set(sel.Cities)
	for _, c := range d.Cities {
		if _, ok := cities[c.Name]; ok {
			out.Cities = append(out.Cities, c)
		}
	}
	if sel.Note && d.Note != nil {
		n := *d.Note
		out.Note = &n
	}
	return out
}

func set(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// intersect returns the values present in both sorted slices.
func intersect(a, b []int) []int {
	out := []int{}
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
