package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
)

func newImportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "import FILE",
		Short:   "Merge an exchange file into the store",
		Example: "  histmapctl import ./atlas.json --db HistoricalMapDB.sqlite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if len(doc.HistoricalInfo) == 0 {
				return exchange.Errorf(exchange.CodeFileEmpty, "%s has no entries", args[0])
			}
			return deps.withStore(cmd.Context(), func(s *store) error {
				for i := range doc.HistoricalInfo {
					d := &doc.HistoricalInfo[i]
					if err := s.repo.Upsert(cmd.Context(), d); err != nil {
						return fmt.Errorf("upsert year %d: %w", d.Year, err)
					}
				}
				_, err := fmt.Fprintf(deps.out, "imported %d years from %s\n", len(doc.HistoricalInfo), filepath.Base(args[0]))
				return err
			})
		},
	}
}

func readDocument(path string) (exchange.Document, error) {
	f, err := exchange.DefaultRegistry().ForPath(path)
	if err != nil {
		return exchange.Document{}, err
	}
	b, err := exchange.ReadFile(path)
	if err != nil {
		return exchange.Document{}, err
	}
	return f.Decode(b)
}

func newExportCommand(deps commandDeps) *cobra.Command {
	var (
		from, to  int
		author    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write stored years to an exchange file",
		Example: "  histmapctl export ./atlas.bson --from -500 --to 500\n" +
			"  histmapctl export ./all.json --overwrite",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from > to {
				return exchange.Errorf(exchange.CodeInvalidParam, "--from %d is after --to %d", from, to)
			}
			f, err := exchange.DefaultRegistry().ForPath(args[0])
			if err != nil {
				return err
			}
			return deps.withStore(cmd.Context(), func(s *store) error {
				years, err := s.repo.ListYears(cmd.Context())
				if err != nil {
					return err
				}
				doc := exchange.Document{
					Author:         author,
					Date:           time.Now().UTC().Format(time.RFC3339),
					HistoricalInfo: []model.Data{},
				}
				for _, y := range years {
					if y < from || y > to {
						continue
					}
					d, err := s.repo.Load(cmd.Context(), y)
					if err != nil {
						return fmt.Errorf("load year %d: %w", y, err)
					}
					doc.HistoricalInfo = append(doc.HistoricalInfo, *d)
				}
				b, err := f.Encode(doc)
				if err != nil {
					return err
				}
				if err := exchange.WriteFile(args[0], b, overwrite); err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "exported %d years to %s\n", len(doc.HistoricalInfo), filepath.Base(args[0]))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", -3000, "First year to export")
	cmd.Flags().IntVar(&to, "to", 1911, "Last year to export")
	cmd.Flags().StringVar(&author, "author", "", "Author written into the file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}
