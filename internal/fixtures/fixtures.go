// Package fixtures ships sample surveys used to seed a fresh installation.
package fixtures

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"

	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/models"
	"github.com/coffee-research/coffee/internal/services"
)

// OwnerID owns every seeded survey.
const OwnerID = "u-fixtures"

//go:embed surveys/*.json
var files embed.FS

type Fixture struct {
	Name   string
	Survey *models.Survey
}

// Load decodes every embedded survey, sorted by file name.
func Load() ([]Fixture, error) {
	names, err := fs.Glob(files, "surveys/*.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Fixture, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		s, err := codec.DecodeSurvey(data)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
		out = append(out, Fixture{Name: path.Base(name), Survey: s})
	}
	return out, nil
}

// Seed publishes the fixtures under OwnerID, skipping titles that owner
// already has, and returns what was published.
func Seed(svc *services.SurveyService) ([]*services.StoredSurvey, error) {
	fixtures, err := Load()
	if err != nil {
		return nil, err
	}
	existing, err := svc.ListByOwner(OwnerID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, ss := range existing {
		have[ss.Survey.Title] = true
	}
	var seeded []*services.StoredSurvey
	for _, f := range fixtures {
		if have[f.Survey.Title] {
			continue
		}
		ss, err := svc.Publish(OwnerID, f.Survey)
		if err != nil {
			return seeded, fmt.Errorf("seed %s: %w", f.Name, err)
		}
		slog.Info("seeded survey", slog.String("fixture", f.Name), slog.String("survey_id", ss.ID))
		seeded = append(seeded, ss)
	}
	return seeded, nil
}
