package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// RegionEntry is one region of a map document.
type RegionEntry struct {
	Code     domain.RegionCode `json:"code"`
	Name     string            `json:"name"`
	Value    float64           `json:"value"`
	Class    int               `json:"class"`
	Label    string            `json:"label"`
	Color    string            `json:"color"`
	Overseas bool              `json:"overseas,omitempty"`
}

// MapDocument is the self-contained input of the choropleth renderer.
type MapDocument struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Metric      string            `json:"metric"`
	GeneratedAt time.Time         `json:"generated_at"`
	Categories  []domain.Category `json:"categories"`
	Breaks      domain.Breaks     `json:"breaks"`
	Regions     []RegionEntry     `json:"regions"`
}

// NewMapDocument lays a classified map out in canonical region order.
// Regions without a value are omitted.
func NewMapDocument(m domain.MapResult) MapDocument {
	doc := MapDocument{
		ID:          m.ID,
		Title:       m.Title,
		Metric:      m.Metric,
		GeneratedAt: m.GeneratedAt,
		Categories:  m.Categories,
		Breaks:      m.Classification.Breaks,
	}
	for _, r := range domain.Regions() {
		v, ok := m.Values[r.Code]
		if !ok {
			continue
		}
		class := m.Classification.Assignments[r.Code]
		entry := RegionEntry{
			Code:     r.Code,
			Name:     r.Name,
			Value:    v,
			Class:    class,
			Overseas: r.Code.Outlier(),
		}
		if class >= 0 && class < len(m.Categories) {
			entry.Label = m.Categories[class].Label
			entry.Color = m.Categories[class].Color
		}
		doc.Regions = append(doc.Regions, entry)
	}
	return doc
}

// MapWriter stores map documents as <dir>/<id>.json.
// It implements pipeline.Publisher.
type MapWriter struct {
	dir    string
	logger *slog.Logger
}

// NewMapWriter creates a writer rooted at dir.
func NewMapWriter(dir string, logger *slog.Logger) *MapWriter {
	return &MapWriter{dir: dir, logger: logger}
}

// Publish writes every map document, creating dir when needed.
func (w *MapWriter) Publish(ctx context.Context, maps []domain.MapResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, m := range maps {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.dir, m.ID+".json")
		data, err := json.MarshalIndent(NewMapDocument(m), "", "  ")
		if err != nil {
			return fmt.Errorf("encode map %s: %w", m.ID, err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write map %s: %w", m.ID, err)
		}
		w.logger.Info("wrote map", "id", m.ID, "path", path, "regions", len(m.Values))
	}
	return nil
}
