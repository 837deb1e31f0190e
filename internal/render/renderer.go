// Package render provides the default file-writing report renderer.
// Report content is pluggable; the pipeline only cares that an artifact
// file exists at the returned path.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ContentFunc produces the data for one report. Implementations are
// supplied by the reporting modules (energy, water, carbon, ...).
type ContentFunc func(ctx context.Context, tenantID, reportType string) (interface{}, error)

// FileRenderer writes report artifacts as files under an output
// directory, one timestamped file per render.
type FileRenderer struct {
	logger    *zap.Logger
	outputDir string
	content   ContentFunc
	now       func() time.Time
}

// NewFileRenderer creates a file renderer. A nil content function
// produces a minimal summary document.
func NewFileRenderer(outputDir string, content ContentFunc, logger *zap.Logger) *FileRenderer {
	if content == nil {
		content = defaultContent
	}
	return &FileRenderer{
		logger:    logger,
		outputDir: outputDir,
		content:   content,
		now:       time.Now,
	}
}

// Render generates the artifact and returns its path and size in bytes.
// Format "json" writes the content as JSON; anything else writes a plain
// text summary.
func (r *FileRenderer) Render(ctx context.Context, tenantID, reportType, format string) (string, int64, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create output directory: %w", err)
	}

	data, err := r.content(ctx, tenantID, reportType)
	if err != nil {
		return "", 0, fmt.Errorf("collect report data: %w", err)
	}

	now := r.now()
	ext := strings.ToLower(format)
	if ext == "" {
		ext = "txt"
	}
	name := fmt.Sprintf("%s_%s_%s.%s", reportType, tenantID, now.Format("20060102_150405"), ext)
	path := filepath.Join(r.outputDir, name)

	var body []byte
	if ext == "json" {
		body, err = json.MarshalIndent(data, "", "    ")
		if err != nil {
			return "", 0, fmt.Errorf("marshal report data: %w", err)
		}
	} else {
		content, err := json.MarshalIndent(data, "", "    ")
		if err != nil {
			return "", 0, fmt.Errorf("marshal report data: %w", err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "REPORT TYPE: %s\n", strings.ToUpper(reportType))
		fmt.Fprintf(&b, "TENANT: %s\n", tenantID)
		fmt.Fprintf(&b, "GENERATED: %s\n", now.Format("2006-01-02 15:04"))
		b.WriteString(strings.Repeat("-", 50) + "\n\n")
		b.Write(content)
		b.WriteString("\n")
		body = []byte(b.String())
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", 0, fmt.Errorf("write artifact: %w", err)
	}

	r.logger.Info("Rendered report artifact",
		zap.String("report_type", reportType),
		zap.String("tenant_id", tenantID),
		zap.String("path", path),
		zap.Int("size", len(body)))
	return path, int64(len(body)), nil
}

func defaultContent(_ context.Context, tenantID, reportType string) (interface{}, error) {
	return map[string]string{
		"tenant_id":   tenantID,
		"report_type": reportType,
	}, nil
}
