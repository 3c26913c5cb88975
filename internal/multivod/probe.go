package multivod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipmark/internal/logging"
	"clipmark/internal/media/ffprobe"
	"clipmark/internal/services"
)

// Prober reads media metadata for a file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.VideoInfo, error)
}

// FFprobe probes with the ffprobe binary.
type FFprobe struct {
	Binary string
	run    services.OutputRunner
}

// NewFFprobe returns a prober for binary.
func NewFFprobe(binary string) *FFprobe {
	return &FFprobe{Binary: binary, run: services.CommandOutput}
}

// WithRunner injects a custom runner for tests.
func (p *FFprobe) WithRunner(run services.OutputRunner) *FFprobe {
	if run != nil {
		p.run = run
	}
	return p
}

// Probe inspects path.
func (p *FFprobe) Probe(ctx context.Context, path string) (ffprobe.VideoInfo, error) {
	res, err := ffprobe.InspectWith(ctx, p.run, p.Binary, path)
	if err != nil {
		return ffprobe.VideoInfo{}, err
	}
	return res.VideoInfo()
}

// PathsRequest creates a session from media files.
type PathsRequest struct {
	Paths       []string
	Names       []string
	Name        string
	Description string
	CreatedBy   string
}

// CreateFromPaths probes each file and creates a session with vod ids
// "vod-1".."vod-N". A file that cannot be probed keeps an unknown duration,
// which fails validation with that vod's index.
func (m *Manager) CreateFromPaths(ctx context.Context, prober Prober, req PathsRequest) (*Session, error) {
	vods := make([]SessionVod, 0, len(req.Paths))
	for i, p := range req.Paths {
		abs, err := filepath.Abs(strings.TrimSpace(p))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "multivod", "create", fmt.Sprintf("vod %d: %v", i, err), nil)
		}
		vod := SessionVod{
			VodID: fmt.Sprintf("vod-%d", i+1),
			Name:  strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
			Path:  abs,
		}
		if i < len(req.Names) && strings.TrimSpace(req.Names[i]) != "" {
			vod.Name = strings.TrimSpace(req.Names[i])
		}
		info, err := prober.Probe(ctx, abs)
		if err != nil {
			logging.WarnWithContext(m.logger, "probe failed", "vod_probe_failed",
				logging.Int("vod_index", i),
				logging.String("path", abs),
				logging.Error(err),
				logging.String(logging.FieldImpact, "duration unknown"),
			)
		} else {
			vod.Duration = info.Duration
			vod.FPS = info.FPS
			vod.Resolution = info.Resolution()
			vod.Codec = info.Codec
		}
		if st, err := os.Stat(abs); err == nil {
			vod.FilesizeMB = float64(st.Size()) / (1024 * 1024)
		}
		vods = append(vods, vod)
	}
	return m.Create(ctx, CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Vods:        vods,
	})
}
