package multivod_test

import (
	"context"
	"errors"
	"testing"

	"clipmark/internal/multivod"
)

func TestFFprobeProbeParsesVideoInfo(t *testing.T) {
	payload := []byte(`{"streams":[{"codec_type":"video","codec_name":"h264","width":2560,"height":1440,"avg_frame_rate":"60/1"}],"format":{"duration":"1800.5","size":"2048"}}`)
	var gotArgs []string
	prober := multivod.NewFFprobe("ffprobe").WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return payload, nil
	})

	info, err := prober.Probe(context.Background(), "/v/match.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Duration != 1800.5 || info.FPS != 60 || info.Resolution() != "2560x1440" || info.Codec != "h264" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/v/match.mp4" {
		t.Fatalf("unexpected invocation: %v", gotArgs)
	}
}

func TestFFprobeProbeReportsRunnerFailure(t *testing.T) {
	prober := multivod.NewFFprobe("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	if _, err := prober.Probe(context.Background(), "/v/missing.mp4"); err == nil {
		t.Fatal("expected probe error")
	}
}
