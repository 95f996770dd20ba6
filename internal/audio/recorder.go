package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"navi/internal/vad"
)

// Recorder captures one phrase from the default input device.
type Recorder struct {
	cfg vad.Config
}

func NewRecorder(cfg vad.Config) *Recorder { return &Recorder{cfg: cfg} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record samples ambient noise for calibration, then waits for speech and
// returns the phrase as 16 kHz mono PCM. ready, if non-nil, runs once
// calibration is over and the recorder is listening for speech. It returns
// vad.ErrNoSpeech when the listen timeout passes in silence.
func (r *Recorder) Record(ctx context.Context, calibration time.Duration, ready func()) ([]float32, error) {
	buf := make([]float32, r.cfg.FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	ep := vad.NewEndpointer(r.cfg)

	for i := 0; i < r.cfg.CalibrationFrames(calibration); i++ {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		ep.Calibrate(buf)
	}

	log.Debug("Calibrated", "threshold", ep.Threshold())

	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		switch ep.Feed(buf) {
		case vad.TimedOut:
			return nil, vad.ErrNoSpeech
		case vad.Done:
			return ep.Phrase(), nil
		}
	}
}
