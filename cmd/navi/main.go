package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"navi/internal/audio"
	"navi/internal/bus"
	"navi/internal/capture"
	"navi/internal/config"
	"navi/internal/dialogue"
	"navi/internal/ipc"
	"navi/internal/notify"
	"navi/internal/proxy"
	"navi/internal/sentiment"
	"navi/internal/tts"
	"navi/internal/vad"
	"navi/pkg/audioconv"
	"navi/pkg/stt"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.TimeOnly,
	})))

	if err := run(cfg); err != nil {
		log.Error("Assistant stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log.Info("Booting up")

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	ctx, stop := context.WithCancel(sigCtx)
	defer stop()

	lines := dialogue.DefaultLines()
	if cfg.Script != "" {
		l, err := config.LoadScript(cfg.Script)
		if err != nil {
			return err
		}
		lines = l
		log.Debug("Loaded script", "path", cfg.Script)
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	capturer, closeCapture, err := newCapturer(cfg)
	if err != nil {
		return err
	}
	defer closeCapture()

	opts := []dialogue.Option{
		dialogue.WithLines(lines),
		dialogue.WithCalibration(cfg.Calibration),
		dialogue.WithObserver(logTurn),
	}

	if cfg.Bus != "" {
		b, err := bus.Dial(cfg.Bus, "navi")
		if err != nil {
			log.Warn("Bus unavailable, turns will not be published", "err", err)
		} else {
			defer b.Close()
			opts = append(opts, dialogue.WithObserver(b.Observe))
		}
	}

	assistant, err := dialogue.New(capturer, classifier, newSynthesizer(cfg), opts...)
	if err != nil {
		return err
	}

	if cfg.Socket != "" {
		srv, err := ipc.StartServer(cfg.Socket, control(assistant, stop))
		if err != nil {
			log.Warn("Control socket unavailable", "path", cfg.Socket, "err", err)
		} else {
			defer srv.Close()
		}
	}

	log.Info("Boot up - successful")

	err = assistant.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("Interrupted")
		return nil
	}
	return err
}

func newClassifier(cfg *config.Config) (dialogue.Classifier, error) {
	if cfg.Classifier != "openai" {
		return sentiment.NewLexicon(), nil
	}

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)

	log.Debug("Loaded openai scorer", "model", cfg.OpenAIModel, "proxy", cfg.Proxy)
	return sentiment.NewMemo(sentiment.NewOpenAI(client, cfg.OpenAIModel)), nil
}

func newSynthesizer(cfg *config.Config) dialogue.Synthesizer {
	console := &tts.Console{Name: cfg.Name, Out: os.Stdout}
	if cfg.Mute {
		return console
	}

	var voice dialogue.Synthesizer = tts.NewEspeak(cfg.Voice, cfg.Rate)
	if cfg.Duck {
		voice = &tts.Ducked{
			Inner:  voice,
			Ducker: audio.NewDucker(audio.Pactl{}, []string{"navi", "espeak-ng"}, 0.3, 150*time.Millisecond),
		}
	}

	return tts.Multi{console, voice}
}

func newCapturer(cfg *config.Config) (dialogue.Capturer, func(), error) {
	if cfg.Text {
		return capture.NewText(os.Stdin, os.Stdout), func() {}, nil
	}

	whisper, err := stt.NewTranscriber(cfg.Model, stt.Options{Language: cfg.Language})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Loaded whisper", "model", cfg.Model)

	if len(cfg.Replay) > 0 {
		decode := func(ctx context.Context, path string) ([]float32, error) {
			return audioconv.ConvertFileToPCM16k(ctx, path, audioconv.Options{
				MaxSamples: int(cfg.PhraseLimit.Seconds() * audioconv.TargetRate),
			})
		}
		return capture.NewReplay(cfg.Replay, decode, whisper), func() { whisper.Close() }, nil
	}

	vcfg := vad.DefaultConfig()
	vcfg.ListenTimeout = cfg.ListenTimeout
	vcfg.PhraseLimit = cfg.PhraseLimit

	rec := audio.NewRecorder(vcfg)
	if err := rec.Init(); err != nil {
		whisper.Close()
		return nil, nil, err
	}
	log.Debug("Loaded recorder")

	var cue func() error
	if cfg.Beep != "" {
		c, err := notify.NewCue(cfg.Beep)
		if err != nil {
			log.Warn("Listening cue disabled", "err", err)
		} else {
			cue = c.Play
		}
	}

	closer := func() {
		rec.Close()
		whisper.Close()
	}
	return capture.NewMic(rec, whisper, cue), closer, nil
}

func control(a *dialogue.Assistant, stop context.CancelFunc) ipc.Handler {
	return func(msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case "status":
			return ipc.Reply{OK: true, State: a.State().String(), Turns: a.Turns()}
		case "stop":
			log.Info("Stop requested over control socket")
			stop()
			return ipc.Reply{OK: true, State: a.State().String()}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return ipc.Reply{Error: "unknown command " + msg.Cmd}
		}
	}
}

func logTurn(t dialogue.Turn) {
	switch t.Outcome {
	case dialogue.OutcomeReplied:
		log.Info("Turn", "seq", t.Seq, "emotion", t.Emotion, "polarity", t.Polarity)
	case dialogue.OutcomeApology:
		log.Info("Turn", "seq", t.Seq, "outcome", t.Outcome, "err", t.Err)
	default:
		log.Info("Turn", "seq", t.Seq, "outcome", t.Outcome)
	}
}
