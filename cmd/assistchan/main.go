// AssistChan — a hands-free guide through any how-to page.
//
// Usage:
//
//	assistchan [--verbose] [--quiet] [--voice whisper|stream]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/display"
	"github.com/hazieon/Assist-chan-2026/internal/domain"
	"github.com/hazieon/Assist-chan-2026/internal/engine"
	"github.com/hazieon/Assist-chan-2026/internal/extract"
	"github.com/hazieon/Assist-chan-2026/internal/llm"
	"github.com/hazieon/Assist-chan-2026/internal/router"
	"github.com/hazieon/Assist-chan-2026/internal/speech"
	"github.com/hazieon/Assist-chan-2026/internal/store"
)

func main() {
	_ = godotenv.Load()

	verbose := pflag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := pflag.Bool("quiet", false, "disable all logging")
	logFile := pflag.String("log-file", ".assistchan-logs/assistchan.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := pflag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	startMuted := pflag.Bool("muted", false, "start with narration muted")
	noAI := pflag.Bool("no-ai", false, "disable the language model even if keys are set")
	voiceMode := pflag.String("voice", "", "voice input backend: \"whisper\" (local) or \"stream\" (websocket service)")
	whisperBin := pflag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := pflag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	recordSecs := pflag.Int("record-secs", 2, "seconds per voice recording chunk")
	sttURL := pflag.String("stt-url", "", "websocket URL of the streaming recognition service")
	pflag.Parse()

	log, closeLog, err := buildLogger(*verbose, *quiet, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Redirect the stdlib log package (used by third-party libs like the
	// whisper transcriber) into zap so it doesn't spam the terminal.
	undoStdLog := zap.RedirectStdLog(log)
	defer undoStdLog()

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire dependencies.
	st := store.New(log)

	// Language model. Drives extraction, transformation, Q&A, and routing.
	var agent *llm.Agent
	gptKey := os.Getenv("GPT_CHAT_KEY")
	gptEndpoint := os.Getenv("GPT_CHAT_ENDPOINT")
	if gptKey != "" && gptEndpoint != "" && !*noAI {
		client := llm.NewClient(gptEndpoint, gptKey, log)
		agent = llm.NewAgent(client, log)
		log.Info("language model enabled")
	} else if !*noAI {
		log.Info("language model disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT env vars to enable")
	}

	var gen domain.Generator
	var extractor domain.Extractor
	var classifier router.Classifier
	if agent != nil {
		gen = agent
		classifier = agent
		extractor = extract.NewFetcher(agent, log)
	}

	eng := engine.New(st, gen, log)
	rt := router.New(classifier, log)

	// Text-to-speech. Falls back to a silent speaker when keys are missing
	// or the audio device can't be opened.
	var synth domain.Synthesizer = speech.NewNoOpSynthesizer(log)
	var sink speech.AudioSink = speech.NoOpSink{}
	ttsLive := false

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)
	if azureKey != "" && azureRegion != "" && !*noSpeech {
		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, narration disabled", zap.Error(err))
		} else {
			synth = speech.NewAzureClient(azureKey, azureRegion, log)
			sink = player
			ttsLive = true
			log.Info("TTS enabled", zap.String("voice", speech.DefaultVoice), zap.String("region", azureRegion))
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set AZURE_SPEECH_KEY and AZURE_SPEECH_REGION env vars to enable")
	}

	speaker := speech.NewSpeaker(synth, sink, log, speech.WithMuted(*startMuted || !ttsLive))

	// Voice input.
	var listener *speech.Listener
	switch *voiceMode {
	case "":
		// typed input only
	case "whisper":
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", *whisperModel)
			os.Exit(1)
		}
		os.MkdirAll(".assistchan-stt", 0o755)
		rec, err := speech.NewWhisperRecognizer(*whisperBin, *whisperModel, log,
			speech.WithRecordDuration(time.Duration(*recordSecs)*time.Second),
			speech.WithTempDir(".assistchan-stt"),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		listener = speech.NewListener(rec, log)
		log.Info("voice input enabled",
			zap.String("backend", "whisper"),
			zap.String("model", *whisperModel),
			zap.Int("chunk_secs", *recordSecs))
	case "stream":
		wsURL := *sttURL
		if wsURL == "" {
			wsURL = os.Getenv("STT_WS_URL")
		}
		if wsURL == "" {
			fmt.Fprintln(os.Stderr, "error: --voice stream needs --stt-url or STT_WS_URL")
			os.Exit(1)
		}
		rec, err := speech.NewStreamRecognizer(wsURL, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		listener = speech.NewListener(rec, log)
		log.Info("voice input enabled", zap.String("backend", "stream"), zap.String("url", wsURL))
	default:
		fmt.Fprintf(os.Stderr, "error: unknown voice backend %q (want \"whisper\" or \"stream\")\n", *voiceMode)
		os.Exit(1)
	}
	if listener != nil {
		listener.Start(ctx)
	}

	app := &app{
		store:     st,
		extractor: extractor,
		gen:       gen,
		engine:    eng,
		router:    rt,
		speaker:   speaker,
		listener:  listener,
		log:       log,
	}
	ui := display.NewUI(app.status)
	app.ui = ui

	fmt.Println(display.RenderBanner())
	if listener != nil {
		fmt.Println(display.BannerStyle.Render("  Voice input available — type 'listen' to turn on the microphone."))
	}
	fmt.Println(display.BannerStyle.Render("  Paste a link to load a guide. Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display error", zap.Error(err))
	}
	cancel()
}

// buildLogger directs logs to a file by default so the REPL stays clean.
func buildLogger(verbose, quiet bool, path string) (*zap.Logger, func(), error) {
	if quiet {
		return zap.NewNop(), func() {}, nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if path != "" && path != "stderr" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}
