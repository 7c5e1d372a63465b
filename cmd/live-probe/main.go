package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eleven-am/live-gateway/internal/live"
)

// live-probe dials the upstream generation service directly, sends one
// text prompt, and prints everything that comes back. Useful for checking
// credentials and model behavior without running the gateway.
func main() {
	var (
		endpoint = flag.String("endpoint", "", "upstream endpoint (default: service default)")
		apiKey   = flag.String("api-key", os.Getenv("LIVE_API_KEY"), "upstream API key")
		model    = flag.String("model", "", "model to converse with")
		prompt   = flag.String("prompt", "Say hello in one short sentence.", "text prompt to send")
		voice    = flag.String("voice", "", "voice for spoken replies")
		audioOut = flag.String("audio-out", "", "write rendered WAV of the reply to this path")
		timeout  = flag.Duration("timeout", 60*time.Second, "give up after this long")
		debug    = flag.Bool("debug", false, "log at debug level")
	)
	flag.Parse()

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "an API key is required (-api-key or LIVE_API_KEY)")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := live.Config{
		Endpoint: *endpoint,
		APIKey:   *apiKey,
		Model:    *model,
	}
	opts := live.SessionOptions{
		VoiceName:        *voice,
		TranscribeOutput: true,
	}
	if *audioOut == "" {
		opts.ResponseModalities = []string{"TEXT"}
	}

	done := make(chan struct{})
	client := (*live.Client)(nil)

	callbacks := live.Callbacks{
		OnReady: func() {
			fmt.Println("# channel open")
			if err := client.SendText(*prompt); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				close(done)
			}
		},
		OnText: func(text string) {
			fmt.Print(text)
		},
		OnOutputTranscript: func(t live.Transcript) {
			fmt.Print(t.Text)
		},
		OnAudio: func(chunk live.AudioChunk) {
			fmt.Fprintf(os.Stderr, ".")
		},
		OnToolCall: func(calls []live.FunctionCall) {
			for _, call := range calls {
				fmt.Printf("\n# tool call %s(%s)\n", call.Name, string(call.Args))
			}
		},
		OnInterrupted: func() {
			fmt.Println("\n# interrupted")
		},
		OnUsage: func(u live.Usage) {
			fmt.Fprintf(os.Stderr, "\n# tokens: prompt=%d response=%d\n", u.PromptTokens, u.ResponseTokens)
		},
		OnTurnComplete: func() {
			fmt.Println("\n# turn complete")
			close(done)
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "upstream error: %v\n", err)
		},
	}

	client = live.New(cfg, opts, live.NewDispatcher(callbacks, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-sig:
		fmt.Fprintln(os.Stderr, "\ninterrupted, hanging up")
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\ntimed out waiting for the turn")
	}

	if *audioOut != "" && client.Assembler().Len() > 0 {
		wav, err := client.Assembler().Render()
		if err != nil {
			fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		} else if err := os.WriteFile(*audioOut, wav, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *audioOut, err)
		} else {
			fmt.Fprintf(os.Stderr, "wrote %s (%d bytes, %s)\n", *audioOut, len(wav), client.Assembler().Duration())
		}
	}

	client.Disconnect()
}
