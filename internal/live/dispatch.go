package live

import (
	"log/slog"
	"time"
)

// Dispatcher fans classified traffic out to the registered callbacks. It
// holds no connection state and never blocks the caller beyond what the
// callbacks themselves do.
type Dispatcher struct {
	cb     Callbacks
	logger *slog.Logger
}

func NewDispatcher(cb Callbacks, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cb:     cb,
		logger: logger.With("component", "live_dispatch"),
	}
}

func (d *Dispatcher) emitReady() {
	if d.cb.OnReady != nil {
		d.cb.OnReady()
	}
}

func (d *Dispatcher) emitText(text string) {
	if d.cb.OnText != nil {
		d.cb.OnText(text)
	}
}

func (d *Dispatcher) emitAudio(chunk AudioChunk) {
	if d.cb.OnAudio != nil {
		d.cb.OnAudio(chunk)
	}
}

func (d *Dispatcher) emitFileRef(uri string) {
	if d.cb.OnFileRef != nil {
		d.cb.OnFileRef(uri)
	}
}

func (d *Dispatcher) emitExecutableCode(language, code string) {
	if d.cb.OnExecutableCode != nil {
		d.cb.OnExecutableCode(language, code)
	}
}

func (d *Dispatcher) emitCodeResult(outcome, output string) {
	if d.cb.OnCodeResult != nil {
		d.cb.OnCodeResult(outcome, output)
	}
}

func (d *Dispatcher) emitContent(parts []Part) {
	if d.cb.OnContent != nil {
		d.cb.OnContent(parts)
	}
}

func (d *Dispatcher) emitToolCall(calls []FunctionCall) {
	if d.cb.OnToolCall != nil {
		d.cb.OnToolCall(calls)
	}
}

func (d *Dispatcher) emitToolCancellation(ids []string) {
	if d.cb.OnToolCancellation != nil {
		d.cb.OnToolCancellation(ids)
	}
}

func (d *Dispatcher) emitInterrupted() {
	if d.cb.OnInterrupted != nil {
		d.cb.OnInterrupted()
	}
}

func (d *Dispatcher) emitTurnComplete() {
	if d.cb.OnTurnComplete != nil {
		d.cb.OnTurnComplete()
	}
}

func (d *Dispatcher) emitGenerationComplete() {
	if d.cb.OnGenerationComplete != nil {
		d.cb.OnGenerationComplete()
	}
}

func (d *Dispatcher) emitInputTranscript(t Transcript) {
	if d.cb.OnInputTranscript != nil {
		d.cb.OnInputTranscript(t)
	}
}

func (d *Dispatcher) emitOutputTranscript(t Transcript) {
	if d.cb.OnOutputTranscript != nil {
		d.cb.OnOutputTranscript(t)
	}
}

func (d *Dispatcher) emitUsage(u Usage) {
	if d.cb.OnUsage != nil {
		d.cb.OnUsage(u)
	}
}

func (d *Dispatcher) emitGoAway(timeLeft time.Duration) {
	if d.cb.OnGoAway != nil {
		d.cb.OnGoAway(timeLeft)
	}
}

func (d *Dispatcher) emitStateChange(s State) {
	if d.cb.OnStateChange != nil {
		d.cb.OnStateChange(s)
	}
}

func (d *Dispatcher) emitError(err error) {
	if err == nil {
		return
	}
	if d.cb.OnError == nil {
		d.logger.Error("unhandled session error", "error", err)
		return
	}
	d.cb.OnError(err)
}
