package live

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const maxLoggedPayload = 120

func decodeServerFrame(data []byte) (*serverFrame, error) {
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode server frame: %w", err)
	}
	return &f, nil
}

func truncatePayload(data []byte) string {
	s := string(data)
	if len(s) > maxLoggedPayload {
		return s[:maxLoggedPayload] + "..."
	}
	return s
}

// classifier routes decoded frames to the dispatcher and audio assembler.
// It is deliberately connection-free so frame handling stays testable
// without a live socket. Malformed or unmatched frames are logged and
// dropped; they never become errors.
type classifier struct {
	dispatch  *Dispatcher
	assembler *Assembler
	wire      *StreamLog
	logger    *slog.Logger
}

func (cl *classifier) handle(raw []byte) {
	frame, err := decodeServerFrame(raw)
	if err != nil {
		cl.logger.Warn("dropping undecodable frame", "error", err, "bytes", len(raw))
		cl.wire.Append("server.unmatched", truncatePayload(raw))
		return
	}

	handled := false
	if frame.UsageMetadata != nil {
		cl.wire.Append("server.usage", fmt.Sprintf("total=%d", frame.UsageMetadata.TotalTokenCount))
		cl.dispatch.emitUsage(Usage{
			PromptTokens:   frame.UsageMetadata.PromptTokenCount,
			ResponseTokens: frame.UsageMetadata.ResponseTokenCount,
			TotalTokens:    frame.UsageMetadata.TotalTokenCount,
		})
		handled = true
	}

	switch {
	case frame.SetupComplete != nil:
		cl.wire.Append("server.setupComplete", "")
		cl.dispatch.emitReady()
	case frame.ToolCall != nil:
		cl.wire.Append("server.toolCall", callNames(frame.ToolCall.FunctionCalls))
		cl.dispatch.emitToolCall(frame.ToolCall.FunctionCalls)
	case frame.ToolCallCancellation != nil:
		cl.wire.Append("server.toolCallCancellation", strings.Join(frame.ToolCallCancellation.IDs, ","))
		cl.dispatch.emitToolCancellation(frame.ToolCallCancellation.IDs)
	case frame.ServerContent != nil:
		cl.handleContent(frame.ServerContent)
	case frame.GoAway != nil:
		left := parseTimeLeft(frame.GoAway.TimeLeft)
		cl.wire.Append("server.goAway", frame.GoAway.TimeLeft)
		cl.logger.Warn("server announced shutdown", "time_left", left)
		cl.dispatch.emitGoAway(left)
	default:
		if !handled {
			cl.logger.Debug("unmatched server frame", "payload", truncatePayload(raw))
			cl.wire.Append("server.unmatched", truncatePayload(raw))
		}
	}
}

func (cl *classifier) handleContent(sc *serverContent) {
	if sc.Interrupted {
		cl.wire.Append("server.interrupted", "")
		cl.dispatch.emitInterrupted()
		return
	}
	if sc.InputTranscription != nil {
		cl.wire.Append("server.inputTranscription", sc.InputTranscription.Text)
		cl.dispatch.emitInputTranscript(Transcript{
			Text:     sc.InputTranscription.Text,
			Finished: sc.InputTranscription.Finished,
		})
	}
	if sc.OutputTranscription != nil {
		cl.wire.Append("server.outputTranscription", sc.OutputTranscription.Text)
		cl.dispatch.emitOutputTranscript(Transcript{
			Text:     sc.OutputTranscription.Text,
			Finished: sc.OutputTranscription.Finished,
		})
	}
	// Content events always precede the turn boundary they belong to.
	if sc.ModelTurn != nil {
		cl.handleModelTurn(sc.ModelTurn.Parts)
	}
	if sc.GenerationComplete {
		cl.wire.Append("server.generationComplete", "")
		cl.dispatch.emitGenerationComplete()
	}
	if sc.TurnComplete {
		cl.wire.Append("server.turnComplete", "")
		cl.dispatch.emitTurnComplete()
	}
}

// handleModelTurn splits audio parts from the rest. Audio goes to the
// assembler and its own event; everything else gets a typed event per part
// plus one aggregate content event carrying exactly the non-audio parts.
func (cl *classifier) handleModelTurn(parts []Part) {
	var rest []Part
	for _, p := range parts {
		if isPCMAudioPart(p) {
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				cl.logger.Warn("dropping undecodable audio part", "error", err)
				cl.wire.Append("server.unmatched", "bad audio payload")
				continue
			}
			cl.assembler.Append(data, p.InlineData.MIMEType)
			cl.wire.Append("server.audio", fmt.Sprintf("%d bytes", len(data)))
			cl.dispatch.emitAudio(AudioChunk{Data: data, MIMEType: p.InlineData.MIMEType})
			continue
		}
		rest = append(rest, p)
	}
	for _, p := range rest {
		switch {
		case p.FileData != nil:
			cl.dispatch.emitFileRef(p.FileData.FileURI)
		case p.ExecutableCode != nil:
			cl.dispatch.emitExecutableCode(p.ExecutableCode.Language, p.ExecutableCode.Code)
		case p.CodeExecutionResult != nil:
			cl.dispatch.emitCodeResult(p.CodeExecutionResult.Outcome, p.CodeExecutionResult.Output)
		case p.Text != "":
			cl.dispatch.emitText(p.Text)
		}
	}
	if len(rest) > 0 {
		cl.wire.Append("server.content", fmt.Sprintf("%d parts", len(rest)))
		cl.dispatch.emitContent(rest)
	}
}

func callNames(calls []FunctionCall) string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return strings.Join(names, ",")
}

// parseTimeLeft reads the proto JSON duration form ("30s", "2.5s").
func parseTimeLeft(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
