// Command demo-client is a terminal device for the live gateway. It opens
// a session over the device websocket, sends each stdin line as a text
// turn, and prints whatever the model streams back. Audio chunks are
// appended to a raw PCM file when AUDIO_OUT is set.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

// Message mirrors the gateway's device envelope. Only the fields this
// client touches are declared; unknown fields are ignored on decode.
type Message struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id,omitempty"`
	Text      string   `json:"text,omitempty"`
	Final     bool     `json:"final,omitempty"`
	Data      string   `json:"data,omitempty"`
	MIMEType  string   `json:"mime_type,omitempty"`
	Parts     []Part   `json:"parts,omitempty"`
	Calls     []Call   `json:"calls,omitempty"`
	Results   []Result `json:"results,omitempty"`
	IDs       []string `json:"ids,omitempty"`

	SystemInstruction string   `json:"system_instruction,omitempty"`
	Modalities        []string `json:"modalities,omitempty"`
	Voice             string   `json:"voice,omitempty"`

	Usage *Usage `json:"usage,omitempty"`
	Error *Error `json:"error,omitempty"`

	State      string `json:"state,omitempty"`
	TimeLeftMs int64  `json:"time_left_ms,omitempty"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type Call struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type Result struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type Usage struct {
	PromptTokens   int `json:"prompt_tokens"`
	ResponseTokens int `json:"response_tokens"`
	TotalTokens    int `json:"total_tokens"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func main() {
	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		log.Fatal("API_KEY env required")
	}

	gwURL := os.Getenv("GATEWAY_URL")
	if gwURL == "" {
		gwURL = "ws://localhost:8080/v1/live/ws"
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)

	fmt.Printf("[DEMO] Connecting to %s\n", gwURL)

	conn, resp, err := websocket.DefaultDialer.Dial(gwURL, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			fmt.Printf("[DEMO] Dial failed: status=%d body=%s\n", resp.StatusCode, string(body))
		}
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	var audioOut *os.File
	if path := os.Getenv("AUDIO_OUT"); path != "" {
		audioOut, err = os.Create(path)
		if err != nil {
			log.Fatal("audio out:", err)
		}
		defer audioOut.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\n[DEMO] Hanging up...")
		send(conn, Message{Type: "end"})
		conn.Close()
		os.Exit(0)
	}()

	setup := Message{
		Type:              "setup",
		SystemInstruction: os.Getenv("SYSTEM_INSTRUCTION"),
		Voice:             os.Getenv("VOICE"),
	}
	if audioOut == nil {
		setup.Modalities = []string{"TEXT"}
	}
	send(conn, setup)

	// Reader goroutine owns the socket reads; stdin drives sends below.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Printf("[DEMO] Read error: %v\n", err)
				return
			}

			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				fmt.Printf("[DEMO] Bad frame: %v\n", err)
				continue
			}
			handle(conn, msg, audioOut)
			if msg.Type == "ended" {
				return
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "/quit" {
			send(conn, Message{Type: "end"})
			break
		}
		send(conn, Message{Type: "text", Text: line})
	}
	<-done
}

func handle(conn *websocket.Conn, msg Message, audioOut *os.File) {
	switch msg.Type {
	case "ready":
		fmt.Printf("[DEMO] Session %s ready. Type to talk, /quit to leave.\n", msg.SessionID)
	case "text":
		fmt.Print(msg.Text)
	case "content":
		for _, p := range msg.Parts {
			if p.Text != "" {
				fmt.Print(p.Text)
			}
		}
	case "audio":
		if audioOut == nil {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			fmt.Printf("[DEMO] Bad audio chunk: %v\n", err)
			return
		}
		audioOut.Write(pcm)
	case "input_transcript":
		if msg.Final {
			fmt.Printf("\n[YOU] %s\n", msg.Text)
		}
	case "output_transcript":
		if msg.Final {
			fmt.Printf("\n[MODEL] %s\n", msg.Text)
		}
	case "tool_call":
		for _, call := range msg.Calls {
			fmt.Printf("\n[DEMO] Tool call %s(%s)\n", call.Name, string(call.Args))
			// Every tool resolves to the same canned answer; this client
			// exists to exercise the round trip, not to do real work.
			send(conn, Message{Type: "tool_result", Results: []Result{{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"output": "ok"},
			}}})
		}
	case "tool_cancel":
		fmt.Printf("\n[DEMO] Tool calls cancelled: %v\n", msg.IDs)
	case "interrupted":
		fmt.Println("\n[DEMO] Model interrupted")
	case "turn_complete":
		fmt.Println()
	case "usage":
		if msg.Usage != nil {
			fmt.Printf("[DEMO] Tokens: prompt=%d response=%d total=%d\n",
				msg.Usage.PromptTokens, msg.Usage.ResponseTokens, msg.Usage.TotalTokens)
		}
	case "go_away":
		fmt.Printf("[DEMO] Server is going away, %dms left\n", msg.TimeLeftMs)
	case "state":
		fmt.Printf("[DEMO] Upstream state: %s\n", msg.State)
	case "error":
		if msg.Error != nil {
			fmt.Printf("[DEMO] Error %s: %s\n", msg.Error.Code, msg.Error.Message)
		}
	case "ended":
		fmt.Println("[DEMO] Session ended")
	}
}

func send(conn *websocket.Conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		fmt.Printf("[DEMO] Marshal error: %v\n", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		fmt.Printf("[DEMO] Write error: %v\n", err)
	}
}
