package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"journal-live/domain/event"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

type watchedFrame struct {
	Event event.Type         `json:"event"`
	Data  json.RawMessage `json:"data"`
	Token json.RawMessage `json:"token,omitempty"`
	At    time.Time       `json:"ts"`
}

func websocketURL(serverURL string) string {
	url := strings.TrimRight(serverURL, "/") + "/ws"
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url
}

// watch prints frames until the context is canceled or the server closes.
func watch(ctx context.Context, w io.Writer, settings Settings, token string, journals []string) error {
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, websocketURL(settings.ServerURL), header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for _, journalID := range journals {
		frame, _ := json.Marshal(map[string]any{"event": event.SubscribeJournalType, "data": map[string]string{"journal_id": journalID}})
		if err = conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("subscribe %s: %w", journalID, err)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fmt.Fprintln(w, formatFrame(data, settings.Colours))
	}
}

func formatFrame(data []byte, colours bool) string {
	var frame watchedFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return string(data)
	}
	name := fmt.Sprintf("%-22s", string(frame.Event))
	if colours {
		style := color.New(color.FgCyan)
		switch {
		case frame.Event == event.ErrorType:
			style = color.New(color.FgRed, color.OpBold)
		case frame.Event == event.NewMessageType || frame.Event == event.ReactionUpdatedType:
			style = color.New(color.FgGreen)
		case len(frame.Token) > 0 || frame.Event == event.TokenRefreshedType:
			style = color.New(color.FgYellow)
		}
		name = style.Render(name)
	}
	return fmt.Sprintf("%s %s %s", frame.At.Local().Format("15:04:05"), name, string(frame.Data))
}
