package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"nhooyr.io/websocket"
)

// wsFeeds maps tool-facing feed names to websocket endpoint paths.
var wsFeeds = map[string]string{
	"us_trades": "us",
	"us_quotes": "us-quote",
	"forex":     "forex",
	"crypto":    "crypto",
}

const (
	defaultCaptureSeconds = 5
	maxCaptureSeconds     = 600
)

func captureRealtimeWSTool() mcp.Tool {
	return mcp.NewTool("capture_realtime_ws",
		mcp.WithDescription("Capture real-time data from an EODHD websocket feed for a fixed window, then return the collected messages. Feeds: us_trades, us_quotes, forex, crypto."),
		mcp.WithString("feed", mcp.Required(), mcp.Description("'us_trades', 'us_quotes', 'forex' or 'crypto'")),
		mcp.WithArray("symbols", mcp.Required(), mcp.WithStringItems(), mcp.Description("Symbols to subscribe, e.g. ['AAPL', 'MSFT'], ['EURUSD'] or ['ETH-USD']")),
		mcp.WithNumber("duration_seconds", mcp.Description("How long to capture, 1..600; default 5")),
		mcp.WithNumber("max_messages", mcp.Description("Stop early after this many messages")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override; 'demo' supports AAPL, MSFT, TSLA, EURUSD, ETH-USD, BTC-USD")),
	)
}

type wsCapture struct {
	Feed            string            `json:"feed"`
	Endpoint        string            `json:"endpoint"`
	Symbols         []string          `json:"symbols"`
	DurationSeconds int               `json:"duration_seconds"`
	StartedAt       int64             `json:"started_at"`
	EndedAt         int64             `json:"ended_at"`
	MessageCount    int               `json:"message_count"`
	Messages        []json.RawMessage `json:"messages"`
}

func (d Deps) handleCaptureRealtimeWS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feed, err := req.RequireString("feed")
	if err != nil || wsFeeds[feed] == "" {
		return errResult("Invalid 'feed'. Allowed: [crypto forex us_quotes us_trades]"), nil
	}
	symbols := req.GetStringSlice("symbols", nil)
	if len(symbols) == 0 {
		return errResult("Parameter 'symbols' is required (e.g., ['AAPL', 'MSFT'])."), nil
	}

	duration := req.GetInt("duration_seconds", defaultCaptureSeconds)
	if duration < 1 || duration > maxCaptureSeconds {
		return errResult("'duration_seconds' must be an integer between 1 and %d.", maxCaptureSeconds), nil
	}
	maxMessages := req.GetInt("max_messages", 0)
	if maxMessages < 0 {
		return errResult("'max_messages' must be a positive integer."), nil
	}

	endpoint := wsFeeds[feed]
	symbolList := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			symbolList = append(symbolList, s)
		}
	}
	token := d.Client.ResolveToken(ctx, req.GetString("api_token", ""))
	dialURL := strings.TrimRight(d.WSBase, "/") + "/" + endpoint + "?api_token=" + url.QueryEscape(token)

	capCtx, cancel := context.WithTimeout(ctx, time.Duration(duration)*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(capCtx, dialURL, nil)
	if err != nil {
		return errResult("Failed to connect to WebSocket endpoint: %s", err.Error()), nil
	}
	defer conn.Close(websocket.StatusNormalClosure, "capture complete")
	conn.SetReadLimit(1 << 20)

	capture := wsCapture{
		Feed:            feed,
		Endpoint:        endpoint,
		Symbols:         symbolList,
		DurationSeconds: duration,
		StartedAt:       time.Now().UnixMilli(),
		Messages:        []json.RawMessage{},
	}

	sub, _ := json.Marshal(map[string]string{"action": "subscribe", "symbols": strings.Join(symbolList, ",")})
	if err := conn.Write(capCtx, websocket.MessageText, sub); err != nil {
		return errResult("Failed to subscribe: %s", err.Error()), nil
	}

	for maxMessages == 0 || len(capture.Messages) < maxMessages {
		_, data, err := conn.Read(capCtx)
		if err != nil {
			// The deadline firing is the normal way a capture window ends.
			break
		}
		if !json.Valid(data) {
			wrapped, _ := json.Marshal(map[string]string{"raw": string(data)})
			data = wrapped
		}
		capture.Messages = append(capture.Messages, json.RawMessage(data))
	}
	capture.EndedAt = time.Now().UnixMilli()
	capture.MessageCount = len(capture.Messages)

	d.Logger.Debug().
		Str("feed", feed).
		Strs("symbols", symbolList).
		Int("count", capture.MessageCount).
		Msg("websocket capture finished")

	out, err := json.MarshalIndent(capture, "", "  ")
	if err != nil {
		return errResult("Failed to encode captured messages: %s", err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
