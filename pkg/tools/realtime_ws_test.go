package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

func TestCaptureRealtimeWS(t *testing.T) {
	type subscribeMsg struct {
		Action  string `json:"action"`
		Symbols string `json:"symbols"`
	}
	gotSub := make(chan subscribeMsg, 1)
	gotToken := make(chan string, 1)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/us", r.URL.Path)
		gotToken <- r.URL.Query().Get("api_token")

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var sub subscribeMsg
		require.NoError(t, json.Unmarshal(data, &sub))
		gotSub <- sub

		conn.Write(ctx, websocket.MessageText, []byte(`{"s":"AAPL","p":190.1}`))
		conn.Write(ctx, websocket.MessageText, []byte(`{"s":"AAPL","p":190.2}`))
		<-ctx.Done()
	}))
	defer feedSrv.Close()

	deps := Deps{
		Client: eodhd.NewClient("http://unused.invalid", "demo", zerolog.Nop()),
		WSBase: "ws" + strings.TrimPrefix(feedSrv.URL, "http"),
		Logger: zerolog.Nop(),
	}

	res, err := deps.handleCaptureRealtimeWS(context.Background(), callReq("capture_realtime_ws", map[string]interface{}{
		"feed":             "us_trades",
		"symbols":          []interface{}{"AAPL", "MSFT"},
		"duration_seconds": float64(5),
		"max_messages":     float64(2),
	}))
	require.NoError(t, err)

	var capture wsCapture
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &capture))
	assert.Equal(t, "us_trades", capture.Feed)
	assert.Equal(t, "us", capture.Endpoint)
	assert.Equal(t, []string{"AAPL", "MSFT"}, capture.Symbols)
	assert.Equal(t, 2, capture.MessageCount)
	require.Len(t, capture.Messages, 2)
	assert.JSONEq(t, `{"s":"AAPL","p":190.1}`, string(capture.Messages[0]))

	assert.Equal(t, "demo", <-gotToken)
	sub := <-gotSub
	assert.Equal(t, "subscribe", sub.Action)
	assert.Equal(t, "AAPL,MSFT", sub.Symbols)
}

func TestCaptureRealtimeWSValidation(t *testing.T) {
	deps := Deps{
		Client: eodhd.NewClient("http://unused.invalid", "demo", zerolog.Nop()),
		WSBase: "ws://unused.invalid",
		Logger: zerolog.Nop(),
	}

	res, err := deps.handleCaptureRealtimeWS(context.Background(), callReq("capture_realtime_ws", map[string]interface{}{
		"feed":    "options",
		"symbols": []interface{}{"AAPL"},
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "Invalid 'feed'")

	res, err = deps.handleCaptureRealtimeWS(context.Background(), callReq("capture_realtime_ws", map[string]interface{}{
		"feed": "us_trades",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "'symbols' is required")

	res, err = deps.handleCaptureRealtimeWS(context.Background(), callReq("capture_realtime_ws", map[string]interface{}{
		"feed":             "us_trades",
		"symbols":          []interface{}{"AAPL"},
		"duration_seconds": float64(0),
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "duration_seconds")
}

func TestCaptureRealtimeWSDialFailure(t *testing.T) {
	deps := Deps{
		Client: eodhd.NewClient("http://unused.invalid", "demo", zerolog.Nop()),
		WSBase: "ws://127.0.0.1:1",
		Logger: zerolog.Nop(),
	}

	start := time.Now()
	res, err := deps.handleCaptureRealtimeWS(context.Background(), callReq("capture_realtime_ws", map[string]interface{}{
		"feed":             "crypto",
		"symbols":          []interface{}{"BTC-USD"},
		"duration_seconds": float64(2),
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "Failed to connect")
	assert.Less(t, time.Since(start), 10*time.Second)
}
