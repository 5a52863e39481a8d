package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	state := engine.NewEmptyState()
	state.Tableau[0] = engine.Pile{
		{Suit: engine.Clubs, Rank: "9", Value: 9},
		engine.NewCard(engine.Spades, 6),
	}
	state.Tableau[1] = engine.Pile{engine.NewCard(engine.Spades, 5)}
	c := engine.NewCard(engine.Diamonds, 3)
	state.Reserve[0] = &c
	state.Foundations[2] = engine.Pile{engine.NewCard(engine.Hearts, 1)}
	state.MoveCount = 4
	state.ElapsedMs = 75000
	return state
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"plain body", http.StatusInternalServerError, "Internal Server Error", "API error"},
		{"json error", http.StatusNotFound, `{"error":"session not found"}`, "session not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:          "cd34",
			ProfileName: "relaxed",
			GameState:   sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), toolRequest("create_session", map[string]interface{}{"profile_id": "relaxed"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "cd34") || !strings.Contains(text, "relaxed") {
		t.Errorf("Expected session ID and profile in result, got: %s", text)
	}
	if gotBody["profile_id"] != "relaxed" {
		t.Errorf("Expected profile_id to be forwarded, got %v", gotBody)
	}
}

func TestClient_handleMove(t *testing.T) {
	var got service.MoveRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/move" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(service.MoveResult{
			Success:   true,
			Status:    engine.StatusPlaying,
			GameState: sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	request := toolRequest("move", map[string]interface{}{
		"session_id": "ab12",
		"kind":       "pile_to_pile",
		"from_kind":  "tableau",
		"from_index": float64(1),
		"card_index": float64(0),
		"to_kind":    "tableau",
		"to_index":   float64(0),
		"intent":     "build 5♠ on 6♠",
	})

	result, err := client.handleMove(context.Background(), request)
	if err != nil {
		t.Fatalf("handleMove failed: %v", err)
	}

	if got.Kind != "pile_to_pile" || got.From.Index != 1 || got.To == nil || got.To.Index != 0 {
		t.Errorf("Move request not built correctly: %+v", got)
	}
	if text := resultText(t, result); !strings.Contains(text, "✓ Move successful") {
		t.Errorf("Expected success marker, got: %s", text)
	}
}

func TestMoveRequestFromArgs_Auto(t *testing.T) {
	req := moveRequestFromArgs(toolRequest("move", map[string]interface{}{
		"kind":       "auto",
		"from_kind":  "reserve",
		"from_index": float64(2),
	}))

	if req.To != nil {
		t.Errorf("Expected no target for auto move, got %+v", req.To)
	}
	if req.From.Kind != engine.LocReserve || req.From.Index != 2 {
		t.Errorf("Unexpected source %+v", req.From)
	}
}

func TestClient_handleHint(t *testing.T) {
	tests := []struct {
		name string
		hint service.HintResult
		want string
	}{
		{
			name: "found",
			hint: service.HintResult{Found: true, Move: &engine.Move{
				Kind: engine.MovePileToPile,
				From: engine.Location{Kind: engine.LocTableau, Index: 1},
				To:   engine.Location{Kind: engine.LocTableau, Index: 0},
			}},
			want: "pile_to_pile: T1 card 0 -> T0",
		},
		{name: "none", hint: service.HintResult{}, want: "No moves available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.hint)
			}))
			defer server.Close()

			result, _ := NewClient(server.URL).handleHint(context.Background(), toolRequest("hint", map[string]interface{}{"session_id": "ab12"}))
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("Expected %q in result, got: %s", tt.want, text)
			}
		})
	}
}

func TestClient_handleNewGameSeed(t *testing.T) {
	var body map[string]int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(service.MoveResult{Success: true, GameState: sampleState()})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).handleNewGame(context.Background(), toolRequest("new_game", map[string]interface{}{
		"session_id": "ab12",
		"seed":       float64(42),
	}))
	if err != nil {
		t.Fatalf("handleNewGame failed: %v", err)
	}
	if body["seed"] != 42 {
		t.Errorf("Expected seed 42, got %v", body)
	}
}

func TestClient_handleImportRequiresData(t *testing.T) {
	client := NewClient("http://localhost:8080")
	result, _ := client.handleImport(context.Background(), toolRequest("import_game", map[string]interface{}{"session_id": "ab12"}))

	if !result.IsError {
		t.Error("Expected an error result for missing data")
	}
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(sampleState())

	expectedFields := []string{
		"Moves: 4",
		"Time: 1:15",
		"F2[A♥]",
		"R0[3♦]",
		"R1[--]",
		"T0: ## 6♠",
		"T2: (empty)",
	}

	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}
}

func TestFormatGameState_GameOver(t *testing.T) {
	state := sampleState()
	state.Finished = true

	if result := formatGameState(state); !strings.Contains(result, "💀 GAME OVER") {
		t.Errorf("Expected '💀 GAME OVER' in result, got: %s", result)
	}
}

func TestFormatMoveResult_Failed(t *testing.T) {
	moveResult := &service.MoveResult{
		Success:   false,
		Reason:    "6♠ cannot be placed on pile 3",
		GameState: sampleState(),
	}

	result := formatMoveResult(moveResult)

	if !strings.Contains(result, "✗ Move failed") || !strings.Contains(result, "cannot be placed") {
		t.Errorf("Expected failure and reason in result, got: %s", result)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"GAME OBJECTIVE:", "MOVE RULES:", "MOVE KINDS:", "WIN AND LOSS:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
