package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Reserve Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Reserve Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Move all 52 cards to the four foundations, building up in suit from the ace.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: Manage tables
- game_state: Render the current table
- move: Move a card or run (requires intent explanation)
- undo, hint, autoplay, give_up, new_game: Table actions
- export_game / import_game: Transfer a game between sessions
- stats: Win/loss history
- list_profiles: Available table profiles
- game_instructions: Full rules

NOTE: The 'intent' parameter on the move tool serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new table with optional profile selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile_id": map[string]interface{}{
					"type":        "string",
					"description": "Profile to use (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active tables",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(sessionTool("game_state", "Render the current table"), c.handleGameState)

	location := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "string",
			"enum":        []string{"tableau", "reserve", "foundation"},
			"description": desc,
		}
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move a card. Tableau runs move from card_index to the pile top.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"pile_to_pile", "reserve_to_pile", "pile_to_reserve", "to_foundation", "auto"},
					"description": "Move kind",
				},
				"from_kind": location("Source area"),
				"from_index": map[string]interface{}{
					"type":        "number",
					"description": "Source pile or reserve slot (0-based)",
				},
				"card_index": map[string]interface{}{
					"type":        "number",
					"description": "Index of the lead card within a tableau pile (0 is the bottom card)",
				},
				"to_kind": location("Destination area (omit for auto)"),
				"to_index": map[string]interface{}{
					"type":        "number",
					"description": "Destination pile, slot or foundation (0-based)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "kind", "from_kind", "from_index"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(sessionTool("undo", "Undo the last move"), c.handleUndo)
	c.mcpServer.AddTool(sessionTool("hint", "Suggest the next move"), c.handleHint)
	c.mcpServer.AddTool(sessionTool("autoplay", "Send every playable card to the foundations"), c.handleAutoPlay)
	c.mcpServer.AddTool(sessionTool("give_up", "Record the current run as a loss"), c.handleGiveUp)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a new hand. An unfinished run is recorded as a loss.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"seed": map[string]interface{}{
					"type":        "number",
					"description": "Deal seed for a reproducible hand (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	// Transfer
	c.mcpServer.AddTool(sessionTool("export_game", "Export the game as a transfer string"), c.handleExport)
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "import_game",
		Description: "Replace the session's game with an exported transfer string",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"data": map[string]interface{}{
					"type":        "string",
					"description": "Transfer string from export_game",
				},
			},
			Required: []string{"session_id", "data"},
		},
	}, c.handleImport)

	// Stats and profiles
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stats",
		Description: "Show win/loss statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_profiles",
		Description: "List available table profiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListProfiles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func stringArg(request mcp.CallToolRequest, key string) string {
	s, _ := arguments(request)[key].(string)
	return s
}

func intArg(request mcp.CallToolRequest, key string) int {
	f, _ := arguments(request)[key].(float64)
	return int(f)
}

func sessionPath(request mcp.CallToolRequest, suffix string) string {
	return fmt.Sprintf("/api/sessions/%s%s", stringArg(request, "session_id"), suffix)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if profileID := stringArg(request, "profile_id"); profileID != "" {
		body["profile_id"] = profileID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nProfile: %s\n", session.ID, session.ProfileName)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Profile: %s, Status: %s, Created: %s)\n",
			s.ID, s.ProfileName, s.Status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(request, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(request, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// moveRequestFromArgs builds the REST move body from flat tool arguments
func moveRequestFromArgs(request mcp.CallToolRequest) service.MoveRequest {
	req := service.MoveRequest{
		Kind: stringArg(request, "kind"),
		From: engine.Location{
			Kind:      engine.LocationKind(stringArg(request, "from_kind")),
			Index:     intArg(request, "from_index"),
			CardIndex: intArg(request, "card_index"),
		},
	}
	if toKind := stringArg(request, "to_kind"); toKind != "" {
		req.To = &engine.Location{
			Kind:  engine.LocationKind(toKind),
			Index: intArg(request, "to_index"),
		}
	}
	return req
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = stringArg(request, "intent")

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/move"), moveRequestFromArgs(request), &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

// resultTool posts to a session action returning a MoveResult
func (c *Client) resultTool(ctx context.Context, request mcp.CallToolRequest, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.resultTool(ctx, request, "/undo", nil)
}

func (c *Client) handleAutoPlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.resultTool(ctx, request, "/autoplay", nil)
}

func (c *Client) handleGiveUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.resultTool(ctx, request, "/give-up", nil)
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]interface{}{}
	if seed, ok := arguments(request)["seed"].(float64); ok {
		body["seed"] = int64(seed)
	}
	return c.resultTool(ctx, request, "/new-game", body)
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var hint service.HintResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/hint"), nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !hint.Found || hint.Move == nil {
		return mcp.NewToolResultText("No moves available. Consider give_up or new_game."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Hint: %s", formatMove(hint.Move))), nil
}

func (c *Client) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp map[string]string
	if err := c.apiCall(ctx, "GET", sessionPath(request, "/export"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resp["data"]), nil
}

func (c *Client) handleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data := stringArg(request, "data")
	if strings.TrimSpace(data) == "" {
		return mcp.NewToolResultError("data is required"), nil
	}

	var resp struct {
		GameState *engine.GameState `json:"game_state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/import"), map[string]string{"data": data}, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Game imported\n"
	if resp.GameState != nil {
		result += "\n" + formatGameState(resp.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var st service.StatsResult
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &st); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s := st.Summary
	result := fmt.Sprintf("Games: %d  Wins: %d  Losses: %d  Win rate: %.1f%%\n", s.TotalGames, s.Wins, s.Losses, s.WinRate)
	result += fmt.Sprintf("Current streak: %d  Best streak: %d\n", s.CurrentStreak, s.BestStreak)
	if s.Wins > 0 {
		result += fmt.Sprintf("Average win: %d moves in %s\n", s.AvgMovesOnWins, formatElapsed(s.AvgTimeOnWins))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var profiles []service.ProfileInfo
	if err := c.apiCall(ctx, "GET", "/api/profiles", nil, &profiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Profiles (%d):\n\n", len(profiles))
	for _, p := range profiles {
		result += fmt.Sprintf("- %s: %s\n", p.ProfileID, p.Description)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Reserve Solitaire - Complete Instructions

GAME OBJECTIVE:
Build all four foundations up in suit from ace to king.

TABLE LAYOUT:
- Tableau: 7 piles (T0-T6). Pile N starts with N+1 cards, only the top face up.
- Foundations: 4 piles (F0-F3), any suit may start an empty foundation with its ace.
- Reserve: 3 slots (R0-R2) holding one card each.
- Face-down cards render as ##.

MOVE RULES:
- Tableau piles build DOWN IN SUIT (8♠ on 9♠).
- Only a king may be placed on an empty pile.
- Any face-up run may be moved as a unit from its lead card (card_index).
- Only the top card of a pile may go to a reserve slot or a foundation.
- The card under a moved card is turned face up.

MOVE KINDS:
- pile_to_pile: from_kind=tableau, from_index, card_index, to_index
- reserve_to_pile: from_kind=reserve, from_index (slot), to_index
- pile_to_reserve: from_kind=tableau, from_index, to_index (slot)
- to_foundation: omit to_kind to use the first accepting foundation
- auto: foundation first, then the leftmost legal pile

WIN AND LOSS:
- The game is won when all 52 cards are on the foundations.
- A fresh deal with no legal move is recorded as a loss immediately.
- Later dead ends stay open so you can undo; use give_up to record the loss.
- Starting a new game during an unfinished run records a loss.

TIPS:
- Use hint for the engine's suggestion; it prefers foundation moves.
- Reserve slots are scarce. Park a card only when it frees a useful one.
- autoplay sweeps every playable card to the foundations.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nProfile: %s\nStatus: %s\nCreated: %s\nUndo available: %d\n",
		session.ID, session.ProfileName, session.Status,
		session.CreatedAt.Format(time.RFC3339), session.UndoAvailable)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return result
}

func formatCard(c engine.Card) string {
	if !c.FaceUp {
		return "##"
	}
	return c.String()
}

func formatElapsed(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatGameState(state *engine.GameState) string {
	var b strings.Builder

	switch {
	case state.IsWin():
		b.WriteString("🎉 VICTORY!\n")
	case state.Finished:
		b.WriteString("💀 GAME OVER\n")
	}
	fmt.Fprintf(&b, "Moves: %d  Undos: %d  Time: %s\n\n",
		state.MoveCount, state.UndoCount, formatElapsed(state.ElapsedMs))

	b.WriteString("Foundations:")
	for i, f := range state.Foundations {
		top := "--"
		if c, ok := f.Top(); ok {
			top = formatCard(c)
		}
		fmt.Fprintf(&b, " F%d[%s]", i, top)
	}
	b.WriteString("\nReserve:    ")
	for i, r := range state.Reserve {
		slot := "--"
		if r != nil {
			slot = formatCard(*r)
		}
		fmt.Fprintf(&b, " R%d[%s]", i, slot)
	}
	b.WriteString("\n\nTableau:\n")
	for i, p := range state.Tableau {
		fmt.Fprintf(&b, "  T%d:", i)
		if len(p) == 0 {
			b.WriteString(" (empty)")
		}
		for _, c := range p {
			b.WriteString(" " + formatCard(c))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatLocation(loc engine.Location) string {
	switch loc.Kind {
	case engine.LocTableau:
		return fmt.Sprintf("T%d", loc.Index)
	case engine.LocReserve:
		return fmt.Sprintf("R%d", loc.Index)
	case engine.LocFoundation:
		return fmt.Sprintf("F%d", loc.Index)
	}
	return string(loc.Kind)
}

func formatMove(m *engine.Move) string {
	from := formatLocation(m.From)
	if m.From.Kind == engine.LocTableau {
		from = fmt.Sprintf("%s card %d", from, m.From.CardIndex)
	}
	return fmt.Sprintf("%s: %s -> %s", m.Kind, from, formatLocation(m.To))
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder

	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
		if result.Reason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", result.Reason)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	if result.Move != nil {
		fmt.Fprintf(&b, "Move: %s\n", formatMove(result.Move))
	}
	if result.Moved > 0 {
		fmt.Fprintf(&b, "Cards moved: %d\n", result.Moved)
	}
	for _, ev := range result.Events {
		if ev.Outcome != nil {
			fmt.Fprintf(&b, "Outcome: %s after %d moves\n", ev.Outcome.Outcome, ev.Outcome.MoveCount)
		}
	}
	if result.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", result.Status)
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}

	return b.String()
}
