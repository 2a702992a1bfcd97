package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/limiter"
	"github.com/bhupeshcoding/codecoach/internal/registry"
)

// ChatHandler serves the conversational routes: bulk and streamed chat,
// the live WebSocket channel, history, feedback and suggestions.
type ChatHandler struct {
	AI       *ai.Service
	Registry *registry.Registry
	Limiter  *limiter.Limiter
	logger   *log.Logger
}

// Register mounts the chat routes on g.
func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat, limiter.Middleware(h.Limiter))
	g.GET("/ws/chat", h.wsChat)
	g.GET("/history/:user_id", h.history)
	g.POST("/feedback", h.feedback)
	g.GET("/suggestions", h.suggestions)
}

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
	Stream  *bool          `json:"stream"`
}

// chat answers one prompt. With stream true (the default) it emits token
// events over SSE followed by a terminal frame carrying the complete reply;
// otherwise it returns the reply as one JSON document.
func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	stream := req.Stream == nil || *req.Stream
	if !stream {
		response, err := h.AI.Generate(ctx, req.Message, req.Context)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Chat failed: %v", err))
		}
		return c.JSON(http.StatusOK, map[string]any{
			"response":   response,
			"context":    req.Context,
			"motivation": "Great question! Keep exploring and learning!",
		})
	}

	flusher, err := openStream(c)
	if err != nil {
		return err
	}
	for token := range h.AI.TokenStream(ctx, req.Message, 500) {
		if err := sendEvent(c, flusher, map[string]any{"token": token}); err != nil {
			h.logger.Printf("token stream aborted: %v", err)
			return nil
		}
	}
	final, err := h.AI.Generate(ctx, req.Message, req.Context)
	if err != nil {
		h.logger.Printf("final response failed: %v", err)
		return nil
	}
	_ = sendEvent(c, flusher, map[string]any{"final": final, "done": true})
	return nil
}

type wsInbound struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// wsChat upgrades to a WebSocket, registers the session, and answers each
// inbound message until the client goes away. The session is always
// unregistered on exit, whatever path got us there.
func (h *ChatHandler) wsChat(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "server closing")

	ctx := c.Request().Context()
	session := registry.NewWebSocketSession(conn)
	h.Registry.Register(session)
	defer h.Registry.Unregister(session)

	welcome, _ := json.Marshal(map[string]any{
		"type":       "welcome",
		"message":    "Welcome! I'm here to help you master coding!",
		"motivation": "Every expert was once a beginner. Let's start your journey!",
	})
	if err := h.Registry.Send(ctx, session, welcome); err != nil {
		h.logger.Printf("welcome push failed: %v", err)
		return nil
	}

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				h.logger.Printf("session %s disconnected", session.ID())
			} else if !errors.Is(err, ctx.Err()) {
				h.logger.Printf("session %s read error: %v", session.ID(), err)
			}
			return nil
		}
		if msgType != websocket.MessageText {
			continue
		}

		var inbound wsInbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.pushError(ctx, session, "invalid message format")
			continue
		}

		response, err := h.AI.Generate(ctx, inbound.Message, inbound.Context)
		if err != nil {
			h.logger.Printf("session %s generate failed: %v", session.ID(), err)
			h.pushError(ctx, session, "Something went wrong")
			continue
		}

		payload, _ := json.Marshal(map[string]any{
			"type":       "ai_response",
			"message":    response,
			"timestamp":  float64(time.Now().UnixNano()) / 1e9,
			"motivation": "Keep asking great questions!",
		})
		if err := h.Registry.Send(ctx, session, payload); err != nil {
			h.logger.Printf("session %s push failed: %v", session.ID(), err)
			return nil
		}
	}
}

// pushError makes a best-effort attempt to tell the client something broke.
func (h *ChatHandler) pushError(ctx context.Context, session *registry.Session, msg string) {
	payload, _ := json.Marshal(map[string]any{"type": "error", "message": msg})
	if err := h.Registry.Send(ctx, session, payload); err != nil {
		h.logger.Printf("error push failed: %v", err)
	}
}

// history returns the simulated chat history for a user.
func (h *ChatHandler) history(c echo.Context) error {
	userID := c.Param("user_id")
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history := []map[string]any{
		{
			"id":           1,
			"user_message": "How do I solve Two Sum?",
			"ai_response":  "Great question! Two Sum is a classic problem...",
			"timestamp":    "2024-01-15T10:30:00Z",
			"context":      map[string]any{"difficulty": "Easy"},
		},
		{
			"id":           2,
			"user_message": "What's the time complexity?",
			"ai_response":  "The optimal solution has O(n) time complexity...",
			"timestamp":    "2024-01-15T10:32:00Z",
			"context":      map[string]any{"problem_id": 1},
		},
	}
	if limit < len(history) {
		history = history[:limit]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_id":        userID,
		"history":        history,
		"total_messages": len(history),
		"motivation":     "Your learning journey is captured here!",
	})
}

// feedback accepts feedback about responses and acknowledges it.
func (h *ChatHandler) feedback(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"feedback_id": "feedback_" + uuid.NewString(),
		"status":      "received",
		"message":     "Thank you for your feedback! It helps me improve!",
		"motivation":  "Your input makes our AI better for everyone!",
	})
}

// suggestions returns the fixed prompt catalog grouped by category.
func (h *ChatHandler) suggestions(c echo.Context) error {
	suggestions := []map[string]any{
		{
			"category": "LeetCode Problems",
			"suggestions": []string{
				"How do I approach dynamic programming problems?",
				"What's the best way to solve tree traversal problems?",
				"Can you explain the sliding window technique?",
				"How do I optimize my solution's time complexity?",
			},
		},
		{
			"category": "Coding Tips",
			"suggestions": []string{
				"What are the most important data structures to master?",
				"How can I improve my problem-solving approach?",
				"What's the best way to practice coding daily?",
				"How do I prepare for technical interviews?",
			},
		},
		{
			"category": "Motivation",
			"suggestions": []string{
				"I'm feeling stuck on a problem, can you motivate me?",
				"How do I stay consistent with coding practice?",
				"What should I do when I can't solve a problem?",
				"How do I build confidence in my coding skills?",
			},
		},
	}
	return c.JSON(http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"motivation":  "Great questions lead to great learning! Pick one and let's dive in!",
	})
}
