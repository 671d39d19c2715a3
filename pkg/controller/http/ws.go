package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/service/realtime"
	"github.com/docket-labs/docket/pkg/utils/errutil"
	"github.com/docket-labs/docket/pkg/utils/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the deployment's reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is an inbound websocket message
type clientFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GET /ws
//
// Each session is auto-joined to its user's personal channel; case channels
// are joined and left explicitly. Messages sent over the socket go through
// the same use case path as the REST endpoints.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	var actor *auth.Identity
	if s.noAuthn {
		id, err := identityFromHeaders(r)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		actor = id
	} else {
		if s.verifier == nil {
			http.Error(w, "Authentication not configured", http.StatusUnauthorized)
			return
		}
		id, err := s.verifier.Verify(bearerToken(r))
		if err != nil {
			http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
			return
		}
		actor = id
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = errutil.Handle(r.Context(), goerr.Wrap(err, "failed to upgrade websocket"), "websocket upgrade failed")
		return
	}

	conn := realtime.NewConn(ws, actor.UserID)
	conn.ArmKeepalive()
	s.hub.Join(types.UserChannel(actor.UserID), conn)
	go conn.WritePump()

	defer func() {
		s.hub.Detach(conn)
		conn.Close()
	}()

	ctx := auth.ContextWithIdentity(context.Background(), actor)
	ctx = logging.With(ctx, logging.From(r.Context()))

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.From(ctx).Warn("websocket closed unexpectedly",
					"user_id", actor.UserID, "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendWSError(conn, "invalid frame")
			continue
		}

		if err := s.dispatchWSEvent(ctx, actor, conn, &frame); err != nil {
			s.sendWSError(conn, err.Error())
		}
	}
}

func (s *Server) dispatchWSEvent(ctx context.Context, actor *auth.Identity, conn *realtime.Conn, frame *clientFrame) error {
	switch frame.Event {
	case "join_case_channel":
		var p struct {
			CaseID int64 `json:"caseId"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return goerr.New("invalid payload")
		}
		if err := s.uc.Conversation.CanAccessCase(ctx, actor, p.CaseID); err != nil {
			return err
		}
		s.hub.Join(types.CaseChannel(p.CaseID), conn)
		return nil

	case "leave_case_channel":
		var p struct {
			CaseID int64 `json:"caseId"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return goerr.New("invalid payload")
		}
		s.hub.Leave(types.CaseChannel(p.CaseID), conn)
		return nil

	case types.EventTypingStart, types.EventTypingStop:
		var p struct {
			CaseID int64 `json:"caseId"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return goerr.New("invalid payload")
		}
		if err := s.uc.Conversation.CanAccessCase(ctx, actor, p.CaseID); err != nil {
			return err
		}
		// Typing state is ephemeral: relayed to current viewers, never stored
		s.hub.Publish(types.CaseChannel(p.CaseID), frame.Event, map[string]any{
			"caseId": p.CaseID,
			"userId": string(actor.UserID),
		})
		return nil

	case "send_message":
		var p struct {
			CaseID  int64  `json:"caseId"`
			Content string `json:"content"`
			Type    string `json:"type"`
			ReplyTo string `json:"replyTo"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return goerr.New("invalid payload")
		}
		_, err := s.uc.Conversation.SendMessage(ctx, actor, p.CaseID, p.Content,
			types.MessageType(p.Type), types.MessageID(p.ReplyTo))
		return err

	case "mark_messages_read":
		var p struct {
			MessageIDs []string `json:"messageIds"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return goerr.New("invalid payload")
		}
		ids := make([]types.MessageID, len(p.MessageIDs))
		for i, id := range p.MessageIDs {
			ids[i] = types.MessageID(id)
		}
		_, err := s.uc.Conversation.MarkMessagesRead(ctx, actor, ids)
		return err

	default:
		return goerr.New("unknown event", goerr.V("event", frame.Event))
	}
}

func (s *Server) sendWSError(conn *realtime.Conn, msg string) {
	data, err := json.Marshal(map[string]any{
		"event":   "error",
		"payload": map[string]string{"message": msg},
	})
	if err != nil {
		return
	}
	conn.Send(data)
}
