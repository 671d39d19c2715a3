package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/usecase"
	"github.com/docket-labs/docket/pkg/utils/errutil"
)

// errorBody is the JSON error response shape
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// handleError maps use case sentinels onto HTTP status codes. The two 409
// cases carry distinct codes so clients can tell "not yet assigned" from
// "lost a concurrent update".
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	code := ""

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		statusCode = http.StatusBadRequest
	case errors.Is(err, usecase.ErrPermissionDenied):
		statusCode = http.StatusForbidden
	case errors.Is(err, usecase.ErrNoRecipient):
		statusCode = http.StatusConflict
		code = "no_recipient"
	case errors.Is(err, usecase.ErrStatusConflict):
		statusCode = http.StatusConflict
		code = "conflict"
	case errors.Is(err, usecase.ErrCaseNotFound),
		errors.Is(err, usecase.ErrMessageNotFound),
		errors.Is(err, usecase.ErrNotificationNotFound):
		statusCode = http.StatusNotFound
	}

	if statusCode >= http.StatusInternalServerError {
		errutil.HandleHTTP(r.Context(), w, err, statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Code: code})
}

func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}

func identity(r *http.Request) (*auth.Identity, bool) {
	id, err := auth.IdentityFromContext(r.Context())
	return id, err == nil
}

func caseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "caseID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrInvalidInput, "invalid case ID", goerr.V("case_id", raw))
	}
	return id, nil
}

// Response DTOs. Field names are part of the client protocol.

type caseResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	OwnerID          string    `json:"ownerId"`
	AssignedStaffIDs []string  `json:"assignedStaffIds"`
	Status           string    `json:"status"`
	Progress         int       `json:"progress"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toCaseResponse(c *model.Case) *caseResponse {
	staff := make([]string, len(c.AssignedStaffIDs))
	for i, id := range c.AssignedStaffIDs {
		staff[i] = string(id)
	}
	status := c.Status.Normalize()
	return &caseResponse{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		OwnerID:          string(c.OwnerID),
		AssignedStaffIDs: staff,
		Status:           string(status),
		Progress:         status.Progress(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type messageResponse struct {
	ID          string     `json:"id"`
	CaseID      int64      `json:"caseId"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Content     string     `json:"content"`
	Type        string     `json:"type"`
	ReplyTo     string     `json:"replyTo,omitempty"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	IsDeleted   bool       `json:"isDeleted,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toMessageResponse(m *model.Message) *messageResponse {
	resp := &messageResponse{
		ID:          string(m.ID),
		CaseID:      m.CaseID,
		SenderID:    string(m.SenderID),
		RecipientID: string(m.RecipientID),
		Content:     m.Body,
		Type:        string(m.Type),
		ReplyTo:     string(m.ReplyTo),
		IsRead:      m.Read,
		IsDeleted:   m.Deleted,
		CreatedAt:   m.CreatedAt,
	}
	if !m.ReadAt.IsZero() {
		readAt := m.ReadAt
		resp.ReadAt = &readAt
	}
	return resp
}

type conversationResponse struct {
	Case          *caseResponse    `json:"case"`
	CounterpartID string           `json:"counterpartId"`
	LastMessage   *messageResponse `json:"lastMessage,omitempty"`
	UnreadCount   int              `json:"unreadCount"`
}

type notificationResponse struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipientId"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Data        map[string]any `json:"data,omitempty"`
	IsRead      bool           `json:"isRead"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toNotificationResponse(n *model.Notification) *notificationResponse {
	return &notificationResponse{
		ID:          string(n.ID),
		RecipientID: string(n.RecipientID),
		Title:       n.Title,
		Body:        n.Body,
		Type:        n.Type,
		Priority:    n.Priority,
		Data:        n.Data,
		IsRead:      n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

type timelineResponse struct {
	ID        string    `json:"id"`
	CaseID    int64     `json:"caseId"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	ActorID   string    `json:"actorId"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTimelineResponse(e *model.TimelineEntry) *timelineResponse {
	return &timelineResponse{
		ID:        string(e.ID),
		CaseID:    e.CaseID,
		Status:    string(e.Status),
		Note:      e.Note,
		ActorID:   string(e.ActorID),
		Progress:  e.Progress,
		CreatedAt: e.CreatedAt,
	}
}

// GET /api/conversations
func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conversations, err := s.uc.Conversation.ListConversations(r.Context(), actor)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]*conversationResponse, len(conversations))
	for i, conv := range conversations {
		cr := &conversationResponse{
			Case:          toCaseResponse(conv.Case),
			CounterpartID: string(conv.CounterpartID),
			UnreadCount:   conv.UnreadMessages,
		}
		if conv.LastMessage != nil {
			cr.LastMessage = toMessageResponse(conv.LastMessage)
		}
		resp[i] = cr
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"conversations": resp})
}

// GET /api/conversations/{caseID}?page=&limit=
func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	caseID, err := caseIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := s.uc.Conversation.GetMessages(r.Context(), actor, caseID, page, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]*messageResponse, len(msgs))
	for i, m := range msgs {
		resp[i] = toMessageResponse(m)
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"messages": resp})
}

// POST /api/messages
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		CaseID  int64  `json:"caseId"`
		Content string `json:"content"`
		Type    string `json:"type"`
		ReplyTo string `json:"replyTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "invalid request body"))
		return
	}

	msg, err := s.uc.Conversation.SendMessage(r.Context(), actor, req.CaseID, req.Content,
		types.MessageType(req.Type), types.MessageID(req.ReplyTo))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, toMessageResponse(msg))
}

// PUT /api/messages/read
func (s *Server) markMessagesRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		MessageIDs []string `json:"messageIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "invalid request body"))
		return
	}

	ids := make([]types.MessageID, len(req.MessageIDs))
	for i, id := range req.MessageIDs {
		ids[i] = types.MessageID(id)
	}

	affected, err := s.uc.Conversation.MarkMessagesRead(r.Context(), actor, ids)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"updated": len(affected)})
}

// DELETE /api/messages/{messageID}
func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id := types.MessageID(chi.URLParam(r, "messageID"))
	if err := s.uc.Conversation.DeleteMessage(r.Context(), actor, id); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PATCH /api/cases/{caseID}/status
func (s *Server) updateCaseStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	caseID, err := caseIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "invalid request body"))
		return
	}

	result, err := s.uc.Status.ApplyTransition(r.Context(), actor, caseID, types.CaseStatus(req.Status), req.Note)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"case":     toCaseResponse(result.Case),
		"previous": string(result.Previous),
		"timeline": toTimelineResponse(result.Timeline),
	})
}

// GET /api/cases/{caseID}/timeline
func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	caseID, err := caseIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	entries, err := s.uc.Status.GetTimeline(r.Context(), actor, caseID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]*timelineResponse, len(entries))
	for i, e := range entries {
		resp[i] = toTimelineResponse(e)
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"timeline": resp})
}

// GET /api/notifications?user_id= (user_id requires admin)
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	userID := actor.UserID
	if q := r.URL.Query().Get("user_id"); q != "" {
		userID = types.UserID(q)
	}

	ns, err := s.uc.Notification.ListForUser(r.Context(), actor, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]*notificationResponse, len(ns))
	for i, n := range ns {
		resp[i] = toNotificationResponse(n)
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"notifications": resp})
}

// GET /api/notifications/unread-count
func (s *Server) notificationUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	count, err := s.uc.Notification.UnreadCount(r.Context(), actor)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"count": count})
}

// PATCH /api/notifications/{notificationID}/read
func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id := types.NotificationID(chi.URLParam(r, "notificationID"))
	n, err := s.uc.Notification.MarkRead(r.Context(), actor, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toNotificationResponse(n))
}

// DELETE /api/notifications/{notificationID}
func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id := types.NotificationID(chi.URLParam(r, "notificationID"))
	if err := s.uc.Notification.Delete(r.Context(), actor, id); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
