package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/docket-labs/docket/pkg/controller/http"
	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/repository/memory"
	"github.com/docket-labs/docket/pkg/usecase"
)

func newTestServer(t *testing.T) (*httpctrl.Server, interfaces.Repository) {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo)
	return httpctrl.New(uc, httpctrl.WithNoAuthn(true)), repo
}

func doJSON(t *testing.T, s *httpctrl.Server, method, path string, identity [2]string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}

	req := httptest.NewRequest(method, path, &buf)
	if identity[0] != "" {
		req.Header.Set("X-Docket-User-Id", identity[0])
		req.Header.Set("X-Docket-Role", identity[1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func seedServerCase(t *testing.T, repo interfaces.Repository, staffIDs ...types.UserID) *model.Case {
	t.Helper()
	c, err := repo.Case().Create(context.Background(), &model.Case{
		Title:            "Residence permit",
		OwnerID:          "client-1",
		AssignedStaffIDs: staffIDs,
	})
	gt.NoError(t, err).Required()
	return c
}

func TestServerAuth(t *testing.T) {
	t.Run("missing identity is rejected", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := doJSON(t, s, http.MethodGet, "/api/conversations", [2]string{}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := doJSON(t, s, http.MethodGet, "/api/conversations",
			[2]string{"u-1", "superuser"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := doJSON(t, s, http.MethodGet, "/health", [2]string{}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestSendMessageEndpoint(t *testing.T) {
	t.Run("created with resolved recipient", func(t *testing.T) {
		s, repo := newTestServer(t)
		c := seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-1", "client"},
			map[string]any{"caseId": c.ID, "content": "hello"})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		var resp struct {
			RecipientID string `json:"recipientId"`
			Content     string `json:"content"`
			Type        string `json:"type"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.RecipientID).Equal("staff-1")
		gt.Value(t, resp.Content).Equal("hello")
		gt.Value(t, resp.Type).Equal("text")
	})

	t.Run("unassigned case yields no_recipient conflict", func(t *testing.T) {
		s, repo := newTestServer(t)
		c := seedServerCase(t, repo)

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-1", "client"},
			map[string]any{"caseId": c.ID, "content": "hello"})
		gt.Value(t, rec.Code).Equal(http.StatusConflict)

		var resp struct {
			Code string `json:"code"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Code).Equal("no_recipient")
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		s, repo := newTestServer(t)
		c := seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-2", "client"},
			map[string]any{"caseId": c.ID, "content": "hello"})
		gt.Value(t, rec.Code).Equal(http.StatusForbidden)
	})

	t.Run("empty body is a bad request", func(t *testing.T) {
		s, repo := newTestServer(t)
		c := seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-1", "client"},
			map[string]any{"caseId": c.ID, "content": ""})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown case is not found", func(t *testing.T) {
		s, _ := newTestServer(t)

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-1", "client"},
			map[string]any{"caseId": 404, "content": "hello"})
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestConversationEndpoints(t *testing.T) {
	t.Run("list and history round-trip", func(t *testing.T) {
		s, repo := newTestServer(t)
		c := seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPost, "/api/messages",
			[2]string{"client-1", "client"},
			map[string]any{"caseId": c.ID, "content": "first"})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		rec = doJSON(t, s, http.MethodGet, "/api/conversations",
			[2]string{"staff-1", "staff"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var listResp struct {
			Conversations []struct {
				CounterpartID string `json:"counterpartId"`
				UnreadCount   int    `json:"unreadCount"`
			} `json:"conversations"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp)).Required()
		gt.Array(t, listResp.Conversations).Length(1)
		gt.Value(t, listResp.Conversations[0].CounterpartID).Equal("client-1")
		gt.Value(t, listResp.Conversations[0].UnreadCount).Equal(1)

		// Reading the history marks the message read
		rec = doJSON(t, s, http.MethodGet, "/api/conversations/1?page=1&limit=10",
			[2]string{"staff-1", "staff"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var histResp struct {
			Messages []struct {
				Content string `json:"content"`
				IsRead  bool   `json:"isRead"`
			} `json:"messages"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histResp)).Required()
		gt.Array(t, histResp.Messages).Length(1)
		gt.Bool(t, histResp.Messages[0].IsRead).True()
	})

	t.Run("invalid case ID in path", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := doJSON(t, s, http.MethodGet, "/api/conversations/not-a-number",
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestStatusEndpoints(t *testing.T) {
	t.Run("transition updates case and appends timeline", func(t *testing.T) {
		s, repo := newTestServer(t)
		seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPatch, "/api/cases/1/status",
			[2]string{"staff-1", "staff"},
			map[string]any{"status": "approved", "note": "looks good"})
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Case struct {
				Status   string `json:"status"`
				Progress int    `json:"progress"`
			} `json:"case"`
			Previous string `json:"previous"`
			Timeline struct {
				Note     string `json:"note"`
				Progress int    `json:"progress"`
			} `json:"timeline"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Case.Status).Equal("approved")
		gt.Value(t, resp.Case.Progress).Equal(50)
		gt.Value(t, resp.Previous).Equal("submitted")
		gt.Value(t, resp.Timeline.Note).Equal("looks good")
		gt.Value(t, resp.Timeline.Progress).Equal(50)

		rec = doJSON(t, s, http.MethodGet, "/api/cases/1/timeline",
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var tlResp struct {
			Timeline []struct {
				Status string `json:"status"`
			} `json:"timeline"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tlResp)).Required()
		gt.Array(t, tlResp.Timeline).Length(1)
		gt.Value(t, tlResp.Timeline[0].Status).Equal("approved")
	})

	t.Run("unknown status is a bad request", func(t *testing.T) {
		s, repo := newTestServer(t)
		seedServerCase(t, repo, "staff-1")

		rec := doJSON(t, s, http.MethodPatch, "/api/cases/1/status",
			[2]string{"staff-1", "staff"},
			map[string]any{"status": "reviewing"})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	t.Run("feed, unread count, read and delete", func(t *testing.T) {
		s, repo := newTestServer(t)

		n, err := repo.Notification().Create(context.Background(), &model.Notification{
			RecipientID: "client-1", Title: "status changed",
		})
		gt.NoError(t, err).Required()

		rec := doJSON(t, s, http.MethodGet, "/api/notifications",
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var listResp struct {
			Notifications []struct {
				ID     string `json:"id"`
				IsRead bool   `json:"isRead"`
			} `json:"notifications"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp)).Required()
		gt.Array(t, listResp.Notifications).Length(1)
		gt.Bool(t, listResp.Notifications[0].IsRead).False()

		rec = doJSON(t, s, http.MethodGet, "/api/notifications/unread-count",
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var countResp struct {
			Count int `json:"count"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &countResp)).Required()
		gt.Value(t, countResp.Count).Equal(1)

		// Another user cannot touch it
		rec = doJSON(t, s, http.MethodPatch, "/api/notifications/"+string(n.ID)+"/read",
			[2]string{"client-2", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)

		rec = doJSON(t, s, http.MethodPatch, "/api/notifications/"+string(n.ID)+"/read",
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		rec = doJSON(t, s, http.MethodDelete, "/api/notifications/"+string(n.ID),
			[2]string{"client-1", "client"}, nil)
		gt.Value(t, rec.Code).Equal(http.StatusNoContent)
	})
}
