package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/emails/starred" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("page = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}

		_ = json.NewEncoder(w).Encode(pageResponse{
			Emails: []model.Email{
				{ID: "21"}, {ID: "22"}, {ID: "23"}, {ID: "24"}, {ID: "25"},
			},
			TotalEmails: 25,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	page, err := c.FetchPage(context.Background(), model.FolderStarred, 3, 10)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(page.Emails) != 5 || page.TotalCount != 25 {
		t.Errorf("page = %d emails, total %d", len(page.Emails), page.TotalCount)
	}
}

func TestSendReturnsServerCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/emails/send" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var in model.Email
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		// The server may normalize the message; its copy wins.
		in.Subject = "normalized"
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	saved, err := c.Send(context.Background(), model.Email{ID: "x", Subject: "raw"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if saved.Subject != "normalized" {
		t.Errorf("saved.Subject = %q, want server copy", saved.Subject)
	}
}

func TestSendSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Msg: "recipient rejected"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.Send(context.Background(), model.Email{ID: "x"})

	var remoteErr *mail.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remoteErr.UserMessage() != "recipient rejected" {
		t.Errorf("UserMessage = %q", remoteErr.UserMessage())
	}
}

func TestUnauthorizedMapsToAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "expired")
	_, err := c.FetchPage(context.Background(), model.FolderInbox, 1, 10)
	if !mail.IsAuthError(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.ToggleStar(context.Background(), "gone")
	if !errors.Is(err, mail.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestToggleStarUsesPut(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if err := c.ToggleStar(context.Background(), "m1"); err != nil {
		t.Fatalf("ToggleStar: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/emails/m1/star" {
		t.Errorf("%s %s", gotMethod, gotPath)
	}
}

func TestRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(pageResponse{TotalEmails: 0})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if _, err := c.FetchPage(context.Background(), model.FolderInbox, 1, 10); err != nil {
		t.Fatalf("FetchPage after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}
