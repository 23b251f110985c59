package lsv

import (
	"context"
	"net/http"
	"testing"
)

func TestInviteMember_OwnerRoleNotGrantable(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	client, _ := newTestClient(t, handler, Config{})

	_, err := client.Admin.InviteMember(context.Background(), InviteMemberInput{
		Email: "new@example.com",
		Role:  RoleOwner,
	})
	if err == nil {
		t.Fatal("expected a validation error for the owner role")
	}
}

func TestAdminMembersAndAuditLog_Wire(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case membersPath:
			jsonResponse(w, http.StatusOK,
				`{"members":[{"id":"u1","email":"a@example.com","role":"owner"}],"total":1}`)
		case auditLogPath:
			if r.URL.Query().Get("page") != "3" {
				t.Errorf("expected page=3, got %q", r.URL.RawQuery)
			}
			jsonResponse(w, http.StatusOK,
				`{"entries":[{"id":"e1","actor":"u1","action":"vault.delete","resource":"v9"}],"total":1}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	client, _ := newTestClient(t, handler, Config{})

	members, err := client.Admin.Members(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0].Role != RoleOwner {
		t.Fatalf("unexpected members: %+v", members)
	}

	entries, err := client.Admin.AuditLog(context.Background(), &ListOptions{Page: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "vault.delete" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
