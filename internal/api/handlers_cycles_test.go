package api

import (
	"net/http"
	"testing"
)

func TestCreateAndListCycles(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	response := server.request(t, http.MethodPost, server.profilePath("/cycles"), map[string]any{
		"start": "2025-09-02",
		"end":   "2025-09-06",
		"notes": "  heavy  ",
	})
	assertStatus(t, response, http.StatusCreated)

	created := cycleView{}
	decodeJSON(t, response, &created)
	if created.ID == "" || created.Start != "2025-09-02" {
		t.Fatalf("unexpected created cycle %+v", created)
	}
	if created.End == nil || *created.End != "2025-09-06" {
		t.Fatalf("expected end 2025-09-06, got %v", created.End)
	}
	if created.Notes == nil || *created.Notes != "heavy" {
		t.Fatalf("expected trimmed notes, got %v", created.Notes)
	}

	server.request(t, http.MethodPost, server.profilePath("/cycles"), map[string]any{"start": "2025-08-01"})

	listed := []cycleView{}
	response = server.request(t, http.MethodGet, server.profilePath("/cycles"), nil)
	assertStatus(t, response, http.StatusOK)
	decodeJSON(t, response, &listed)
	if len(listed) != 2 || listed[0].Start != "2025-08-01" || listed[1].Start != "2025-09-02" {
		t.Fatalf("expected cycles sorted by start, got %+v", listed)
	}
	if listed[0].End != nil || listed[0].Notes != nil {
		t.Fatalf("expected open cycle without notes, got %+v", listed[0])
	}
}

func TestCreateCycleReportsFieldErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	response := server.request(t, http.MethodPost, server.profilePath("/cycles"), map[string]any{"end": "09/06/2025"})
	assertStatus(t, response, http.StatusBadRequest)

	payload := struct {
		Error  string       `json:"error"`
		Fields []fieldError `json:"fields"`
	}{}
	decodeJSON(t, response, &payload)
	if payload.Error != "invalid payload" || len(payload.Fields) != 2 {
		t.Fatalf("expected two field errors, got %+v", payload)
	}
	if payload.Fields[0].Field != "start" || payload.Fields[0].Message != "is required" {
		t.Fatalf("unexpected start field error %+v", payload.Fields[0])
	}
	if payload.Fields[1].Field != "end" {
		t.Fatalf("unexpected end field error %+v", payload.Fields[1])
	}
}

func TestCreateCycleRejectsEndBeforeStart(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	response := server.request(t, http.MethodPost, server.profilePath("/cycles"), map[string]any{
		"start": "2025-09-06",
		"end":   "2025-09-02",
	})
	assertStatus(t, response, http.StatusBadRequest)
	if got := readAPIError(t, response); got != "end must not be before start" {
		t.Fatalf("unexpected error %q", got)
	}
	if len(server.profile.Cycles()) != 0 {
		t.Fatal("expected no cycle to be stored")
	}
}

func TestEditCycleTriStatePayload(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	server.seedCycles(t, "2025-09-02")
	cycleID := server.profile.Cycles()[0].ID
	path := server.profilePath("/cycles/" + cycleID)

	response := server.request(t, http.MethodPatch, path, `{"end":"2025-09-06","notes":"light"}`)
	assertStatus(t, response, http.StatusOK)

	cycle := server.profile.Cycles()[0]
	if cycle.End == nil || cycle.End.Format("2006-01-02") != "2025-09-06" || cycle.Notes == nil || *cycle.Notes != "light" {
		t.Fatalf("expected end and notes to be set, got %+v", cycle)
	}

	response = server.request(t, http.MethodPatch, path, `{"notes":null}`)
	assertStatus(t, response, http.StatusOK)

	cycle = server.profile.Cycles()[0]
	if cycle.Notes != nil {
		t.Fatalf("expected notes to be cleared, got %q", *cycle.Notes)
	}
	if cycle.End == nil {
		t.Fatal("expected absent end key to keep the stored end")
	}

	response = server.request(t, http.MethodPatch, path, `{"end":null,"start":"2025-09-01"}`)
	assertStatus(t, response, http.StatusOK)

	cycle = server.profile.Cycles()[0]
	if cycle.End != nil || cycle.Start.Format("2006-01-02") != "2025-09-01" {
		t.Fatalf("expected cleared end and moved start, got %+v", cycle)
	}
}

func TestEditAndDeleteUnknownCycle(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	server.seedCycles(t, "2025-09-02")

	response := server.request(t, http.MethodPatch, server.profilePath("/cycles/missing"), `{"notes":"x"}`)
	assertStatus(t, response, http.StatusNotFound)
	if got := readAPIError(t, response); got != "cycle not found" {
		t.Fatalf("unexpected error %q", got)
	}

	response = server.request(t, http.MethodDelete, server.profilePath("/cycles/missing"), nil)
	assertStatus(t, response, http.StatusNotFound)

	if len(server.profile.Cycles()) != 1 {
		t.Fatal("expected stored cycle to survive unknown-id mutations")
	}
}

func TestDeleteCycle(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	server.seedCycles(t, "2025-08-01", "2025-09-02")
	cycleID := server.profile.Cycles()[0].ID

	response := server.request(t, http.MethodDelete, server.profilePath("/cycles/"+cycleID), nil)
	assertStatus(t, response, http.StatusOK)

	payload := map[string]bool{}
	decodeJSON(t, response, &payload)
	if !payload["ok"] {
		t.Fatalf("expected ok reply, got %+v", payload)
	}
	cycles := server.profile.Cycles()
	if len(cycles) != 1 || cycles[0].Start.Format("2006-01-02") != "2025-09-02" {
		t.Fatalf("expected only 2025-09-02 to remain, got %+v", cycles)
	}
}

func TestUnknownProfileReturnsNotFound(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	response := server.request(t, http.MethodGet, "/api/profiles/unknown/cycles", nil)
	assertStatus(t, response, http.StatusNotFound)
	if got := readAPIError(t, response); got != "profile not found" {
		t.Fatalf("unexpected error %q", got)
	}
}
