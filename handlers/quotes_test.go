package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interiorquote/services"
	"interiorquote/testhelpers"
)

func sampleQuoteLines() []services.LineItem {
	return []services.LineItem{
		{Process: "Flooring", ItemName: "Tile", Unit: "sqm", Quantity: 2, UnitPrice: 11000, Amount: 22000},
		{Process: "Paint", ItemName: "Primer", Unit: "can", Quantity: 1.5, UnitPrice: 15000, Amount: 22500, Note: "two coats"},
	}
}

func TestHandleQuoteList_WithQuotes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestQuote(t, app, "Kitchen", sampleQuoteLines())
	testhelpers.CreateTestQuote(t, app, "Bathroom", nil)
	handler := HandleQuoteList(app, services.NewSessionStore(services.DefaultSessionTTL), "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Kitchen", "Bathroom", "48,950원", "<!doctype html>")
}

func TestHandleQuoteList_Empty(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleQuoteList(app, services.NewSessionStore(services.DefaultSessionTTL), "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, "No quotes exported yet.")
	if strings.Contains(body, "<!doctype html>") {
		t.Error("HTMX request should not render the page shell")
	}
}

func TestHandleQuoteList_ScopeMine(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := seedSession(t, sessions)
	if _, err := archiveQuote(app, "Mine", s.ID, s.Items()); err != nil {
		t.Fatalf("archiveQuote: %v", err)
	}
	testhelpers.CreateTestQuote(t, app, "Someone else", sampleQuoteLines())
	handler := HandleQuoteList(app, sessions, "Interior Estimate")

	req := withSession(httptest.NewRequest(http.MethodGet, "/quotes?scope=mine", nil), s)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, "Mine")
	if strings.Contains(body, "Someone else") {
		t.Error("scope=mine should hide other sessions' quotes")
	}
}

func TestHandleQuoteList_ScopeMineWithoutSession(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestQuote(t, app, "Someone else", sampleQuoteLines())
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	handler := HandleQuoteList(app, sessions, "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/quotes?scope=mine", nil)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, "No quotes exported yet.")
	if strings.Contains(body, "Someone else") {
		t.Error("a caller without a session has no quotes of its own")
	}
	if sessions.Len() != 0 {
		t.Errorf("listing quotes should not create a session, got %d", sessions.Len())
	}
}

func TestHandleQuoteExportExcel_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	lines := sampleQuoteLines()
	quote := testhelpers.CreateTestQuote(t, app, "Kitchen Remodel", lines)
	handler := HandleQuoteExportExcel(app)

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/export/excel", nil)
	req.SetPathValue("id", quote.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Kitchen-Remodel_"+quote.Id+".xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	got, err := services.ParseQuoteExcel(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("re-downloaded file is not a readable quote: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("expected %d lines, got %d", len(lines), len(got))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], lines[i])
		}
	}
}

func TestHandleQuoteExportExcel_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleQuoteExportExcel(app)

	req := httptest.NewRequest(http.MethodGet, "/quotes/nonexistent/export/excel", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
