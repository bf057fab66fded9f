package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"interiorquote/services"
	"interiorquote/testhelpers"
)

func addLineForm(process, item, margin, quantity, note string) url.Values {
	return url.Values{
		"process":  {process},
		"item":     {item},
		"margin":   {margin},
		"quantity": {quantity},
		"note":     {note},
	}
}

func TestHandleEstimatePage_FullPage(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	handler := HandleEstimatePage(app, catalog, sessions, "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		"<!doctype html>", "Interior Estimate",
		`value="Flooring" selected`, `value="Paint"`,
		`value="Tile"`, `value="Laminate"`,
		"No line items yet.",
	)
	if strings.Contains(body, `value="Primer"`) {
		t.Error("items of other processes should not be offered")
	}
	if sessions.Len() != 0 {
		t.Errorf("viewing the page should not create a session, got %d", sessions.Len())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("viewing the page should not set a session cookie")
	}
}

func TestHandleEstimatePage_HTMXPartial(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	handler := HandleEstimatePage(app, catalog, services.NewSessionStore(services.DefaultSessionTTL), "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/?process=Paint", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	if strings.Contains(body, "<!doctype html>") {
		t.Error("HTMX request should not render the page shell")
	}
	testhelpers.AssertHTMLContains(t, body, `value="Paint" selected`, `value="Primer"`)
}

func TestHandleEstimatePage_EmptyCatalog(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := services.NewCatalogStore(t.TempDir()+"/missing.csv", app.Logger())
	handler := HandleEstimatePage(app, catalog, services.NewSessionStore(services.DefaultSessionTTL), "Interior Estimate")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "No catalog items")
}

func TestHandleItemOptions(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	handler := HandleItemOptions(app, catalog)

	req := httptest.NewRequest(http.MethodGet, "/estimate/items/options?process=Flooring", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, `value="Tile"`, `value="Laminate"`, "10,000원")
	if strings.Contains(body, "Primer") {
		t.Error("should only list Flooring items")
	}
}

func TestHandleAddLineItem_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := sessions.Create()
	handler := HandleAddLineItem(app, catalog, sessions)

	req := withSession(newFormRequest(http.MethodPost, "/estimate/items", addLineForm("Flooring", "Tile", "10", "2", "living room")), s)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(items))
	}
	if items[0].UnitPrice != 11000 || items[0].Amount != 22000 || items[0].Note != "living room" {
		t.Errorf("unexpected line item: %+v", items[0])
	}

	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Tile", "22,000원", "2,200원", "24,200원")
	if toast := parseToast(t, rec); toast["type"] != "success" {
		t.Errorf("expected success toast, got %+v", toast)
	}
	if strings.Contains(rec.Body.String(), `class="notice"`) {
		t.Error("no notice expected for a normal margin")
	}
}

func TestHandleAddLineItem_DefaultsAndZeroQuantity(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := sessions.Create()
	handler := HandleAddLineItem(app, catalog, sessions)

	// blank margin and quantity fall back to 10% and 1
	req := withSession(newFormRequest(http.MethodPost, "/estimate/items", addLineForm("Paint", "Primer", "", "", "")), s)
	if err := handler(newTestRequestEvent(app, req, httptest.NewRecorder())); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	req = withSession(newFormRequest(http.MethodPost, "/estimate/items", addLineForm("Paint", "Primer", "0", "0", "")), s)
	if err := handler(newTestRequestEvent(app, req, httptest.NewRecorder())); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	if items[0].Quantity != 1 || items[0].UnitPrice != 16500 {
		t.Errorf("expected defaults to apply, got %+v", items[0])
	}
	if items[1].Amount != 0 || items[1].UnitPrice != 15000 {
		t.Errorf("expected zero-quantity line, got %+v", items[1])
	}
}

func TestHandleAddLineItem_HighMarginNotice(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := sessions.Create()
	handler := HandleAddLineItem(app, catalog, sessions)

	req := withSession(newFormRequest(http.MethodPost, "/estimate/items", addLineForm("Flooring", "Tile", "150", "1", "")), s)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if s.Items()[0].UnitPrice != 25000 {
		t.Errorf("expected margin above 100 to be accepted, got %+v", s.Items()[0])
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), `class="notice"`, "150%")
}

func TestHandleAddLineItem_Rejected(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"negative quantity", addLineForm("Flooring", "Tile", "10", "-1", ""), "Quantity must not be negative"},
		{"negative margin", addLineForm("Flooring", "Tile", "-5", "1", ""), "Margin must not be negative"},
		{"non-numeric quantity", addLineForm("Flooring", "Tile", "10", "two", ""), "Quantity must be a number"},
		{"infinite margin", addLineForm("Flooring", "Tile", "Inf", "1", ""), "Margin must be a number"},
		{"unknown item", addLineForm("Flooring", "Marble", "10", "1", ""), "Select an item from the catalog"},
		{"item from another process", addLineForm("Paint", "Tile", "10", "1", ""), "Select an item from the catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			catalog := testhelpers.NewTestCatalogStore(t, app)
			sessions := services.NewSessionStore(services.DefaultSessionTTL)
			s := sessions.Create()
			handler := HandleAddLineItem(app, catalog, sessions)

			req := withSession(newFormRequest(http.MethodPost, "/estimate/items", tt.form), s)
			rec := httptest.NewRecorder()
			if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", rec.Code)
			}
			if len(s.Items()) != 0 {
				t.Errorf("estimate should be unchanged, got %d items", len(s.Items()))
			}
			toast := parseToast(t, rec)
			if toast["type"] != "warning" || toast["message"] != tt.want {
				t.Errorf("expected warning %q, got %+v", tt.want, toast)
			}
		})
	}
}

func TestHandleAddLineItem_AmountTooLarge(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"huge quantity", addLineForm("Flooring", "Tile", "10", "1e16", "")},
		{"huge margin", addLineForm("Flooring", "Tile", "1e300", "1", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			catalog := testhelpers.NewTestCatalogStore(t, app)
			sessions := services.NewSessionStore(services.DefaultSessionTTL)
			s := sessions.Create()
			handler := HandleAddLineItem(app, catalog, sessions)

			req := withSession(newFormRequest(http.MethodPost, "/estimate/items", tt.form), s)
			rec := httptest.NewRecorder()
			if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", rec.Code)
			}
			if len(s.Items()) != 0 {
				t.Errorf("estimate should be unchanged, got %+v", s.Items())
			}
			if toast := parseToast(t, rec); toast["type"] != "warning" {
				t.Errorf("expected warning toast, got %+v", toast)
			}
			if sum := s.Summary(); sum.Total < 0 {
				t.Errorf("total went negative: %+v", sum)
			}
		})
	}
}

func TestHandleAddLineItem_StartsSession(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.NewTestCatalogStore(t, app)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	handler := HandleAddLineItem(app, catalog, sessions)

	req := newFormRequest(http.MethodPost, "/estimate/items", addLineForm("Flooring", "Tile", "10", "1", ""))
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if sessions.Len() != 1 {
		t.Fatalf("expected a session to be started, got %d", sessions.Len())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}
	s, ok := sessions.Get(cookies[0].Value)
	if !ok || len(s.Items()) != 1 {
		t.Error("the new session should hold the added line")
	}
}

func seedSession(t *testing.T, sessions *services.SessionStore) *services.Session {
	t.Helper()
	entries := []services.CatalogEntry{
		{Process: "Flooring", ItemName: "Tile", Unit: "sqm", BasePrice: 10000},
		{Process: "Flooring", ItemName: "Laminate", Unit: "sqm", BasePrice: 25000},
		{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000},
	}
	s := sessions.Create()
	s.Update(func(l *services.EstimateList) error {
		for _, entry := range entries {
			l.Add(entry, 1, 0, "")
		}
		return nil
	})
	return s
}

func TestHandleRemoveLineItem_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := seedSession(t, sessions)
	handler := HandleRemoveLineItem(app, sessions)

	req := withSession(httptest.NewRequest(http.MethodDelete, "/estimate/items/1", nil), s)
	req.SetPathValue("index", "1")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	items := s.Items()
	if len(items) != 2 || items[0].ItemName != "Tile" || items[1].ItemName != "Primer" {
		t.Errorf("unexpected items after removal: %+v", items)
	}
	body := rec.Body.String()
	if strings.Contains(body, "Laminate") {
		t.Error("removed item should not be rendered")
	}
	testhelpers.AssertHTMLContains(t, body, "25,000원", `hx-delete="/estimate/items/1"`)
}

func TestHandleRemoveLineItem_OutOfRange(t *testing.T) {
	for _, index := range []string{"3", "-1"} {
		t.Run(index, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			sessions := services.NewSessionStore(services.DefaultSessionTTL)
			s := seedSession(t, sessions)
			handler := HandleRemoveLineItem(app, sessions)

			req := withSession(httptest.NewRequest(http.MethodDelete, "/estimate/items/"+index, nil), s)
			req.SetPathValue("index", index)
			rec := httptest.NewRecorder()
			if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != http.StatusConflict {
				t.Errorf("expected 409, got %d", rec.Code)
			}
			if len(s.Items()) != 3 {
				t.Errorf("estimate should be unchanged, got %d items", len(s.Items()))
			}
		})
	}
}

func TestHandleRemoveLineItem_NoSession(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	handler := HandleRemoveLineItem(app, sessions)

	req := httptest.NewRequest(http.MethodDelete, "/estimate/items/0", nil)
	req.SetPathValue("index", "0")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if sessions.Len() != 0 {
		t.Errorf("no session should be created, got %d", sessions.Len())
	}
}

func TestHandleRemoveLineItem_InvalidIndex(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	s := seedSession(t, sessions)
	handler := HandleRemoveLineItem(app, sessions)

	req := withSession(httptest.NewRequest(http.MethodDelete, "/estimate/items/abc", nil), s)
	req.SetPathValue("index", "abc")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleResetEstimate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	old := seedSession(t, sessions)
	handler := HandleResetEstimate(app, sessions)

	req := withSession(httptest.NewRequest(http.MethodPost, "/estimate/reset", nil), old)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if _, ok := sessions.Get(old.ID); ok {
		t.Error("old session should be destroyed")
	}
	if sessions.Len() != 1 {
		t.Errorf("expected exactly one live session, got %d", sessions.Len())
	}

	cookies := rec.Result().Cookies()
	var newID string
	for _, c := range cookies {
		if c.Name == SessionCookieName {
			newID = c.Value
		}
	}
	if newID == "" || newID == old.ID {
		t.Fatalf("expected a new session cookie, got %q", newID)
	}
	if s, ok := sessions.Get(newID); !ok || len(s.Items()) != 0 {
		t.Error("new session should exist and be empty")
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "No line items yet.")
}

func TestParseFormNumber(t *testing.T) {
	tests := []struct {
		raw     string
		def     float64
		want    float64
		wantErr bool
	}{
		{"", 10, 10, false},
		{"  ", 1, 1, false},
		{"2.5", 1, 2.5, false},
		{"1,500", 0, 1500, false},
		{"-3", 0, -3, false},
		{"abc", 0, 0, true},
		{"NaN", 0, 0, true},
	}
	for _, tt := range tests {
		got, err := parseFormNumber(tt.raw, tt.def)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseFormNumber(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseFormNumber(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}
}
