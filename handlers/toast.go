package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf16"

	"github.com/pocketbase/pocketbase/core"
)

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. Other events already in HX-Trigger are kept.
// It also sets a flash cookie so toasts survive regular (non-HTMX) redirects.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	TriggerEvent(e, "showToast", map[string]string{
		"message": message,
		"type":    toastType,
	})

	toastData := map[string]string{"message": message, "type": toastType}
	cookieVal, err := json.Marshal(toastData)
	if err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // JS needs to read it
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// TriggerEvent adds a client event to the HX-Trigger header, merging with any
// events already set. A later event with the same name replaces the earlier.
func TriggerEvent(e *core.RequestEvent, name string, detail any) {
	events := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			// plain event-name form
			log.Printf("toast: existing HX-Trigger is not JSON, keeping as event name: %v", err)
			events = map[string]any{existing: nil}
		}
	}
	events[name] = detail

	data, err := json.Marshal(events)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", asciiJSON(data))
}

// asciiJSON escapes every non-ASCII rune of a JSON document as \uXXXX.
// Browsers decode response header bytes as Latin-1.
func asciiJSON(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, r := range string(data) {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, "\\u%04x\\u%04x", r1, r2)
		default:
			fmt.Fprintf(&b, "\\u%04x", r)
		}
	}
	return b.String()
}

// ErrorToast sets an error toast and prevents HTMX from swapping the error text into the DOM.
// It sets HX-Reswap: none so the response body is ignored by HTMX, while the HX-Trigger
// header still fires the toast event.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// WarningToast rejects user input without changing anything on the page.
func WarningToast(e *core.RequestEvent, message string) error {
	SetToast(e, "warning", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(http.StatusUnprocessableEntity, message)
}
