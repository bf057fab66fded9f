package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"interiorquote/services"
	"interiorquote/templates"
)

// HandleCatalogPage lists the catalog with the append and import forms.
// Route: GET /catalog
func HandleCatalogPage(app *pocketbase.PocketBase, catalog *services.CatalogStore, title string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data := templates.CatalogPageData{
			Title:   title,
			Path:    catalog.Path(),
			Catalog: catalog.Load(),
			Form:    templates.CatalogFormData{UnitOptions: services.UnitOptions},
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.CatalogContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.CatalogPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogAppend validates the form and appends one entry to the
// catalog file. On failure the form comes back with field errors and the
// file is untouched.
// Route: POST /catalog
func HandleCatalogAppend(app *pocketbase.PocketBase, catalog *services.CatalogStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		form := templates.CatalogFormData{
			Process:     e.Request.FormValue("process"),
			ItemName:    e.Request.FormValue("item_name"),
			Unit:        e.Request.FormValue("unit"),
			BasePrice:   e.Request.FormValue("base_price"),
			UnitOptions: services.UnitOptions,
		}

		entry := services.CatalogEntry{
			Process:  form.Process,
			ItemName: form.ItemName,
			Unit:     form.Unit,
		}
		price, priceErr := parseFormNumber(form.BasePrice, 0)
		entry.BasePrice = price

		stored, err := catalog.Append(entry)
		if err != nil || priceErr != nil {
			var entryErr *services.EntryError
			switch {
			case errors.As(err, &entryErr):
				form.Errors = entryErr.Fields
			case errors.Is(err, services.ErrCatalogUnreadable):
				app.Logger().Error("catalog_append: catalog file unreadable", "path", catalog.Path(), "error", err)
				return ErrorToast(e, http.StatusConflict, unreadableCatalogMessage)
			case err != nil:
				app.Logger().Error("catalog_append: write failed", "path", catalog.Path(), "error", err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			if priceErr != nil {
				if form.Errors == nil {
					form.Errors = map[string]string{}
				}
				form.Errors["base_price"] = "Price must be a number"
			}
			SetToast(e, "warning", "Please fix the highlighted fields")
			return templates.CatalogForm(form).Render(e.Request.Context(), e.Response)
		}

		SetToast(e, "success", fmt.Sprintf("Added %s to the catalog", stored.ItemName))
		if err := templates.CatalogForm(templates.CatalogFormData{UnitOptions: services.UnitOptions}).
			Render(e.Request.Context(), e.Response); err != nil {
			return err
		}
		return templates.CatalogRefresh(catalog.Load(), stored.Process).Render(e.Request.Context(), e.Response)
	}
}

const unreadableCatalogMessage = "The catalog file could not be read, so nothing was added. Fix the file and try again."

// HandleCatalogImport validates an uploaded .csv or .xlsx of catalog rows and
// appends the valid ones in a single write.
// Route: POST /catalog/import
func HandleCatalogImport(app *pocketbase.PocketBase, catalog *services.CatalogStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ValidateCatalogFile(file, header.Filename)
		if errors.Is(err, services.ErrUnsupportedFile) {
			return ErrorToast(e, http.StatusBadRequest, "Please upload a .csv or .xlsx file")
		}
		if err != nil {
			app.Logger().Warn("catalog_import: unreadable file", "file", header.Filename, "error", err)
			return ErrorToast(e, http.StatusBadRequest, capitalize(err.Error()))
		}

		if len(result.Entries) > 0 {
			err := catalog.AppendAll(result.Entries)
			if errors.Is(err, services.ErrCatalogUnreadable) {
				app.Logger().Error("catalog_import: catalog file unreadable", "path", catalog.Path(), "error", err)
				return ErrorToast(e, http.StatusConflict, unreadableCatalogMessage)
			}
			if err != nil {
				app.Logger().Error("catalog_import: append failed", "file", header.Filename, "error", err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}
		imported := len(result.Entries)

		switch {
		case imported == 0:
			SetToast(e, "warning", "No rows were imported")
		case result.ErrorRows > 0:
			SetToast(e, "warning", fmt.Sprintf("%d rows imported, %d rows skipped", imported, result.ErrorRows))
		default:
			SetToast(e, "success", fmt.Sprintf("%d rows imported successfully", imported))
		}

		if err := templates.ImportResultView(result, imported).Render(e.Request.Context(), e.Response); err != nil {
			return err
		}
		if imported == 0 {
			return nil
		}
		return templates.CatalogRefresh(catalog.Load(), result.Entries[0].Process).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogErrorReport downloads import row errors as an Excel file.
// Route: POST /catalog/import/errors
func HandleCatalogErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		var rowErrors []services.ValidationError
		if err := json.Unmarshal([]byte(e.Request.FormValue("errors_json")), &rowErrors); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(rowErrors)
		if err != nil {
			app.Logger().Error("error_report: failed to generate", "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Catalog_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		return writeAttachment(e, xlsxContentType, filename, xlsxBytes)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
