package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"interiorquote/collections"
	"interiorquote/config"
	"interiorquote/handlers"
	"interiorquote/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()

	app.RootCmd.PersistentFlags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath,
		"path of the catalog CSV file (overrides QUOTE_CATALOG_PATH)")
	app.RootCmd.AddCommand(newCatalogCommand(cfg, app.Logger()))

	sessions := services.NewSessionStore(cfg.SessionTTL)

	// Create collections on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		catalog := services.NewCatalogStore(cfg.CatalogPath, app.Logger())
		app.Logger().Info("catalog loaded", "path", catalog.Path(), "entries", catalog.Load().Len())

		ui := se.Router.Group("")
		ui.BindFunc(handlers.SessionMiddleware(sessions))

		// ── Estimate ─────────────────────────────────────────────
		ui.GET("/{$}", handlers.HandleEstimatePage(app, catalog, sessions, cfg.QuoteTitle))
		ui.GET("/estimate/items/options", handlers.HandleItemOptions(app, catalog))
		ui.POST("/estimate/items", handlers.HandleAddLineItem(app, catalog, sessions))
		ui.DELETE("/estimate/items/{index}", handlers.HandleRemoveLineItem(app, sessions))
		ui.POST("/estimate/reset", handlers.HandleResetEstimate(app, sessions))

		// ── Estimate export ──────────────────────────────────────
		ui.GET("/estimate/export/excel", handlers.HandleEstimateExportExcel(app, sessions, cfg))
		ui.GET("/estimate/export/pdf", handlers.HandleEstimateExportPDF(app, sessions, cfg))

		// ── Catalog ──────────────────────────────────────────────
		ui.GET("/catalog", handlers.HandleCatalogPage(app, catalog, cfg.QuoteTitle))
		ui.POST("/catalog", handlers.HandleCatalogAppend(app, catalog))
		ui.POST("/catalog/import", handlers.HandleCatalogImport(app, catalog))
		ui.POST("/catalog/import/errors", handlers.HandleCatalogErrorReport(app))

		// ── Quote archive ────────────────────────────────────────
		ui.GET("/quotes", handlers.HandleQuoteList(app, sessions, cfg.QuoteTitle))
		ui.GET("/quotes/{id}/export/excel", handlers.HandleQuoteExportExcel(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
