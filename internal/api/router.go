package api

import (
	"log/slog"
	"net/http"

	"fleetd/internal/handler"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "fleetd/docs"
)

// SetupRouter sets up router with handlers
func SetupRouter(log *slog.Logger) (http.Handler, error) {
	fleetHandler, err := handler.NewFleetHandler(log)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Fleet endpoints
	mux.HandleFunc("/fleet/generate", fleetHandler.Generate)
	mux.HandleFunc("/fleet/import", fleetHandler.Import)
	mux.HandleFunc("/fleet/accounts", fleetHandler.Accounts)
	mux.HandleFunc("/fleet/refresh", fleetHandler.Refresh)
	mux.HandleFunc("/fleet/fund", fleetHandler.Fund)
	mux.HandleFunc("/fleet/progress", fleetHandler.Progress)
	mux.HandleFunc("/fleet/recover", fleetHandler.Recover)
	mux.HandleFunc("/fleet/sell", fleetHandler.Sell)
	mux.HandleFunc("/fleet/token", fleetHandler.Token)

	return mux, nil
}
