package main

//go:generate swag init --dir ../../ --generalInfo cmd/goldpanel/docs.go --output ../../docs

// @title           Gold Panel API
// @version         0.1.0
// @description     Cached gold price snapshots, workflow runs, and the processed-update ledger.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
