package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactorviz/impactor-cli/internal/engine"
	"github.com/impactorviz/impactor-cli/internal/export"
	"github.com/impactorviz/impactor-cli/internal/exposure"
	"github.com/impactorviz/impactor-cli/internal/model"
	"github.com/impactorviz/impactor-cli/internal/physics"
	"github.com/impactorviz/impactor-cli/internal/raster"
)

var servePort int

// shutdownTimeout bounds in-flight connection draining after a stop
// signal.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve exposure and impact estimates over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		r, err := openRaster()
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(r, cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown: the signal context is already cancelled
		// once it fires, so draining runs on a fresh deadline.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(drainCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API over an opened raster.
func newRouter(rast *raster.Raster, allowedOrigins []string) http.Handler {
	e := engine.New(rast)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/exposure", func(w http.ResponseWriter, req *http.Request) {
		lat, err1 := strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(req.URL.Query().Get("lon"), 64)
		radius, err3 := strconv.ParseFloat(req.URL.Query().Get("radius"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			writeError(w, http.StatusBadRequest, "lat, lon, and radius are required numbers")
			return
		}

		pop, err := exposure.PopulationWithinRadius(rast, lat, lon, radius)
		if err != nil {
			zap.L().Error("exposure request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "exposure computation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"lat":        lat,
			"lon":        lon,
			"radius_km":  radius,
			"population": pop,
		})
	})

	r.Post("/v1/impact", func(w http.ResponseWriter, req *http.Request) {
		var sc model.Scenario
		if err := json.NewDecoder(req.Body).Decode(&sc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result := e.Evaluate(req.Context(), sc)
		if result.Error != "" {
			writeError(w, http.StatusUnprocessableEntity, result.Error)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"scenario": sc,
			"result":   result,
		})
	})

	r.Get("/v1/impact/rings", func(w http.ResponseWriter, req *http.Request) {
		lat, err1 := strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(req.URL.Query().Get("lon"), 64)
		diameter, err3 := strconv.ParseFloat(req.URL.Query().Get("diameter"), 64)
		velocity, err4 := strconv.ParseFloat(req.URL.Query().Get("velocity"), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			writeError(w, http.StatusBadRequest, "lat, lon, diameter, and velocity are required numbers")
			return
		}

		result := e.Evaluate(req.Context(), model.Scenario{
			Lat: lat, Lon: lon, DiameterM: diameter, VelocityKmS: velocity,
		})
		if result.Error != "" {
			writeError(w, http.StatusUnprocessableEntity, result.Error)
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_ = export.WriteGeoJSON(w, export.DamageRings(lat, lon, result))
	})

	r.Post("/v1/deflect", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Lat          float64 `json:"lat"`
			Lon          float64 `json:"lon"`
			VelocityKmS  float64 `json:"velocity_km_s"`
			AngleDeg     float64 `json:"angle_deg"`
			DeltaVMS     float64 `json:"delta_v_ms"`
			LeadTimeDays float64 `json:"lead_time_days"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		impactLat, impactLon, err := physics.PredictImpactPoint(body.Lat, body.Lon, body.VelocityKmS, body.AngleDeg)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		resp := map[string]any{
			"impact_lat": impactLat,
			"impact_lon": impactLon,
		}

		if body.DeltaVMS > 0 {
			newLat, newLon, err := physics.SimulateDeflectionEffect(impactLat, impactLon, body.DeltaVMS, body.LeadTimeDays, body.VelocityKmS)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			resp["deflected_lat"] = newLat
			resp["deflected_lon"] = newLon
		}

		writeJSON(w, http.StatusOK, resp)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&rasterPathFlag, "raster", "", "population raster path (default from config)")
	rootCmd.AddCommand(serveCmd)
}
