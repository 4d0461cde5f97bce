package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tiendasneto/expansion-cli/internal/evaluation"
)

var (
	servePort     int
	serveNoPlaces bool
	serveNoAgent  bool
)

// expansionRequest is the webhook body for one candidate site.
type expansionRequest struct {
	IDUbicacion        string  `json:"id_ubicacion"`
	Latitud            float64 `json:"latitud"`
	Longitud           float64 `json:"longitud"`
	Telefono           string  `json:"telefono"`
	TipoSitio          string  `json:"tipo_sitio"`
	TipoAdquisicion    string  `json:"tipo_adquisicion"`
	UbicacionEnManzana string  `json:"ubicacion_en_manzana"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for site evaluations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		data, err := loadDatasets(cfg.Data)
		if err != nil {
			return err
		}
		opts, err := buildOptions(serveNoPlaces, serveNoAgent)
		if err != nil {
			return err
		}
		e := evaluation.New(data, opts)
		r := newRouter(e)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the webhook routes over one evaluator.
func newRouter(e *evaluation.Evaluator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/run-expansion", func(w http.ResponseWriter, req *http.Request) {
		var body expansionRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
			return
		}
		if body.IDUbicacion == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id_ubicacion is required"})
			return
		}

		payload, err := e.Evaluate(req.Context(), evaluation.Request{
			IDUbicacion:        body.IDUbicacion,
			Lat:                body.Latitud,
			Lon:                body.Longitud,
			Telefono:           body.Telefono,
			TipoSitio:          body.TipoSitio,
			TipoAdquisicion:    body.TipoAdquisicion,
			UbicacionEnManzana: body.UbicacionEnManzana,
		})
		if err != nil {
			zap.L().Error("evaluation failed",
				zap.String("id_ubicacion", body.IDUbicacion),
				zap.Error(err),
			)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, payload)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoPlaces, "no-places", false, "skip the places fetch, generators and integration")
	serveCmd.Flags().BoolVar(&serveNoAgent, "no-agent", false, "skip the model verdict")
	rootCmd.AddCommand(serveCmd)
}
