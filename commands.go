package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Aashish23092/ocr-document-validity/client"
	"github.com/Aashish23092/ocr-document-validity/config"
	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/handler"
	"github.com/Aashish23092/ocr-document-validity/logger"
	"github.com/Aashish23092/ocr-document-validity/metrics"
	"github.com/Aashish23092/ocr-document-validity/service"
	"github.com/Aashish23092/ocr-document-validity/storage"
	"github.com/Aashish23092/ocr-document-validity/utils/dateparser"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appName = "docvalidity"

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Issuance and expiration dates of OCR-scanned documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./config.yaml when present)")

	root.AddCommand(serveCmd(&configPath), computeCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func computeCmd(configPath *string) *cobra.Command {
	var (
		input  string
		schema string
		today  string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute validity from an entities JSON file",
		Long: "Reads either a JSON array of entities or an object with an \"entities\" field\n" +
			"(the shape POST /api/v1/validity/compute accepts) and prints the result.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			data, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req, err := decodeComputeRequest(data)
			if err != nil {
				return err
			}
			if today != "" {
				req.Today = today
			}

			// --schema wins over the file, which wins over the configured default
			name := cfg.DefaultSchema
			if schema != "" {
				name = schema
			} else if req.Schema != "" {
				name = req.Schema
			}
			docSchema, err := dto.LookupSchema(name)
			if err != nil {
				return err
			}

			validity, err := newValidityService(cfg, nil)
			if err != nil {
				return err
			}
			processor := service.NewDocumentProcessor(nil, validity, storage.NewJSONStore(cfg.OutputDir), 1)

			resp, err := processor.Compute(req, docSchema, save)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "Entities JSON file, - for stdin")
	cmd.Flags().StringVarP(&schema, "schema", "s", "", "Document schema ("+strings.Join(dto.SchemaNames(), ", ")+")")
	cmd.Flags().StringVar(&today, "today", "", "Evaluation date YYYY-MM-DD (default: now)")
	cmd.Flags().BoolVar(&save, "save", false, "Also write the result to the output folder")
	return cmd
}

func setup(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return nil, err
	}
	logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})
	return cfg, nil
}

func newValidityService(cfg *config.Config, m *metrics.Metrics) (*service.ValidityService, error) {
	months, err := cfg.MonthTable()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("version", months.Version()).Int("aliases", len(months.Aliases())).Msg("month table loaded")
	return service.NewValidityService(dateparser.NewDateParser(months), m), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguages)
	defer tesseractClient.Close()

	validity, err := newValidityService(cfg, m)
	if err != nil {
		return err
	}
	extractor := service.NewOCREntityExtractor(tesseractClient, service.NewPDFProcessor(), m)
	processor := service.NewDocumentProcessor(extractor, validity, storage.NewJSONStore(cfg.OutputDir), cfg.BatchConcurrency)

	defaultSchema, err := dto.LookupSchema(cfg.DefaultSchema)
	if err != nil {
		return err
	}
	h := handler.NewValidityHandler(processor, defaultSchema, cfg.MaxFileSize)
	router := handler.NewRouter(h, reg, 32<<20)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("starting " + handler.ServiceName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// decodeComputeRequest accepts a bare entity array or a full compute request.
func decodeComputeRequest(data []byte) (dto.ComputeRequest, error) {
	var req dto.ComputeRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &req.Entities); err != nil {
			return req, fmt.Errorf("failed to decode entities: %w", err)
		}
		return req, nil
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, fmt.Errorf("failed to decode compute request: %w", err)
	}
	return req, nil
}
