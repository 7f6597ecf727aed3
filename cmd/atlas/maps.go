package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-atlas/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-atlas/internal/adapter/kafka"
	"github.com/couchcryptid/climate-atlas/internal/adapter/render"
	"github.com/couchcryptid/climate-atlas/internal/config"
	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/pipeline"
)

func newMapsCmd() *cobra.Command {
	var (
		regionCodes []string
		catalogPath string
		serve       bool
	)

	cmd := &cobra.Command{
		Use:   "maps",
		Short: "Generate the department maps of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			regions, err := parseRegions(regionCodes)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if catalogPath == "" {
				catalogPath = a.cfg.MapCatalog
			}
			catalog, err := config.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}

			publishers := []pipeline.Publisher{render.NewMapWriter(a.cfg.OutputDir, a.logger)}
			if a.cfg.PublishEnabled() {
				writer := kafkaadapter.NewWriter(a.cfg, a.logger)
				defer func() {
					if err := writer.Close(); err != nil {
						a.logger.Error("kafka writer close error", "error", err)
					}
				}()
				publishers = append(publishers, writer)
				a.logger.Info("kafka publishing enabled", "topic", a.cfg.KafkaTopic)
			}

			p := pipeline.NewMapPipeline(a.sources, pipeline.MapConfig{
				MaxElevation:     a.cfg.MaxElevation,
				SampleSize:       a.cfg.SampleSize,
				Mode:             a.cfg.AggregationMode,
				WeatherPeriod:    a.cfg.WeatherPeriod,
				AirQualityPeriod: a.cfg.AirQualityPeriod,
				Catalog:          catalog.Maps,
				Regions:          regions,
			}, a.logger, a.metrics, publishers...)

			var srv *httpadapter.Server
			if a.cfg.HTTPAddr != "" {
				srv = httpadapter.NewServer(a.cfg.HTTPAddr, p, p, a.logger)
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("http server error", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						a.logger.Error("http server shutdown error", "error", err)
					}
				}()
			}

			maps, err := p.Run(ctx)
			if err != nil {
				return err
			}
			if err := render.WriteTables(cmd.OutOrStdout(), []domain.Table{mapsTable(maps)}); err != nil {
				return err
			}

			if serve && srv == nil {
				a.logger.Warn("--serve ignored: HTTP_ADDR is not set")
			}
			if serve && srv != nil {
				a.logger.Info("serving maps until interrupted", "addr", a.cfg.HTTPAddr)
				<-ctx.Done()
				a.logger.Info("shutting down")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&regionCodes, "regions", "r", nil, "department codes to map (default: all)")
	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "TOML map catalog (default: MAP_CATALOG or the built-in catalog)")
	cmd.Flags().BoolVar(&serve, "serve", false, "keep serving the maps over HTTP_ADDR after the run")
	return cmd
}

// parseRegions resolves department codes. No code means every region.
func parseRegions(codes []string) ([]domain.Region, error) {
	regions := make([]domain.Region, 0, len(codes))
	for _, code := range codes {
		r, err := domain.LookupRegion(domain.RegionCode(strings.ToUpper(strings.TrimSpace(code))))
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func mapsTable(maps []domain.MapResult) domain.Table {
	t := domain.Table{Title: "Cartes générées", Columns: []string{"Identifiant", "Titre", "Départements", "Classes"}}
	for _, m := range maps {
		t.AddRow(m.ID, m.Title, strconv.Itoa(len(m.Values)), strconv.Itoa(len(m.Categories)))
	}
	return t
}

