package api

import (
	"context"
	"io"

	"github.com/hellosteadman/ghostexporter/app/export"
)

type ExporterInterface interface {
	Write(ctx context.Context, w io.Writer, feedURL, version string) error
	Providers() []string
}

var _ ExporterInterface = (*export.Exporter)(nil)

type Handler struct {
	exporter       ExporterInterface
	defaultVersion string
	version        string
}
