// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/edgar-export/internal/container"
	"github.com/pdiddy/edgar-export/internal/httputil"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// Container renders by running a wkhtmltopdf image through docker or
// podman, reading the PDF from the container's stdout.
type Container struct {
	runtime   container.Runtime
	image     string
	userAgent string
	cfg       types.RenderConfig
}

// NewContainer checks that the configured image is present, pulling it
// first when cfg.Pull is set.
func NewContainer(ctx context.Context, rt container.Runtime, cfg types.RenderConfig, userAgent string) (*Container, error) {
	image := cfg.Image
	if image == "" {
		image = types.DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		if !cfg.Pull {
			return nil, fmt.Errorf("render image not available in %s: %w", rt.Name(), err)
		}
		logrus.WithFields(logrus.Fields{"image": image, "runtime": rt.Name()}).Info("pulling render image")
		if err := rt.Pull(ctx, image); err != nil {
			return nil, err
		}
	}
	return &Container{runtime: rt, image: image, userAgent: userAgent, cfg: cfg}, nil
}

func (c *Container) Name() string { return string(types.RendererContainer) + "/" + c.runtime.Name() }

func (c *Container) Close() error { return nil }

func (c *Container) Render(ctx context.Context, sourceURL, destPath string) error {
	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	spec := container.RunSpec{
		Image: c.image,
		Args:  wkhtmltopdfArgs(c.userAgent, sourceURL, "-"),
	}
	var out bytes.Buffer
	if err := c.runtime.Run(ctx, spec, &out); err != nil {
		return fmt.Errorf("rendering %s: %w", sourceURL, err)
	}
	if out.Len() == 0 {
		return fmt.Errorf("renderer produced empty output for %s", sourceURL)
	}
	return httputil.WriteAtomic(destPath, &out)
}
