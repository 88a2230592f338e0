package main

import (
	"fmt"
	"io"

	"agentdesk/internal/capture"
	"agentdesk/internal/computer"
	"agentdesk/internal/config"
	"agentdesk/internal/device"
	"agentdesk/internal/device/browser"
	"agentdesk/internal/device/desktop"
	"agentdesk/internal/logger"
	"agentdesk/internal/scaling"
	"agentdesk/internal/worker"
)

// app is the wired core shared by every command: one device, its
// capturer, the dispatcher and the queue in front of it.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	dev      device.Device
	shots    *capture.Capturer
	computer *computer.Computer
	queue    *worker.Queue
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	dev, err := openDevice(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s device: %w", cfg.Device.Backend, err)
	}

	var resize *capture.Size
	if cfg.Screenshot.Resize {
		resize = &capture.Size{Width: cfg.Screenshot.Width, Height: cfg.Screenshot.Height}
	}
	shots := capture.New(dev, capture.Options{
		Dir:    cfg.Screenshot.Dir,
		Settle: cfg.Screenshot.Settle,
		Resize: resize,
	})

	var display *int
	if cfg.Device.Backend == config.BackendDesktop {
		n := cfg.Device.Display
		display = &n
	}
	c, err := computer.New(dev, shots, computer.Options{
		Scaling:       cfg.Scaling.Enabled,
		APISize:       scaling.Size{Width: cfg.Scaling.Width, Height: cfg.Scaling.Height},
		DisplayNumber: display,
		Timings: computer.Timings{
			Typing:       cfg.Timings.Typing,
			Drag:         cfg.Timings.Drag,
			Hover:        cfg.Timings.Hover,
			Wait:         cfg.Timings.Wait,
			ScrollAmount: cfg.Timings.ScrollAmount,
		},
		Logger: log,
	})
	if err != nil {
		closeDevice(dev, log)
		return nil, err
	}

	log.Debug("device %s ready, screenshots in %s", cfg.Device.Backend, shots.Dir())
	return &app{
		cfg:      cfg,
		log:      log,
		dev:      dev,
		shots:    shots,
		computer: c,
		queue:    worker.New(c, 64, log),
	}, nil
}

// Close drains the queue, then releases the device.
func (a *app) Close() {
	a.queue.Close()
	closeDevice(a.dev, a.log)
}

func openDevice(cfg *config.Config) (device.Device, error) {
	switch cfg.Device.Backend {
	case config.BackendBrowser:
		return browser.New(browser.Options{
			URL:      cfg.Browser.URL,
			Width:    cfg.Browser.Width,
			Height:   cfg.Browser.Height,
			Headless: cfg.Browser.Headless,
		})
	case config.BackendDesktop:
		return desktop.New(cfg.Device.Display)
	default:
		return nil, fmt.Errorf("unsupported device backend: %s", cfg.Device.Backend)
	}
}

func closeDevice(dev device.Device, log *logger.Logger) {
	if c, ok := dev.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("failed to close device: %v", err)
		}
	}
}
