// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/KiranM189/Capstone/internal/config"
	"github.com/KiranM189/Capstone/internal/hub"
	"github.com/KiranM189/Capstone/internal/link"
	"github.com/KiranM189/Capstone/internal/session"
)

// runStatusDisplay drives the 128x64 OLED status page on a headless
// gateway box: session state, live sensor count, calibration countdown,
// consumer count. Returns an error when the bus or the display is
// absent; the gateway keeps running without it.
func runStatusDisplay(sess *session.Session, links *link.Server, h *hub.Hub) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on bus %q", bus.String())

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if err := drawStatus(dev, sess, links, h); err != nil {
			log.Printf("display: error updating: %v", err)
		}
	}
	return nil
}

func newStatusImage() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawStatus(dev *ssd1306.Dev, sess *session.Session, links *link.Server, h *hub.Hub) error {
	img, drawer := newStatusImage()

	state := sess.State()

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("Mocap %s", state)))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(fmt.Sprintf("Sensors: %d", links.Sensors())))

	drawer.Dot = fixed.P(0, 39)
	if state == session.StateCollecting {
		drawer.DrawBytes([]byte(fmt.Sprintf("Cal: %2.0fs left", sess.CollectingRemaining().Seconds())))
	} else {
		drawer.DrawBytes([]byte(fmt.Sprintf("Labels: %d", len(links.ActiveLabels()))))
	}

	drawer.Dot = fixed.P(0, 52)
	drawer.DrawBytes([]byte(fmt.Sprintf("Viewers: %d", h.ClientCount())))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img, drawer := newStatusImage()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Mocap Gateway"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("sensors"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
