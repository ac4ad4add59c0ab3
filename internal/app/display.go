package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_sentry/internal/config"
)

// DisplayData holds the latest sentry state for rendering.
type DisplayData struct {
	mu sync.RWMutex

	status     StatusMessage
	haveStatus bool

	result     ResultMessage
	haveResult bool
}

// resultLabel maps a result kind to a short line that fits the OLED.
func resultLabel(result string) string {
	switch result {
	case "unlocked":
		return "UNLOCK: SUCCESS"
	case "unlock_failed":
		return "UNLOCK: FAILED"
	case "no_key":
		return "NO KEY SAVED"
	case "key_saved":
		return "KEY SAVED"
	case "save_rejected":
		return "NO GESTURE"
	case "key_erased":
		return "KEY ERASED"
	case "error":
		return "ERROR"
	default:
		return result
	}
}

// RunDisplay renders sentry state on the SSD1306 OLED.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s StatusMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: state unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.status = s
		data.haveStatus = true
		data.mu.Unlock()
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicState)

	resultToken := client.Subscribe(cfg.TopicResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r ResultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("display: result unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.result = r
		data.haveResult = true
		data.mu.Unlock()
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicResult)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snapshot := DisplayData{
			status:     data.status,
			haveStatus: data.haveStatus,
			result:     data.result,
			haveResult: data.haveResult,
		}
		data.mu.RUnlock()

		if err := updateDisplay(display, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateDisplay(dev *ssd1306.Dev, data *DisplayData) error {
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

	if !data.haveStatus {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Gesture Sentry"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(data.status.State))

	if data.status.Message != "" {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(data.status.Message))
	}

	if data.haveResult {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(resultLabel(data.result.Result)))
	}

	key := "key: none"
	if data.status.KeyPresent {
		key = "key: saved"
	}
	drawer.Dot = fixed.P(0, 58)
	drawer.DrawBytes([]byte(key))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
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

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Gesture Sentry"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Shake to unlock"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
