package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/gesture"
	"github.com/relabs-tech/gesture_sentry/internal/gyro"
	"github.com/relabs-tech/gesture_sentry/internal/sensors"
	"github.com/relabs-tech/gesture_sentry/internal/session"
)

// newSource opens the gyro source named in the configuration.
func newSource(cfg *config.Config) (gyro.Source, func(), error) {
	switch cfg.GyroSource {
	case "spi":
		dev, err := sensors.NewL3GD20()
		if err != nil {
			return nil, nil, fmt.Errorf("L3GD20 init: %w", err)
		}
		return dev, func() { dev.Close() }, nil
	case "serial":
		src, err := sensors.NewSerialSource()
		if err != nil {
			return nil, nil, fmt.Errorf("serial source: %w", err)
		}
		return src, func() { src.Close() }, nil
	case "mock":
		return sensors.NewMockSource(5 * time.Millisecond), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown gyro source %q", cfg.GyroSource)
	}
}

// RunSentry wires the gyro source, session engine and MQTT together
// and blocks until SIGINT or SIGTERM.
func RunSentry() error {
	log.Println("starting gesture sentry")

	cfg := config.Get()

	src, closeSrc, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	sensitivity, err := sensors.SensitivityDPS(cfg.GyroFullScale)
	if err != nil {
		return err
	}
	mode, err := gesture.ParseThresholdMode(cfg.CalThresholdMode)
	if err != nil {
		return err
	}

	engine := session.New(src, session.Options{
		CalibrationSamples:   cfg.CalSampleCount,
		CalibrationInterval:  time.Duration(cfg.CalSampleInterval) * time.Millisecond,
		ThresholdMode:        mode,
		Sensitivity:          sensitivity,
		CountdownSeconds:     cfg.CountdownSeconds,
		RecordDuration:       time.Duration(cfg.RecordDurationMS) * time.Millisecond,
		SampleInterval:       time.Duration(cfg.SampleIntervalMS) * time.Millisecond,
		FilterWindow:         cfg.FilterWindowSize,
		TrimEpsilon:          cfg.TrimEpsilon,
		CorrelationThreshold: cfg.CorrelationThreshold,
	})

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSentry)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// State updates are retained so late subscribers see the current
	// phase immediately.
	engine.OnState = func(s session.State, detail string) {
		msg := StatusMessage{
			State:      string(s),
			Message:    detail,
			KeyPresent: engine.HasKey(),
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			log.Printf("json marshal error (state): %v", err)
			return
		}
		if token := client.Publish(cfg.TopicState, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (state): %v", token.Error())
		}
	}

	engine.OnOutcome = func(o session.Outcome) {
		msg := ResultMessage{
			Result:     string(o.Kind),
			KeyPresent: o.KeyPresent,
		}
		if o.Correlation != nil {
			msg.CorrX = jsonFloat(o.Correlation.X)
			msg.CorrY = jsonFloat(o.Correlation.Y)
			msg.CorrZ = jsonFloat(o.Correlation.Z)
		}
		if o.Err != nil {
			msg.Error = o.Err.Error()
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			log.Printf("json marshal error (result): %v", err)
			return
		}
		if token := client.Publish(cfg.TopicResult, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (result): %v", token.Error())
		}
	}

	token := client.Subscribe(cfg.TopicTrigger, 0, func(_ mqtt.Client, msg mqtt.Message) {
		switch string(msg.Payload()) {
		case "record":
			engine.Post(session.TriggerRecord)
		case "unlock":
			engine.Post(session.TriggerUnlock)
		case "erase":
			engine.Post(session.TriggerErase)
		default:
			log.Printf("ignoring unknown trigger payload %q", msg.Payload())
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe error: %w", token.Error())
	}
	log.Printf("subscribed to %s", cfg.TopicTrigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("sentry: shutting down")
	cancel()
	<-done
	return nil
}
