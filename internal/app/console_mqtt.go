package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_sentry/internal/config"
)

func fmtCorr(v *float64) string {
	if v == nil {
		return "   n/a"
	}
	return fmt.Sprintf("%6.3f", *v)
}

// RunConsoleMQTT prints sentry state and results to the terminal and
// forwards typed commands (record, unlock, erase) as triggers.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to state
	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s StatusMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}

		if s.Message != "" {
			fmt.Printf("[STATE]  %-14s %s\n", s.State, s.Message)
		} else {
			fmt.Printf("[STATE]  %s\n", s.State)
		}
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicState)

	// Subscribe to results
	resultToken := client.Subscribe(cfg.TopicResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r ResultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: result unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[RESULT] %-14s key=%v corr x=%s y=%s z=%s",
			r.Result, r.KeyPresent, fmtCorr(r.CorrX), fmtCorr(r.CorrY), fmtCorr(r.CorrZ),
		)
		if r.Error != "" {
			fmt.Printf(" error=%s", r.Error)
		}
		fmt.Println()
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicResult)

	fmt.Println("commands: record, unlock, erase (Ctrl+C to quit)")

	// Forward typed commands as triggers
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch cmd {
			case "":
				continue
			case "record", "unlock", "erase":
				if token := client.Publish(cfg.TopicTrigger, 0, false, cmd); token.Wait() && token.Error() != nil {
					log.Printf("console: trigger publish error: %v", token.Error())
				}
			default:
				fmt.Printf("unknown command %q (record, unlock, erase)\n", cmd)
			}
		}
	}()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
