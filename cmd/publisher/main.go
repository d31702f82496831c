package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kkkk2058/portfolio/config"
	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/source"
)

var (
	broker   string
	clientID string
	logLevel string

	deviceID   string
	numDevices int
	targetLat  float64
	targetLon  float64
	span       float64
	step       float64
	accuracy   float64
	interval   time.Duration

	portPath string
	baudRate int
)

var rootCmd = &cobra.Command{
	Use:   "publisher",
	Short: "Publish device location samples to MQTT",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Walk simulated devices back and forth through a target",
	Long:  `Each simulated device paces a straight line through the target on its own bearing, so every pass enters and then leaves the zone.`,
	RunE:  runSimulate,
}

var nmeaCmd = &cobra.Command{
	Use:   "nmea",
	Short: "Relay fixes from a serial NMEA GPS receiver",
	RunE:  runNMEA,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&broker, "broker", envOr("MQTT_BROKER", "tcp://localhost:1883"), "MQTT broker URL")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "geofence-publisher", "MQTT client id")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level")
	rootCmd.PersistentFlags().StringVarP(&deviceID, "device", "d", "sim", "Device id (prefix when simulating several)")

	simulateCmd.Flags().IntVarP(&numDevices, "devices", "n", 1, "Number of simulated devices")
	simulateCmd.Flags().Float64Var(&targetLat, "lat", config.DefaultZone.Center.Lat, "Target latitude")
	simulateCmd.Flags().Float64Var(&targetLon, "lon", config.DefaultZone.Center.Lon, "Target longitude")
	simulateCmd.Flags().Float64Var(&span, "span", 500, "Meters walked past the target on each side")
	simulateCmd.Flags().Float64Var(&step, "step", 25, "Meters moved per sample")
	simulateCmd.Flags().Float64Var(&accuracy, "accuracy", 5, "Reported accuracy in meters")
	simulateCmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Time between samples")

	nmeaCmd.Flags().StringVarP(&portPath, "port", "p", "/dev/ttyUSB0", "Serial port of the GPS receiver")
	nmeaCmd.Flags().IntVarP(&baudRate, "baud", "b", 9600, "Serial baud rate")

	rootCmd.AddCommand(simulateCmd, nmeaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if numDevices < 1 {
		return fmt.Errorf("--devices must be at least 1")
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	log := config.NewLogger(logLevel)
	client, err := connect(log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < numDevices; i++ {
		id := deviceID
		if numDevices > 1 {
			id = fmt.Sprintf("%s-%d", deviceID, i+1)
		}
		w := source.NewWalker(source.WalkerConfig{
			DeviceID: id,
			Target:   domain.Coordinate{Lat: targetLat, Lon: targetLon},
			Span:     span,
			Step:     step,
			Bearing:  float64(i) * 360 / float64(numDevices),
			Accuracy: accuracy,
			Interval: interval,
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := relay(ctx, client, w, log); err != nil {
				log.WithError(err).WithField("device_id", id).Error("relay stopped")
			}
		}()
	}

	log.WithFields(logrus.Fields{"broker": broker, "devices": numDevices}).Infof("publishing every %s", interval)
	wg.Wait()
	return nil
}

func runNMEA(cmd *cobra.Command, _ []string) error {
	log := config.NewLogger(logLevel)

	gps, err := source.OpenNMEA(portPath, baudRate, deviceID)
	if err != nil {
		return err
	}

	client, err := connect(log)
	if err != nil {
		_ = gps.Close()
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A blocked serial read only returns once the port is closed.
	go func() {
		<-ctx.Done()
		_ = gps.Close()
	}()

	log.WithFields(logrus.Fields{"port": portPath, "baud": baudRate}).Info("relaying gps fixes")
	if err := relay(ctx, client, gps, log); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func connect(log *logrus.Logger) (mqtt.Client, error) {
	return config.NewMQTT(&config.Config{MQTTBroker: broker, MQTTClientID: clientID}, log, nil)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// relay publishes every sample from src until ctx is done or src fails.
func relay(ctx context.Context, client tokenPublisher, src source.Source, log *logrus.Logger) error {
	for {
		s, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		topic, payload, err := encode(s)
		if err != nil {
			return err
		}

		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("publish failed")
			continue
		}
		log.WithField("topic", topic).Debugf("published %s", payload)
	}
}
