package app

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/hmd_tracker/internal/ahrs"
	"github.com/relabs-tech/hmd_tracker/internal/config"
	"github.com/relabs-tech/hmd_tracker/internal/device"
	"github.com/relabs-tech/hmd_tracker/internal/orientation"
)

// RunPoseProducer opens the headset and publishes fused pose and
// calibrated sensor telemetry over MQTT until the device goes away.
func RunPoseProducer() error {
	log.Println("starting hmd-tracker pose producer (headset → MQTT)")

	cfg := config.Get()

	// --- Open the headset session ---
	var (
		havePose bool
		lastPose orientation.Pose
	)

	session, err := device.Open(func(timestamp uint64, event device.EventKind, filter *ahrs.AHRS) {
		switch event {
		case device.EventInit:
			log.Printf("headset stream (re)initialized at t=%d", timestamp)
		case device.EventUpdate:
			lastPose = orientation.FromQuaternion(filter.Quaternion())
			havePose = true
		}
	})
	if err != nil {
		log.Fatalf("failed to open headset: %v", err)
		return err
	}
	defer session.Close()

	log.Printf("headset open: product 0x%04x, static id 0x%08x", session.ProductID(), session.StaticID())

	// --- Load persisted calibration if present ---
	if cfg.CalibrationPath != "" {
		if _, err := os.Stat(cfg.CalibrationPath); err == nil {
			if err := session.LoadCalibration(cfg.CalibrationPath); err != nil {
				log.Printf("WARNING: calibration load failed, using factory profile: %v", err)
			} else {
				log.Printf("loaded calibration from %s", cfg.CalibrationPath)
			}
		}
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting read loop")

	readTimeout := time.Duration(cfg.ReadTimeoutMS) * time.Millisecond
	publishEvery := time.Duration(cfg.PublishIntervalMS) * time.Millisecond
	logEvery := time.Duration(cfg.LogIntervalMS) * time.Millisecond

	var lastPublish, lastLog time.Time

	for {
		if err := session.Read(readTimeout); err != nil {
			if errors.Is(err, device.ErrUnplugged) {
				log.Printf("headset unplugged: %v", err)
				return err
			}
			// Desyncs and invalid filter outputs are transient; keep reading.
			log.Printf("headset read error: %v", err)
			continue
		}

		now := time.Now()
		if !havePose || now.Sub(lastPublish) < publishEvery {
			continue
		}
		lastPublish = now

		// 1) Fused pose
		if payload, err := json.Marshal(lastPose); err != nil {
			log.Printf("json marshal error (pose): %v", err)
		} else if token := client.Publish(cfg.TopicPose, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (pose): %v", token.Error())
			continue
		}

		// 2) Orientation quaternion
		if payload, err := json.Marshal(session.Filter().Quaternion()); err != nil {
			log.Printf("json marshal error (orientation): %v", err)
		} else if token := client.Publish(cfg.TopicOrientation, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (orientation): %v", token.Error())
			continue
		}

		// 3) Calibrated IMU sample
		if payload, err := json.Marshal(session.LastSample()); err != nil {
			log.Printf("json marshal error (imu): %v", err)
		} else if token := client.Publish(cfg.TopicIMU, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (imu): %v", token.Error())
			continue
		}

		// 4) Die temperature
		if cfg.TopicTemperature != "" {
			temp := struct {
				Temperature float64 `json:"temperature"`
				Time        string  `json:"time"`
			}{
				Temperature: session.Temperature(),
				Time:        now.Format(time.RFC3339),
			}
			if payload, err := json.Marshal(temp); err != nil {
				log.Printf("json marshal error (temperature): %v", err)
			} else {
				client.Publish(cfg.TopicTemperature, 0, true, payload)
			}
		}

		if now.Sub(lastLog) >= logEvery {
			lastLog = now
			sample := session.LastSample()
			log.Printf("%s tick: pose R=%.2f P=%.2f Y=%.2f | gyro %.2f %.2f %.2f | accel %.3f %.3f %.3f | %.1f°C",
				now.Format(time.RFC3339),
				lastPose.Roll, lastPose.Pitch, lastPose.Yaw,
				sample.Gyroscope.X, sample.Gyroscope.Y, sample.Gyroscope.Z,
				sample.Accelerometer.X, sample.Accelerometer.Y, sample.Accelerometer.Z,
				session.Temperature(),
			)
		}
	}
}
