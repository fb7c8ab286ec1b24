// Package config loads the optional daemon configuration file.
// Every value has a default; flags override file values in main.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/pwm-led/internal/gpio"
)

type Config struct {
	Pins  PinsConfig `yaml:"pins"`
	MQTT  MQTTConfig `yaml:"mqtt"`
	HTTP  HTTPConfig `yaml:"http"`
	Input InputConfig `yaml:"input"`
}

type PinsConfig struct {
	// BCM GPIO numbering.
	LED1 int `yaml:"led1"`
	LED2 int `yaml:"led2"`
	LED3 int `yaml:"led3"`
	BtnA int `yaml:"btn_a"`
	BtnB int `yaml:"btn_b"`
}

type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type InputConfig struct {
	// Debounce is applied at the GPIO line, before edge events reach
	// the estimator. Zero disables hardware debouncing.
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pins: PinsConfig{
			LED1: gpio.DefaultPinLED1,
			LED2: gpio.DefaultPinLED2,
			LED3: gpio.DefaultPinLED3,
			BtnA: gpio.DefaultPinBtnA,
			BtnB: gpio.DefaultPinBtnB,
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://127.0.0.1:1883",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Input: InputConfig{
			Debounce: 10 * time.Millisecond,
		},
	}
}

// Load reads the config file at path, filling unset values with
// defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	pins := map[string]int{
		"pins.led1":  c.Pins.LED1,
		"pins.led2":  c.Pins.LED2,
		"pins.led3":  c.Pins.LED3,
		"pins.btn_a": c.Pins.BtnA,
		"pins.btn_b": c.Pins.BtnB,
	}
	seen := make(map[int]string, len(pins))
	for name, pin := range pins {
		if pin < 0 {
			return fmt.Errorf("%s: pin %d is negative", name, pin)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%s and %s share pin %d", name, other, pin)
		}
		seen[pin] = name
	}

	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat must not be negative")
	}
	if c.Input.Debounce < 0 {
		return fmt.Errorf("input.debounce must not be negative")
	}
	return nil
}
