// factory.go
//
// PS2 controller driver factory for reef-pi.
//
// This file integrates a PS2-style game pad (read over SPI) into reef-pi's HAL:
//
//   - Declares driver metadata (name/description/capabilities)
//   - Exposes UI configuration parameters
//   - Validates configuration
//   - Constructs a driver instance and opens the SPI transport
//
// Hardware resource handling:
//   - If reef-pi hands us a ps2pad.Transport we use it as is (tests, custom buses).
//   - If it hands us nil we open the SPI port + select GPIO named in the parameters.
//
package ps2pad

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reef-pi/hal"
	"periph.io/x/conn/v3/physic"
)

const (
	driverName = "ps2pad"

	paramSPIPort      = "SPIPort"      // string, "" = first port
	paramSelectPin    = "SelectPin"    // string, e.g. "GPIO8"
	paramFrequency    = "Frequency"    // integer Hz
	paramPollInterval = "PollInterval" // integer ms, 0 = poll on every read
	paramDebug        = "Debug"        // bool

	defaultPollInterval = 20 // ms

	minFrequency = 10000
	maxFrequency = 500000
)

type factory struct {
	meta       hal.Metadata
	parameters []hal.ConfigParameter
}

var (
	f    *factory
	once sync.Once
)

func Factory() hal.DriverFactory {
	once.Do(func() {
		f = &factory{
			meta: hal.Metadata{
				Name:        driverName,
				Description: "PS2 game pad over SPI. 16 buttons as digital inputs (pressed=true), 4 stick axes as analog inputs (-128..127).",
				Capabilities: []hal.Capability{
					hal.DigitalInput,
					hal.AnalogInput,
				},
			},
			parameters: []hal.ConfigParameter{
				{Name: paramSPIPort, Type: hal.String, Order: 0, Default: ""},
				{Name: paramSelectPin, Type: hal.String, Order: 1, Default: DefaultSelectPin},
				{Name: paramFrequency, Type: hal.Integer, Order: 2, Default: int(DefaultFrequency / physic.Hertz)},
				{Name: paramPollInterval, Type: hal.Integer, Order: 3, Default: defaultPollInterval},
				{Name: paramDebug, Type: hal.Boolean, Order: 4, Default: false},
			},
		}
	})
	return f
}

func (f *factory) Metadata() hal.Metadata               { return f.meta }
func (f *factory) GetParameters() []hal.ConfigParameter { return f.parameters }

func (f *factory) ValidateParameters(params map[string]interface{}) (bool, map[string][]string) {
	fail := make(map[string][]string)

	if v, ok := getAny(params, paramSPIPort); ok {
		if _, ok := v.(string); !ok {
			fail[paramSPIPort] = append(fail[paramSPIPort], "must be a string (e.g. /dev/spidev0.0 or empty)")
		}
	}

	if v, ok := getAny(params, paramSelectPin); ok {
		s, ok := v.(string)
		if !ok {
			fail[paramSelectPin] = append(fail[paramSelectPin], "must be a string (e.g. GPIO8)")
		} else if strings.TrimSpace(s) == "" {
			fail[paramSelectPin] = append(fail[paramSelectPin], "is required (e.g. GPIO8)")
		}
	}

	if v, ok := getAny(params, paramFrequency, "freq", "frequency_hz"); ok {
		hz, ok := convertToInt(v)
		if !ok {
			fail[paramFrequency] = append(fail[paramFrequency], "must be an integer (Hz)")
		} else if hz < minFrequency || hz > maxFrequency {
			fail[paramFrequency] = append(fail[paramFrequency],
				fmt.Sprintf("must be %d..%d Hz (pads are happy at 250000)", minFrequency, maxFrequency))
		}
	}

	if v, ok := getAny(params, paramPollInterval, "interval", "poll_interval"); ok {
		ms, ok := convertToInt(v)
		if !ok {
			fail[paramPollInterval] = append(fail[paramPollInterval], "must be an integer (milliseconds)")
		} else if ms < 0 || ms > 10000 {
			fail[paramPollInterval] = append(fail[paramPollInterval], "must be 0..10000 ms")
		}
	}

	if v, ok := getAny(params, paramDebug, "debug"); ok {
		if _, ok := v.(bool); !ok {
			fail[paramDebug] = append(fail[paramDebug], "must be boolean")
		}
	}

	return len(fail) == 0, fail
}

func (f *factory) NewDriver(params map[string]interface{}, hardwareResources interface{}) (hal.Driver, error) {
	if ok, failures := f.ValidateParameters(params); !ok {
		return nil, errors.New(hal.ToErrorString(failures))
	}

	debug := getBoolAny(params, false, paramDebug, "debug")
	if debug {
		if b, err := json.MarshalIndent(params, "", "  "); err == nil {
			log.Printf("ps2pad NewDriver params:\n%s", string(b))
		}
	}

	interval := time.Duration(getIntAny(params, defaultPollInterval, paramPollInterval, "interval", "poll_interval")) * time.Millisecond

	var t Transport
	switch r := hardwareResources.(type) {
	case Transport:
		t = r
	case nil:
		cfg := SPIConfig{
			Port:      getStringAny(params, "", paramSPIPort),
			SelectPin: getStringAny(params, DefaultSelectPin, paramSelectPin),
			Frequency: physic.Frequency(getIntAny(params, int(DefaultFrequency/physic.Hertz), paramFrequency, "freq", "frequency_hz")) * physic.Hertz,
		}
		st, err := OpenSPI(cfg)
		if err != nil {
			return nil, err
		}
		if debug {
			log.Printf("ps2pad opened spi port=%q select=%s freq=%s", cfg.Port, cfg.SelectPin, cfg.Frequency)
		}
		t = st
	default:
		return nil, fmt.Errorf("ps2pad: expected ps2pad.Transport or nil, got %T", hardwareResources)
	}

	d := newDriver(t, interval, debug, f.meta)

	log.Printf("ps2pad init transport=%v poll_interval=%s debug=%v", t, interval, debug)

	return d, nil
}

// ---------- tolerant parameter helpers ----------

// getAny fetches parameter values with multiple key aliases (case-insensitive).
func getAny(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return unwrapValue(v), true
		}
		for kk, vv := range m {
			if strings.EqualFold(kk, k) {
				return unwrapValue(vv), true
			}
		}
	}
	return nil, false
}

func getStringAny(m map[string]interface{}, def string, keys ...string) string {
	v, ok := getAny(m, keys...)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return strings.TrimSpace(s)
}

func getIntAny(m map[string]interface{}, def int, keys ...string) int {
	v, ok := getAny(m, keys...)
	if !ok {
		return def
	}
	i, ok := convertToInt(v)
	if !ok {
		return def
	}
	return i
}

// getBoolAny returns a bool if present, otherwise def.
func getBoolAny(m map[string]interface{}, def bool, keys ...string) bool {
	v, ok := getAny(m, keys...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "1" || s == "true" || s == "yes" || s == "on"
	default:
		return def
	}
}

// unwrapValue allows older parameter payload shapes like {value: X}.
func unwrapValue(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		for _, k := range []string{"value", "Value"} {
			if vv, ok := m[k]; ok {
				return vv
			}
		}
	}
	return v
}

// convertToInt accepts JSON numbers and numeric strings on top of what
// hal.ConvertToInt handles.
func convertToInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	case float64:
		return int(t), t == math.Trunc(t)
	default:
		return hal.ConvertToInt(v)
	}
}
