package serialdome

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucket = "domelink"

// TelemetryConfig configures the optional MQTT status publisher.
type TelemetryConfig struct {
	Enabled  bool
	Broker   string
	Username string
	Password string
	Topic    string
}

// Config holds everything the driver persists between sessions.
type Config struct {
	Port string // serial port identifier, e.g. /dev/ttyUSB0 or COM3
	Baud int

	HomePosition float64 // degrees
	ParkPosition float64 // degrees

	OperationTimeout int // seconds; 0 means the default

	Trace bool // log wire traffic at debug level

	Telemetry TelemetryConfig
}

var defaultConfig = Config{
	Port:         "/dev/ttyUSB0",
	Baud:         9600,
	HomePosition: 0,
	ParkPosition: 180,
	Telemetry: TelemetryConfig{
		Broker: "tcp://localhost:1883",
		Topic:  "domelink/status",
	},
}

type store struct {
	db  *bolt.DB
	key string
}

// NewStore creates a config store for one device number and seeds the
// defaults on first run. Each device keeps its own config blob.
func NewStore(db *bolt.DB, number int) (*store, error) {
	st := store{db: db, key: fmt.Sprintf("serialdome_config_%d", number)}

	if err := st.setDefaults(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *store) setDefaults() error {
	if _, err := s.GetConfig(); err != nil {
		log.Infof("Setting default serial dome config")
		return s.SetConfig(defaultConfig)
	}
	return nil
}

// SetConfig saves the dome configuration as a json string in the database.
func (s *store) SetConfig(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("serial port cannot be empty")
	}
	if cfg.Baud <= 0 {
		return fmt.Errorf("invalid baud rate: %d", cfg.Baud)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}

		value, _ := json.Marshal(cfg)
		return b.Put([]byte(s.key), value)
	})
}

// GetConfig retrieves the dome configuration from the database.
func (s *store) GetConfig() (Config, error) {
	var cfg Config

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}

		value := b.Get([]byte(s.key))
		if value == nil {
			return fmt.Errorf("key config not found")
		}

		return json.Unmarshal(value, &cfg)
	})

	return cfg, err
}
