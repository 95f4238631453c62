package serialdome

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"domelink/pkg/alpaca"
)

const (
	// TODO: domeUID should be unique for each device.
	domeUID       = "5f2c9a31-8a47-4de2-901b-3b1f5a6c2d84"
	deviceName    = "Serial Dome"
	deviceType    = "Dome"
	driverName    = "Serial Dome Driver"
	driverVersion = "1.0"
)

type connState int

const (
	connStateDisconnected connState = iota
	connStateConnecting
	connStateConnected
)

// Driver exposes a serial dome controller as an alpaca.Dome.
type Driver struct {
	number int
	store  *store
	tmpl   *template.Template
	state  connState
	logger log.FieldLogger

	// dialer overrides the serial port dialer, for running against the
	// simulator or an in-memory pipe.
	dialer Dialer

	// The dome controller and the telemetry publisher exist only while
	// the driver is connected.
	dome      *Dome
	telemetry *TelemetryPublisher
}

func NewDriver(number int, db *bolt.DB, tmpl *template.Template, logger log.FieldLogger) (*Driver, error) {
	store, err := NewStore(db, number)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %v", err)
	}

	return &Driver{
		number: number,
		store:  store,
		tmpl:   tmpl,
		state:  connStateDisconnected,
		logger: logger,
	}, nil
}

// SetDialer replaces the serial port dialer, e.g. with the simulator.
// Must be called before Connect.
func (d *Driver) SetDialer(dialer Dialer) {
	d.dialer = dialer
}

func (d *Driver) Close() {
	d.logger.Info("Closing serial dome driver")

	if d.state == connStateDisconnected {
		return
	}
	if err := d.Disconnect(); err != nil {
		d.logger.Errorf("failed to disconnect: %v", err)
	}
}

func (d *Driver) Connect() error {
	if d.state != connStateDisconnected {
		return fmt.Errorf("driver is already connected")
	}

	config, err := d.store.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get dome config: %v", err)
	}

	d.state = connStateConnecting

	if config.Trace {
		// Wire traffic is logged at debug level.
		log.SetLevel(log.DebugLevel)
	}

	opts := []Option{}
	if config.OperationTimeout > 0 {
		opts = append(opts, WithTimeout(time.Duration(config.OperationTimeout)*time.Second))
	}

	if config.Telemetry.Enabled {
		pub, err := NewTelemetryPublisher(config.Telemetry, d.logger)
		if err != nil {
			d.state = connStateDisconnected
			return fmt.Errorf("failed to create telemetry publisher: %v", err)
		}
		d.telemetry = pub
		opts = append(opts, WithStatusCallback(pub.Publish))
	}

	dialer := d.dialer
	if dialer == nil {
		dialer = SerialDialer{Port: config.Port, Baud: config.Baud}
	}
	dome := NewDome(dialer, d.logger, opts...)

	if err := dome.Connect(); err != nil {
		d.closeTelemetry()
		d.state = connStateDisconnected
		return err
	}

	dome.SetReferencePositions(config.HomePosition, config.ParkPosition)

	d.dome = dome
	d.state = connStateConnected

	d.logger.Infof("Connected to dome controller on %s", config.Port)
	return nil
}

func (d *Driver) Disconnect() error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}

	err := d.dome.Disconnect()
	d.closeTelemetry()
	d.dome = nil
	d.state = connStateDisconnected

	d.logger.Info("Disconnected from dome controller")
	return err
}

func (d *Driver) closeTelemetry() {
	if d.telemetry != nil {
		d.telemetry.Close()
		d.telemetry = nil
	}
}

func (d *Driver) Connecting() bool {
	return d.state == connStateConnecting
}

func (d *Driver) Connected() bool {
	return d.state == connStateConnected
}

func (d *Driver) GetState() []alpaca.StateProperty {
	props := []alpaca.StateProperty{
		{
			Name:  "TimeStamp",
			Value: time.Now().Format(time.RFC3339),
		},
	}

	if d.state == connStateConnected {
		props = append(props, d.Status().ToProperties()...)
	}

	return props
}

func (d *Driver) Status() alpaca.DomeStatus {
	if d.state != connStateConnected {
		return alpaca.DomeStatus{Shutter: alpaca.ShutterClosed}
	}

	st := d.dome.Status()
	return alpaca.DomeStatus{
		Azimuth:  st.Azimuth,
		AtHome:   st.AtHome,
		AtPark:   st.AtPark,
		Slewing:  st.Slewing,
		Slaved:   st.Slaved,
		Altitude: 0.0,
		Shutter:  shutterStatus(st.Shutter),
	}
}

func shutterStatus(s ShutterState) alpaca.ShutterStatus {
	switch s {
	case ShutterOpen:
		return alpaca.ShutterOpen
	case ShutterOpening:
		return alpaca.ShutterOpening
	case ShutterClosing:
		return alpaca.ShutterClosing
	case ShutterError:
		return alpaca.ShutterError
	}
	return alpaca.ShutterClosed
}

func (d *Driver) Capabilities() alpaca.DomeCapabilities {
	return alpaca.DomeCapabilities{
		CanFindHome:    true,
		CanPark:        true,
		CanSetAltitude: false,
		CanSetAzimuth:  true,
		CanSetPark:     true,
		CanSetShutter:  true,
		CanSlave:       true,
		CanSyncAzimuth: true,
	}
}

func (d *Driver) DeviceInfo() alpaca.DeviceInfo {
	return alpaca.DeviceInfo{
		Name:        deviceName,
		Description: "Line-protocol serial dome controller",
		Type:        deviceType,
		Number:      d.number,
		UniqueID:    domeUID,
	}
}

func (d *Driver) DriverInfo() alpaca.DriverInfo {
	return alpaca.DriverInfo{
		Name:             driverName,
		Version:          driverVersion,
		InterfaceVersion: 1,
	}
}

// translate maps core errors to the alpaca sentinels the handlers know.
func translate(err error) error {
	switch err {
	case nil:
		return nil
	case ErrNotConnected:
		return alpaca.ErrNotConnected
	case ErrOutOfRange:
		return fmt.Errorf("%w: azimuth outside [0, 360]", alpaca.ErrInvalidValue)
	case ErrSlaved:
		return fmt.Errorf("%w: cannot home", alpaca.ErrInvalidWhileSlaved)
	case ErrNotImplemented:
		return alpaca.ErrPropertyNotImplemented
	}
	return err
}

func (d *Driver) SlewToAzimuth(azimuth float64) error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	return translate(d.dome.SlewToAzimuth(azimuth))
}

func (d *Driver) SyncToAzimuth(azimuth float64) error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	return translate(d.dome.SyncToAzimuth(azimuth))
}

func (d *Driver) SlewToAltitude(altitude float64) error {
	return alpaca.ErrPropertyNotImplemented
}

func (d *Driver) SyncToAltitude(altitude float64) error {
	return alpaca.ErrPropertyNotImplemented
}

func (d *Driver) AbortSlew() error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	return translate(d.dome.AbortSlew())
}

func (d *Driver) FindHome() error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	return translate(d.dome.FindHome())
}

func (d *Driver) Park() error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	return translate(d.dome.Park())
}

// SetPark stores the current azimuth as the park position, both on the
// live status record and in the persisted config.
func (d *Driver) SetPark() error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}

	if err := d.dome.SetPark(); err != nil {
		return translate(err)
	}

	cfg, err := d.store.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get dome config: %v", err)
	}
	cfg.ParkPosition = d.dome.Status().ParkPosition
	return d.store.SetConfig(cfg)
}

func (d *Driver) SetSlaved(slaved bool) error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}
	d.logger.Infof("Dome slaved: %v", slaved)
	return translate(d.dome.SetSlaved(slaved))
}

func (d *Driver) SetShutter(command alpaca.ShutterCommand) error {
	if d.state != connStateConnected {
		return alpaca.ErrNotConnected
	}

	switch command {
	case alpaca.ShutterCommandOpen:
		return translate(d.dome.OpenShutter())
	case alpaca.ShutterCommandClose:
		return translate(d.dome.CloseShutter())
	}
	return fmt.Errorf("invalid shutter command: %v", command)
}

func (d *Driver) HandleSetup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := d.store.GetConfig()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d.renderSetupForm(w, cfg, false, "")

	case http.MethodPost:
		cfg, err := parseDomeSetupForm(r)
		if err != nil {
			d.renderSetupForm(w, cfg, false, err.Error())
			return
		}

		d.logger.Infof("Setting dome config: %+v", cfg)
		if err := d.store.SetConfig(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		d.renderSetupForm(w, cfg, true, "")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Driver) renderSetupForm(w http.ResponseWriter, cfg Config, success bool, err string) {
	data := struct {
		Config
		Success bool
		Error   string
	}{cfg, success, err}

	if err := d.tmpl.ExecuteTemplate(w, "dome_setup.html", data); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		d.logger.Errorf("Error rendering template: %v", err)
	}
}

func parseDomeSetupForm(r *http.Request) (Config, error) {
	if err := r.ParseForm(); err != nil {
		return Config{}, fmt.Errorf("error parsing form: %v", err)
	}

	cfg := defaultConfig
	cfg.Port = r.FormValue("serial-port")

	cfg.Baud, _ = strconv.Atoi(r.FormValue("baud-rate"))
	cfg.HomePosition, _ = strconv.ParseFloat(r.FormValue("home-position"), 64)
	cfg.ParkPosition, _ = strconv.ParseFloat(r.FormValue("park-position"), 64)
	cfg.OperationTimeout, _ = strconv.Atoi(r.FormValue("operation-timeout"))
	cfg.Trace = r.FormValue("trace") == "true"

	cfg.Telemetry.Enabled = r.FormValue("mqtt-enabled") == "true"
	cfg.Telemetry.Broker = r.FormValue("mqtt-broker")
	cfg.Telemetry.Username = r.FormValue("mqtt-username")
	cfg.Telemetry.Password = r.FormValue("mqtt-password")
	cfg.Telemetry.Topic = r.FormValue("mqtt-topic")

	return cfg, nil
}
