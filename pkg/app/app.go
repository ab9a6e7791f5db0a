package app

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
	"github.com/tjake/cert-bundle-maker/pkg/provision"
	"github.com/tjake/cert-bundle-maker/pkg/webservice"
)

type App struct {
	DebugFlag  bool               `yaml:"debug" json:"debug" mapstructure:"debug"`
	ConfigDir  string             `yaml:"config-dir" json:"config_dir" mapstructure:"config-dir"`
	LogDir     string             `yaml:"log-dir" json:"log_dir" mapstructure:"log-dir"`
	Provision  *provision.Config  `yaml:"provision" json:"provision" mapstructure:"provision"`
	WebService *webservice.Config `yaml:"webservice" json:"webservice" mapstructure:"webservice"`
	Fs         afero.Fs           `yaml:"-" json:"-" mapstructure:"-"`
	Logger     *logging.Logger    `yaml:"-" json:"-" mapstructure:"-"`
}

func NewApp() *App {
	return &App{
		Fs:         afero.NewOsFs(),
		Provision:  provision.DefaultConfig(),
		WebService: webservice.DefaultConfig(),
	}
}

type AppInitParams struct {
	BaseDir   string
	ConfigDir string
	Debug     bool
	LogDir    string
}

// Init loads the configuration file and initializes the logger. CLI
// options override settings read from the configuration file.
func (app *App) Init(initParams *AppInitParams) (*App, error) {
	if initParams != nil {
		app.DebugFlag = initParams.Debug
		app.ConfigDir = initParams.ConfigDir
		app.LogDir = initParams.LogDir
	}
	if err := app.initConfig(); err != nil {
		return nil, err
	}
	if initParams != nil {
		if initParams.Debug {
			app.DebugFlag = true
		}
		if initParams.BaseDir != "" {
			app.Provision.BaseDir = initParams.BaseDir
		}
	}
	if app.Provision.BaseDir == "" {
		app.Provision.BaseDir = provision.DefaultConfig().BaseDir
	}
	if app.LogDir == "" {
		app.LogDir = filepath.Join(app.Provision.BaseDir, "log")
	}
	app.initLogger()
	return app, nil
}

// Read and parse the configuration file. A missing file is fine, the
// defaults apply.
func (app *App) initConfig() error {

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if app.ConfigDir != "" {
		viper.AddConfigPath(app.ConfigDir)
	}
	viper.AddConfigPath(fmt.Sprintf("$HOME/.%s/", Name))
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return viper.Unmarshal(app)
}

// Creates a new file and STDOUT logger. If the debug flag is set, the
// logger is initialized in debug mode, executing all logger.Debug*
// statements.
func (app *App) initLogger() {
	logFile := app.InitLogFile()
	level := slog.LevelInfo
	if app.DebugFlag {
		level = slog.LevelDebug
	}
	app.Logger = logging.NewLogger(level, logFile)
	if app.DebugFlag {
		app.Logger.Debug("Starting logger in debug mode...")
		for k, v := range viper.AllSettings() {
			app.Logger.Debugf("%s: %+v", k, v)
		}
	}
	if viper.ConfigFileUsed() != "" {
		app.Logger.Infof("Using configuration file: %s", viper.ConfigFileUsed())
	}
}

// Opens the application log file, creating the log directory on
// first use
func (app *App) InitLogFile() afero.File {
	logFile := fmt.Sprintf("%s/%s.log", app.LogDir, Name)
	if err := app.Fs.MkdirAll(app.LogDir, os.ModePerm); err != nil {
		log.Fatal(err)
	}
	f, err := app.Fs.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, os.ModePerm)
	if err != nil {
		log.Fatal(err)
	}
	return f
}

func (app *App) NewDriver() (*provision.Driver, error) {
	return provision.NewDriver(&provision.Params{
		Logger: app.Logger,
		Fs:     app.Fs,
		Config: app.Provision,
	})
}

func (app *App) NewWebServer() *webservice.WebServer {
	return webservice.NewWebServer(
		app.Logger, app.Fs, app.Provision.BaseDir, app.WebService)
}
