package webservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
)

const (
	HTTP_SERVER_READ_TIMEOUT  = 5 * time.Second
	HTTP_SERVER_WRITE_TIMEOUT = 30 * time.Second
	HTTP_SERVER_IDLE_TIMEOUT  = 120 * time.Second
)

var ErrBindPort = errors.New("webserver: unable to bind to web service port")

type Config struct {
	Port int `yaml:"port" json:"port" mapstructure:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		Port: 8080,
	}
}

// WebServer publishes the bundle directory over plain HTTP so tenants
// can download their credential bundles. Archives are assembled before
// the server starts, requests never trigger issuance.
type WebServer struct {
	logger     *logging.Logger
	fs         afero.Fs
	baseDir    string
	config     *Config
	closeChan  chan bool
	httpServer *http.Server
	router     *mux.Router
}

func NewWebServer(
	logger *logging.Logger,
	fs afero.Fs,
	baseDir string,
	config *Config) *WebServer {

	if config == nil {
		config = DefaultConfig()
	}
	server := &WebServer{
		logger:    logger,
		fs:        fs,
		baseDir:   baseDir,
		config:    config,
		closeChan: make(chan bool, 1),
		router:    mux.NewRouter().StrictSlash(true),
	}
	httpFs := afero.NewHttpFs(fs)
	server.router.PathPrefix("/").Handler(
		http.FileServer(httpFs.Dir(baseDir)))
	server.httpServer = &http.Server{
		Handler:      server.router,
		IdleTimeout:  HTTP_SERVER_IDLE_TIMEOUT,
		ReadTimeout:  HTTP_SERVER_READ_TIMEOUT,
		WriteTimeout: HTTP_SERVER_WRITE_TIMEOUT,
	}
	return server
}

// Returns the request handler, exposed for tests
func (server *WebServer) Handler() http.Handler {
	return server.router
}

// Run serves the bundle directory until Shutdown is called
func (server *WebServer) Run() {
	go server.startHttp()
	<-server.closeChan
}

func (server *WebServer) startHttp() {

	sWebPort := fmt.Sprintf(":%d", server.config.Port)
	server.logger.Infof(
		"webserver: serving %s on plain-text HTTP port %s",
		server.baseDir, sWebPort)

	ipv4Listener, err := net.Listen("tcp4", sWebPort)
	if err != nil {
		server.logger.Fatalf("%s: %d", ErrBindPort, server.config.Port)
	}

	err = server.httpServer.Serve(ipv4Listener)
	if err != nil && err != http.ErrServerClosed {
		server.logger.Fatalf("webserver: unable to start web services: %s", err.Error())
	}
}

func (server *WebServer) Shutdown() {
	server.logger.Info("webserver: shutting down")
	server.closeChan <- true
	close(server.closeChan)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	server.httpServer.Shutdown(ctx)
	cancel()
}
