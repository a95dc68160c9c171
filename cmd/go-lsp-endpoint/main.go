package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
	"github.com/CWBudde/go-lsp-endpoint/internal/lsp"
	"github.com/CWBudde/go-lsp-endpoint/internal/server"
)

const (
	version = "0.1.0"
)

var (
	tcpMode        bool
	wsMode         bool
	port           int
	logLevel       string
	logFile        string
	debugMode      bool
	maxOutbound    int
	offsetEncoding string
	shutdownGrace  int
)

func init() {
	// Command-line flags
	flag.BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
	flag.BoolVar(&wsMode, "ws", false, "Run server in WebSocket mode")
	flag.IntVar(&port, "port", 8765, "Port to listen on (used with -tcp or -ws)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.BoolVar(&debugMode, "debug", false, "Enable deadlock detection on the endpoint's locks")
	flag.IntVar(&maxOutbound, "max-outbound", endpoint.DefaultMaxOutboundCalls, "Maximum in-flight server-to-client calls")
	flag.StringVar(&offsetEncoding, "offset-encoding", "utf-16", "Offset encoding before negotiation: utf-8, utf-16, utf-32")
	flag.IntVar(&shutdownGrace, "shutdown-grace", 60, "Clean-shutdown drain window in seconds")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "go-lsp-endpoint version %s\n\n", version)
	fmt.Fprintf(os.Stderr, "Usage: go-lsp-endpoint [options]\n\n")
	fmt.Fprintf(os.Stderr, "Language Server Protocol endpoint (dispatch core, no language attached)\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	// Print version if requested
	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("go-lsp-endpoint version %s\n", version)
		os.Exit(0)
	}

	setupLogging()
	deadlock.Opts.Disable = !debugMode

	config := server.DefaultConfig()
	config.MaxOutboundCalls = maxOutbound
	config.OffsetEncoding = endpoint.OffsetEncoding(offsetEncoding)
	config.ShutdownGrace = time.Duration(shutdownGrace) * time.Second

	srv := server.New(server.NoEngine{}, config)

	transp, err := openTransport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open transport: %v\n", err)
		os.Exit(1)
	}

	ep := endpoint.New(transp, endpoint.Options{
		MaxOutboundCalls: config.MaxOutboundCalls,
		OffsetEncoding:   config.OffsetEncoding,
	})
	lsp.Register(ep, srv)

	serveErr := ep.Serve()
	srv.Close()
	_ = transp.Close()

	switch {
	case serveErr != nil:
		fmt.Fprintf(os.Stderr, "transport error: %v\n", serveErr)
		os.Exit(1)
	case !srv.IsShuttingDown():
		// exit arrived without a prior shutdown request
		os.Exit(1)
	}
}

// openTransport selects the transport per flags: stdio by default, one TCP
// or WebSocket client otherwise.
func openTransport() (jsonrpc.Transport, error) {
	switch {
	case tcpMode:
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return nil, err
		}
		defer listener.Close()
		fmt.Fprintf(os.Stderr, "listening on %s...\n", listener.Addr())
		conn, err := listener.Accept()
		if err != nil {
			return nil, err
		}
		return jsonrpc.NewConnTransport(conn), nil
	case wsMode:
		return acceptWebSocket()
	default:
		return jsonrpc.NewStreamTransport(os.Stdin, os.Stdout, nil), nil
	}
}

// acceptWebSocket waits for a single websocket client and hands its
// connection to the endpoint.
func acceptWebSocket() (jsonrpc.Transport, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "listening on ws://%s...\n", listener.Addr())

	upgrader := websocket.Upgrader{}
	accepted := make(chan *websocket.Conn, 1)
	httpServer := &http.Server{
		Handler: http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			conn, err := upgrader.Upgrade(writer, request, nil)
			if err != nil {
				return
			}
			accepted <- conn
		}),
	}
	go func() {
		_ = httpServer.Serve(listener)
	}()

	conn := <-accepted
	return jsonrpc.NewWebSocketTransport(conn), nil
}

// setupLogging configures the logging system based on command-line flags.
func setupLogging() {
	verbosity := 0
	switch logLevel {
	case "debug":
		verbosity = 3
	case "info":
		verbosity = 2
	case "warn":
		verbosity = 1
	case "error":
		verbosity = 0
	default:
		fmt.Fprintf(os.Stderr, "unknown log level %q, using error\n", logLevel)
	}

	if logFile != "" {
		path := logFile
		commonlog.Configure(verbosity, &path)
	} else {
		commonlog.Configure(verbosity, nil)
	}
}
