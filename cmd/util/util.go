package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/client"
	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/serializer"
	"github.com/ValentinKolb/dIndex/rpc/transport"
	"github.com/ValentinKolb/dIndex/rpc/transport/http"
	"github.com/ValentinKolb/dIndex/rpc/transport/tcp"
	"github.com/ValentinKolb/dIndex/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds the connection flags shared by all client commands
func SetupRPCClientFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.Int("timeout", 10, WrapString("Timeout of a single request attempt in seconds (0 = none)"))
	flags.String("transport-endpoints", "localhost:8080", WrapString("The address of the dIndex server (host:port, socket path or http url). Multiple endpoints can be given as a comma-separated list, requests are spread round robin"))
	flags.Int("transport-conn-per-endpoint", 1, WrapString("Simultaneous connections per endpoint (tcp and unix)"))
	flags.Int("transport-retries", 3, WrapString("How many attempts a request gets before it fails"))
	flags.Int("stream-chunk-size", common.DefaultStreamChunkSize, WrapString("How many keys a streamed query requests per round trip"))
	flags.String("log-level", "warn", WrapString("Level of the client logs written to stderr (debug, info, warn, error)"))

	// socket options
	flags.Int("transport-write-buffer", 0, WrapString("The socket write buffer size in KB (0 = os default, ignored for http)"))
	flags.Int("transport-read-buffer", 0, WrapString("The socket read buffer size in KB (0 = os default, ignored for http)"))
	flags.Bool("transport-tcp-nodelay", true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))
	flags.Int("transport-tcp-keepalive", 0, WrapString("The keepalive interval in seconds (0 = disabled, only for tcp)"))
	flags.Int("transport-tcp-linger", 0, WrapString("The linger time in seconds (0 = os default, only for tcp)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dindex")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		TimeoutSecond:   viper.GetInt("timeout"),
		StreamChunkSize: viper.GetInt("stream-chunk-size"),
		Transport: common.ClientTransportConfig{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              splitList(viper.GetString("transport-endpoints")),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	return conf
}

// serializers, clientTransports and serverTransports map the values of the
// --serializer and --transport flags to their constructors
var (
	serializers = map[string]func() serializer.IRPCSerializer{
		"json":   serializer.NewJSONSerializer,
		"gob":    serializer.NewGOBSerializer,
		"binary": serializer.NewBinarySerializer,
	}
	clientTransports = map[string]func() transport.IRPCClientTransport{
		"http": http.NewHttpClientTransport,
		"tcp":  tcp.NewTCPClientTransport,
		"unix": unix.NewUnixClientTransport,
	}
	serverTransports = map[string]func() transport.IRPCServerTransport{
		"http": http.NewHttpServerTransport,
		"tcp":  tcp.NewTCPServerTransport,
		"unix": unix.NewUnixServerTransport,
	}
)

// lookup returns the constructor registered under the value of the given flag
func lookup[T any](flag string, registry map[string]func() T) (T, error) {
	name := strings.ToLower(viper.GetString(flag))
	if newFn, ok := registry[name]; ok {
		return newFn(), nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", flag, name)
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	return lookup("serializer", serializers)
}

// GetTransport creates the client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	return lookup("transport", clientTransports)
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	return lookup("transport", serverTransports)
}

// NewClient creates the rpc store client from the configured flags and environment
func NewClient() (store.IStore, error) {
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return nil, err
	}

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	return client.NewRPCStore(GetShardID(), *GetClientConfig(), t, s)
}

// splitList splits a comma-separated list and drops empty entries
func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
