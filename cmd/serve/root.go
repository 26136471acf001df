package serve

import (
	cmdUtil "github.com/ValentinKolb/stry/cmd/util"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the stry server",
		Long:    `Start the stry compression server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is STRY_<flag> (e.g. STRY_MAX_PAYLOAD=8192)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:7070", cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:7070 for tcp, /tmp/stry.sock for unix)"))

	key = "max-payload"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxPayload, cmdUtil.WrapString("The largest compress payload accepted in bytes, larger requests are answered with MessageTooLarge. Must be at least 4096 and less than 32768"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address of the prometheus metrics endpoint (e.g. localhost:9090). Empty disables it"))

	key = "report-interval"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Interval in seconds in which a usage report is logged. 0 disables it"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 keeps the system default)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 keeps the system default)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time (in seconds, -1 keeps the system default, only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint: viper.GetString("endpoint"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}
	serveCmdConfig.MaxPayload = viper.GetInt("max-payload")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.ReportIntervalSecond = viper.GetInt("report-interval")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return serveCmdConfig.Validate()
}

// run starts the stry server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {

	// Parse the transport
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv, err := server.NewRPCServer(*serveCmdConfig, t)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		sig, ok := <-signals
		if !ok {
			return
		}
		server.Logger.Infof("Received %s, shutting down", sig)
		if err := serv.Close(); err != nil {
			server.Logger.Errorf("Shutdown failed: %v", err)
		}
	}()

	return serv.Serve()
}
