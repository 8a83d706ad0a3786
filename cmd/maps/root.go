package maps

import (
	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcMap       gridmap.IMap
	rpcTransport transport.IRPCClientTransport
	clientConfig *common.ClientConfig

	// MapCommands represents the map command group
	MapCommands = &cobra.Command{
		Use:               "map",
		Short:             "Perform distributed map operations",
		PersistentPreRunE: setupMapClient,
		PersistentPostRun: shutdownMapClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the map command
	util.SetupRPCClientFlags(MapCommands)

	// Name of the map to operate on
	MapCommands.PersistentFlags().String("map", "default", util.WrapString("Name of the distributed map"))

	// Add subcommands
	MapCommands.AddCommand(putCmd)
	MapCommands.AddCommand(putIfAbsentCmd)
	MapCommands.AddCommand(getCmd)
	MapCommands.AddCommand(removeCmd)
	MapCommands.AddCommand(hasCmd)
	MapCommands.AddCommand(listenCmd)
	MapCommands.AddCommand(benchCmd)
}

// setupMapClient initializes the RPC map client
func setupMapClient(cmd *cobra.Command, _ []string) error {
	config, s, t, err := util.SetupClient(cmd)
	if err != nil {
		return err
	}
	clientConfig = config
	rpcTransport = t

	// Create the map client
	rpcMap, err = client.NewRPCMap(
		viper.GetString("map"),
		*config,
		t,
		s,
	)

	return err
}

// shutdownMapClient closes all connections of the client
func shutdownMapClient(_ *cobra.Command, _ []string) {
	if rpcTransport != nil {
		rpcTransport.Shutdown()
	}
}
