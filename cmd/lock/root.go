package lock

import (
	"context"
	"encoding/hex"
	"fmt"
	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/ValentinKolb/dGrid/lib/lockmgr"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"time"
)

var (
	rpcLockMgr   lockmgr.ILockManager
	rpcTransport transport.IRPCClientTransport
	acquireWait  uint64

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rpcTransport != nil {
				rpcTransport.Shutdown()
			}
		},
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key] [ownerID]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the key and owner ID. The owner ID is the hex string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Locks live in their own map (different from the map command default)
	LockCommands.PersistentFlags().String("map", "__locks", util.WrapString("Name of the distributed map holding the locks"))

	// Add flags specific to acquire
	acquireCmd.Flags().Uint64Var(&acquireWait, "wait", 0, "Seconds to wait for the lock if it is held (0 tries once)")
}

// setupLockClient initializes the lock manager client
func setupLockClient(cmd *cobra.Command, _ []string) error {
	config, s, t, err := util.SetupClient(cmd)
	if err != nil {
		return err
	}
	rpcTransport = t

	// Create the map holding the locks
	locks, err := client.NewRPCMap(
		viper.GetString("map"),
		*config,
		t,
		s,
	)
	if err != nil {
		return err
	}

	rpcLockMgr = lockmgr.NewLockManager(locks)
	return nil
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	key := args[0]

	// Attempt to acquire the lock
	var acquired bool
	var ownerID []byte
	var err error
	if acquireWait > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(acquireWait)*time.Second)
		defer cancel()
		ownerID, err = rpcLockMgr.Lock(ctx, key)
		acquired = err == nil
		if err == context.DeadlineExceeded {
			err = nil
		}
	} else {
		acquired, ownerID, err = rpcLockMgr.AcquireLock(cmd.Context(), key)
	}

	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	// Convert owner ID to hex string for display
	ownerIDHex := hex.EncodeToString(ownerID)
	fmt.Printf("acquired=true, ownerId=%s\n", ownerIDHex)

	return nil
}

// runRelease handles the release lock command
func runRelease(cmd *cobra.Command, args []string) error {
	key := args[0]
	ownerIDHex := args[1]

	// Convert hex string owner ID back to bytes
	ownerID, err := hex.DecodeString(ownerIDHex)
	if err != nil {
		return fmt.Errorf("invalid owner ID format: %v", err)
	}

	// Attempt to release the lock
	released, err := rpcLockMgr.ReleaseLock(cmd.Context(), key, ownerID)

	if err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}

	fmt.Printf("released=%v\n", released)

	return nil
}
