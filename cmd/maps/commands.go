package maps

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if old, replaced, err := rpcMap.Put(cmd.Context(), key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, replaced=%t, old=%s\n", key, replaced, old)
			}
			return nil
		},
	}
	putIfAbsentCmd = &cobra.Command{
		Use:   "put-if-absent [key] [value]",
		Short: "Sets the value for a key if the key has no value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if actual, stored, err := rpcMap.PutIfAbsent(cmd.Context(), key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, stored=%t, value=%s\n", key, stored, actual)
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := rpcMap.Get(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [key]",
		Short: "Removes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if old, removed, err := rpcMap.Remove(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, removed=%t, old=%s\n", key, removed, old)
			}
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := rpcMap.ContainsKey(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Prints the entry events of the map until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			id, err := rpcMap.AddEntryListener(ctx, func(e gridmap.EntryEvent) {
				fmt.Printf("%s key=%s, value=%s, old=%s\n", e.Type, e.Key, e.Value, e.OldValue)
			})
			if err != nil {
				return err
			}
			fmt.Printf("listening on map %s (listener %d), press Ctrl+C to stop\n", rpcMap.Name(), id)

			<-ctx.Done()
			_, err = rpcMap.RemoveEntryListener(context.Background(), id)
			return err
		},
	}
)
