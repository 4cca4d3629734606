package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wwwzy/PantryAgent/internal/inventory"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "查看或修改库存",
	Long:  `直接读写与对话共用的库存表（sqlite），不经过推理服务。`,
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部库存",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(context.Background(), cfg, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		items := rt.inventory.Snapshot()
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "库存为空。")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Item\tStatus")
		fmt.Fprintln(w, "----\t------")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\n", it.Name, it.Status)
		}
		return w.Flush()
	},
}

var inventoryGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "查询某个物品的库存状态",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(context.Background(), cfg, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		name := inventory.Normalize(strings.Join(args, " "))
		status, ok := rt.inventory.Get(name)
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "No record of '%s' in the pantry.\n", name)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, status)
		return nil
	},
}

var inventorySetCmd = &cobra.Command{
	Use:   "set <name> <LOW|MEDIUM|HIGH>",
	Short: "设置某个物品的库存状态",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := inventory.ParseStatus(strings.ToUpper(args[len(args)-1]))
		if err != nil {
			return err
		}
		name := strings.Join(args[:len(args)-1], " ")

		rt, err := openRuntime(context.Background(), cfg, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.inventory.Set(context.Background(), name, status)
		if err != nil {
			return err
		}
		key := inventory.Normalize(name)
		if res.Created {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: (new) -> %s\n", key, status)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", key, res.Previous, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inventoryCmd)
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryGetCmd)
	inventoryCmd.AddCommand(inventorySetCmd)
}

