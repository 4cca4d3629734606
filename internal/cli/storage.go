package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wwwzy/PantryAgent/internal/inventory"
	"github.com/wwwzy/PantryAgent/internal/storage"
)

// storageCmd represents the storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "查看库存数据库与审计记录",
	Long:  `查看库存各状态的物品数量、动作审计的处理结果分布，以及清理旧的审计记录。`,
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示库存与审计概况",
	RunE:  runInfo,
}

// pruneAuditCmd represents the prune-audit command
var pruneAuditCmd = &cobra.Command{
	Use:   "prune-audit",
	Short: "清理动作审计记录",
	Long:  `按保留条数（--keep）或保留天数（--days）清理动作审计记录，库存数据不受影响。`,
	RunE:  runPruneAudit,
}

var (
	keepAuditCount int
	keepAuditDays  int
)

func init() {
	pruneAuditCmd.Flags().IntVar(&keepAuditCount, "keep", 0, "保留最近的 N 条记录")
	pruneAuditCmd.Flags().IntVar(&keepAuditDays, "days", 0, "保留最近 N 天的记录")

	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(infoCmd)
	storageCmd.AddCommand(pruneAuditCmd)
}

func openStorage(ctx context.Context) (*storage.Storage, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}
	db, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runPruneAudit(cmd *cobra.Command, _ []string) error {
	if keepAuditCount <= 0 && keepAuditDays <= 0 {
		return errors.New("must specify either --keep or --days")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	var deleted int64

	if keepAuditCount > 0 {
		n, err := db.DeleteAuditRecordsKeepLatest(ctx, keepAuditCount)
		if err != nil {
			return fmt.Errorf("prune by count: %w", err)
		}
		fmt.Fprintf(out, "保留最近 %d 条，删除 %d 条\n", keepAuditCount, n)
		deleted += n
	}

	if keepAuditDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -keepAuditDays)
		n, err := db.DeleteAuditRecordsBefore(ctx, before)
		if err != nil {
			return fmt.Errorf("prune by days: %w", err)
		}
		fmt.Fprintf(out, "删除 %s 之前的记录 %d 条\n", before.Format(time.RFC3339), n)
		deleted += n
	}

	remaining, err := db.CountAuditRecords(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "共删除 %d 条审计记录，剩余 %d 条\n", deleted, remaining)
	return nil
}

func runInfo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), st)
	return nil
}

func printStats(out io.Writer, st storage.Stats) {
	if st.Path == "" {
		fmt.Fprintln(out, "数据库: (内存)")
	} else {
		fmt.Fprintf(out, "数据库: %s (%.2f MB)\n", st.Path, float64(st.SizeBytes)/1024/1024)
	}

	fmt.Fprintf(out, "\n库存物品: %d\n", st.InventoryTotal())
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STATUS\tITEMS")
	for _, s := range inventory.Statuses {
		fmt.Fprintf(w, "%s\t%d\n", s, st.InventoryByStatus[string(s)])
	}
	w.Flush()

	fmt.Fprintf(out, "\n动作审计: %d\n", st.AuditTotal())
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RESULT\tCOUNT")
	for _, s := range []string{storage.AuditStatusSuccess, storage.AuditStatusFailed, storage.AuditStatusRejected, storage.AuditStatusRunning} {
		fmt.Fprintf(w, "%s\t%d\n", s, st.AuditByStatus[s])
	}
	w.Flush()

	if len(st.FailuresByKind) == 0 {
		return
	}
	kinds := make([]string, 0, len(st.FailuresByKind))
	for k := range st.FailuresByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintln(out, "\n失败原因:")
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tCOUNT")
	for _, k := range kinds {
		fmt.Fprintf(w, "%s\t%d\n", k, st.FailuresByKind[k])
	}
	w.Flush()
}
