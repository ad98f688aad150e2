package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/orderclient"
)

var (
	serverURL string
	adminKey  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orderctl",
	Short: "Manage property photo orders",
}

// newSession fetches the catalog, warms the order cache for one property
// and opens an edit session on it.
func newSession(ctx context.Context, property string) (*orderclient.Session, error) {
	client := orderclient.NewClient(serverURL, orderclient.WithAdminKey(adminKey))

	key := models.PropertyKey(property)
	properties, err := client.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	var target *models.Property
	for _, p := range properties {
		if p.Key() == key {
			target = p
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("unknown property: %s", property)
	}

	if _, err := client.FetchOrder(ctx, key); err != nil {
		return nil, fmt.Errorf("fetching order: %w", err)
	}

	return orderclient.NewSession(client, target), nil
}

func printItems(items []models.ImageItem) {
	for i, item := range items {
		lock := " "
		if item.Locked {
			lock = "*"
		}
		fmt.Printf("%3d %s pos=%-6g %s\n", i+1, lock, item.Pos, item.Src)
	}
}

// parseIndex converts a 1-based display index to a slice index
func parseIndex(arg string, count int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("index out of range: %s", arg)
	}
	return n - 1, nil
}

var propertiesCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"properties"},
	Short:   "List catalog properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := orderclient.NewClient(serverURL)
		properties, err := client.Properties(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range properties {
			fmt.Printf("%-30s %s (%d images)\n", p.Key(), p.Name, len(p.Images))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <property>",
	Short: "Show a property's photo order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printItems(session.Items())
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <property> <from> <to>",
	Short: "Drag a photo to a new slot and save",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		items := session.Items()
		from, err := parseIndex(args[1], len(items))
		if err != nil {
			return err
		}
		to, err := parseIndex(args[2], len(items))
		if err != nil {
			return err
		}
		if err := session.Move(from, to); err != nil {
			return err
		}
		return saveAndReport(cmd.Context(), session)
	},
}

var posCmd = &cobra.Command{
	Use:   "pos <property> <index> <position>",
	Short: "Assign an explicit position number and save",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		items := session.Items()
		index, err := parseIndex(args[1], len(items))
		if err != nil {
			return err
		}
		pos, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid position: %s", args[2])
		}
		if err := session.SetPosition(index, pos); err != nil {
			return err
		}
		return saveAndReport(cmd.Context(), session)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <property> <index>",
	Short: "Toggle a photo's position lock and save",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		items := session.Items()
		index, err := parseIndex(args[1], len(items))
		if err != nil {
			return err
		}
		if err := session.ToggleLock(index); err != nil {
			return err
		}
		return saveAndReport(cmd.Context(), session)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <property> <index>",
	Short: "Move a photo to the trash and save the remaining order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		items := session.Items()
		index, err := parseIndex(args[1], len(items))
		if err != nil {
			return err
		}
		if err := session.Remove(cmd.Context(), index); err != nil {
			return err
		}
		reportStatus(session)
		printItems(session.Items())
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <property> <file>...",
	Short: "Upload photos and append them to the order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var files []orderclient.UploadFile
		var handles []*os.File
		defer func() {
			for _, f := range handles {
				f.Close()
			}
		}()
		for _, path := range args[1:] {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			handles = append(handles, f)
			files = append(files, orderclient.UploadFile{Name: filepath.Base(path), Reader: f})
		}

		if err := session.Upload(cmd.Context(), files); err != nil {
			return err
		}
		reportStatus(session)
		printItems(session.Items())
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <property>",
	Short: "Re-save the current merged order (folds new catalog images in)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return saveAndReport(cmd.Context(), session)
	},
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow order changes as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := orderclient.NewClient(serverURL, orderclient.WithPollInterval(watchInterval))
		client.Subscribe(func() {
			fmt.Printf("[%s] order cache updated\n", time.Now().Format("15:04:05"))
		})

		listener := orderclient.NewListener(client)
		go listener.Run(cmd.Context())

		client.Run(cmd.Context())
		return nil
	},
}

func saveAndReport(ctx context.Context, session *orderclient.Session) error {
	if err := session.Save(ctx); err != nil {
		return err
	}
	reportStatus(session)
	printItems(session.Items())
	return nil
}

func reportStatus(session *orderclient.Session) {
	switch session.Status() {
	case orderclient.StatusSaved:
		fmt.Println("Saved.")
	case orderclient.StatusConflict:
		fmt.Println("Conflict: someone else updated this order. Re-run to retry, or use show to inspect.")
	default:
		fmt.Printf("Status: %s\n", session.Status())
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", orderclient.DefaultPollInterval, "Poll interval")

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ORDER_SERVER_URL", "http://localhost:5000"), "Order server base URL")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", os.Getenv("ORDER_ADMIN_KEY"), "Admin key for mutating commands")

	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(posCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(watchCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
