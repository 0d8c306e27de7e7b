package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/config"
	"github.com/veganchecker/vcadmin/internal/notify"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notify", Short: "Send push notifications to app users"}
	cmd.AddCommand(newNotifySendCmd(), newNotifyBroadcastCmd())
	return cmd
}

// messageFlags holds the notification content flags.
type messageFlags struct {
	title string
	body  string
	kind  string
	data  []string
}

func (f *messageFlags) add(cmd *cobra.Command) {
	names := make([]string, 0, len(notify.Types()))
	for _, t := range notify.Types() {
		names = append(names, string(t))
	}
	cmd.Flags().StringVar(&f.title, "title", "", "notification title")
	cmd.Flags().StringVar(&f.body, "body", "", "notification body")
	cmd.Flags().StringVar(&f.kind, "type", string(notify.TypeAdminMessage),
		"notification type ("+strings.Join(names, ", ")+")")
	cmd.Flags().StringArrayVar(&f.data, "data", nil, "extra data key=value; JSON values are decoded (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")
}

func (f *messageFlags) message() (notify.Message, error) {
	t, err := notify.ParseType(f.kind)
	if err != nil {
		return notify.Message{}, err
	}
	data, err := parseData(f.data)
	if err != nil {
		return notify.Message{}, err
	}
	return notify.Message{Title: f.title, Body: f.body, Type: t, Data: data}, nil
}

// parseData turns key=value pairs into a data map.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil //nolint:nilnil // No data.
	}
	data := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data %q: expected key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		data[key] = v
	}
	return data, nil
}

// openNotifier builds the notification client from configuration.
func openNotifier(cfg *config.Config) (*notify.Client, error) {
	return notify.NewClient(
		cfg.NotificationsBaseURL(),
		cfg.Backend.AnonKey,
		cfg.Notifications.APIKey,
		notify.WithBatchSize(cfg.Notifications.BatchSize),
		notify.WithConcurrency(cfg.Notifications.Concurrency),
		notify.WithLogger(logger),
	)
}

func newNotifySendCmd() *cobra.Command {
	var flags messageFlags

	cmd := &cobra.Command{
		Use:     "send <user-id>",
		Short:   "Notify one user",
		Example: `  vcadmin notify send 8d3c... --title "Welcome" --body "Thanks for joining"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.message()
			if err != nil {
				return err
			}
			client, err := openNotifier(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			res, err := client.SendToUser(cmd.Context(), strings.TrimSpace(args[0]), msg)
			if err != nil {
				return err
			}
			return writeNotifyResult(cmd, res)
		},
	}

	flags.add(cmd)
	return cmd
}

func newNotifyBroadcastCmd() *cobra.Command {
	var (
		flags messageFlags
		file  string
	)

	cmd := &cobra.Command{
		Use:   "broadcast [user-id...]",
		Short: "Notify many users in batches",
		Long: `Sends one notification to every listed user. User ids come from the arguments
and/or --file (one id per line, "-" for stdin). Recipients are deduplicated and
sent in batches; failed batches are reported after every batch was attempted.`,
		Example: `  vcadmin notify broadcast --file users.txt --type maintenance \
    --title "Maintenance" --body "Back at 10:00 UTC"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := flags.message()
			if err != nil {
				return err
			}

			ids := append([]string(nil), args...)
			if file != "" {
				fromFile, rerr := readUserIDs(cmd.InOrStdin(), file)
				if rerr != nil {
					return rerr
				}
				ids = append(ids, fromFile...)
			}

			client, err := openNotifier(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			res, err := client.Broadcast(cmd.Context(), ids, msg)
			if res != nil {
				if werr := writeNotifyResult(cmd, res); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}

	flags.add(cmd)
	cmd.Flags().StringVar(&file, "file", "", `file with one user id per line ("-" for stdin)`)
	return cmd
}

// readUserIDs reads non-empty, non-comment lines from path.
func readUserIDs(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening recipients file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading recipients: %w", err)
	}
	return ids, nil
}

func writeNotifyResult(cmd *cobra.Command, res *notify.Result) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if format != config.FormatTable {
		return writeStructured(cmd.OutOrStdout(), format, res)
	}
	cmd.Printf("Sent %d of %d notifications", res.Sent, res.Total)
	if res.Message != "" {
		cmd.Printf(" (%s)", res.Message)
	}
	cmd.Println()
	return nil
}
