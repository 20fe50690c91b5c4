package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tbxark/travelpilot/agent"
	"github.com/tbxark/travelpilot/config"
	"github.com/tbxark/travelpilot/logger"
	"github.com/tbxark/travelpilot/types"
)

var (
	configPath   string
	conversation string
)

var rootCmd = &cobra.Command{
	Use:   "travelpilot",
	Short: "Plan a trip by chatting",
	Long: `travelpilot collects the details of a trip over a conversation, sends a
generation request to the Itinerary Service once they are complete and
follows its progress.`,
	Example: `  # Start chatting with the defaults (config.yaml if present)
  $ travelpilot

  # Resume a saved conversation against another service
  $ TRAVELPILOT_SERVICE_BASE_URL=http://localhost:8000/api/ travelpilot -c tokyo

  # List saved plans
  $ travelpilot plans list`,
	SilenceUsage: true,
	RunE:         runChat,
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVarP(&conversation, "conversation", "c", "default", "conversation key used for checkpoints")
	rootCmd.AddCommand(plansCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	closer, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}
	cobra.OnFinalize(func() { _ = closer.Close() })
	return cfg, nil
}

const helpText = `Commands:
  /slots           show the trip details collected so far
  /revise <text>   correct the trip details in free text
  /clear <field>   forget one detail, e.g. /clear budget
  /save [title]    save the current itinerary
  /reset           start over
  /quit            leave (the conversation is checkpointed)`

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	ctx = agent.WithStateKey(ctx, conversation)
	ctx = logger.WithContext(ctx, logger.WithConversation(logger.FromContext(ctx), conversation))

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	session := a.session

	if ok, err := session.Restore(ctx); err != nil {
		logger.FromContext(ctx).Warn("Failed to restore conversation", "error", err)
	} else if ok {
		fmt.Println("(resumed conversation " + conversation + ")")
	}

	updates, err := session.Watch(ctx)
	if err != nil {
		return err
	}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printUpdates(updates)
	}()

	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent.NewAgent("TravelPilot", "Collects trip details and plans an itinerary", session),
	})
	fmt.Println(helpText)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			quit, err := runCommand(ctx, a, input)
			if err != nil {
				fmt.Println("error:", err)
			}
			if quit {
				break
			}
			continue
		}
		iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				fmt.Println("error:", event.Err)
			}
		}
	}

	if err := session.Checkpoint(ctx); err != nil {
		logger.FromContext(ctx).Warn("Failed to checkpoint conversation", "error", err)
	}
	stop()
	<-printed
	return scanner.Err()
}

func runCommand(ctx context.Context, a *app, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	s := a.session
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(helpText)
	case "/slots":
		printSlots(s.CurrentSlots())
	case "/revise":
		ops, err := s.Revise(ctx, arg)
		if err != nil {
			return false, err
		}
		fmt.Printf("(applied %d change(s))\n", len(ops))
		printSlots(s.CurrentSlots())
	case "/clear":
		if err := s.ClearSlot(ctx, arg); err != nil {
			return false, err
		}
		printSlots(s.CurrentSlots())
	case "/save":
		plan, err := s.SavePlan(ctx, arg)
		if err != nil {
			return false, err
		}
		fmt.Printf("(saved plan %s: %s)\n", plan.ID, plan.Title)
	case "/reset":
		return false, s.Reset(ctx)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}

// printUpdates prints every message and progress event not printed yet.
func printUpdates(updates <-chan *agent.Snapshot) {
	var messages, events int
	for snap := range updates {
		if len(snap.Messages) < messages || len(snap.Progress) < events {
			// reset
			messages, events = 0, 0
		}
		for _, m := range snap.Messages[messages:] {
			switch m.Role {
			case types.RoleUser:
			case types.RoleSystem:
				fmt.Printf("\n» %s\n", m.Content)
			default:
				fmt.Printf("\nTravelPilot: %s\n", m.Content)
			}
		}
		for _, ev := range snap.Progress[events:] {
			fmt.Printf("  [%s] %s\n", ev.Type, ev.Message)
		}
		messages, events = len(snap.Messages), len(snap.Progress)
	}
}

func printSlots(s types.TravelSlots) {
	rows := types.SlotRows(s)
	if len(rows) == 0 {
		fmt.Println("(no trip details yet)")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}
	_ = table.Render()
}
