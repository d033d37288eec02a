package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/client"
	"github.com/BuzzLyutic/taskboard/internal/model"
)

const usage = `usage: taskctl [flags] <command> [args]

commands:
  dashboard              stats and the five most recent tasks
  stats                  completion statistics
  list                   tasks, see -filter and -sort
  pending | completed    tasks by completion state
  add <title>            create a task, see -priority and -due
  toggle <id>            flip completion of a task
  delete <id>            delete a task
`

func main() {
	addr := flag.String("addr", envOr("TASKCTL_ADDR", "http://localhost:8080"), "API base URL")
	email := flag.String("email", os.Getenv("TASKCTL_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("TASKCTL_PASSWORD"), "account password")
	filter := flag.String("filter", string(client.FilterAll), "all|today|week|high|medium|low")
	order := flag.String("sort", string(client.SortNewest), "newest|oldest|priority")
	priority := flag.String("priority", "", "priority for add")
	dueDate := flag.String("due", "", "due date for add, YYYY-MM-DD")
	timeout := flag.Duration("timeout", 15*time.Second, "overall timeout")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*addr, client.NewSession(), nil)
	if _, err := c.Login(ctx, model.LoginRequest{Email: *email, Password: *password}); err != nil {
		logger.Fatal("Login failed", zap.Error(err))
	}

	syncer := client.NewSyncer(c)
	if err := syncer.Refresh(ctx); err != nil {
		logger.Fatal("Failed to load tasks", zap.Error(err))
	}

	out := os.Stdout
	args := flag.Args()
	switch args[0] {
	case "dashboard":
		printStats(out, syncer.Stats())
		fmt.Fprintln(out)
		printTasks(out, client.Recent(syncer.Tasks(), 5))
	case "stats":
		printStats(out, syncer.Stats())
	case "list":
		tasks := client.FilterTasks(syncer.Tasks(), client.Filter(strings.ToLower(*filter)), time.Now())
		printTasks(out, client.SortTasks(tasks, client.SortOrder(strings.ToLower(*order))))
	case "pending":
		printTasks(out, client.Pending(client.SortTasks(syncer.Tasks(), client.SortNewest)))
	case "completed":
		printTasks(out, client.Completed(client.SortTasks(syncer.Tasks(), client.SortNewest)))
	case "add":
		in := model.TaskInput{Title: strings.Join(args[1:], " "), Priority: *priority}
		if *dueDate != "" {
			d, err := time.Parse("2006-01-02", *dueDate)
			if err != nil {
				logger.Fatal("Invalid due date", zap.String("due", *dueDate), zap.Error(err))
			}
			dd := model.NewDueDate(d)
			in.DueDate = &dd
		}
		task, err := syncer.Create(ctx, in)
		if err != nil {
			logger.Fatal("Create failed", zap.Error(err))
		}
		fmt.Fprintf(out, "created %s\n", task.ID)
	case "toggle":
		task, err := syncer.Toggle(ctx, arg(args, logger))
		if err != nil {
			logger.Fatal("Toggle failed", zap.Error(err))
		}
		fmt.Fprintf(out, "%s completed=%t\n", task.ID, bool(task.Completed))
	case "delete":
		if err := syncer.Delete(ctx, arg(args, logger)); err != nil {
			logger.Fatal("Delete failed", zap.Error(err))
		}
		fmt.Fprintln(out, "deleted")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func arg(args []string, logger *zap.Logger) string {
	if len(args) < 2 {
		logger.Fatal("Missing task id", zap.String("command", args[0]))
	}
	return args[1]
}

func printStats(w io.Writer, st client.Stats) {
	fmt.Fprintf(w, "total %d  completed %d  pending %d  (%d%%)\n", st.Total, st.Completed, st.Pending, st.Percentage)
	fmt.Fprintf(w, "high %d  medium %d  low %d\n",
		st.ByPriority[model.PriorityHigh], st.ByPriority[model.PriorityMedium], st.ByPriority[model.PriorityLow])
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tDUE\tDONE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		done := " "
		if model.IsCompleted(t.Completed) {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, due, done)
	}
	tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
